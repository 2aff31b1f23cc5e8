//go:build !(linux || darwin || freebsd || netbsd || openbsd)

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

// NewPoller returns ErrPollUnsupported on platforms without poll(2).
// Runtimes that never subscribe to streams work regardless, and a custom
// Poller may be supplied with WithPoller.
func NewPoller() (Poller, error) {
	return nil, ErrPollUnsupported
}
