// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package netfd implements non-blocking TCP sockets over raw file
// descriptors, for use as coop streams. Unlike the net package, nothing here
// is integrated with the Go runtime's network poller: readiness is the
// caller's concern, and operations that would block fail with EAGAIN.
package netfd

import (
	"errors"
)

// ErrUnsupported is returned on platforms without the required syscalls.
var ErrUnsupported = errors.New("netfd: unsupported platform")

// ErrClosed is returned by operations on a closed socket.
var ErrClosed = errors.New("netfd: use of closed socket")

// listenBacklog is passed to listen(2).
const listenBacklog = 128
