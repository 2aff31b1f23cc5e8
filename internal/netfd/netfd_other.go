//go:build !(linux || darwin || freebsd || netbsd || openbsd)

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package netfd

import (
	"net"
)

// Listener is unavailable on this platform.
type Listener struct{}

// Conn is unavailable on this platform.
type Conn struct{}

// Listen returns ErrUnsupported.
func Listen(string) (*Listener, error) { return nil, ErrUnsupported }

func (*Listener) Accept() (*Conn, error) { return nil, ErrUnsupported }
func (*Listener) Addr() net.Addr { return nil }
func (*Listener) Fd() uintptr { return ^uintptr(0) }
func (*Listener) Close() error { return ErrUnsupported }
func (*Conn) Read([]byte) (int, error) { return 0, ErrUnsupported }
func (*Conn) Write([]byte) (int, error) { return 0, ErrUnsupported }
func (*Conn) RemoteAddr() net.Addr { return nil }
func (*Conn) Fd() uintptr { return ^uintptr(0) }
func (*Conn) Close() error { return ErrUnsupported }
