//go:build linux || darwin || freebsd || netbsd || openbsd

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package netfd

import (
	"errors"
	"fmt"
	"io"
	"net"

	"golang.org/x/sys/unix"
)

// Listener is a non-blocking, listening TCP socket.
type Listener struct {
	addr net.Addr
	fd   int
}

// Conn is a non-blocking, connected TCP socket.
type Conn struct {
	remote net.Addr
	fd     int
}

// Listen creates a TCP socket, bound to address (host:port), with
// SO_REUSEADDR set.
func Listen(address string) (*Listener, error) {
	tcp, err := net.ResolveTCPAddr("tcp", address)
	if err != nil {
		return nil, err
	}
	family, sa := sockaddr(tcp)

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, fmt.Errorf("netfd: socket: %w", err)
	}
	if err := setup(fd); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netfd: setsockopt: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netfd: bind: %w", err)
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("netfd: listen: %w", err)
	}

	l := &Listener{fd: fd, addr: tcp}
	if local, err := unix.Getsockname(fd); err == nil {
		if a := tcpAddr(local); a != nil {
			l.addr = a
		}
	}
	return l, nil
}

// Accept accepts a pending connection, failing with EAGAIN if there is none.
func (l *Listener) Accept() (*Conn, error) {
	if l.fd < 0 {
		return nil, ErrClosed
	}
	fd, sa, err := unix.Accept(l.fd)
	if err != nil {
		return nil, err
	}
	if err := setup(fd); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	c := &Conn{fd: fd}
	if a := tcpAddr(sa); a != nil {
		c.remote = a
	}
	return c, nil
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() net.Addr { return l.addr }

// Fd returns the socket's file descriptor.
func (l *Listener) Fd() uintptr { return uintptr(l.fd) }

// Close closes the socket.
func (l *Listener) Close() error {
	if l.fd < 0 {
		return ErrClosed
	}
	err := unix.Close(l.fd)
	l.fd = -1
	return err
}

// Read reads up to len(p) bytes, returning [io.EOF] once the peer has
// closed the connection.
func (c *Conn) Read(p []byte) (int, error) {
	if c.fd < 0 {
		return 0, ErrClosed
	}
	n, err := unix.Read(c.fd, p)
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) != 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write performs a single write(2), which may be partial.
func (c *Conn) Write(p []byte) (int, error) {
	if c.fd < 0 {
		return 0, ErrClosed
	}
	n, err := unix.Write(c.fd, p)
	if err != nil {
		if errors.Is(err, unix.EPIPE) {
			return 0, io.ErrClosedPipe
		}
		return 0, err
	}
	return n, nil
}

// RemoteAddr returns the peer's address, if known.
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// Fd returns the socket's file descriptor.
func (c *Conn) Fd() uintptr { return uintptr(c.fd) }

// Close closes the socket.
func (c *Conn) Close() error {
	if c.fd < 0 {
		return ErrClosed
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}

func setup(fd int) error {
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("netfd: set non-blocking: %w", err)
	}
	return nil
}

func sockaddr(a *net.TCPAddr) (int, unix.Sockaddr) {
	if a.IP == nil || a.IP.To4() != nil {
		sa := &unix.SockaddrInet4{Port: a.Port}
		if a.IP != nil {
			copy(sa.Addr[:], a.IP.To4())
		}
		return unix.AF_INET, sa
	}
	sa := &unix.SockaddrInet6{Port: a.Port}
	copy(sa.Addr[:], a.IP.To16())
	return unix.AF_INET6, sa
}

func tcpAddr(sa unix.Sockaddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port}
	}
	return nil
}
