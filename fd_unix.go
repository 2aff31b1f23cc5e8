//go:build linux || darwin || freebsd || netbsd || openbsd

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"errors"
	"io"
	"math"

	"golang.org/x/sys/unix"
)

// validFd reports whether fd refers to an open file descriptor.
func validFd(fd uintptr) bool {
	if fd > math.MaxInt32 {
		return false
	}
	_, err := unix.FcntlInt(fd, unix.F_GETFL, 0)
	return err == nil
}

func isWouldBlock(err error) bool {
	return err != nil && (errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK))
}

func readFd(fd uintptr, buf []byte) (int, error) {
	n, err := unix.Read(int(fd), buf)
	if err == nil && n == 0 && len(buf) != 0 {
		return 0, io.EOF
	}
	return n, err
}

func writeFd(fd uintptr, buf []byte) (int, error) {
	return unix.Write(int(fd), buf)
}
