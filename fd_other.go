//go:build !(linux || darwin || freebsd || netbsd || openbsd)

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

// validFd only rejects the sentinel returned by a closed [os.File].
func validFd(fd uintptr) bool {
	return fd != ^uintptr(0)
}

func isWouldBlock(error) bool { return false }

func readFd(uintptr, []byte) (int, error) { return 0, ErrPollUnsupported }

func writeFd(uintptr, []byte) (int, error) { return 0, ErrPollUnsupported }
