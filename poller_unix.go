//go:build linux || darwin || freebsd || netbsd || openbsd

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package coop

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

var errPollerClosed = errors.New("coop: poller closed")

// unixPoller implements Poller using poll(2), which suits the small,
// frequently changing descriptor sets the loop passes it.
type unixPoller struct {
	fds    []unix.PollFd
	mu     sync.RWMutex // guards the wake fds against Close
	wakeR  int
	wakeW  int
	closed bool
}

// NewPoller returns the default Poller for the platform.
func NewPoller() (Poller, error) {
	r, w, err := createWakeFd()
	if err != nil {
		return nil, err
	}
	return &unixPoller{wakeR: r, wakeW: w}, nil
}

func (p *unixPoller) Poll(read, write []uintptr, timeout Duration, block bool) ([]uintptr, []uintptr, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, nil, errPollerClosed
	}

	fds := append(p.fds[:0], unix.PollFd{Fd: int32(p.wakeR), Events: unix.POLLIN})
	for _, fd := range read {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLIN})
	}
	for _, fd := range write {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
	}
	p.fds = fds

	n, err := unix.Poll(fds, pollTimeoutMillis(timeout, block))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	if n == 0 {
		return nil, nil, nil
	}

	if fds[0].Revents != 0 {
		drainWakeFd(p.wakeR)
	}

	const readMask = unix.POLLIN | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
	const writeMask = unix.POLLOUT | unix.POLLHUP | unix.POLLERR | unix.POLLNVAL
	var readyRead, readyWrite []uintptr
	for i, fd := range read {
		if fds[1+i].Revents&readMask != 0 {
			readyRead = append(readyRead, fd)
		}
	}
	for i, fd := range write {
		if fds[1+len(read)+i].Revents&writeMask != 0 {
			readyWrite = append(readyWrite, fd)
		}
	}
	return readyRead, readyWrite, nil
}

func (p *unixPoller) Wake() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errPollerClosed
	}
	return signalWakeFd(p.wakeW)
}

func (p *unixPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return closeWakeFd(p.wakeR, p.wakeW)
}
