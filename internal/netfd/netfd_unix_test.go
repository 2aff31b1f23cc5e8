//go:build linux || darwin || freebsd || netbsd || openbsd

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package netfd_test

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/joeycumines/go-coop"
	"github.com/joeycumines/go-coop/internal/netfd"
)

func TestListen_echo(t *testing.T) {
	ln, err := netfd.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	defer ln.Close()

	rt, err := coop.New(coop.WithTraceWriter(nil))
	if err != nil {
		t.Fatalf("coop.New() failed: %v", err)
	}
	defer rt.Close()

	var remote net.Addr
	rt.Spawn(func(t *coop.Task, _ ...any) any {
		conn, err := coop.Accept(t, ln, ln.Accept)
		if err != nil {
			return err
		}
		defer conn.Close()
		remote = conn.RemoteAddr()
		for {
			data, err := coop.Read(t, conn, 64)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if _, err := coop.Write(t, conn, data); err != nil {
				return err
			}
		}
	})

	client := make(chan error, 1)
	go func() {
		client <- func() error {
			c, err := net.Dial("tcp", ln.Addr().String())
			if err != nil {
				return err
			}
			defer c.Close()
			_ = c.SetDeadline(time.Now().Add(5 * time.Second))
			if _, err := c.Write([]byte("ping")); err != nil {
				return err
			}
			buf := make([]byte, 4)
			if _, err := io.ReadFull(c, buf); err != nil {
				return err
			}
			if string(buf) != "ping" {
				return errors.New("unexpected echo: " + string(buf))
			}
			return nil
		}()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if err := <-client; err != nil {
		t.Fatalf("client failed: %v", err)
	}
	if a, ok := remote.(*net.TCPAddr); !ok || !a.IP.IsLoopback() {
		t.Fatalf("unexpected remote address: %v", remote)
	}
}

func TestListener_acceptWouldBlock(t *testing.T) {
	ln, err := netfd.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}
	if a, ok := ln.Addr().(*net.TCPAddr); !ok || a.Port == 0 {
		t.Fatalf("expected a bound port, got %v", ln.Addr())
	}
	if _, err := ln.Accept(); !errors.Is(err, unix.EAGAIN) {
		t.Fatalf("expected EAGAIN, got %v", err)
	}
	if err := ln.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if err := ln.Close(); !errors.Is(err, netfd.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := ln.Accept(); !errors.Is(err, netfd.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestListen_invalidAddress(t *testing.T) {
	if _, err := netfd.Listen("not an address"); err == nil {
		t.Fatal("expected error")
	}
}
