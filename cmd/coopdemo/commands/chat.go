// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package commands

import (
	"fmt"
	"time"

	catrate "github.com/joeycumines/go-catrate"
	"github.com/spf13/cobra"

	"github.com/joeycumines/go-coop"
	"github.com/joeycumines/go-coop/internal/netfd"
)

// defaultChatRates apply when none are configured.
var defaultChatRates = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
}

type chatMessage struct {
	from *netfd.Conn
	data []byte
	fd   uintptr
}

// chatRoom is the state shared by the chat server's tasks. Being confined
// to a single runtime, it needs no locking.
type chatRoom struct {
	rt      *coop.Runtime
	limiter *catrate.Limiter
	msgs    *coop.Channel[chatMessage]
	clients map[*netfd.Conn]struct{}
	// order is the join order, for deterministic broadcast
	order []*netfd.Conn
}

func newChatLimiter(rates map[time.Duration]int) (limiter *catrate.Limiter, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid chat rate limits: %v", r)
		}
	}()
	return catrate.NewLimiter(rates), nil
}

func (r *chatRoom) join(c *netfd.Conn) {
	r.clients[c] = struct{}{}
	r.order = append(r.order, c)
}

func (r *chatRoom) leave(c *netfd.Conn) {
	delete(r.clients, c)
	for i, v := range r.order {
		if v == c {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// client reads messages from one connection, forwarding them to the
// broadcaster, subject to the per-client rate limits.
func (r *chatRoom) client(t *coop.Task, args ...any) any {
	conn := args[0].(*netfd.Conn)
	addr := conn.RemoteAddr()
	r.join(conn)
	r.rt.Tracef("a new client has connected [%s]", addr)
	r.rt.Tracef("total connections: %d", len(r.clients))

	defer func() {
		r.leave(conn)
		_ = conn.Close()
		r.rt.Tracef("the client has disconnected [%s]", addr)
		r.rt.Tracef("total connections: %d", len(r.clients))
	}()

	for {
		data, err := coop.Read(t, conn, 1024)
		if isDisconnect(data, err) {
			return nil
		}
		if err != nil {
			return err
		}
		if next, ok := r.limiter.Allow(conn); !ok {
			r.rt.Logger().Notice().
				Str("client", addr.String()).
				Time("next", next).
				Log("chat message rate limited")
			msg := fmt.Sprintf("server: slow down, try again in %s\n", time.Until(next).Round(time.Millisecond))
			if _, err := coop.Write(t, conn, []byte(msg)); err != nil {
				return err
			}
			continue
		}
		if err := r.msgs.Send(chatMessage{from: conn, data: data, fd: conn.Fd()}); err != nil {
			return err
		}
	}
}

// broadcast writes each message to every connected client.
func (r *chatRoom) broadcast(t *coop.Task, _ ...any) any {
	for msg := range r.msgs.All() {
		for _, c := range append([]*netfd.Conn(nil), r.order...) {
			if _, ok := r.clients[c]; !ok {
				continue
			}
			name := "me"
			if c != msg.from {
				name = fmt.Sprintf("%02d", msg.fd)
			}
			if _, err := coop.Write(t, c, fmt.Appendf(nil, "%s: %s", name, msg.data)); err != nil {
				r.rt.Logger().Info().Err(err).Log("chat broadcast write failed")
			}
		}
	}
	return nil
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "TCP chat server, broadcasting over a channel",
	Long: `Listen on --addr, broadcasting every line a client sends to all
connected clients. Client reader tasks pass messages to a single
broadcaster task over a channel. Each client is rate limited, per the
chat.rate_limits config (default: 5 per second, 60 per minute).

Example:
  coopdemo chat --addr 127.0.0.1:8019
  nc 127.0.0.1 8019`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rates, err := globalConfig.Chat.rates()
		if err != nil {
			return err
		}
		if rates == nil {
			rates = defaultChatRates
		}
		limiter, err := newChatLimiter(rates)
		if err != nil {
			return err
		}

		ln, err := listen(cmd)
		if err != nil {
			return err
		}
		defer ln.Close()

		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}

		room := &chatRoom{
			rt:      rt,
			limiter: limiter,
			msgs:    coop.NewChannel[chatMessage](),
			clients: make(map[*netfd.Conn]struct{}),
		}

		rt.Tracef("listening to %s...", ln.Addr())

		rt.Spawn(acceptLoop(rt, ln, room.client))
		rt.Spawn(room.broadcast)

		return run(cmd, rt)
	},
}

func init() {
	addServerFlags(chatCmd)
	rootCmd.AddCommand(chatCmd)
}
