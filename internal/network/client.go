package network

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/amalg/go-tetris/internal/game"
)

// Client watches a remote game and yields its snapshots.
type Client struct {
	conn      net.Conn
	sessionID string
	host      string
	config    game.Config
	snapCh    chan game.Snapshot
	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to a spectator server and completes the hello handshake.
func Dial(addr, name string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	c := &Client{
		conn:   conn,
		snapCh: make(chan game.Snapshot, 10),
		done:   make(chan struct{}),
	}

	if err := Encode(conn, MsgHello, HelloMsg{Name: name}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send hello: %w", err)
	}

	env, err := Decode(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	if env.Type == MsgError {
		var errMsg ErrorMsg
		DecodePayload(env, &errMsg)
		conn.Close()
		return nil, fmt.Errorf("server error: %s", errMsg.Message)
	}

	if env.Type != MsgWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected welcome, got %s", env.Type)
	}

	var welcome WelcomeMsg
	if err := DecodePayload(env, &welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode welcome: %w", err)
	}

	c.sessionID = welcome.SessionID
	c.host = welcome.Host
	c.config = welcome.Config

	go c.receiveLoop()

	return c, nil
}

// SessionID returns the ID the server assigned to this watcher.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Host returns the name of the player being watched.
func (c *Client) Host() string {
	return c.host
}

// Config returns the engine configuration of the watched game.
func (c *Client) Config() game.Config {
	return c.config
}

// Snapshots returns a channel of snapshots. Only the latest ones are kept
// when the reader falls behind. It is closed when the connection ends.
func (c *Client) Snapshots() <-chan game.Snapshot {
	return c.snapCh
}

// Close disconnects from the server.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) receiveLoop() {
	defer close(c.snapCh)

	for {
		select {
		case <-c.done:
			return
		default:
		}

		env, err := Decode(c.conn)
		if err != nil {
			return
		}

		if env.Type != MsgSnapshot {
			continue
		}
		var msg SnapshotMsg
		if err := DecodePayload(env, &msg); err != nil {
			continue
		}
		select {
		case c.snapCh <- msg.Snapshot:
		default:
			// Drop the oldest snapshot; the latest one matters most.
			select {
			case <-c.snapCh:
			default:
			}
			c.snapCh <- msg.Snapshot
		}
	}
}
