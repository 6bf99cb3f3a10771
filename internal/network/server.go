package network

import (
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amalg/go-tetris/internal/game"
)

const (
	// DefaultPollInterval is how often the server checks the engine for changes.
	DefaultPollInterval = 50 * time.Millisecond
	// DefaultHandshakeTimeout bounds how long a new connection may take to say hello.
	DefaultHandshakeTimeout = 5 * time.Second
	// DefaultWriteTimeout bounds a single snapshot write. A watcher that
	// cannot take a snapshot within it is dropped.
	DefaultWriteTimeout = 2 * time.Second
)

// Server streams snapshots of a local engine to read-only watchers.
// Watchers cannot send input.
type Server struct {
	engine   *game.Engine
	addr     string
	host     string
	listener net.Listener

	poll             time.Duration
	handshakeTimeout time.Duration
	writeTimeout     time.Duration

	conns      map[net.Conn]struct{} // Every accepted connection, registered or not
	watchers   map[string]*watcherConn
	onWatchers func(int)
	mu         sync.RWMutex

	done     chan struct{}
	stopOnce sync.Once
}

// watcherConn represents a connected watcher. Snapshots are queued
// latest-wins and written by the watcher's own goroutine.
type watcherConn struct {
	conn      net.Conn
	sessionID string
	name      string
	send      chan game.Snapshot
	done      chan struct{}
}

// queue replaces any unsent snapshot with snap. It never blocks.
func (w *watcherConn) queue(snap game.Snapshot) {
	select {
	case w.send <- snap:
		return
	default:
	}
	select {
	case <-w.send:
	default:
	}
	select {
	case w.send <- snap:
	default:
	}
}

// NewServer creates a spectator server for engine, advertised under host.
func NewServer(addr, host string, engine *game.Engine) *Server {
	return &Server{
		engine:           engine,
		addr:             addr,
		host:             host,
		poll:             DefaultPollInterval,
		handshakeTimeout: DefaultHandshakeTimeout,
		writeTimeout:     DefaultWriteTimeout,
		conns:            make(map[net.Conn]struct{}),
		watchers:         make(map[string]*watcherConn),
		done:             make(chan struct{}),
	}
}

// SetPollInterval changes how often the engine's change counter is checked.
// It must be called before Start.
func (s *Server) SetPollInterval(d time.Duration) {
	s.poll = d
}

// SetTimeouts changes the handshake and write timeouts. It must be called before Start.
func (s *Server) SetTimeouts(handshake, write time.Duration) {
	s.handshakeTimeout = handshake
	s.writeTimeout = write
}

// OnWatchersChanged sets a callback invoked with the new watcher count
// whenever a watcher joins or leaves.
func (s *Server) OnWatchersChanged(fn func(int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWatchers = fn
}

// Start begins accepting watchers and polling the engine.
func (s *Server) Start() error {
	var err error
	s.listener, err = net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	log.Printf("[SPECTATE] Listening on %s", s.listener.Addr())

	go s.acceptLoop()
	go s.pollLoop()

	return nil
}

// Addr returns the listening address. It is nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Watchers returns the number of connected watchers.
func (s *Server) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers)
}

// Stop shuts down the server and closes every connection, including
// those still in the handshake.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		close(s.done)
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()

		if s.listener != nil {
			s.listener.Close()
		}
	})
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("[SPECTATE] Accept error: %v", err)
				continue
			}
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		go s.handleWatcher(conn)
	}
}

// track records conn so Stop can close it. It reports false once the
// server is stopped.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// pollLoop broadcasts a snapshot whenever the engine's change counter moves.
func (s *Server) pollLoop() {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	last := s.engine.ChangeCount()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if now := s.engine.ChangeCount(); now != last {
				last = now
				s.broadcast(s.engine.Snapshot())
			}
		}
	}
}

func (s *Server) handleWatcher(conn net.Conn) {
	defer s.untrack(conn)

	conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))
	env, err := Decode(conn)
	if err != nil {
		log.Printf("[SPECTATE] Failed to read hello: %v", err)
		return
	}

	if env.Type != MsgHello {
		log.Printf("[SPECTATE] Expected hello, got %s", env.Type)
		conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		Encode(conn, MsgError, ErrorMsg{Message: "expected hello message"})
		return
	}

	var hello HelloMsg
	if err := DecodePayload(env, &hello); err != nil {
		log.Printf("[SPECTATE] Failed to decode hello: %v", err)
		return
	}
	conn.SetReadDeadline(time.Time{})

	w := &watcherConn{
		conn:      conn,
		sessionID: uuid.NewString(),
		name:      hello.Name,
		send:      make(chan game.Snapshot, 1),
		done:      make(chan struct{}),
	}
	defer close(w.done)

	welcome := WelcomeMsg{
		SessionID: w.sessionID,
		Host:      s.host,
		Config:    s.engine.Config(),
	}
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if err := Encode(conn, MsgWelcome, welcome); err != nil {
		log.Printf("[SPECTATE] Failed to send welcome: %v", err)
		return
	}

	w.queue(s.engine.Snapshot())
	go s.writeLoop(w)

	s.addWatcher(w)
	defer s.removeWatcher(w.sessionID)

	log.Printf("[SPECTATE] Watcher joined: %s (%s)", w.name, w.sessionID)

	// Watchers have nothing to say after hello; reading only detects disconnects.
	for {
		env, err := Decode(conn)
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Printf("[SPECTATE] Watcher %s disconnected: %v", w.sessionID, err)
			}
			return
		}
		log.Printf("[SPECTATE] Ignoring %s from watcher %s", env.Type, w.sessionID)
	}
}

// writeLoop sends queued snapshots to one watcher. A failed or timed out
// write closes the connection, which ends the watcher's read loop.
func (s *Server) writeLoop(w *watcherConn) {
	for {
		select {
		case <-w.done:
			return
		case snap := <-w.send:
			w.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := Encode(w.conn, MsgSnapshot, SnapshotMsg{Snapshot: snap}); err != nil {
				log.Printf("[SPECTATE] Dropping watcher %s: %v", w.sessionID, err)
				w.conn.Close()
				return
			}
		}
	}
}

func (s *Server) addWatcher(w *watcherConn) {
	s.mu.Lock()
	s.watchers[w.sessionID] = w
	s.mu.Unlock()
	s.notifyWatchers()
}

func (s *Server) removeWatcher(sessionID string) {
	s.mu.Lock()
	delete(s.watchers, sessionID)
	s.mu.Unlock()
	s.notifyWatchers()
}

func (s *Server) notifyWatchers() {
	s.mu.RLock()
	fn, n := s.onWatchers, len(s.watchers)
	s.mu.RUnlock()

	if fn != nil {
		fn(n)
	}
}

func (s *Server) broadcast(snap game.Snapshot) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.watchers {
		w.queue(snap)
	}
}
