// Package server accepts native API controller connections. Only one
// connection is live at a time: a newly accepted client replaces the
// current one, whose read loop is fully torn down before the new
// connection's events are delivered.
package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/voice-satellite/internal/esphome/api"
	"github.com/lexiqai/voice-satellite/internal/observability"
)

var (
	// ErrServerClosed is returned by Start and Send after Close.
	ErrServerClosed = errors.New("server: closed")
	// ErrNotConnected is returned by Send when no controller is connected.
	ErrNotConnected = errors.New("server: no controller connected")
)

const writeTimeout = 10 * time.Second

// EventKind tags an Event.
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	}
	return "unknown"
}

// Event is one entry of the connection-state and inbound-message stream.
type Event struct {
	Kind    EventKind
	ConnID  string
	Message api.Message // set for EventMessage
}

// Server is the single-client native API transport.
type Server struct {
	logger zerolog.Logger
	events chan Event

	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	conn     *conn
	started  bool
}

// New creates a server; call Start to bind.
func New(logger zerolog.Logger) *Server {
	return &Server{
		logger:  logger.With().Str("component", "server").Logger(),
		events:  make(chan Event, 64),
		closing: make(chan struct{}),
	}
}

// Events returns the ordered event stream. It is closed after Close returns.
func (s *Server) Events() <-chan Event {
	return s.events
}

// Start binds addr and begins accepting. A bind error is returned once and
// leaves the server unusable.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closing:
		return ErrServerClosed
	default:
	}
	if s.started {
		return fmt.Errorf("server: already started on %s", s.listener.Addr())
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Error().Err(err).Str("addr", addr).Msg("ServerError: failed to bind")
		observability.RecordError("bind", "server")
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.listener = ln
	s.started = true
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Native API server listening")

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Send writes msg to the current connection. Concurrent callers are
// serialized so frames never interleave on the wire.
func (s *Server) Send(msg api.Message) error {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()

	if c == nil {
		select {
		case <-s.closing:
			return ErrServerClosed
		default:
			return ErrNotConnected
		}
	}
	if err := c.send(msg); err != nil {
		c.logger.Warn().Err(err).Stringer("type", msg.Type()).Msg("Failed to send message")
		c.close()
		return err
	}
	return nil
}

// DisconnectCurrent drops the active connection, if any.
func (s *Server) DisconnectCurrent() {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c != nil {
		c.close()
	}
}

// Close stops accepting, drops any connection and waits for all loops to exit.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)

		s.mu.Lock()
		ln, c := s.listener, s.conn
		s.mu.Unlock()

		if ln != nil {
			err = ln.Close()
		}
		if c != nil {
			c.close()
		}
		s.wg.Wait()
		close(s.events)
	})
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()

	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn().Err(err).Msg("Accept failed")
			time.Sleep(100 * time.Millisecond)
			continue
		}

		c := newConn(nc, s.logger)

		// Replace the current connection: the old read loop must be gone
		// before the new connection produces any event.
		s.mu.Lock()
		old := s.conn
		s.conn = nil
		s.mu.Unlock()
		if old != nil {
			old.logger.Info().Str("remote", c.remote).Msg("New controller connected, closing previous connection")
			old.close()
			<-old.done
		}

		s.mu.Lock()
		select {
		case <-s.closing:
			s.mu.Unlock()
			c.close()
			return
		default:
		}
		s.conn = c
		s.mu.Unlock()

		observability.RecordConnectionOpen()
		c.logger.Info().Str("remote", c.remote).Msg("Controller connected")
		if !s.emit(Event{Kind: EventConnected, ConnID: c.id}) {
			c.close()
			return
		}

		s.wg.Add(1)
		go s.readLoop(c)
	}
}

func (s *Server) readLoop(c *conn) {
	defer s.wg.Done()

	for {
		msg, err := api.ReadFrame(c.reader)
		if errors.Is(err, api.ErrMalformedPayload) {
			c.logger.Warn().Err(err).Msg("Dropping malformed message")
			observability.RecordError("decode", "server")
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				c.logger.Debug().Msg("Connection closed")
			case errors.Is(err, api.ErrEncryptionUnsupported):
				c.logger.Warn().Msg("Controller requested an encrypted session, which is not supported")
			default:
				c.logger.Warn().Err(err).Msg("Read failed")
				observability.RecordError("read", "server")
			}
			break
		}
		observability.RecordMessage("in", msg.Type().String())
		c.logger.Debug().Stringer("type", msg.Type()).Msg("Received message")
		if !s.emit(Event{Kind: EventMessage, ConnID: c.id, Message: msg}) {
			break
		}
	}

	c.close()
	s.mu.Lock()
	if s.conn == c {
		s.conn = nil
	}
	s.mu.Unlock()

	observability.RecordConnectionClosed()
	c.logger.Info().Msg("Controller disconnected")
	s.emit(Event{Kind: EventDisconnected, ConnID: c.id})
	close(c.done)
}

func (s *Server) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.closing:
		return false
	}
}

// conn wraps one accepted socket.
type conn struct {
	id     string
	remote string
	nc     net.Conn
	reader *bufio.Reader
	logger zerolog.Logger

	sendMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}
}

func newConn(nc net.Conn, logger zerolog.Logger) *conn {
	id := observability.NewCorrelationID()
	return &conn{
		id:     id,
		remote: nc.RemoteAddr().String(),
		nc:     nc,
		reader: bufio.NewReader(nc),
		logger: observability.WithCorrelationID(logger, id),
		done:   make(chan struct{}),
	}
}

func (c *conn) send(msg api.Message) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed.Load() {
		return net.ErrClosed
	}
	if err := c.nc.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := api.WriteFrame(c.nc, msg); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type(), err)
	}
	observability.RecordMessage("out", msg.Type().String())
	c.logger.Debug().Stringer("type", msg.Type()).Msg("Sent message")
	return nil
}

// close is idempotent; natural EOF and forced disconnect may both call it.
func (c *conn) close() {
	if c.closed.CompareAndSwap(false, true) {
		c.nc.Close()
	}
}
