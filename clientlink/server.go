// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package clientlink

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tochemey/gobam/actor"
	"github.com/tochemey/gobam/internal/compression"
	"github.com/tochemey/gobam/internal/xsync"
	"github.com/tochemey/gobam/log"
)

const (
	// AddressHeader carries the address allocated to the client in the upgrade response.
	AddressHeader = "X-Actor-Address"
	// DefaultPath is the path the Server accepts websocket upgrades on.
	DefaultPath = "/ws"
	// DefaultMaxFrameSize bounds the size of an inbound frame.
	DefaultMaxFrameSize = 1 << 20
	// DefaultWriteTimeout bounds the write of one outbound frame.
	DefaultWriteTimeout = 10 * time.Second
)

var (
	// ErrServerStarted is returned when Start is called twice.
	ErrServerStarted = errors.New("server already started")
	// ErrServerNotStarted is returned when Stop is called on a server that is not running.
	ErrServerNotStarted = errors.New("server not started")
)

// ServerOption configures a Server.
type ServerOption interface {
	// Apply sets the Option value of a config.
	Apply(*Server)
}

var _ ServerOption = ServerOptionFunc(nil)

// ServerOptionFunc implements the ServerOption interface.
type ServerOptionFunc func(*Server)

// Apply implements ServerOption.
func (f ServerOptionFunc) Apply(s *Server) {
	f(s)
}

// WithListenAddress sets the host:port Start listens on.
func WithListenAddress(addr string) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		s.listenAddr = addr
	})
}

// WithPath sets the upgrade path used by Start.
func WithPath(path string) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		s.path = path
	})
}

// WithCodec sets the frame codec.
func WithCodec(codec *Codec) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		if codec != nil {
			s.codec = codec
		}
	})
}

// WithServerLogger sets the server logger.
func WithServerLogger(logger log.Logger) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// WithWriteTimeout bounds the write of one outbound frame.
func WithWriteTimeout(timeout time.Duration) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		if timeout > 0 {
			s.writeTimeout = timeout
		}
	})
}

// WithMaxFrameSize bounds the size of an inbound frame, on the wire and once
// its payload is decompressed.
func WithMaxFrameSize(size int64) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		if size > 0 {
			s.maxFrameSize = size
		}
	})
}

// WithUserResolver sets how the user part of a client address is read from
// the upgrade request. The default reads the "user" query parameter.
func WithUserResolver(resolve func(*http.Request) string) ServerOption {
	return ServerOptionFunc(func(s *Server) {
		if resolve != nil {
			s.userOf = resolve
		}
	})
}

// Server accepts websocket clients and makes each connection a Link.
// Frames travel as binary websocket messages.
type Server struct {
	broker       *actor.Broker
	codec        *Codec
	logger       log.Logger
	listenAddr   string
	path         string
	writeTimeout time.Duration
	maxFrameSize int64
	userOf       func(*http.Request) string
	upgrader     websocket.Upgrader

	sessions *xsync.Map[string, *session]

	mu         sync.Mutex
	closing    bool
	wg         sync.WaitGroup
	started    *atomic.Bool
	httpServer *http.Server
	listener   net.Listener
	serveDone  chan struct{}
}

var _ http.Handler = (*Server)(nil)

// NewServer creates a Server registering its links with broker.
func NewServer(broker *actor.Broker, opts ...ServerOption) *Server {
	server := &Server{
		broker:       broker,
		codec:        NewCodec(),
		logger:       broker.Logger(),
		listenAddr:   "127.0.0.1:0",
		path:         DefaultPath,
		writeTimeout: DefaultWriteTimeout,
		maxFrameSize: DefaultMaxFrameSize,
		userOf: func(r *http.Request) string {
			return r.URL.Query().Get("user")
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: xsync.NewMap[string, *session](),
		started:  atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(server)
	}

	server.codec = server.codec.withMaxPayloadSize(int(server.maxFrameSize))
	return server
}

// Start listens on the configured address and serves websocket upgrades on
// the configured path.
func (s *Server) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrServerStarted
	}

	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", s.listenAddr)
	if err != nil {
		s.started.Store(false)
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(s.path, s)

	s.mu.Lock()
	s.closing = false
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.serveDone = make(chan struct{})
	httpServer, serveDone := s.httpServer, s.serveDone
	s.mu.Unlock()

	go func() {
		defer close(serveDone)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorf("websocket server on %s stopped: %v", listener.Addr(), err)
		}
	}()

	s.logger.Infof("websocket server listening on %s%s", listener.Addr(), s.path)
	return nil
}

// Addr returns the address the server listens on once started.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Sessions returns the number of connected clients.
func (s *Server) Sessions() int {
	return s.sessions.Len()
}

// Stop refuses new clients, disconnects the connected ones and waits for
// their links to close or for ctx.
func (s *Server) Stop(ctx context.Context) error {
	if !s.started.CompareAndSwap(true, false) {
		return ErrServerNotStarted
	}

	s.mu.Lock()
	s.closing = true
	httpServer, serveDone := s.httpServer, s.serveDone
	s.mu.Unlock()

	err := httpServer.Shutdown(ctx)
	for _, sess := range s.sessions.Values() {
		err = multierr.Append(err, sess.close())
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		<-serveDone
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}

	s.logger.Info("websocket server stopped")
	return err
}

// ServeHTTP upgrades the request and runs the session until the client leaves.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	addr := s.broker.NewAddress(s.userOf(r))
	conn, err := s.upgrader.Upgrade(w, r, http.Header{AddressHeader: []string{addr}})
	if err != nil {
		s.logger.Warnf("failed to upgrade websocket connection from %s: %v", r.RemoteAddr, err)
		return
	}
	conn.SetReadLimit(s.maxFrameSize)

	sess := &session{
		id:           uuid.NewString(),
		conn:         conn,
		codec:        s.codec,
		writeTimeout: s.writeTimeout,
	}

	link, err := NewLink(s.broker, sess, WithLinkAddress(addr), WithLinkLogger(s.logger))
	if err != nil {
		s.logger.Errorf("failed to open link for %s: %v", r.RemoteAddr, err)
		_ = sess.close()
		return
	}

	s.sessions.Set(sess.id, sess)
	defer func() {
		link.Close()
		s.sessions.Delete(sess.id)
		_ = sess.close()
	}()

	s.logger.Debugf("session %s bound to %s", sess.id, link.Address())
	s.read(sess, link)
}

func (s *Server) read(sess *session, link *Link) {
	for {
		messageType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warnf("session %s: %v", sess.id, err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			s.logger.Debugf("session %s: ignoring non binary message", sess.id)
			continue
		}

		frame, err := s.codec.Decode(data)
		if err != nil {
			s.logger.Warnf("session %s: %v", sess.id, err)
			if errors.Is(err, compression.ErrSizeExceeded) {
				return
			}
			continue
		}

		if err := link.Dispatch(frame); err != nil {
			s.logger.Warnf("session %s: failed to dispatch %s: %v", sess.id, frame, err)
			return
		}
	}
}

// session is one websocket connection. gorilla connections accept a single
// concurrent writer.
type session struct {
	id           string
	conn         *websocket.Conn
	codec        *Codec
	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

var _ Writer = (*session)(nil)

// WriteFrame implements Writer.
func (s *session) WriteFrame(frame *Frame) error {
	data, err := s.codec.Encode(frame)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return websocket.ErrCloseSent
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	deadline := time.Now().Add(time.Second)
	message := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, message, deadline)
	return s.conn.Close()
}
