// Copyright 2026 The Accord Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/accordlib/accord/lib/clock"
	"github.com/accordlib/accord/lib/ref"
)

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opResume         = 6
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// payload is the envelope every gateway frame uses.
type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string             `json:"token"`
	Intents    int                `json:"intents"`
	Compress   bool               `json:"compress,omitempty"`
	Properties identifyProperties `json:"properties"`
}

type identifyProperties struct {
	OS      string `json:"os"`
	Browser string `json:"browser"`
	Device  string `json:"device"`
}

type resumeData struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Seq       int64  `json:"seq"`
}

// Ready is the subset of the READY event the session tracks.
type Ready struct {
	Version          int    `json:"v"`
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	Application      struct {
		ID ref.ApplicationID `json:"id"`
	} `json:"application"`
}

// EventHandler receives every dispatched event. eventType is the
// platform event name (e.g. "INTERACTION_CREATE"); data is the raw
// event payload. Handlers run on the read loop goroutine, so slow
// work belongs on the caller's side of the boundary.
type EventHandler func(eventType string, data json.RawMessage)

// Config configures a Session.
type Config struct {
	// URL is the websocket endpoint, including the version and
	// encoding query.
	URL   string
	Token string
	// Intents selects which event groups the platform delivers.
	Intents int
	// Compress requests zlib-compressed event payloads.
	Compress bool
	// OnEvent receives dispatched events.
	OnEvent EventHandler
	// Dialer defaults to websocket.DefaultDialer.
	Dialer *websocket.Dialer
	// Clock defaults to clock.Real().
	Clock clock.Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is one logical gateway connection. Run owns the underlying
// websocket and transparently reconnects, resuming the event stream
// where possible so dispatched events are not replayed.
type Session struct {
	url      string
	token    string
	intents  int
	compress bool
	onEvent  EventHandler
	dialer   *websocket.Dialer
	clock    clock.Clock
	logger   *slog.Logger

	// writeMu serializes writes; gorilla/websocket allows only one
	// concurrent writer.
	writeMu sync.Mutex
	conn    *websocket.Conn

	sequence  atomic.Int64
	stateMu   sync.Mutex
	sessionID string
	resumeURL string
}

// New creates a Session.
func New(config Config) (*Session, error) {
	if config.Token == "" {
		return nil, fmt.Errorf("gateway: Config.Token is required")
	}
	if config.URL == "" {
		return nil, fmt.Errorf("gateway: Config.URL is required")
	}
	if config.OnEvent == nil {
		return nil, fmt.Errorf("gateway: Config.OnEvent is required")
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		url:      config.URL,
		token:    config.Token,
		intents:  config.Intents,
		compress: config.Compress,
		onEvent:  config.OnEvent,
		dialer:   dialer,
		clock:    clk,
		logger:   logger,
	}, nil
}

// Run connects and serves the event stream until ctx is canceled.
// Connection drops reconnect with linear backoff; an established
// session is resumed rather than re-identified, so no dispatched
// event is delivered twice.
func (s *Session) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := s.serveConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("gateway connection lost, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-s.clock.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		if backoff < 30*time.Second {
			backoff += time.Second
		}
	}
}

// serveConnection runs a single connection from dial to failure.
func (s *Session) serveConnection(ctx context.Context) error {
	url, resuming := s.connectURL()
	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dialing gateway: %w", err)
	}
	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()
	defer conn.Close()

	// Close the socket when ctx ends so the blocking read below
	// unwinds.
	watchdogDone := make(chan struct{})
	defer close(watchdogDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchdogDone:
		}
	}()

	hello, err := s.readHello()
	if err != nil {
		return err
	}

	if resuming {
		err = s.send(payload{Op: opResume, D: mustMarshal(resumeData{
			Token:     s.token,
			SessionID: s.sessionID,
			Seq:       s.sequence.Load(),
		})})
	} else {
		err = s.send(payload{Op: opIdentify, D: mustMarshal(identifyData{
			Token:    s.token,
			Intents:  s.intents,
			Compress: s.compress,
			Properties: identifyProperties{
				OS:      "linux",
				Browser: "accord",
				Device:  "accord",
			},
		})})
	}
	if err != nil {
		return err
	}

	heartbeatDone := make(chan struct{})
	defer close(heartbeatDone)
	go s.heartbeatLoop(time.Duration(hello.HeartbeatInterval)*time.Millisecond, heartbeatDone)

	return s.readLoop()
}

// connectURL picks the resume endpoint when a session can be resumed.
func (s *Session) connectURL() (url string, resuming bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.sessionID != "" && s.resumeURL != "" {
		return s.resumeURL, true
	}
	return s.url, false
}

func (s *Session) readHello() (helloData, error) {
	frame, err := s.readPayload()
	if err != nil {
		return helloData{}, fmt.Errorf("reading hello: %w", err)
	}
	if frame.Op != opHello {
		return helloData{}, fmt.Errorf("expected hello opcode, got %d", frame.Op)
	}
	var hello helloData
	if err := json.Unmarshal(frame.D, &hello); err != nil {
		return helloData{}, fmt.Errorf("decoding hello: %w", err)
	}
	if hello.HeartbeatInterval <= 0 {
		return helloData{}, fmt.Errorf("invalid heartbeat interval %d", hello.HeartbeatInterval)
	}
	return hello, nil
}

func (s *Session) readLoop() error {
	for {
		frame, err := s.readPayload()
		if err != nil {
			return err
		}
		if frame.S > 0 {
			s.sequence.Store(frame.S)
		}

		switch frame.Op {
		case opDispatch:
			s.handleDispatch(frame)
		case opHeartbeat:
			// The server may request an immediate beat.
			if err := s.send(payload{Op: opHeartbeat, D: mustMarshal(s.sequence.Load())}); err != nil {
				return err
			}
		case opReconnect:
			return fmt.Errorf("server requested reconnect")
		case opInvalidSession:
			var resumable bool
			_ = json.Unmarshal(frame.D, &resumable)
			if !resumable {
				s.clearSession()
			}
			return fmt.Errorf("session invalidated (resumable=%t)", resumable)
		case opHeartbeatACK:
			// Nothing to track: a dead connection surfaces as a read
			// error once the server drops it.
		default:
			s.logger.Debug("ignoring unknown gateway opcode", "op", frame.Op)
		}
	}
}

func (s *Session) handleDispatch(frame payload) {
	if frame.T == "READY" {
		var ready Ready
		if err := json.Unmarshal(frame.D, &ready); err != nil {
			s.logger.Warn("decoding READY failed", "error", err)
		} else {
			s.stateMu.Lock()
			s.sessionID = ready.SessionID
			s.resumeURL = ready.ResumeGatewayURL
			s.stateMu.Unlock()
			s.logger.Info("gateway session established",
				"session_id", ready.SessionID, "version", ready.Version)
		}
	}
	s.onEvent(frame.T, frame.D)
}

func (s *Session) heartbeatLoop(interval time.Duration, done <-chan struct{}) {
	for {
		select {
		case <-s.clock.After(interval):
		case <-done:
			return
		}
		if err := s.send(payload{Op: opHeartbeat, D: mustMarshal(s.sequence.Load())}); err != nil {
			// The read loop sees the same broken connection and
			// drives the reconnect.
			s.logger.Debug("heartbeat write failed", "error", err)
			return
		}
	}
}

// readPayload reads one frame, inflating compressed binary messages.
func (s *Session) readPayload() (payload, error) {
	messageType, message, err := s.conn.ReadMessage()
	if err != nil {
		return payload{}, err
	}
	if messageType == websocket.BinaryMessage {
		message, err = inflate(message)
		if err != nil {
			return payload{}, fmt.Errorf("inflating gateway message: %w", err)
		}
	}
	var frame payload
	if err := json.Unmarshal(message, &frame); err != nil {
		return payload{}, fmt.Errorf("decoding gateway frame: %w", err)
	}
	return frame, nil
}

func (s *Session) send(frame payload) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("gateway: not connected")
	}
	return s.conn.WriteJSON(frame)
}

func (s *Session) clearSession() {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	s.sessionID = ""
	s.resumeURL = ""
	s.sequence.Store(0)
}

// mustMarshal marshals values that cannot fail (our own structs and
// integers).
func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
