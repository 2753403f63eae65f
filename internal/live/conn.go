package live

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hirevox/hirevox/internal/utils"
)

// ConnEvent notifies the controller of connection lifecycle changes while
// the session is active.
type ConnEvent int

const (
	ConnLost ConnEvent = iota
	ConnReopened
)

// StreamStats exposes send-path counters so the embedder can surface
// degraded delivery instead of chunks vanishing silently.
type StreamStats struct {
	Sent     int64
	Buffered int64
	Dropped  int64
}

// Stream is the bidirectional session connection. Send never blocks the
// caller: while the connection is down, chunks land in a bounded
// drop-oldest buffer that flushes in order on reopen.
type Stream interface {
	Open(ctx context.Context) error
	Send(chunk []byte)
	Messages() <-chan ServerMessage
	ConnEvents() <-chan ConnEvent
	Stats() StreamStats
	Close() error
}

const (
	openAttempts     = 3
	backoffBase      = 500 * time.Millisecond
	redialBackoffMax = 5 * time.Second
	sendBufferCap    = 64
	writeDeadline    = 10 * time.Second
)

// WSStream is the gorilla/websocket implementation of Stream.
type WSStream struct {
	url    string
	dialer *websocket.Dialer
	log    *logrus.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	buf    [][]byte
	stats  StreamStats
	closed bool

	msgs   chan ServerMessage
	events chan ConnEvent

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

func NewWSStream(url string, log *logrus.Logger) *WSStream {
	if log == nil {
		log = logrus.New()
	}
	return &WSStream{
		url:    url,
		dialer: websocket.DefaultDialer,
		log:    log,
		msgs:   make(chan ServerMessage, 32),
		events: make(chan ConnEvent, 4),
	}
}

// Open dials with bounded retry and doubling backoff. The phase only
// becomes active after Open returns nil; on failure the caller stays in
// pre-start with a surfaced error.
func (s *WSStream) Open(ctx context.Context) error {
	const op = "WSStream.Open"

	s.ctx, s.cancel = context.WithCancel(ctx)

	var lastErr error
	backoff := backoffBase
	for attempt := 1; attempt <= openAttempts; attempt++ {
		conn, _, err := s.dialer.DialContext(s.ctx, s.url, nil)
		if err == nil {
			s.mu.Lock()
			s.conn = conn
			s.mu.Unlock()
			go s.readLoop()
			return nil
		}
		lastErr = err
		s.log.WithError(err).WithField("attempt", attempt).Warn("stream dial failed")

		select {
		case <-time.After(backoff):
		case <-s.ctx.Done():
			return utils.E(utils.CodeUnavailable, op, "stream open cancelled", s.ctx.Err())
		}
		backoff *= 2
	}
	return utils.E(utils.CodeUnavailable, op, "stream open failed", lastErr)
}

func (s *WSStream) Messages() <-chan ServerMessage { return s.msgs }
func (s *WSStream) ConnEvents() <-chan ConnEvent   { return s.events }

func (s *WSStream) Stats() StreamStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Send writes one binary media chunk, buffering when the connection is
// down. Oldest chunks drop first once the buffer is full.
func (s *WSStream) Send(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.conn == nil {
		s.bufferLocked(chunk)
		return
	}

	s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		s.log.WithError(err).Warn("chunk write failed, buffering")
		s.bufferLocked(chunk)
		return
	}
	s.stats.Sent++
}

func (s *WSStream) bufferLocked(chunk []byte) {
	if len(s.buf) >= sendBufferCap {
		s.buf = s.buf[1:]
		s.stats.Dropped++
	}
	s.buf = append(s.buf, chunk)
	s.stats.Buffered = int64(len(s.buf))
}

func (s *WSStream) readLoop() {
	for {
		s.mu.Lock()
		conn := s.conn
		closed := s.closed
		s.mu.Unlock()
		if closed || conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.isClosed() {
				return
			}
			s.notify(ConnLost)
			if !s.redial() {
				return
			}
			continue
		}

		msg, derr := DecodeServerMessage(data)
		if derr != nil {
			// protocol errors are tolerated, never fatal
			s.log.WithError(derr).Warn("malformed server message dropped")
			continue
		}

		select {
		case s.msgs <- msg:
		case <-s.ctx.Done():
			return
		}
	}
}

// redial reconnects with doubling backoff (capped) until it succeeds or
// the stream closes, then flushes the buffered chunks in order.
func (s *WSStream) redial() bool {
	backoff := backoffBase
	for {
		if s.isClosed() {
			return false
		}

		conn, _, err := s.dialer.DialContext(s.ctx, s.url, nil)
		if err == nil {
			s.mu.Lock()
			s.conn = conn
			pending := s.buf
			s.buf = nil
			s.stats.Buffered = 0
			s.mu.Unlock()

			for _, chunk := range pending {
				s.Send(chunk)
			}
			s.notify(ConnReopened)
			return true
		}
		s.log.WithError(err).Warn("stream redial failed")

		select {
		case <-time.After(backoff):
		case <-s.ctx.Done():
			return false
		}
		if backoff *= 2; backoff > redialBackoffMax {
			backoff = redialBackoffMax
		}
	}
}

func (s *WSStream) notify(ev ConnEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *WSStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *WSStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()

		if s.cancel != nil {
			s.cancel()
		}
		if conn != nil {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			err = conn.Close()
		}
	})
	return err
}
