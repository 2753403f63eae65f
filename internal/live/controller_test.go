package live

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fakeTicker struct{ ch chan time.Time }

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

type fakeClock struct {
	mu      sync.Mutex
	tickers map[time.Duration][]*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{tickers: map[time.Duration][]*fakeTicker{}}
}

func (c *fakeClock) Now() time.Time { return time.Now() }

func (c *fakeClock) Ticker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time, 1)}
	c.tickers[d] = append(c.tickers[d], t)
	return t
}

// After fires immediately so the redirect delay does not slow tests down.
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// Advance delivers one tick on every ticker of the given period, waiting
// for the ticker to be registered first.
func (c *fakeClock) Advance(t *testing.T, d time.Duration) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		c.mu.Lock()
		ts := c.tickers[d]
		c.mu.Unlock()
		if len(ts) > 0 {
			for _, tk := range ts {
				select {
				case tk.ch <- time.Now():
				case <-time.After(2 * time.Second):
					t.Fatalf("tick for %v not consumed", d)
				}
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no ticker registered for %v", d)
		}
		time.Sleep(time.Millisecond)
	}
}

type fakeStream struct {
	mu      sync.Mutex
	opened  bool
	closed  bool
	openErr error
	sent    [][]byte
	stats   StreamStats

	msgs   chan ServerMessage
	events chan ConnEvent
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		msgs:   make(chan ServerMessage, 16),
		events: make(chan ConnEvent, 4),
	}
}

func (s *fakeStream) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true
	return nil
}

func (s *fakeStream) Send(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, chunk)
	s.stats.Sent++
}

func (s *fakeStream) Messages() <-chan ServerMessage { return s.msgs }
func (s *fakeStream) ConnEvents() <-chan ConnEvent   { return s.events }

func (s *fakeStream) Stats() StreamStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type fakeTrack struct {
	kind  string
	mu    sync.Mutex
	ended bool
}

func (t *fakeTrack) Kind() string { return t.kind }
func (t *fakeTrack) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ended = true
}
func (t *fakeTrack) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

type fakeRecorder struct {
	ch   chan []byte
	once sync.Once
}

func (r *fakeRecorder) Chunks() <-chan []byte { return r.ch }
func (r *fakeRecorder) Stop() error {
	r.once.Do(func() { close(r.ch) })
	return nil
}

type fakeLevels struct {
	mu     sync.Mutex
	level  float64
	closed bool
}

func (l *fakeLevels) Level() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *fakeLevels) set(v float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = v
}

func (l *fakeLevels) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

type fakeMedia struct {
	tracks   []*fakeTrack
	recorder *fakeRecorder
	levels   *fakeLevels

	mu     sync.Mutex
	closed bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		tracks:   []*fakeTrack{{kind: "audio"}, {kind: "video"}},
		recorder: &fakeRecorder{ch: make(chan []byte, 8)},
		levels:   &fakeLevels{},
	}
}

func (m *fakeMedia) Tracks() []Track {
	out := make([]Track, len(m.tracks))
	for i, t := range m.tracks {
		out[i] = t
	}
	return out
}

func (m *fakeMedia) Recorder(time.Duration) (Recorder, error) { return m.recorder, nil }
func (m *fakeMedia) Levels() (LevelSource, error)             { return m.levels, nil }

func (m *fakeMedia) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracks {
		t.Stop()
	}
	m.closed = true
	return nil
}

type fakeDevices struct {
	cameraErr  error
	micErr     error
	acquireErr error
	media      *fakeMedia
}

func (d *fakeDevices) ProbeCamera(ctx context.Context) error     { return d.cameraErr }
func (d *fakeDevices) ProbeMicrophone(ctx context.Context) error { return d.micErr }

func (d *fakeDevices) AcquireStream(ctx context.Context, c StreamConstraints) (MediaStream, error) {
	if d.acquireErr != nil {
		return nil, d.acquireErr
	}
	if d.media == nil {
		d.media = newFakeMedia()
	}
	return d.media, nil
}

type fakeProber struct {
	latency time.Duration
	err     error
}

func (p fakeProber) Probe(ctx context.Context) (time.Duration, error) { return p.latency, p.err }

type fakeNav struct {
	mu        sync.Mutex
	sessionID string
}

func (n *fakeNav) NavigateToCompletion(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sessionID = id
}

func (n *fakeNav) navigated() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sessionID
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestController(t *testing.T, devices *fakeDevices, stream *fakeStream, prober NetworkProber) (*Controller, *fakeClock, *fakeNav) {
	t.Helper()
	clock := newFakeClock()
	nav := &fakeNav{}
	c := New(Config{
		SessionID:          "sess-1",
		MaxDurationSeconds: 1800,
		TotalQuestions:     10,
		CompanyName:        "Acme",
		JobTitle:           "Backend Engineer",
	}, Deps{
		Log:     quietLogger(),
		Clock:   clock,
		Devices: devices,
		Prober:  prober,
		Stream:  stream,
		Nav:     nav,
	})
	return c, clock, nav
}

func startActiveSession(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "preflight", func() bool {
		s := c.Snapshot()
		return s.Camera == PermissionGranted &&
			s.Microphone == PermissionGranted &&
			s.Network != NetworkChecking
	})
	c.SetConsent(true, true)
	waitFor(t, "consent", func() bool { return c.Snapshot().GateSatisfied() })
	if unmet := c.StartInterview(); unmet != nil {
		t.Fatalf("start blocked: %v", unmet)
	}
	waitFor(t, "active phase", func() bool { return c.Snapshot().Phase == PhaseActive })
}

func TestControllerHappyPath(t *testing.T) {
	devices := &fakeDevices{}
	stream := newFakeStream()
	c, clock, nav := newTestController(t, devices, stream, fakeProber{latency: 50 * time.Millisecond})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "preflight", func() bool {
		s := c.Snapshot()
		return s.Camera == PermissionGranted && s.Microphone == PermissionGranted && s.Network == NetworkGood
	})

	// gate rejects before consent, without a phase change
	unmet := c.StartInterview()
	if len(unmet) == 0 {
		t.Fatal("start accepted without consent")
	}
	if c.Snapshot().Phase != PhasePreStart {
		t.Fatal("blocked start changed the phase")
	}

	c.SetConsent(true, true)
	waitFor(t, "gate", func() bool { return c.Snapshot().GateSatisfied() })
	if unmet := c.StartInterview(); unmet != nil {
		t.Fatalf("start blocked: %v", unmet)
	}
	waitFor(t, "active phase", func() bool { return c.Snapshot().Phase == PhaseActive })

	// ticks flow through the loop
	clock.Advance(t, time.Second)
	waitFor(t, "elapsed", func() bool { return c.Snapshot().Elapsed == 1 })

	// chunks pump from the recorder into the stream
	devices.media.recorder.ch <- []byte{0x01, 0x02}
	waitFor(t, "chunk sent", func() bool { return stream.sentCount() == 1 })

	// inbound protocol: transcript arrives before an earlier-stamped question
	stream.msgs <- ServerMessage{Type: MsgTranscript, Text: "answer", Timestamp: 9}
	stream.msgs <- ServerMessage{Type: MsgQuestion, Text: "question two", QuestionNumber: 2, Timestamp: 4}
	waitFor(t, "transcript", func() bool { return len(c.Transcript()) == 2 })

	entries := c.Transcript()
	if entries[0].Speaker != SpeakerInterviewer {
		t.Errorf("timeline not ordered by timestamp: %+v", entries)
	}
	s := c.Snapshot()
	if s.QuestionsAnswered != 1 || s.CurrentQuestion != "question two" {
		t.Errorf("question state = answered %d, current %q", s.QuestionsAnswered, s.CurrentQuestion)
	}

	// speaking sampler follows the level source
	devices.media.levels.set(0.5)
	clock.Advance(t, samplerInterval)
	waitFor(t, "speaking", func() bool { return c.Speaking() })

	// operator-initiated end
	c.End(ReasonUserEnded)
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not close after End")
	}

	s = c.Snapshot()
	if s.Phase != PhaseCompleted || s.EndReason != ReasonUserEnded {
		t.Errorf("final state = %s/%s", s.Phase, s.EndReason)
	}
	for _, track := range devices.media.Tracks() {
		if !track.Ended() {
			t.Errorf("track %s still live after termination", track.Kind())
		}
	}
	if !stream.isClosed() {
		t.Error("stream not closed after termination")
	}
	if !devices.media.levels.closed {
		t.Error("level source not closed after termination")
	}
	if nav.navigated() != "sess-1" {
		t.Errorf("completion hand-off = %q, want sess-1", nav.navigated())
	}

	// nothing mutates after termination
	before := c.Snapshot()
	time.Sleep(10 * time.Millisecond)
	if c.Snapshot() != before {
		t.Error("state mutated after termination")
	}
}

func TestControllerDeniedPermissionBlocksStart(t *testing.T) {
	devices := &fakeDevices{cameraErr: errors.New("denied")}
	stream := newFakeStream()
	c, _, _ := newTestController(t, devices, stream, fakeProber{latency: 50 * time.Millisecond})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "preflight", func() bool { return c.Snapshot().Camera == PermissionDenied })
	c.SetConsent(true, true)
	waitFor(t, "consent", func() bool { return c.Snapshot().ConsentTerms })

	unmet := c.StartInterview()
	found := false
	for _, cond := range unmet {
		if cond == condCamera {
			found = true
		}
	}
	if !found {
		t.Errorf("unmet = %v, want it to name the camera", unmet)
	}
	if c.Snapshot().Phase != PhasePreStart {
		t.Error("denied permission did not hold the phase at pre-start")
	}
}

func TestControllerPoorNetworkDoesNotBlock(t *testing.T) {
	devices := &fakeDevices{}
	stream := newFakeStream()
	c, _, _ := newTestController(t, devices, stream, fakeProber{err: errors.New("unreachable")})

	startActiveSession(t, c) // succeeds with Network = poor
	if c.Snapshot().Network != NetworkPoor {
		t.Errorf("network = %s, want poor", c.Snapshot().Network)
	}
	c.Close()
}

func TestControllerAcquisitionFailureStaysPreStart(t *testing.T) {
	devices := &fakeDevices{acquireErr: errors.New("hardware in use")}
	stream := newFakeStream()
	c, _, _ := newTestController(t, devices, stream, fakeProber{latency: 10 * time.Millisecond})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "preflight", func() bool { return c.Snapshot().GateSatisfied() == false })
	c.SetConsent(true, true)
	waitFor(t, "gate", func() bool { return c.Snapshot().GateSatisfied() })
	if unmet := c.StartInterview(); unmet != nil {
		t.Fatalf("gate rejected: %v", unmet)
	}

	waitFor(t, "start error", func() bool { return c.Snapshot().StartError != "" })
	if got := c.Snapshot().Phase; got != PhasePreStart {
		t.Errorf("phase = %s after acquisition failure, want pre-start", got)
	}
	c.Close()
}

func TestControllerConnectFailureReleasesMedia(t *testing.T) {
	devices := &fakeDevices{}
	stream := newFakeStream()
	stream.openErr = errors.New("dial tcp: refused")
	c, _, _ := newTestController(t, devices, stream, fakeProber{latency: 10 * time.Millisecond})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.SetConsent(true, true)
	waitFor(t, "gate", func() bool { return c.Snapshot().GateSatisfied() })
	if unmet := c.StartInterview(); unmet != nil {
		t.Fatalf("gate rejected: %v", unmet)
	}

	waitFor(t, "start error", func() bool { return c.Snapshot().StartError != "" })
	if c.Snapshot().Phase != PhasePreStart {
		t.Error("connect failure advanced the phase")
	}

	devices.media.mu.Lock()
	closed := devices.media.closed
	devices.media.mu.Unlock()
	if !closed {
		t.Error("acquired media not released after connect failure")
	}
	c.Close()
}

func TestControllerDegradedOnConnLoss(t *testing.T) {
	devices := &fakeDevices{}
	stream := newFakeStream()
	c, _, _ := newTestController(t, devices, stream, fakeProber{latency: 10 * time.Millisecond})

	startActiveSession(t, c)

	stream.events <- ConnLost
	waitFor(t, "degraded", func() bool { return c.Snapshot().Degraded })
	if c.Snapshot().Phase != PhaseActive {
		t.Error("connection loss terminated the session")
	}

	stream.events <- ConnReopened
	waitFor(t, "recovered", func() bool { return !c.Snapshot().Degraded })
	c.Close()
}

// stalledClock pins the completion hand-off delay open so the window
// between termination and Done closing stays observable.
type stalledClock struct{ *fakeClock }

func (stalledClock) After(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func TestControllerEventPushAfterTerminationDoesNotBlock(t *testing.T) {
	devices := &fakeDevices{}
	stream := newFakeStream()
	nav := &fakeNav{}
	c := New(Config{
		SessionID:          "sess-1",
		MaxDurationSeconds: 1800,
		TotalQuestions:     10,
		CompanyName:        "Acme",
		JobTitle:           "Backend Engineer",
	}, Deps{
		Log:     quietLogger(),
		Clock:   stalledClock{newFakeClock()},
		Devices: devices,
		Prober:  fakeProber{latency: 10 * time.Millisecond},
		Stream:  stream,
		Nav:     nav,
	})

	startActiveSession(t, c)
	c.End(ReasonUserEnded)
	waitFor(t, "completed phase", func() bool { return c.Snapshot().Phase == PhaseCompleted })

	// the loop has exited and Done has not closed yet; pushes past the
	// event buffer capacity must still return promptly
	returned := make(chan struct{})
	go func() {
		for i := 0; i < cap(c.events)+4; i++ {
			c.SetConsent(true, true)
		}
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("event push blocked after termination")
	}
}

func TestControllerCloseDuringPreStartReleasesResources(t *testing.T) {
	devices := &fakeDevices{}
	stream := newFakeStream()
	c, _, nav := newTestController(t, devices, stream, fakeProber{latency: 10 * time.Millisecond})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Close()

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done did not close after Close")
	}
	if !stream.isClosed() {
		t.Error("stream not closed on unmount")
	}
	if nav.navigated() != "" {
		t.Error("unmount must not navigate to completion")
	}
}
