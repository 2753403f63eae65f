package live

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hirevox/hirevox/internal/utils"
)

const (
	// redirectDelay is the pause between termination and the completion
	// hand-off, so the closing UI state is visible.
	redirectDelay = 2 * time.Second

	// samplerInterval is the audio-level polling cadence while active.
	samplerInterval = 100 * time.Millisecond
)

// Config describes one session run.
type Config struct {
	SessionID          string
	StreamURL          string
	MaxDurationSeconds int
	TotalQuestions     int
	CompanyName        string
	JobTitle           string
}

// Deps are the controller's collaborators. Devices is required; the rest
// default to production implementations (real clock, HTTP prober, gorilla
// stream on Config.StreamURL, logging sink/navigator).
type Deps struct {
	Log     *logrus.Logger
	Clock   Clock
	Devices MediaDevices
	Prober  NetworkProber
	Stream  Stream
	Sink    AudioSink
	Nav     Navigator
}

// Controller owns the session exclusively: the media stream, the socket,
// the tick loop, and the sampler belong to one controller instance and are
// torn down by it regardless of which phase triggers disposal.
type Controller struct {
	cfg   Config
	log   *logrus.Logger
	clock Clock

	devices MediaDevices
	prober  NetworkProber
	stream  Stream
	sink    AudioSink
	nav     Navigator

	mu       sync.Mutex
	state    State
	timeline Timeline
	speaking bool

	media    MediaStream
	recorder Recorder
	levels   LevelSource

	ticker      Ticker
	samplerStop chan struct{}

	events chan Event
	// quit closes at teardown so push unblocks immediately, without
	// waiting out the completion hand-off delay before done closes.
	quit chan struct{}
	done chan struct{}

	rootCtx    context.Context
	rootCancel context.CancelFunc

	torndown sync.Once
	started  bool
}

func New(cfg Config, deps Deps) *Controller {
	if deps.Log == nil {
		deps.Log = logrus.New()
	}
	if deps.Clock == nil {
		deps.Clock = RealClock
	}
	if deps.Stream == nil {
		deps.Stream = NewWSStream(cfg.StreamURL, deps.Log)
	}
	if deps.Prober == nil {
		deps.Prober = &HTTPProber{URL: "https://www.google.com/generate_204"}
	}
	if deps.Sink == nil {
		deps.Sink = noopSink{log: deps.Log}
	}
	if deps.Nav == nil {
		deps.Nav = noopNavigator{log: deps.Log}
	}

	return &Controller{
		cfg:     cfg,
		log:     deps.Log,
		clock:   deps.Clock,
		devices: deps.Devices,
		prober:  deps.Prober,
		stream:  deps.Stream,
		sink:    deps.Sink,
		nav:     deps.Nav,
		state:   NewState(cfg.SessionID, cfg.MaxDurationSeconds, cfg.TotalQuestions),
		events:  make(chan Event, 16),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start kicks off preflight and the event loop. It returns immediately;
// observe progress through Snapshot and Done.
func (c *Controller) Start(ctx context.Context) error {
	const op = "Controller.Start"

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return utils.E(utils.CodeConflict, op, "controller already started", nil)
	}
	if c.devices == nil {
		c.mu.Unlock()
		return utils.E(utils.CodeInvalidArgument, op, "media devices are required", nil)
	}
	c.started = true
	c.state.CompanyName = c.cfg.CompanyName
	c.state.JobTitle = c.cfg.JobTitle
	c.mu.Unlock()

	c.rootCtx, c.rootCancel = context.WithCancel(ctx)

	// preflight probes abort with the root context if the controller is
	// closed before they resolve
	go func() {
		for ev := range RunPreflight(c.rootCtx, c.devices, c.prober) {
			c.push(ev)
		}
	}()

	go c.run()
	return nil
}

// SetConsent records the two consent checkboxes.
func (c *Controller) SetConsent(recording, terms bool) {
	c.push(ConsentChanged{Recording: recording, Terms: terms})
}

// StartInterview attempts the pre-start -> active transition. A non-nil
// return lists the unmet gate conditions and means no transition occurred.
func (c *Controller) StartInterview() []string {
	c.mu.Lock()
	unmet := c.state.Unmet()
	satisfied := c.state.GateSatisfied()
	c.mu.Unlock()

	if !satisfied {
		return unmet
	}
	c.push(StartRequested{})
	return nil
}

// End terminates the session with the given reason. Reachable from any
// active sub-state.
func (c *Controller) End(reason EndReason) {
	c.push(EndRequested{Reason: reason})
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the timeline, ordered by timestamp.
func (c *Controller) Transcript() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeline.Entries()
}

// Speaking reports the sampler's current is-speaking signal.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

func (c *Controller) Stats() StreamStats { return c.stream.Stats() }

// Done closes after termination and the completion hand-off.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Close detaches the controller (unmount). Resources are released whatever
// the phase; no completion navigation happens on this path.
func (c *Controller) Close() error {
	if c.rootCancel != nil {
		c.rootCancel()
	}
	return nil
}

func (c *Controller) push(ev Event) {
	select {
	case c.events <- ev:
	case <-c.quit:
	}
}

func (c *Controller) run() {
	for {
		var tickC <-chan time.Time
		if c.ticker != nil {
			tickC = c.ticker.C()
		}

		select {
		case ev := <-c.events:
			if c.dispatch(ev) {
				return
			}
		case msg, ok := <-c.stream.Messages():
			if !ok {
				continue
			}
			ev, known := msg.Event()
			if !known {
				c.log.WithField("type", msg.Type).Warn("unknown server message ignored")
				continue
			}
			if c.dispatch(ev) {
				return
			}
		case ce := <-c.stream.ConnEvents():
			ev := Event(StreamLost{})
			if ce == ConnReopened {
				ev = StreamReopened{}
			}
			if c.dispatch(ev) {
				return
			}
		case <-tickC:
			if c.dispatch(Tick{}) {
				return
			}
		case <-c.rootCtx.Done():
			c.teardownResources()
			c.finish(false)
			return
		}
	}
}

// dispatch applies one event and executes the resulting effects. It
// reports whether the loop should exit.
func (c *Controller) dispatch(ev Event) bool {
	c.mu.Lock()
	prev := c.state.Phase
	next, effects := Apply(c.state, ev)
	c.state = next
	c.mu.Unlock()

	if prev != PhaseActive && next.Phase == PhaseActive {
		c.enterActive()
	}

	terminal := false
	for _, eff := range effects {
		switch e := eff.(type) {
		case AcquireMedia:
			go c.activate()
		case AnnounceBlocked:
			c.log.WithField("unmet", e.Unmet).Warn("start blocked by gate")
		case ShowWarning:
			c.log.WithField("minutes_left", e.MinutesLeft).Info("time warning")
		case AppendTranscript:
			c.mu.Lock()
			c.timeline.Append(e.Entry)
			c.mu.Unlock()
		case PlayAudio:
			c.sink.Play(e.Base64)
		case Terminate:
			c.log.WithField("reason", e.Reason).Info("session terminating")
			c.teardownResources()
			c.finish(true)
			terminal = true
		}
	}
	return terminal
}

// activate performs the start sequence off the loop goroutine: combined
// stream acquisition, recorder, sampler source, then the socket. The phase
// flips to active only once StreamOpened lands.
func (c *Controller) activate() {
	media, err := c.devices.AcquireStream(c.rootCtx, DefaultConstraints)
	if err != nil {
		c.log.WithError(err).Error("combined stream acquisition failed")
		c.push(StartFailed{Message: "could not access camera and microphone"})
		return
	}

	recorder, err := media.Recorder(ChunkInterval)
	if err != nil {
		c.log.WithError(err).Error("recorder start failed")
		media.Close()
		c.push(StartFailed{Message: "could not start recording"})
		return
	}

	levels, err := media.Levels()
	if err != nil {
		c.log.WithError(err).Error("audio level source failed")
		recorder.Stop()
		media.Close()
		c.push(StartFailed{Message: "could not start audio monitoring"})
		return
	}

	if err := c.stream.Open(c.rootCtx); err != nil {
		c.log.WithError(err).Error("stream open failed")
		levels.Close()
		recorder.Stop()
		media.Close()
		c.push(StartFailed{Message: "could not connect to the interview service"})
		return
	}

	c.mu.Lock()
	c.media = media
	c.recorder = recorder
	c.levels = levels
	c.mu.Unlock()

	// chunk pump: fixed cadence comes from the recorder; Send buffers
	// while the connection is down
	go func() {
		for chunk := range recorder.Chunks() {
			c.stream.Send(chunk)
		}
	}()

	c.push(StreamOpened{})
}

// enterActive starts the phase-scoped schedulers: the 1s session tick and
// the audio-level sampler. Both stop at teardown, not at GC.
func (c *Controller) enterActive() {
	c.ticker = c.clock.Ticker(time.Second)

	c.samplerStop = make(chan struct{})
	go c.sampleLevels(c.samplerStop)
}

func (c *Controller) sampleLevels(stop chan struct{}) {
	t := c.clock.Ticker(samplerInterval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			c.mu.Lock()
			src := c.levels
			c.mu.Unlock()
			if src == nil {
				continue
			}
			speaking := src.Level() >= SpeakingThreshold
			c.mu.Lock()
			c.speaking = speaking
			c.mu.Unlock()
		}
	}
}

// teardownResources releases every owned handle. Each step runs isolated:
// a panicking or failing close cannot skip the ones after it.
func (c *Controller) teardownResources() {
	c.torndown.Do(func() {
		close(c.quit)

		if c.ticker != nil {
			c.ticker.Stop()
			c.ticker = nil
		}
		if c.samplerStop != nil {
			close(c.samplerStop)
			c.samplerStop = nil
		}

		c.mu.Lock()
		recorder := c.recorder
		media := c.media
		levels := c.levels
		c.recorder, c.media, c.levels = nil, nil, nil
		c.speaking = false
		c.mu.Unlock()

		steps := []struct {
			name string
			fn   func() error
		}{
			{"recorder", func() error {
				if recorder == nil {
					return nil
				}
				return recorder.Stop()
			}},
			{"stream", c.stream.Close},
			{"media", func() error {
				if media == nil {
					return nil
				}
				return media.Close()
			}},
			{"levels", func() error {
				if levels == nil {
					return nil
				}
				return levels.Close()
			}},
		}
		for _, step := range steps {
			if err := runIsolated(step.fn); err != nil {
				c.log.WithError(err).WithField("resource", step.name).Error("teardown step failed")
			}
		}
	})
}

func runIsolated(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = utils.E(utils.CodeInternal, "live.teardown", "panic during release", nil)
		}
	}()
	return fn()
}

// finish completes the session: optionally navigate to the completion
// destination after the fixed delay, then release Done.
func (c *Controller) finish(navigate bool) {
	if c.rootCancel != nil {
		c.rootCancel()
	}
	go func() {
		if navigate {
			<-c.clock.After(redirectDelay)
			c.nav.NavigateToCompletion(c.cfg.SessionID)
		}
		close(c.done)
	}()
}

type noopSink struct{ log *logrus.Logger }

func (s noopSink) Play(string) { s.log.Debug("audio payload discarded: no sink configured") }

type noopNavigator struct{ log *logrus.Logger }

func (n noopNavigator) NavigateToCompletion(sessionID string) {
	n.log.WithField("session_id", sessionID).Info("session complete")
}
