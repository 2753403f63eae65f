// Package live drives a candidate through a timed, recorded, AI-proctored
// interview: preflight checks, a streaming connection, a question/transcript
// timeline, phase timers, and teardown. The phase logic is a pure transition
// function over an explicit state value so it can be exercised without real
// sockets, devices, or timers.
package live

import "strconv"

type Phase string

const (
	PhasePreStart  Phase = "pre-start"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

type Permission string

const (
	PermissionUnknown Permission = "unknown"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

type Network string

const (
	NetworkChecking Network = "checking"
	NetworkGood     Network = "good"
	NetworkPoor     Network = "poor"
)

type EndReason string

const (
	ReasonUserEnded EndReason = "user_ended"
	ReasonTimeLimit EndReason = "time_limit"
	ReasonSignOff   EndReason = "sign_off"
)

const (
	// signOffGraceSeconds delays natural completion after a sign_off message
	// so the closing remark can finish playing.
	signOffGraceSeconds = 5

	// bannerSeconds is how long a warning banner stays up.
	bannerSeconds = 5
)

// WarningOffsets are the "minutes remaining" marks, expressed as seconds
// before the configured maximum. Thresholds that compute to <= 0 for a
// short session are disabled. (Policy decision: derived from the maximum,
// not absolute — see DESIGN.md.)
var WarningOffsets = [2]int{600, 300}

// State is the whole observable session state. Everything in it is mutated
// only by Apply.
type State struct {
	SessionID   string
	CompanyName string
	JobTitle    string

	MaxDurationSeconds int

	Phase   Phase
	Elapsed int

	Camera     Permission
	Microphone Permission
	Network    Network

	ConsentRecording bool
	ConsentTerms     bool

	CurrentQuestion   string
	QuestionsAnswered int
	TotalQuestions    int

	// Degraded marks an active session whose stream connection dropped and
	// is being redialed; chunks divert to the send buffer meanwhile.
	Degraded bool

	// Banner is the visible warning text, empty when none. It self-clears
	// bannerSeconds after it was raised.
	Banner      string
	bannerUntil int

	// StartError carries the user-facing reason the last start attempt
	// failed (combined-stream acquisition or connect failure).
	StartError string

	EndReason EndReason

	// acquiring is set between a granted start request and its outcome
	// (StreamOpened or StartFailed); further start requests are ignored
	// while it holds so only one acquisition runs at a time.
	acquiring bool

	warned    [2]bool
	signOffAt int
}

// NewState returns the pre-start state for a session.
func NewState(sessionID string, maxDurationSeconds, totalQuestions int) State {
	return State{
		SessionID:          sessionID,
		MaxDurationSeconds: maxDurationSeconds,
		TotalQuestions:     totalQuestions,
		Phase:              PhasePreStart,
		Camera:             PermissionUnknown,
		Microphone:         PermissionUnknown,
		Network:            NetworkChecking,
		signOffAt:          -1,
	}
}

// Gate conditions, in the order they are reported.
const (
	condCamera  = "camera permission"
	condMic     = "microphone permission"
	condNetwork = "network check"
	condConsent = "recording consent"
	condTerms   = "terms acceptance"
)

// Unmet lists the start-gate conditions that do not hold. Start is allowed
// iff it returns nil. A poor network result does not block: it only has to
// be resolved.
func (s State) Unmet() []string {
	var out []string
	if s.Camera != PermissionGranted {
		out = append(out, condCamera)
	}
	if s.Microphone != PermissionGranted {
		out = append(out, condMic)
	}
	if s.Network == NetworkChecking {
		out = append(out, condNetwork)
	}
	if !s.ConsentRecording {
		out = append(out, condConsent)
	}
	if !s.ConsentTerms {
		out = append(out, condTerms)
	}
	return out
}

func (s State) GateSatisfied() bool { return s.Phase == PhasePreStart && len(s.Unmet()) == 0 }

// Event is one input to the transition function.
type Event interface{ isEvent() }

type (
	// preflight results
	CameraResult     struct{ Granted bool }
	MicrophoneResult struct{ Granted bool }
	NetworkResult    struct{ Good bool }

	// operator input
	ConsentChanged struct{ Recording, Terms bool }
	StartRequested struct{}
	EndRequested   struct{ Reason EndReason }

	// stream lifecycle
	StreamOpened   struct{}
	StreamLost     struct{}
	StreamReopened struct{}
	StartFailed    struct{ Message string }

	// inbound protocol
	QuestionReceived struct {
		Text      string
		Number    int
		Timestamp int
	}
	TranscriptReceived struct {
		Text      string
		Timestamp int
	}
	AudioReceived struct{ Data string }
	SignOffReceived struct{}

	// clock
	Tick struct{}
)

func (CameraResult) isEvent()       {}
func (MicrophoneResult) isEvent()   {}
func (NetworkResult) isEvent()      {}
func (ConsentChanged) isEvent()     {}
func (StartRequested) isEvent()     {}
func (EndRequested) isEvent()       {}
func (StreamOpened) isEvent()       {}
func (StreamLost) isEvent()         {}
func (StreamReopened) isEvent()     {}
func (StartFailed) isEvent()        {}
func (QuestionReceived) isEvent()   {}
func (TranscriptReceived) isEvent() {}
func (AudioReceived) isEvent()      {}
func (SignOffReceived) isEvent()    {}
func (Tick) isEvent()               {}

// Effect is a side effect requested by a transition; the controller
// executes them in order.
type Effect interface{ isEffect() }

type (
	// AcquireMedia asks the controller to acquire the combined stream,
	// start the sampler, and open the connection.
	AcquireMedia struct{}

	// AnnounceBlocked surfaces a rejected start attempt.
	AnnounceBlocked struct{ Unmet []string }

	// ShowWarning raises the transient time-remaining banner.
	ShowWarning struct{ MinutesLeft int }

	// AppendTranscript adds one timeline entry.
	AppendTranscript struct{ Entry Entry }

	// PlayAudio plays an out-of-band base64 payload, fire-and-forget.
	PlayAudio struct{ Base64 string }

	// Terminate runs teardown and the completion hand-off.
	Terminate struct{ Reason EndReason }
)

func (AcquireMedia) isEffect()     {}
func (AnnounceBlocked) isEffect()  {}
func (ShowWarning) isEffect()      {}
func (AppendTranscript) isEffect() {}
func (PlayAudio) isEffect()        {}
func (Terminate) isEffect()        {}

// Apply is the transition function. It never blocks and never touches a
// resource; completed is terminal and absorbs every event.
func Apply(s State, ev Event) (State, []Effect) {
	if s.Phase == PhaseCompleted {
		return s, nil
	}

	switch s.Phase {
	case PhasePreStart:
		return applyPreStart(s, ev)
	case PhaseActive:
		return applyActive(s, ev)
	}
	return s, nil
}

func applyPreStart(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case CameraResult:
		s.Camera = PermissionDenied
		if e.Granted {
			s.Camera = PermissionGranted
		}
	case MicrophoneResult:
		s.Microphone = PermissionDenied
		if e.Granted {
			s.Microphone = PermissionGranted
		}
	case NetworkResult:
		s.Network = NetworkPoor
		if e.Good {
			s.Network = NetworkGood
		}
	case ConsentChanged:
		s.ConsentRecording = e.Recording
		s.ConsentTerms = e.Terms
	case StartRequested:
		if s.acquiring {
			return s, nil
		}
		if unmet := s.Unmet(); len(unmet) > 0 {
			return s, []Effect{AnnounceBlocked{Unmet: unmet}}
		}
		s.StartError = ""
		s.acquiring = true
		return s, []Effect{AcquireMedia{}}
	case StartFailed:
		s.acquiring = false
		s.StartError = e.Message
	case StreamOpened:
		s.acquiring = false
		s.Phase = PhaseActive
	case EndRequested:
		// Abandoning during pre-start still tears resources down.
		s.Phase = PhaseCompleted
		s.EndReason = e.Reason
		return s, []Effect{Terminate{Reason: e.Reason}}
	}
	return s, nil
}

func applyActive(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Tick:
		return applyTick(s)

	case QuestionReceived:
		s.CurrentQuestion = e.Text
		if answered := e.Number - 1; answered > s.QuestionsAnswered {
			s.QuestionsAnswered = answered
		}
		if s.TotalQuestions > 0 && s.QuestionsAnswered > s.TotalQuestions {
			s.QuestionsAnswered = s.TotalQuestions
		}
		return s, []Effect{AppendTranscript{Entry: Entry{
			Speaker:        SpeakerInterviewer,
			Text:           e.Text,
			ElapsedSeconds: e.Timestamp,
		}}}

	case TranscriptReceived:
		return s, []Effect{AppendTranscript{Entry: Entry{
			Speaker:        SpeakerCandidate,
			Text:           e.Text,
			ElapsedSeconds: e.Timestamp,
		}}}

	case AudioReceived:
		return s, []Effect{PlayAudio{Base64: e.Data}}

	case SignOffReceived:
		if s.signOffAt < 0 {
			s.signOffAt = s.Elapsed + signOffGraceSeconds
		}

	case StreamLost:
		s.Degraded = true
	case StreamReopened:
		s.Degraded = false

	case EndRequested:
		s.Phase = PhaseCompleted
		s.EndReason = e.Reason
		return s, []Effect{Terminate{Reason: e.Reason}}
	}
	return s, nil
}

func applyTick(s State) (State, []Effect) {
	s.Elapsed++

	if s.Banner != "" && s.Elapsed >= s.bannerUntil {
		s.Banner = ""
	}

	if s.signOffAt >= 0 && s.Elapsed >= s.signOffAt {
		s.Phase = PhaseCompleted
		s.EndReason = ReasonSignOff
		return s, []Effect{Terminate{Reason: ReasonSignOff}}
	}

	if s.Elapsed >= s.MaxDurationSeconds {
		s.Phase = PhaseCompleted
		s.EndReason = ReasonTimeLimit
		return s, []Effect{Terminate{Reason: ReasonTimeLimit}}
	}

	var effects []Effect
	for i, offset := range WarningOffsets {
		threshold := s.MaxDurationSeconds - offset
		if threshold <= 0 || s.warned[i] || s.Elapsed < threshold {
			continue
		}
		s.warned[i] = true
		s.Banner = warningText(offset / 60)
		s.bannerUntil = s.Elapsed + bannerSeconds
		effects = append(effects, ShowWarning{MinutesLeft: offset / 60})
	}
	return s, effects
}

func warningText(minutes int) string {
	if minutes == 1 {
		return "1 minute remaining"
	}
	return strconv.Itoa(minutes) + " minutes remaining"
}
