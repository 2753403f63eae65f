package live

import "encoding/json"

// Inbound protocol message types.
const (
	MsgQuestion   = "question"
	MsgAudio      = "audio"
	MsgTranscript = "transcript"
	MsgSignOff    = "sign_off"
)

// ServerMessage is the tagged union the backend emits over the stream.
type ServerMessage struct {
	Type           string `json:"type"`
	Text           string `json:"text,omitempty"`
	QuestionNumber int    `json:"questionNumber,omitempty"`
	Timestamp      int    `json:"timestamp,omitempty"`
	AudioData      string `json:"audioData,omitempty"`
}

// DecodeServerMessage parses one inbound frame. Malformed payloads return
// an error so the caller can log and drop them without touching state.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var m ServerMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ServerMessage{}, err
	}
	return m, nil
}

// Event maps a protocol message to a state event. Unknown types map to
// nothing and are tolerated.
func (m ServerMessage) Event() (Event, bool) {
	switch m.Type {
	case MsgQuestion:
		return QuestionReceived{Text: m.Text, Number: m.QuestionNumber, Timestamp: m.Timestamp}, true
	case MsgAudio:
		return AudioReceived{Data: m.AudioData}, true
	case MsgTranscript:
		return TranscriptReceived{Text: m.Text, Timestamp: m.Timestamp}, true
	case MsgSignOff:
		return SignOffReceived{}, true
	}
	return nil, false
}
