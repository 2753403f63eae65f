package live

import "sort"

type Speaker string

const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Entry is one timestamped utterance. ElapsedSeconds comes from the
// protocol message, not local receipt time, so the timeline stays aligned
// with the recording.
type Entry struct {
	Speaker        Speaker `json:"speaker"`
	Text           string  `json:"text"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
}

// Timeline is the append-only transcript, kept ordered by ElapsedSeconds
// regardless of wire arrival order. Entries with equal timestamps keep
// their arrival order.
type Timeline struct {
	entries []Entry
}

func (t *Timeline) Append(e Entry) {
	i := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].ElapsedSeconds > e.ElapsedSeconds
	})
	t.entries = append(t.entries, Entry{})
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = e
}

func (t *Timeline) Len() int { return len(t.entries) }

// Entries returns a copy; the timeline itself is never handed out.
func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}
