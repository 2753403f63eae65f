package live

import "testing"

func TestTimelineOrdersByTimestampNotArrival(t *testing.T) {
	var tl Timeline

	// candidate transcript arrives first, question carries an earlier
	// timestamp: the question must render first
	tl.Append(Entry{Speaker: SpeakerCandidate, Text: "my answer", ElapsedSeconds: 42})
	tl.Append(Entry{Speaker: SpeakerInterviewer, Text: "the question", ElapsedSeconds: 30})

	got := tl.Entries()
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Speaker != SpeakerInterviewer || got[0].ElapsedSeconds != 30 {
		t.Errorf("first entry = %+v, want the earlier-stamped question", got[0])
	}
	if got[1].Speaker != SpeakerCandidate {
		t.Errorf("second entry = %+v, want the candidate answer", got[1])
	}
}

func TestTimelineNonDecreasingAndStable(t *testing.T) {
	var tl Timeline
	in := []Entry{
		{Speaker: SpeakerInterviewer, Text: "a", ElapsedSeconds: 10},
		{Speaker: SpeakerCandidate, Text: "b", ElapsedSeconds: 5},
		{Speaker: SpeakerCandidate, Text: "c", ElapsedSeconds: 10},
		{Speaker: SpeakerInterviewer, Text: "d", ElapsedSeconds: 7},
		{Speaker: SpeakerCandidate, Text: "e", ElapsedSeconds: 10},
	}
	for _, e := range in {
		tl.Append(e)
	}

	got := tl.Entries()
	for i := 1; i < len(got); i++ {
		if got[i].ElapsedSeconds < got[i-1].ElapsedSeconds {
			t.Fatalf("timestamps decreased at %d: %v", i, got)
		}
	}

	// equal timestamps keep arrival order: a, c, e
	var at10 []string
	for _, e := range got {
		if e.ElapsedSeconds == 10 {
			at10 = append(at10, e.Text)
		}
	}
	want := []string{"a", "c", "e"}
	for i := range want {
		if at10[i] != want[i] {
			t.Fatalf("equal-timestamp order = %v, want %v", at10, want)
		}
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	var tl Timeline
	tl.Append(Entry{Speaker: SpeakerCandidate, Text: "x", ElapsedSeconds: 1})

	got := tl.Entries()
	got[0].Text = "mutated"
	if tl.Entries()[0].Text != "x" {
		t.Error("Entries leaked the internal slice")
	}
}

func TestDecodeServerMessage(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantEv  bool
		check   func(t *testing.T, ev Event)
	}{
		{
			name:    "question",
			payload: `{"type":"question","text":"Tell me about yourself","questionNumber":3,"timestamp":120}`,
			wantEv:  true,
			check: func(t *testing.T, ev Event) {
				q, ok := ev.(QuestionReceived)
				if !ok {
					t.Fatalf("event = %T, want QuestionReceived", ev)
				}
				if q.Number != 3 || q.Timestamp != 120 {
					t.Errorf("question = %+v", q)
				}
			},
		},
		{
			name:    "transcript",
			payload: `{"type":"transcript","text":"I worked on...","timestamp":130}`,
			wantEv:  true,
			check: func(t *testing.T, ev Event) {
				if _, ok := ev.(TranscriptReceived); !ok {
					t.Fatalf("event = %T, want TranscriptReceived", ev)
				}
			},
		},
		{
			name:    "audio",
			payload: `{"type":"audio","audioData":"UklGRg=="}`,
			wantEv:  true,
			check: func(t *testing.T, ev Event) {
				a, ok := ev.(AudioReceived)
				if !ok {
					t.Fatalf("event = %T, want AudioReceived", ev)
				}
				if a.Data != "UklGRg==" {
					t.Errorf("audio data = %q", a.Data)
				}
			},
		},
		{
			name:    "sign_off",
			payload: `{"type":"sign_off"}`,
			wantEv:  true,
			check: func(t *testing.T, ev Event) {
				if _, ok := ev.(SignOffReceived); !ok {
					t.Fatalf("event = %T, want SignOffReceived", ev)
				}
			},
		},
		{
			name:    "unknown type tolerated",
			payload: `{"type":"ping"}`,
			wantEv:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeServerMessage([]byte(tt.payload))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			ev, ok := msg.Event()
			if ok != tt.wantEv {
				t.Fatalf("Event() ok = %v, want %v", ok, tt.wantEv)
			}
			if tt.check != nil {
				tt.check(t, ev)
			}
		})
	}

	if _, err := DecodeServerMessage([]byte(`{not json`)); err == nil {
		t.Error("malformed payload must error")
	}
}
