package workers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hirevox/hirevox/internal/live"
	"github.com/hirevox/hirevox/internal/providers/llm"
	"github.com/hirevox/hirevox/internal/providers/stt"
	"github.com/hirevox/hirevox/internal/services"
)

// ConductorPool runs the interview: it consumes buffered media chunks off
// the redis stream, transcribes them, and drives the question budget. All
// candidate-facing output goes through pub/sub as live protocol messages.
type ConductorPool struct {
	Redis       *redis.Client
	Sessions    services.SessionService
	Chunks      services.ChunkService
	Transcripts services.TranscriptService
	NumWorkers  int

	STT stt.Provider
	LLM llm.Provider

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *ConductorPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Sessions == nil || p.Chunks == nil || p.Transcripts == nil || p.STT == nil || p.LLM == nil {
		return errors.New("ConductorPool missing dependency: Redis/Sessions/Chunks/Transcripts/STT/LLM must be set")
	}
	if p.Stream == "" {
		p.Stream = "media:stream"
	}
	if p.Group == "" {
		p.Group = "conductors"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 5
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *ConductorPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func eventsChannel(sessionID string) string { return "interview:" + sessionID + ":events" }
func statusChannel(sessionID string) string { return "interview:" + sessionID + ":status" }
func questionCounterKey(sessionID string) string {
	return "interview:" + sessionID + ":questions_asked"
}

func (p *ConductorPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	chunkIndexStr := getStr("chunk_index")
	if sessionID == "" || chunkIndexStr == "" {
		return
	}
	chunkIndex, _ := strconv.ParseInt(chunkIndexStr, 10, 64)

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"session_id":  sessionID,
		"chunk_index": chunkIndex,
	})

	sess, err := p.Sessions.Get(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("session lookup failed")
		return
	}
	if sess.Status != "active" {
		return
	}

	elapsed := 0
	if sess.StartedAt != nil {
		elapsed = int(time.Since(*sess.StartedAt).Seconds())
	}

	statusCh := statusChannel(sessionID)

	// Fetch media
	var mediaBytes []byte
	if b64 := getStr("media_base64"); b64 != "" {
		raw := b64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			log.WithError(err).Warn("base64 decode failed")
			_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"failed","message":"invalid media_base64","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
			return
		}
		mediaBytes = decoded
	} else if url := getStr("media_url"); url != "" {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.WithError(err).Warn("media_url fetch failed")
			_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"failed","message":"failed to fetch media_url","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
			return
		}
		defer resp.Body.Close()

		const maxBytes = 10 << 20
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBytes))
		if len(body) == 0 {
			_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"failed","message":"empty media","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
			return
		}
		mediaBytes = body
	} else {
		return
	}

	// STT
	_ = p.Chunks.MarkSTT(ctx, sessionID, chunkIndex, "", 0, "processing")

	text, conf, err := p.STT.Transcribe(ctx, mediaBytes, "en-US")
	if err != nil {
		log.WithError(err).Error("stt failed")
		_ = p.Chunks.MarkSTT(ctx, sessionID, chunkIndex, "", 0, "failed")
		_ = p.Redis.Publish(ctx, statusCh, `{"type":"status","status":"failed","message":"stt failed","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
		return
	}

	_ = p.Chunks.MarkSTT(ctx, sessionID, chunkIndex, text, conf, "done")

	if strings.TrimSpace(text) == "" {
		// silence; nothing to add to the timeline, no question turn
		return
	}

	p.publishProtocol(ctx, sessionID, live.ServerMessage{
		Type:      live.MsgTranscript,
		Text:      text,
		Timestamp: elapsed,
	})
	if _, err := p.Transcripts.Append(ctx, sessionID, "candidate", text, elapsed, time.Now().UTC()); err != nil {
		log.WithError(err).Warn("transcript append failed")
	}

	p.advanceQuestion(ctx, log, sess.SessionID, int(sess.TotalQuestions), sess.JobTitle, sess.CompanyName, text, elapsed)
}

// advanceQuestion burns one slot of the question budget. Past the budget it
// sends the sign-off exactly once; the counter never resets within a session.
func (p *ConductorPool) advanceQuestion(ctx context.Context, log *logrus.Entry, sessionID string, totalQuestions int, jobTitle, companyName, lastAnswer string, elapsed int) {
	n, err := p.Redis.Incr(ctx, questionCounterKey(sessionID)).Result()
	if err != nil {
		log.WithError(err).Error("question counter failed")
		return
	}

	if totalQuestions > 0 && n > int64(totalQuestions) {
		if n == int64(totalQuestions)+1 {
			p.publishProtocol(ctx, sessionID, live.ServerMessage{
				Type:      live.MsgSignOff,
				Timestamp: elapsed,
			})
		}
		return
	}

	prompt := "You are a professional interviewer for the role of " + jobTitle +
		" at " + companyName + ". Ask exactly one concise follow-up interview question." +
		" Do not add commentary.\n\nThe candidate just said:\n" + lastAnswer

	chunks, errs := p.LLM.StreamAnswer(ctx, prompt)

	full := strings.Builder{}
	for chunk := range chunks {
		full.WriteString(chunk)
	}

	var streamErr error
	select {
	case streamErr = <-errs:
	default:
	}
	if streamErr != nil {
		log.WithError(streamErr).Error("question generation failed")
		_ = p.Redis.Decr(ctx, questionCounterKey(sessionID)).Err()
		_ = p.Redis.Publish(ctx, statusChannel(sessionID), `{"type":"status","status":"failed","message":"question generation failed"}`).Err()
		return
	}

	question := strings.TrimSpace(full.String())
	if question == "" {
		_ = p.Redis.Decr(ctx, questionCounterKey(sessionID)).Err()
		return
	}

	p.publishProtocol(ctx, sessionID, live.ServerMessage{
		Type:           live.MsgQuestion,
		Text:           question,
		QuestionNumber: int(n),
		Timestamp:      elapsed,
	})
	if _, err := p.Transcripts.Append(ctx, sessionID, "interviewer", question, elapsed, time.Now().UTC()); err != nil {
		log.WithError(err).Warn("transcript append failed")
	}
}

func (p *ConductorPool) publishProtocol(ctx context.Context, sessionID string, m live.ServerMessage) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = p.Redis.Publish(ctx, eventsChannel(sessionID), string(payload)).Err()
}
