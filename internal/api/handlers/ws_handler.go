package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/hirevox/hirevox/internal/services"
	"github.com/hirevox/hirevox/internal/utils"
)

// MediaStreamKey is the redis stream the conductor pool consumes.
const MediaStreamKey = "media:stream"

func eventsChannel(sessionID string) string { return "interview:" + sessionID + ":events" }
func statusChannel(sessionID string) string { return "interview:" + sessionID + ":status" }

type WSHandler struct {
	sessions services.SessionService
	chunks   services.ChunkService
	redis    *redis.Client
	upgrader websocket.Upgrader
}

func NewWSHandler(sessions services.SessionService, chunks services.ChunkService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		chunks:   chunks,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

type wsClientMsg struct {
	Type       string `json:"type"`
	ChunkIndex int64  `json:"chunk_index"`
	MediaURL   string `json:"media_url"`
	SizeBytes  int64  `json:"size_bytes"`

	// end_session -> optional reason
	Reason string `json:"reason"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func wsErrorPayload(err error) []byte {
	code := utils.CodeInternal
	msg := "internal error"
	var ae *utils.AppError
	if errors.As(err, &ae) {
		code = ae.Code
		msg = ae.Message
	}
	b, _ := json.Marshal(map[string]any{"type": "error", "code": code, "message": msg})
	return b
}

// InterviewWS is the candidate-side socket: media chunks in, interview
// protocol messages (question/audio/transcript/sign_off) out. The live
// client streams raw binary frames at a fixed cadence; JSON text frames
// carry control messages and URL-sourced media.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.InterviewWS", "missing session_id", nil))
		return
	}

	// access code gate; sessions without a code pass with an empty one
	if err := h.sessions.VerifyAccess(c.Request.Context(), sessionID, c.Query("access_code")); err != nil {
		writeError(c, err)
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.Status == "completed" {
		writeError(c, utils.E(utils.CodeConflict, "WSHandler.InterviewWS", "session already completed", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// the interview is live once the socket is up
	if sess.Status == "scheduled" {
		if _, err := h.sessions.Begin(ctx, sessionID); err != nil {
			_ = wc.writeText(wsErrorPayload(err))
			return
		}
	}

	pubsub := h.redis.Subscribe(ctx, eventsChannel(sessionID), statusChannel(sessionID))
	defer pubsub.Close()

	// reader: WS -> Redis Stream (+ Mongo chunk buffer)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		// binary frames carry no index; assigned server-side in arrival order
		var binarySeq int64

		for {
			msgType, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			if msgType == websocket.BinaryMessage {
				binarySeq++
				if err := h.ingestBinaryChunk(ctx, sessionID, binarySeq, data); err != nil {
					_ = wc.writeText(wsErrorPayload(err))
				}
				continue
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "media_chunk":
				// URL-sourced media (already uploaded elsewhere)
				if msg.ChunkIndex <= 0 {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"chunk_index must be > 0"}`))
					continue
				}
				if msg.MediaURL == "" {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"media_url required"}`))
					continue
				}

				if _, err := h.chunks.InsertMediaChunk(ctx, sessionID, msg.ChunkIndex, &msg.MediaURL, nil, msg.SizeBytes); err != nil {
					_ = wc.writeText(wsErrorPayload(err))
					continue
				}
				if err := h.enqueueChunk(ctx, sessionID, msg.ChunkIndex, nil, &msg.MediaURL); err != nil {
					_ = wc.writeText(wsErrorPayload(err))
				}

			case "end_session":
				_, _ = h.sessions.End(ctx, sessionID, msg.Reason)
				_ = h.redis.Publish(ctx, statusChannel(sessionID), `{"type":"status","status":"ended","message":"session ended"}`).Err()
				return

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// forward as-is (conductor publishes protocol JSON)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}

// ingestBinaryChunk buffers one raw media frame and hands it to the
// conductor pool. Buffering happens before the enqueue so a redis outage
// never loses the chunk.
func (h *WSHandler) ingestBinaryChunk(ctx context.Context, sessionID string, chunkIndex int64, data []byte) error {
	const op = "WSHandler.ingestBinaryChunk"

	if len(data) == 0 {
		return utils.E(utils.CodeInvalidArgument, op, "empty media frame", nil)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if _, err := h.chunks.InsertMediaChunk(ctx, sessionID, chunkIndex, nil, &encoded, int64(len(data))); err != nil {
		return err
	}
	return h.enqueueChunk(ctx, sessionID, chunkIndex, &encoded, nil)
}

func (h *WSHandler) enqueueChunk(ctx context.Context, sessionID string, chunkIndex int64, mediaBase64, mediaURL *string) error {
	const op = "WSHandler.enqueueChunk"

	fields := map[string]any{
		"session_id":  sessionID,
		"chunk_index": strconv.FormatInt(chunkIndex, 10),
		"ts_unix":     strconv.FormatInt(time.Now().UTC().Unix(), 10),
	}
	if mediaBase64 != nil {
		fields["media_base64"] = *mediaBase64
	}
	if mediaURL != nil {
		fields["media_url"] = *mediaURL
	}

	if err := h.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: MediaStreamKey,
		Values: fields,
	}).Err(); err != nil {
		return utils.E(utils.CodeUnavailable, op, "failed to enqueue chunk", err)
	}

	_ = h.redis.Publish(ctx, statusChannel(sessionID), `{"type":"status","status":"processing","message":"chunk queued","chunk_index":`+strconv.FormatInt(chunkIndex, 10)+`}`).Err()
	return nil
}
