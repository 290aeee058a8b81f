// Package live streams realtime analysis over a websocket: the client runs
// the pose estimator and pushes detections, the server answers with
// debounced issue events as they fire and the full analysis at the end.
package live

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	service "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/pkg/logger"
	"github.com/okian/posecoach/pkg/metrics"
)

const (
	defaultMaxSessions = 64
	defaultIdleTimeout = 30 * time.Second
	maxMessageBytes    = 1 << 20
	writeTimeout       = 5 * time.Second
)

// Session is one incremental analysis.
type Session interface {
	Add(f model.Frame) ([]model.IssueEvent, error)
	Finish(ctx context.Context, partial, enrich bool) (model.Analysis, error)
	Abandon()
}

// Starter opens sessions.
type Starter interface {
	StartLive(transcript string) Session
}

// ServiceStarter adapts the analysis service to Starter.
type ServiceStarter struct{ Svc *service.Service }

// StartLive implements Starter.
func (s ServiceStarter) StartLive(transcript string) Session { return s.Svc.NewLiveSession(transcript) }

// Option configures a Handler.
type Option func(*Handler)

// WithMaxSessions caps concurrent connections.
func WithMaxSessions(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxSessions = n
		}
	}
}

// WithIdleTimeout closes connections that stay silent this long.
func WithIdleTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.idleTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// Handler manages websocket sessions with admission control.
type Handler struct {
	starter     Starter
	upgrader    websocket.Upgrader
	maxSessions int
	idleTimeout time.Duration
	sem         chan struct{}
	log         logger.Logger
}

// NewHandler creates the /live handler.
func NewHandler(starter Starter, opts ...Option) *Handler {
	h := &Handler{
		starter:     starter,
		maxSessions: defaultMaxSessions,
		idleTimeout: defaultIdleTimeout,
		log:         logger.Get().Named("live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16384,
			WriteBufferSize: 16384,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sem = make(chan struct{}, h.maxSessions)
	return h
}

// ServeHTTP upgrades the connection and runs one session. It answers 503
// when every slot is taken.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case h.sem <- struct{}{}:
		defer func() { <-h.sem }()
	default:
		http.Error(w, "at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	id := uuid.NewString()
	h.run(context.WithoutCancel(r.Context()), conn, id)
}

func (h *Handler) run(ctx context.Context, conn *websocket.Conn, id string) {
	log := h.log.Named(id)
	send := newSender(conn)

	var start ClientMessage
	if err := h.read(conn, &start); err != nil {
		log.Debug(ctx, "connection closed before start", logger.Error(err))
		return
	}
	if start.Type != TypeStart {
		send(ServerMessage{Type: TypeError, Message: "first message must be start"})
		return
	}

	sess := h.starter.StartLive(start.Transcript)
	finished := false
	defer func() {
		if !finished {
			sess.Abandon()
		}
	}()
	send(ServerMessage{Type: TypeReady, Session: id})
	log.Info(ctx, "live session started")

	for {
		var msg ClientMessage
		if err := h.read(conn, &msg); err != nil {
			log.Info(ctx, "live session dropped", logger.Error(err))
			return
		}
		switch msg.Type {
		case TypeFrame, TypeDetection:
			f, ok := msg.frame()
			if !ok {
				send(ServerMessage{Type: TypeError, Message: "frame message without payload"})
				continue
			}
			events, err := sess.Add(f)
			if errors.Is(err, aggregate.ErrOutOfOrder) {
				send(ServerMessage{Type: TypeError, Message: err.Error()})
				continue
			}
			if err != nil {
				send(ServerMessage{Type: TypeError, Message: err.Error()})
				return
			}
			if len(events) > 0 {
				send(ServerMessage{Type: TypeEvents, Events: events})
			}
		case TypeEnd:
			finished = true
			a, err := sess.Finish(ctx, msg.Partial, msg.Enrich)
			if err != nil {
				send(ServerMessage{Type: TypeError, Message: err.Error()})
				return
			}
			send(ServerMessage{Type: TypeResult, Session: id, Analysis: &a})
			log.Info(ctx, "live session finished",
				logger.Float64("overall", a.ScoreReport.Overall),
				logger.Int("events", len(a.Events)),
			)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
				time.Now().Add(writeTimeout))
			return
		default:
			metrics.RecordLiveFrameDropped()
			send(ServerMessage{Type: TypeError, Message: "unknown message type " + msg.Type})
		}
	}
}

func (h *Handler) read(conn *websocket.Conn, v *ClientMessage) error {
	if err := conn.SetReadDeadline(time.Now().Add(h.idleTimeout)); err != nil {
		return err
	}
	return conn.ReadJSON(v)
}

func (m ClientMessage) frame() (model.Frame, bool) {
	switch {
	case m.Frame != nil:
		return *m.Frame, true
	case m.Detection != nil:
		return m.Detection.Detection.Frame(m.Detection.Time), true
	}
	return model.Frame{}, false
}

func newSender(conn *websocket.Conn) func(ServerMessage) {
	var mu sync.Mutex
	return func(msg ServerMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		_ = conn.WriteJSON(msg)
	}
}
