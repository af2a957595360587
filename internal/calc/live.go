package calc

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/dilutionlab/dilution-engine/internal/form"
	"github.com/dilutionlab/dilution-engine/internal/metrics"
	"github.com/dilutionlab/dilution-engine/internal/model"
)

// LiveRequest is one form snapshot sent over the live session. Seq must
// increase with every edit; frames at or below the last accepted seq are
// dropped.
type LiveRequest struct {
	Seq    uint64              `json:"seq"`
	Form   form.Values         `json:"form"`
	Spread decimal.NullDecimal `json:"spread"`
}

// LiveResponse answers one accepted LiveRequest.
type LiveResponse struct {
	Seq           uint64             `json:"seq"`
	CalculationID string             `json:"calculation_id,omitempty"`
	Result        *ScenariosResponse `json:"result,omitempty"`
	Error         *ErrorResponse     `json:"error,omitempty"`
}

// HubOptions configures live sessions.
type HubOptions struct {
	ReadDeadline time.Duration
	PingInterval time.Duration
	WriteTimeout time.Duration

	// AllowOrigin is "*" or the single origin allowed to connect.
	AllowOrigin string
}

// Hub tracks live recalculation sessions. Each session recomputes the
// scenario set for the newest form snapshot its client sends; snapshots
// superseded before they are computed are skipped.
type Hub struct {
	svc        *Service
	opts       HubOptions
	upgrader   websocket.Upgrader
	sessions   map[*session]bool
	register   chan *session
	unregister chan *session
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a live session hub computing through svc.
func NewHub(svc *Service, opts HubOptions) *Hub {
	if opts.ReadDeadline <= 0 {
		opts.ReadDeadline = 60 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	h := &Hub{
		svc:        svc,
		opts:       opts,
		sessions:   make(map[*session]bool),
		register:   make(chan *session),
		unregister: make(chan *session),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if h.opts.AllowOrigin == "" || h.opts.AllowOrigin == "*" {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || origin == h.opts.AllowOrigin
}

// Run starts the hub's event loop and blocks until ctx is cancelled, then
// closes every open session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case sess := <-h.register:
			h.mu.Lock()
			h.sessions[sess] = true
			n := len(h.sessions)
			h.mu.Unlock()
			metrics.LiveSessions.Inc()
			slog.Info("live session opened", "total", n)

		case sess := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.sessions[sess]; ok {
				delete(h.sessions, sess)
				sess.conn.Close()
				metrics.LiveSessions.Dec()
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for sess := range h.sessions {
				sess.conn.Close()
				delete(h.sessions, sess)
				metrics.LiveSessions.Dec()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Count returns the number of open sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// HandleLive handles WebSocket upgrade requests at GET /api/v1/live.
func (h *Hub) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("live upgrade failed", "err", err)
		return
	}

	sess := &session{
		conn:    conn,
		pending: make(chan LiveRequest, 1),
		closed:  make(chan struct{}),
	}
	select {
	case h.register <- sess:
	case <-h.done:
		conn.Close()
		return
	}

	go sess.compute(h.svc.answer, h.opts.WriteTimeout)
	go sess.ping(h.opts.PingInterval, h.opts.WriteTimeout)
	go func() {
		defer func() {
			close(sess.pending)
			close(sess.closed)
			select {
			case h.unregister <- sess:
			case <-h.done:
			}
		}()
		sess.read(h.opts.ReadDeadline, h.opts.WriteTimeout)
	}()
}

// session is one live client. Only read touches lastSeq; writes go
// through send.
type session struct {
	conn    *websocket.Conn
	pending chan LiveRequest // holds at most the newest unprocessed snapshot
	closed  chan struct{}
	lastSeq uint64
	wmu     sync.Mutex
}

// read accepts frames until the connection fails.
func (s *session) read(deadline, writeTimeout time.Duration) {
	s.conn.SetReadDeadline(time.Now().Add(deadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("live session read ended", "err", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(deadline))

		var req LiveRequest
		if err := json.Unmarshal(data, &req); err != nil {
			s.send(LiveResponse{Error: &ErrorResponse{Error: "invalid frame", Code: CodeInvalidRequest}}, writeTimeout)
			continue
		}
		if !s.accept(req) {
			metrics.StaleFrames.Inc()
		}
	}
}

// accept queues req unless it is stale, replacing any snapshot still
// waiting to be computed.
func (s *session) accept(req LiveRequest) bool {
	if req.Seq <= s.lastSeq {
		return false
	}
	s.lastSeq = req.Seq
	select {
	case <-s.pending:
		metrics.StaleFrames.Inc()
	default:
	}
	s.pending <- req
	return true
}

// answer projects one snapshot into its reply frame.
func (svc *Service) answer(req LiveRequest) LiveResponse {
	resp := LiveResponse{Seq: req.Seq}
	result, err := svc.Project(req.Form, req.Spread, SurfaceLive)
	if err != nil {
		body := errorBody(err)
		resp.Error = &body
		return resp
	}
	resp.CalculationID = result.CalculationID
	resp.Result = &result
	return resp
}

// compute answers queued snapshots in seq order. A panic while answering
// fails this session only: the client gets an internal error frame and the
// connection is closed.
func (s *session) compute(answer func(LiveRequest) LiveResponse, writeTimeout time.Duration) {
	var seq uint64
	defer func() {
		if r := recover(); r != nil {
			slog.Error("live calculation panicked", "seq", seq, "panic", r)
			metrics.CalculationsTotal.WithLabelValues(SurfaceLive, metrics.OutcomeError).Inc()
			s.send(LiveResponse{Seq: seq, Error: &ErrorResponse{Error: "internal error", Code: model.CodeInternal}}, writeTimeout)
			s.conn.Close()
		}
	}()

	for req := range s.pending {
		seq = req.Seq
		if err := s.send(answer(req), writeTimeout); err != nil {
			return
		}
	}
}

// ping keeps the connection alive through proxies.
func (s *session) ping(interval, writeTimeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.closed:
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (s *session) send(v LiveResponse, writeTimeout time.Duration) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}
