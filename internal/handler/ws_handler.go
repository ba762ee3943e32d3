package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/middleware"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/response"
	"github.com/stemsi/studyguide/internal/validator"
	ws "github.com/stemsi/studyguide/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// SessionPreparer builds practice sessions. *service.PracticeService implements it.
type SessionPreparer interface {
	Prepare(ctx context.Context, deviceID string, req model.PracticeRequest, opts ...assessment.Option) (*assessment.Session, time.Duration, error)
}

// ResultRecorder stores graded sessions. *service.ResultService implements it.
type ResultRecorder interface {
	Record(ctx context.Context, deviceID string, snap assessment.Snapshot) error
}

// WSHandler runs one practice session per WebSocket connection.
type WSHandler struct {
	practice SessionPreparer
	results  ResultRecorder
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(practice SessionPreparer, results ResultRecorder, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		practice: practice,
		results:  results,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// stream is the per-connection state.
type stream struct {
	h        *WSHandler
	w        *ws.Writer
	log      zerolog.Logger
	deviceID string
	session  *assessment.Session
	duration time.Duration
	recorded sync.Once
}

// PracticeStream godoc
// WS /ws/v1/practice?kind=&count=&category_id=&question_id=&token=
// Upgrades to WebSocket and drives a timed practice session. The session is
// discarded when the socket closes.
func (h *WSHandler) PracticeStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.PracticeRequest
	if fields := validator.BindQuery(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	// The connection outlives the upgrade request's context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &stream{
		h:        h,
		w:        ws.NewWriter(conn),
		deviceID: claims.DeviceID(),
		log: h.log.With().
			Str("device_id", claims.DeviceID()).
			Str("kind", req.Kind).
			Logger(),
	}

	session, duration, err := h.practice.Prepare(ctx, st.deviceID, req,
		assessment.WithTickHook(st.onTick),
		assessment.WithSubmitHook(func(snap assessment.Snapshot, trigger assessment.Trigger) {
			st.onSubmit(ctx, snap, trigger)
		}),
	)
	if err != nil {
		st.log.Warn().Err(err).Msg("Practice session could not be prepared")
		st.writeErr(err)
		return
	}
	st.session, st.duration = session, duration
	defer session.Close()

	st.log = st.log.With().Str("session_id", session.ID()).Logger()
	st.log.Info().Msg("Practice session opened")

	if err := st.w.WriteTyped(ws.NewReadyResponse(session, duration)); err != nil {
		return
	}

	for {
		var msg ws.Request
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				st.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				st.log.Debug().Msg("Connection closed")
			}
			break
		}
		st.dispatch(ctx, msg)
	}

	session.Close()
	cancel()
	st.log.Info().Str("status", string(session.Snapshot().Status)).Msg("Practice session closed")
}

func (st *stream) dispatch(ctx context.Context, msg ws.Request) {
	s := st.session

	switch msg.Action {
	case ws.ActionStart:
		if err := s.Start(st.duration); err != nil {
			st.writeErr(err)
			return
		}
		st.writeState()

	case ws.ActionAnswer:
		var a assessment.Answer = assessment.ChoiceAnswer{Selected: assessment.NewAnswerSet(msg.Selected...)}
		if q, ok := s.Question(msg.Index); ok {
			if _, isScenario := q.(assessment.ScenarioQuestion); isScenario {
				a = assessment.ScenarioAnswer{Text: msg.Text}
			}
		}
		if err := s.RecordAnswer(msg.Index, a); err != nil {
			st.writeErr(err)
			return
		}
		st.writeState()

	case ws.ActionAdvance:
		if _, err := s.Advance(msg.Delta); err != nil {
			st.writeErr(err)
			return
		}
		st.writeState()

	case ws.ActionReveal:
		fb, err := s.Reveal(msg.Index)
		if err != nil {
			st.writeErr(err)
			return
		}
		_ = st.w.WriteTyped(ws.NewRevealedResponse(fb))

	case ws.ActionSubmit:
		if err := s.Submit(); err != nil {
			st.writeErr(err)
			return
		}
		st.writeState()

	case ws.ActionGrade:
		// Scenario grading can take the full upstream timeout. The read loop
		// keeps running so a close discards the session while it waits.
		go st.grade(ctx)

	case ws.ActionState:
		st.writeState()

	case ws.ActionPing:
		_ = st.w.WriteTyped(ws.PongResponse{Event: ws.EventPong})

	default:
		st.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		_ = st.w.WriteError(string(response.ErrUnknownAction), "unknown action: "+string(msg.Action), false)
	}
}

func (st *stream) onTick(snap assessment.Snapshot) {
	_ = st.w.WriteTyped(ws.TickResponse{Event: ws.EventTick, RemainingSeconds: snap.RemainingSeconds})
}

// onSubmit announces the transition. A timed-out session is graded right
// away so the client sees its result without asking.
func (st *stream) onSubmit(ctx context.Context, _ assessment.Snapshot, trigger assessment.Trigger) {
	_ = st.w.WriteTyped(ws.SubmittedResponse{Event: ws.EventSubmitted, Trigger: string(trigger)})
	if trigger == assessment.TriggerTimeout {
		go st.grade(ctx)
	}
}

func (st *stream) grade(ctx context.Context) {
	s := st.session
	res, err := s.Grade(ctx)
	if err != nil {
		if ctx.Err() == nil && !errors.Is(err, assessment.ErrSessionClosed) {
			st.log.Warn().Err(err).Msg("Grading failed")
			st.writeErr(err)
		}
		return
	}

	var modelAnswer string
	if q, ok := s.Question(0); ok {
		if sq, isScenario := q.(assessment.ScenarioQuestion); isScenario {
			modelAnswer = sq.ModelAnswer
		}
	}
	_ = st.w.WriteTyped(ws.NewGradedResponse(res, modelAnswer))

	st.recorded.Do(func() {
		if err := st.h.results.Record(ctx, st.deviceID, s.Snapshot()); err != nil {
			st.log.Error().Err(err).Msg("Failed to queue practice result")
			return
		}
		logEvt := st.log.Info().Bool("auto_submitted", res.AutoSubmitted)
		if res.Score != nil {
			logEvt = logEvt.Int("score", *res.Score)
		}
		logEvt.Msg("Practice session graded")
	})
}

func (st *stream) writeState() {
	_ = st.w.WriteTyped(ws.NewStateResponse(st.session.Snapshot()))
}

func (st *stream) writeErr(err error) {
	f := classify(err)
	msg := f.message
	if msg == "" {
		msg = response.GetMessage(f.code)
	}
	_ = st.w.WriteError(string(f.code), msg, f.retryable)
}
