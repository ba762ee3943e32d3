package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/middleware"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/response"
	"github.com/stemsi/studyguide/internal/service"
	"github.com/stemsi/studyguide/internal/validator"
)

// StudyHandler serves the per-user study endpoints backed by upstream.
type StudyHandler struct {
	studyService *service.StudyService
	log          zerolog.Logger
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(studyService *service.StudyService, log zerolog.Logger) *StudyHandler {
	return &StudyHandler{
		studyService: studyService,
		log:          log.With().Str("component", "study_handler").Logger(),
	}
}

// Categories godoc
// GET /api/v1/categories
func (h *StudyHandler) Categories(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	categories, err := h.studyService.Categories(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	response.Success(c, http.StatusOK, gin.H{"categories": categories})
}

// ToggleBookmark godoc
// POST /api/v1/bookmarks/toggle
func (h *StudyHandler) ToggleBookmark(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.BookmarkToggleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.studyService.ToggleBookmark(c.Request.Context(), claims.DeviceID(), req.QuestionID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// Bookmarks godoc
// GET /api/v1/bookmarks
func (h *StudyHandler) Bookmarks(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questions, err := h.studyService.Bookmarks(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Progress godoc
// GET /api/v1/progress/:question_id
func (h *StudyHandler) Progress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	p, err := h.studyService.Progress(c.Request.Context(), claims.DeviceID(), c.Param("question_id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Stats godoc
// GET /api/v1/stats
func (h *StudyHandler) Stats(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	stats, err := h.studyService.Stats(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Leaderboard godoc
// GET /api/v1/leaderboard
// Guests receive an empty board with an explanatory message.
func (h *StudyHandler) Leaderboard(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	board, err := h.studyService.Leaderboard(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if board.Leaderboard == nil {
		board.Leaderboard = []model.LeaderboardEntry{}
	}
	response.Success(c, http.StatusOK, board)
}

// ScenarioHistory godoc
// GET /api/v1/scenarios/history
func (h *StudyHandler) ScenarioHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	history, err := h.studyService.ScenarioHistory(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if history == nil {
		history = []model.ScenarioResponse{}
	}
	response.Success(c, http.StatusOK, gin.H{"responses": history})
}

// ResetScores godoc
// POST /api/v1/user/reset-scores
func (h *StudyHandler) ResetScores(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	res, err := h.studyService.ResetScores(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Analytics godoc
// GET /api/v1/admin/analytics
// Passes the upstream analytics payload through unchanged.
func (h *StudyHandler) Analytics(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	data, err := h.studyService.Analytics(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}
