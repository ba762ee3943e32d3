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

// QuestionHandler serves question content and its admin management.
type QuestionHandler struct {
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
		log:             log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/questions?type=&category_id=
// Lists questions with answer keys removed.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var f model.QuestionFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), claims.DeviceID(), f)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	public := make([]model.Question, len(questions))
	for i, q := range questions {
		public[i] = q.Public()
	}
	response.Success(c, http.StatusOK, gin.H{"questions": public})
}

// GetQuestion godoc
// GET /api/v1/questions/:id
// Returns one question. Admins receive the answer key.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	q, err := h.questionService.Get(c.Request.Context(), claims.DeviceID(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if claims.Role != model.RoleAdmin {
		q = q.Public()
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// CreateQuestion godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Create(c.Request.Context(), claims.DeviceID(), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": q})
}

// UpdateQuestion godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.Update(c.Request.Context(), claims.DeviceID(), c.Param("id"), req)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": q})
}

// DeleteQuestion godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), claims.DeviceID(), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted"})
}

// InvalidateCache godoc
// POST /api/v1/admin/questions/cache/invalidate
// Drops every cached question listing.
func (h *QuestionHandler) InvalidateCache(c *gin.Context) {
	if err := h.questionService.Invalidate(c.Request.Context()); err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question cache cleared"})
}
