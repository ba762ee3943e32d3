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

// ResultHandler serves the device's local practice history.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/results?page=&per_page=&kind=
func (h *ResultHandler) ListResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.ResultListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, pagination, err := h.resultService.List(c.Request.Context(), claims.DeviceID(), q)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if results == nil {
		results = []model.PracticeResult{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, pagination)
}

// Summary godoc
// GET /api/v1/results/summary
func (h *ResultHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	summary, err := h.resultService.Summary(c.Request.Context(), claims.DeviceID())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"summary": summary})
}
