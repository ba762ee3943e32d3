package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/apiclient"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/response"
)

// failure is the HTTP rendering of a service error.
type failure struct {
	status    int
	code      response.ErrCode
	message   string
	retryable bool
}

// classify maps upstream, session and transport errors onto response codes.
func classify(err error) failure {
	var apiErr *apiclient.APIError
	var gradingErr *assessment.GradingError

	switch {
	case errors.Is(err, apiclient.ErrRecoveryInFlight):
		return failure{status: http.StatusServiceUnavailable, code: response.ErrRecoveryInFlight, retryable: true}
	case errors.Is(err, apiclient.ErrNoCredentials):
		return failure{status: http.StatusUnauthorized, code: response.ErrSessionInvalidated}

	case errors.As(err, &gradingErr):
		return failure{status: http.StatusBadGateway, code: response.ErrGradingFailed, retryable: true}
	case errors.Is(err, assessment.ErrGradingInProgress):
		return failure{status: http.StatusConflict, code: response.ErrConflict, message: err.Error(), retryable: true}
	case errors.Is(err, assessment.ErrNoQuestions):
		return failure{status: http.StatusUnprocessableEntity, code: response.ErrNoQuestions}
	case errors.Is(err, assessment.ErrSessionClosed):
		return failure{status: http.StatusGone, code: response.ErrSessionClosed}
	case errors.Is(err, assessment.ErrInvalidState):
		return failure{status: http.StatusConflict, code: response.ErrInvalidState, message: err.Error()}
	case assessment.IsValidation(err):
		return failure{status: http.StatusBadRequest, code: response.ErrValidation, message: err.Error()}

	case errors.As(err, &apiErr):
		return classifyUpstream(apiErr)
	case apiclient.IsNetworkError(err), errors.Is(err, context.DeadlineExceeded):
		return failure{status: http.StatusServiceUnavailable, code: response.ErrUpstreamUnavailable, retryable: true}
	}
	return failure{status: http.StatusInternalServerError, code: response.ErrInternal}
}

func classifyUpstream(e *apiclient.APIError) failure {
	f := failure{message: e.Detail}
	switch {
	case e.Status == http.StatusUnauthorized:
		f.status, f.code = http.StatusUnauthorized, response.ErrInvalidCredentials
	case e.Status == http.StatusForbidden:
		f.status, f.code = http.StatusForbidden, response.ErrForbidden
	case e.Status == http.StatusNotFound:
		f.status, f.code = http.StatusNotFound, response.ErrNotFound
	case e.Status == http.StatusConflict:
		f.status, f.code = http.StatusConflict, response.ErrConflict
	case e.Status == http.StatusTooManyRequests:
		f.status, f.code, f.retryable = http.StatusTooManyRequests, response.ErrRateLimitExceeded, true
	case e.Status >= 400 && e.Status < 500:
		f.status, f.code = http.StatusBadRequest, response.ErrUpstreamRejected
	default:
		f.status, f.code, f.retryable = http.StatusBadGateway, response.ErrUpstreamUnavailable, true
	}
	return f
}

// fail renders err and logs anything that is not the caller's fault.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	f := classify(err)
	if f.status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	response.FailWithMessage(c, f.status, f.code, f.message)
}
