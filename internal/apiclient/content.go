package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/stemsi/studyguide/internal/model"
)

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.Do(ctx, http.MethodGet, "/categories", nil, &out)
	return out, err
}

// Questions lists questions, optionally filtered by type and category.
func (c *Client) Questions(ctx context.Context, f model.QuestionFilter) ([]model.Question, error) {
	q := url.Values{}
	if f.Type != "" {
		q.Set("type", string(f.Type))
	}
	if f.CategoryID != "" {
		q.Set("category_id", f.CategoryID)
	}
	path := "/questions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []model.Question
	err := c.Do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Question(ctx context.Context, id string) (model.Question, error) {
	var out model.Question
	err := c.Do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateQuestion(ctx context.Context, req model.SaveQuestionRequest) (model.Question, error) {
	var out model.Question
	err := c.Do(ctx, http.MethodPost, "/questions", req, &out)
	return out, err
}

func (c *Client) UpdateQuestion(ctx context.Context, id string, req model.SaveQuestionRequest) (model.Question, error) {
	var out model.Question
	err := c.Do(ctx, http.MethodPut, "/questions/"+url.PathEscape(id), req, &out)
	return out, err
}

func (c *Client) DeleteQuestion(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/questions/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ToggleBookmark(ctx context.Context, questionID string) (model.BookmarkState, error) {
	var out model.BookmarkState
	err := c.Do(ctx, http.MethodPost, "/bookmarks/toggle", model.BookmarkToggleRequest{QuestionID: questionID}, &out)
	return out, err
}

func (c *Client) Bookmarks(ctx context.Context) ([]model.Question, error) {
	var out []model.Question
	err := c.Do(ctx, http.MethodGet, "/bookmarks", nil, &out)
	return out, err
}

func (c *Client) Progress(ctx context.Context, questionID string) (model.Progress, error) {
	var out model.Progress
	err := c.Do(ctx, http.MethodGet, "/progress/"+url.PathEscape(questionID), nil, &out)
	return out, err
}

func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var out model.Stats
	err := c.Do(ctx, http.MethodGet, "/stats", nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context) (model.Leaderboard, error) {
	var out model.Leaderboard
	err := c.Do(ctx, http.MethodGet, "/leaderboard", nil, &out)
	return out, err
}

// ResetScores clears the user's scenario history. Guests get a message and
// nothing is removed.
func (c *Client) ResetScores(ctx context.Context) (model.ResetScoresResult, error) {
	var out model.ResetScoresResult
	err := c.Do(ctx, http.MethodPost, "/reset-scores", nil, &out)
	return out, err
}

// AdminAnalytics returns the admin dashboard payload as raw JSON.
func (c *Client) AdminAnalytics(ctx context.Context) (model.Analytics, error) {
	var out json.RawMessage
	err := c.Do(ctx, http.MethodGet, "/admin/analytics", nil, &out)
	return out, err
}
