package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/domain"
)

// Client talks JSON over HTTP to the external session service. It is
// best-effort by contract: callers treat domain.ErrRemoteUnavailable as a
// signal to fall back to a local session.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type startSessionRequest struct {
	CategoryID       string `json:"categoryId"`
	Language         string `json:"language,omitempty"`
	QuestionCount    int    `json:"questionCount"`
	TimeLimitSeconds int    `json:"timeLimitSeconds"`
}

type submitAnswerRequest struct {
	QuestionID       string `json:"questionId"`
	SelectedValue    string `json:"selectedValue"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

func (c *Client) StartSession(ctx context.Context, req app.StartRequest) (*domain.Session, error) {
	body := startSessionRequest{
		CategoryID:       req.CategoryID,
		Language:         req.Language,
		QuestionCount:    req.QuestionCount,
		TimeLimitSeconds: req.TimeLimitSeconds,
	}
	var session domain.Session
	if err := c.do(ctx, http.MethodPost, "/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ActiveSession(ctx context.Context, categoryID string) (*domain.Session, error) {
	path := "/sessions/active?categoryId=" + url.QueryEscape(categoryID)
	var session domain.Session
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, sessionID string, sub app.AnswerSubmission) (domain.Answer, error) {
	body := submitAnswerRequest{
		QuestionID:       sub.QuestionID,
		SelectedValue:    sub.SelectedValue,
		TimeSpentSeconds: sub.TimeSpentSeconds,
	}
	var answer domain.Answer
	path := "/sessions/" + url.PathEscape(sessionID) + "/answers"
	if err := c.do(ctx, http.MethodPost, path, body, &answer); err != nil {
		return domain.Answer{}, err
	}
	return answer, nil
}

func (c *Client) FinalizeSession(ctx context.Context, sessionID string) (domain.ScoreSummary, error) {
	var summary domain.ScoreSummary
	path := "/sessions/" + url.PathEscape(sessionID) + "/finalize"
	if err := c.do(ctx, http.MethodPost, path, nil, &summary); err != nil {
		return domain.ScoreSummary{}, err
	}
	return summary, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrRemoteUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNoActiveSession
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, domain.ErrRemoteUnavailable)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
