// Package generator talks to the external content-generation service. The
// service is opaque: given a question count and topic it returns raw
// multiple-choice questions, and it may be slow or fail — callers bound every
// request and substitute the fallback set.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trivia-arena/internal/domain"
)

type Client struct {
	url    string
	client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		url: url,
		client: &http.Client{
			// Per-call deadlines come from the context; this is a hard cap
			// against a generator that never responds.
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	NumQuestions int    `json:"num_questions"`
	Topic        string `json:"topic"`
}

// Questions requests a freshly generated question set.
func (c *Client) Questions(ctx context.Context, count int, topic string) ([]domain.GeneratedQuestion, error) {
	if c.url == "" {
		return nil, domain.ErrQuestionSetUnavailable
	}

	body, err := json.Marshal(generateRequest{NumQuestions: count, Topic: topic})
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var raw []domain.GeneratedQuestion
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode generator response: %w", err)
	}

	questions := raw[:0]
	for _, q := range raw {
		if q.Question == "" || len(q.Options) < 2 {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, domain.ErrQuestionSetUnavailable
	}
	return questions, nil
}
