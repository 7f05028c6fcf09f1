package answer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/conorfennell/studydesk/internal/domain"
)

type chatCompletionRequest struct {
	Model    string                  `json:"model"`
	Messages []chatCompletionMessage `json:"messages"`
	Stream   bool                    `json:"stream"`
}

type chatCompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
	} `json:"choices"`
}

// complete sends one request and extracts the first choice's message.
func (p *Provider) complete(ctx context.Context, apiKey string, subject domain.Subject, question string) (string, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []chatCompletionMessage{
			{Role: "system", Content: subject.Persona()},
			{Role: "user", Content: question},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &domain.NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", p.classify(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.classify(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.NetworkError{Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))}
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &domain.NetworkError{Err: fmt.Errorf("malformed response: %w", err)}
	}
	if len(out.Choices) == 0 {
		return "", &domain.NetworkError{Err: errors.New("response has no choices")}
	}
	return out.Choices[0].Message.Content, nil
}

func (p *Provider) classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &domain.TimeoutError{After: p.cfg.Timeout.String()}
	}
	return &domain.NetworkError{Err: err}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
