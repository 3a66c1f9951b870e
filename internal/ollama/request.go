package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// maxAttempts bounds the retry loop for POST calls.
	maxAttempts = 3

	// backoffBase seeds the exponential backoff between attempts.
	backoffBase = 500 * time.Millisecond
)

// generateRequest is the payload of POST /api/generate.
type generateRequest struct {
	Model     string   `json:"model"`
	Prompt    string   `json:"prompt"`
	Stream    bool     `json:"stream"`
	Images    []string `json:"images,omitempty"`
	KeepAlive *int     `json:"keep_alive,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// chatRequest is the payload of POST /api/chat.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// apiError is Ollama's error body, e.g. {"error": "model 'x' not found"}.
type apiError struct {
	Error string `json:"error"`
}

// doPost executes a POST call with up to maxAttempts attempts. Transport
// failures and 5xx responses are retried with exponential backoff; 4xx
// responses fail immediately, a 404 as ModelNotFoundError. Each attempt
// gets its own deadline of timeout, detached from ctx: an in-flight call
// always runs to completion, and ctx cancellation is honored only between
// attempts. Exhaustion returns a RequestError whose kind mirrors the last
// failure.
func (c *Client) doPost(ctx context.Context, endpoint, model string, payload any, timeout time.Duration) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var lastKind FailureKind
	var lastStatus int
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if ctx.Err() != nil {
				log.Debug().Str("path", endpoint).Msg("Not retrying Ollama request, caller cancelled")
				return nil, &RequestError{
					Kind:     lastKind,
					Status:   lastStatus,
					Attempts: attempt,
					Timeout:  timeout,
					Err:      lastErr,
				}
			}
			delay := backoffBase << (attempt - 1)
			log.Debug().Int("attempt", attempt+1).Dur("backoff", delay).
				Str("path", endpoint).Msg("Retrying Ollama request")
			c.sleep(delay)
		}

		respBody, status, err := c.attempt(endpoint, body, timeout)
		if err != nil {
			lastErr = err
			if isTimeout(err) {
				lastKind = FailureTimeout
			} else {
				lastKind = FailureConnection
			}
			log.Warn().Err(err).Int("attempt", attempt+1).Str("path", endpoint).
				Msg("Ollama request failed at transport level")
			continue
		}

		switch {
		case status >= 200 && status < 300:
			return respBody, nil
		case status >= 500:
			lastKind = FailureServer
			lastStatus = status
			lastErr = fmt.Errorf("server returned status %d", status)
			log.Warn().Int("status", status).Int("attempt", attempt+1).
				Str("path", endpoint).Msg("Ollama server error")
			continue
		case status == http.StatusNotFound:
			return nil, &ModelNotFoundError{Model: model, Detail: errorDetail(respBody)}
		default:
			return nil, fmt.Errorf("Ollama API returned status %d: %s", status, errorDetail(respBody))
		}
	}

	return nil, &RequestError{
		Kind:     lastKind,
		Status:   lastStatus,
		Attempts: maxAttempts,
		Timeout:  timeout,
		Err:      lastErr,
	}
}

// attempt performs one POST round-trip under its own deadline. The deadline
// is built on a fresh context rather than the caller's: cancelling a batch
// must never kill the socket under an in-flight call.
func (c *Client) attempt(endpoint string, body []byte, timeout time.Duration) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := c.now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	log.Debug().Str("path", endpoint).Int("status", resp.StatusCode).
		Dur("duration", c.now().Sub(start)).Msg("Ollama API response")
	return respBody, resp.StatusCode, nil
}

// isTimeout distinguishes deadline expiry from other transport failures.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorDetail extracts Ollama's error message from a failure body.
func errorDetail(body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return string(bytes.TrimSpace(body))
}

// generate issues a POST /api/generate call and returns the raw response
// text.
func (c *Client) generate(ctx context.Context, req generateRequest, timeout time.Duration) (string, error) {
	body, err := c.doPost(ctx, "/api/generate", req.Model, req, timeout)
	if err != nil {
		return "", err
	}
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse generate response: %w", err)
	}
	return resp.Response, nil
}
