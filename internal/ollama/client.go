// Package ollama implements the HTTP client for a locally hosted Ollama
// server: liveness probing, retried request execution, and the generation,
// chat, interrogation, and unload operations the enhancement pipeline is
// built on. It is the only package in the core that performs network I/O.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the standard local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

const (
	// livenessTTL bounds how long a liveness probe result is trusted.
	livenessTTL = 5 * time.Second

	// probeTimeout keeps the liveness probe cheap.
	probeTimeout = 2 * time.Second

	// unloadTimeout bounds the best-effort model unload call.
	unloadTimeout = 10 * time.Second
)

// Timeouts holds the per-call timeout tiers. Zero fields fall back to the
// tier defaults.
type Timeouts struct {
	// Standard applies to enhancement and chat calls.
	Standard time.Duration
	// Variation applies to variation calls, which work from an already
	// enhanced prompt and finish faster.
	Variation time.Duration
	// Vision applies to image interrogation and brainstorm generation,
	// the slowest call shapes.
	Vision time.Duration
}

// DefaultTimeouts are the stock timeout tiers.
var DefaultTimeouts = Timeouts{
	Standard:  45 * time.Second,
	Variation: 30 * time.Second,
	Vision:    90 * time.Second,
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Standard <= 0 {
		t.Standard = DefaultTimeouts.Standard
	}
	if t.Variation <= 0 {
		t.Variation = DefaultTimeouts.Variation
	}
	if t.Vision <= 0 {
		t.Vision = DefaultTimeouts.Vision
	}
	return t
}

// Result is a parsed model response: the generated prompt text plus the
// recommended Stable Diffusion model. Both the success and fallback paths
// of every operation produce this shape.
type Result struct {
	Prompt  string `json:"prompt"`
	SDModel string `json:"sd_model"`
}

// Message is a single turn of a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client talks to an Ollama server. The zero value is not usable; call
// NewClient. A Client is safe for use from multiple goroutines: the
// liveness cache is the only mutable state and is mutex-guarded.
type Client struct {
	httpClient *http.Client
	baseURL    string
	timeouts   Timeouts

	// now and sleep are injected for tests.
	now   func() time.Time
	sleep func(time.Duration)

	mu        sync.Mutex
	lastAlive bool
	lastProbe time.Time
}

// NewClient creates a Client for the given base URL. An empty baseURL uses
// DefaultBaseURL; zero timeout tiers use the defaults.
func NewClient(baseURL string, timeouts Timeouts) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		timeouts:   timeouts.withDefaults(),
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// IsServerLive reports whether the Ollama server answers at all. Results
// are cached for livenessTTL so repeated calls during a batch do not spam
// the server; connection failures are reported as false, never as errors.
func (c *Client) IsServerLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastProbe.IsZero() && c.now().Sub(c.lastProbe) < livenessTTL {
		return c.lastAlive
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	alive := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err == nil {
		resp, err := c.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			alive = true
		} else {
			log.Debug().Err(err).Str("baseUrl", c.baseURL).Msg("Ollama liveness probe failed")
		}
	}

	c.lastAlive = alive
	c.lastProbe = c.now()
	return alive
}

// tagsResponse is the payload of GET /api/tags.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels returns the names of the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if !c.IsServerLive() {
		return nil, ErrServerUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Standard)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error getting Ollama models from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error getting Ollama models from API: status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("parse models response: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
