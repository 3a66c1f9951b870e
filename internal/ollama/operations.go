package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promptforge/promptforge/internal/parse"
)

// Enhance rewrites a raw template-generated prompt into a richer
// description plus a recommended SD model. instruction is the enhancement
// system prompt; the model's reply is parsed leniently, so a response that
// ignores the marker format still yields a usable Result.
func (c *Client) Enhance(ctx context.Context, instruction, prompt, model string) (Result, error) {
	raw, err := c.generate(ctx, generateRequest{
		Model:  model,
		Prompt: instruction + prompt,
		Stream: false,
	}, c.timeouts.Standard)
	if err != nil {
		return Result{}, err
	}

	enhanced, sdModel := parse.ParseEnhancedResponse(raw)
	log.Debug().Str("model", model).Int("responseLength", len(raw)).
		Msg("Enhancement response parsed")
	return Result{Prompt: enhanced, SDModel: sdModel}, nil
}

// CreateVariation rewrites an already-enhanced prompt toward a stylistic
// axis. When originalContext differs from basePrompt both are passed to
// the model so it can see what the enhancement changed. Variations are
// decorative: any failure is logged and the base enhancement is returned
// unchanged, never an error.
func (c *Client) CreateVariation(ctx context.Context, instruction, basePrompt, baseSDModel, model, variationType, originalContext string) Result {
	fullPrompt := instruction + basePrompt
	if originalContext != "" && originalContext != basePrompt {
		fullPrompt = fmt.Sprintf("%s\nORIGINAL: %s\nENHANCED: %s", instruction, originalContext, basePrompt)
	}

	raw, err := c.generate(ctx, generateRequest{
		Model:  model,
		Prompt: fullPrompt,
		Stream: false,
	}, c.timeouts.Variation)
	if err != nil {
		log.Warn().Err(err).Str("variation", variationType).Str("model", model).
			Msg("Variation failed, falling back to base enhancement")
		return Result{Prompt: basePrompt, SDModel: baseSDModel}
	}

	prompt, sdModel := parse.ParseEnhancedResponse(raw)
	return Result{Prompt: prompt, SDModel: sdModel}
}

// Chat sends a message history to the model and returns the raw assistant
// reply. A zero timeout uses the standard tier; brainstorming callers pass
// the vision tier for long creative tasks.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.timeouts.Standard
	}

	body, err := c.doPost(ctx, "/api/chat", model, chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
	}, timeout)
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	return resp.Message.Content, nil
}

// Generate issues a one-shot generation at the vision/brainstorm tier.
// Used for creative tasks (template and wildcard brainstorming) whose
// replies routinely exceed the standard tier.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	}, c.timeouts.Vision)
}

// InterrogateImage asks a vision-capable model to describe an image. The
// image is passed base64-encoded; promptHint steers the description.
func (c *Client) InterrogateImage(ctx context.Context, model, imageB64, promptHint string) (string, error) {
	if promptHint == "" {
		promptHint = "Describe this image as a detailed Stable Diffusion prompt."
	}
	return c.generate(ctx, generateRequest{
		Model:  model,
		Prompt: promptHint,
		Stream: false,
		Images: []string{imageB64},
	}, c.timeouts.Vision)
}

// Unload evicts a model from server memory via a zero keep_alive call.
// Best-effort cleanup: failures are logged, never returned.
func (c *Client) Unload(ctx context.Context, model string) {
	keepAlive := 0
	_, err := c.doPost(ctx, "/api/generate", model, generateRequest{
		Model:     model,
		Prompt:    "",
		Stream:    false,
		KeepAlive: &keepAlive,
	}, unloadTimeout)
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("Could not unload model")
		return
	}
	log.Info().Str("model", model).Msg("Model unloaded")
}
