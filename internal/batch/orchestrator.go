// Package batch sequences prompts through the model client, reporting
// progress through callbacks and honoring cooperative cancellation.
//
// A batch runs on a single logical thread: the local model server serves
// one generation at a time on shared accelerator memory, so concurrent
// requests would contend rather than speed anything up, and serial
// execution keeps event ordering deterministic.
package batch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/promptforge/promptforge/internal/ollama"
)

// Status describes how far a prompt got through the pipeline.
type Status string

const (
	StatusPending       Status = "pending"
	StatusEnhanced      Status = "enhanced"
	StatusPartiallyDone Status = "partial"
	StatusCancelled     Status = "cancelled"
)

// PromptRecord aggregates everything produced for one prompt. Records are
// owned by the orchestrator for the duration of a batch and returned only
// for prompts whose iteration ran to completion.
type PromptRecord struct {
	Original     string
	Enhanced     ollama.Result
	Variations   map[string]ollama.Result
	Status       Status
	TemplateName string
}

// Enhancer is the model client surface the orchestrator drives.
type Enhancer interface {
	Enhance(ctx context.Context, instruction, prompt, model string) (ollama.Result, error)
	CreateVariation(ctx context.Context, instruction, basePrompt, baseSDModel, model, variationType, originalContext string) ollama.Result
}

// InstructionSource resolves instruction-prefix text by key: "enhancement"
// or a variation-type name.
type InstructionSource interface {
	Instruction(key string) (string, error)
}

// Orchestrator drives enhancement batches. Configure callbacks before
// calling ProcessBatch; both are optional.
type Orchestrator struct {
	client       Enhancer
	instructions InstructionSource
	onStatus     StatusFunc
	onResult     ResultFunc
}

// New creates an Orchestrator on top of a model client and an instruction
// source.
func New(client Enhancer, instructions InstructionSource) *Orchestrator {
	return &Orchestrator{client: client, instructions: instructions}
}

// SetCallbacks registers the progress and per-stage result sinks. Either
// may be nil.
func (o *Orchestrator) SetCallbacks(status StatusFunc, result ResultFunc) {
	o.onStatus = status
	o.onResult = result
}

func (o *Orchestrator) emit(ev Event) {
	if o.onStatus != nil {
		o.onStatus(ev)
	}
}

func (o *Orchestrator) deliver(stage string, result ollama.Result) {
	if o.onResult != nil {
		o.onResult(stage, result)
	}
}

// ProcessBatch enhances each prompt in order and, when variation types are
// given, derives each variation in the caller's order. Cancellation via ctx
// is cooperative and observed only before each prompt and before each
// variation; an in-flight network call always runs to completion. A prompt
// interrupted mid-flight is not included in the returned records.
//
// An enhancement failure aborts the whole batch and is returned along with
// the records committed so far; an unenhanced prompt has no usable output.
// Variation failures never abort anything: the client degrades them to the
// base enhancement internally.
func (o *Orchestrator) ProcessBatch(ctx context.Context, prompts []string, model string, variationTypes []string, templateName string) ([]PromptRecord, error) {
	enhanceInstr, err := o.instructions.Instruction("enhancement")
	if err != nil {
		return nil, err
	}
	variations := o.resolveVariations(variationTypes)

	records := make([]PromptRecord, 0, len(prompts))
	total := len(prompts)
	cancelNotified := false

	for i, prompt := range prompts {
		if ctx.Err() != nil {
			o.emit(BatchCancelled{})
			cancelNotified = true
			break
		}

		o.emit(EnhancementStart{PromptNum: i + 1, TotalPrompts: total})
		enhanced, err := o.client.Enhance(ctx, enhanceInstr, prompt, model)
		if err != nil {
			log.Error().Err(err).Int("prompt", i+1).Msg("Enhancement failed, aborting batch")
			return records, err
		}

		record := PromptRecord{
			Original:     prompt,
			Enhanced:     enhanced,
			Variations:   make(map[string]ollama.Result, len(variations)),
			Status:       StatusEnhanced,
			TemplateName: templateName,
		}
		o.deliver(StageEnhanced, enhanced)

		for _, v := range variations {
			if ctx.Err() != nil {
				record.Status = StatusPartiallyDone
				break
			}
			o.emit(VariationStart{VariationType: v.key, PromptNum: i + 1, TotalPrompts: total})
			result := o.client.CreateVariation(ctx, v.instruction,
				enhanced.Prompt, enhanced.SDModel, model, v.key, prompt)
			record.Variations[v.key] = result
			o.deliver(v.key, result)
		}

		// A prompt interrupted mid-flight is dropped; the next loop
		// iteration observes the cancellation and reports it.
		if ctx.Err() != nil {
			continue
		}
		records = append(records, record)
	}

	if ctx.Err() != nil {
		if !cancelNotified {
			o.emit(BatchCancelled{})
		}
		return records, nil
	}

	o.emit(BatchComplete{})
	return records, nil
}

// variation pairs a variation type with its resolved instruction text.
type variation struct {
	key         string
	instruction string
}

// resolveVariations loads instructions for the requested variation types
// once per batch, preserving the caller's order. Unknown types are skipped
// rather than failing the batch.
func (o *Orchestrator) resolveVariations(types []string) []variation {
	variations := make([]variation, 0, len(types))
	for _, key := range types {
		instr, err := o.instructions.Instruction(key)
		if err != nil {
			log.Warn().Err(err).Str("variation", key).Msg("Skipping unknown variation type")
			continue
		}
		variations = append(variations, variation{key: key, instruction: instr})
	}
	return variations
}
