package batch

import "github.com/promptforge/promptforge/internal/ollama"

// Event is a progress notification emitted while a batch runs. It is a
// closed set: exactly the four variants below exist. Events are delivered
// synchronously on the orchestrator's own goroutine and are not retained;
// callers embedding the orchestrator in a UI are expected to marshal them
// onto their own event loop.
type Event interface {
	isEvent()
}

// EnhancementStart fires before a prompt's enhancement call.
type EnhancementStart struct {
	PromptNum    int // 1-based
	TotalPrompts int
}

// VariationStart fires before each variation call of a prompt.
type VariationStart struct {
	VariationType string
	PromptNum     int // 1-based
	TotalPrompts  int
}

// BatchComplete fires once when every prompt was processed without
// cancellation.
type BatchComplete struct{}

// BatchCancelled fires once when cancellation stops the batch.
type BatchCancelled struct{}

func (EnhancementStart) isEvent() {}
func (VariationStart) isEvent()   {}
func (BatchComplete) isEvent()    {}
func (BatchCancelled) isEvent()   {}

// StatusFunc receives progress events.
type StatusFunc func(Event)

// ResultFunc receives each completed stage as soon as it finishes, keyed
// by "enhanced" or the variation type, enabling progressive display before
// the batch returns.
type ResultFunc func(stage string, result ollama.Result)

// StageEnhanced is the ResultFunc stage key for the primary enhancement.
const StageEnhanced = "enhanced"
