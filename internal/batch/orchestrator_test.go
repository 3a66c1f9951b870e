package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/promptforge/promptforge/internal/ollama"
)

// fakeInstructions serves canned instruction text and fails for unknown
// keys, like the real store.
type fakeInstructions struct {
	known map[string]string
}

func (f *fakeInstructions) Instruction(key string) (string, error) {
	if text, ok := f.known[key]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no instruction for %q", key)
}

func defaultInstructions() *fakeInstructions {
	return &fakeInstructions{known: map[string]string{
		"enhancement": "Enhance: ",
		"cinematic":   "Cinematic: ",
		"artistic":    "Artistic: ",
	}}
}

// fakeClient implements Enhancer with configurable per-call hooks.
type fakeClient struct {
	enhanceCalls   int
	variationCalls []string
	onEnhance      func(prompt string) (ollama.Result, error)
	onVariation    func(varType string)
}

func (f *fakeClient) Enhance(ctx context.Context, instruction, prompt, model string) (ollama.Result, error) {
	f.enhanceCalls++
	if f.onEnhance != nil {
		return f.onEnhance(prompt)
	}
	return ollama.Result{Prompt: "enhanced " + prompt, SDModel: "SDXL"}, nil
}

func (f *fakeClient) CreateVariation(ctx context.Context, instruction, basePrompt, baseSDModel, model, variationType, originalContext string) ollama.Result {
	f.variationCalls = append(f.variationCalls, variationType)
	if f.onVariation != nil {
		f.onVariation(variationType)
	}
	return ollama.Result{Prompt: variationType + " " + basePrompt, SDModel: baseSDModel}
}

func TestProcessBatchOrdering(t *testing.T) {
	client := &fakeClient{}
	o := New(client, defaultInstructions())

	var events []string
	var stages []string
	o.SetCallbacks(
		func(ev Event) {
			switch e := ev.(type) {
			case EnhancementStart:
				events = append(events, fmt.Sprintf("enhance %d/%d", e.PromptNum, e.TotalPrompts))
			case VariationStart:
				events = append(events, fmt.Sprintf("variation %s %d/%d", e.VariationType, e.PromptNum, e.TotalPrompts))
			case BatchComplete:
				events = append(events, "complete")
			case BatchCancelled:
				events = append(events, "cancelled")
			}
		},
		func(stage string, result ollama.Result) {
			stages = append(stages, stage)
		},
	)

	records, err := o.ProcessBatch(context.Background(),
		[]string{"a cat", "a dog"}, "m", []string{"cinematic", "artistic"}, "animals.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.Status != StatusEnhanced {
			t.Errorf("record %d status = %s", i, rec.Status)
		}
		if len(rec.Variations) != 2 {
			t.Errorf("record %d has %d variations", i, len(rec.Variations))
		}
		if rec.TemplateName != "animals.txt" {
			t.Errorf("record %d template = %q", i, rec.TemplateName)
		}
	}
	if records[0].Enhanced.Prompt != "enhanced a cat" {
		t.Errorf("enhanced = %q", records[0].Enhanced.Prompt)
	}

	wantEvents := []string{
		"enhance 1/2", "variation cinematic 1/2", "variation artistic 1/2",
		"enhance 2/2", "variation cinematic 2/2", "variation artistic 2/2",
		"complete",
	}
	if fmt.Sprint(events) != fmt.Sprint(wantEvents) {
		t.Errorf("events = %v, want %v", events, wantEvents)
	}

	wantStages := []string{"enhanced", "cinematic", "artistic", "enhanced", "cinematic", "artistic"}
	if fmt.Sprint(stages) != fmt.Sprint(wantStages) {
		t.Errorf("stages = %v, want %v", stages, wantStages)
	}
}

func TestProcessBatchCancelledMidPrompt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := &fakeClient{}
	o := New(client, defaultInstructions())

	var cancelled bool
	o.SetCallbacks(
		func(ev Event) {
			if _, ok := ev.(BatchCancelled); ok {
				cancelled = true
			}
		},
		func(stage string, result ollama.Result) {
			// Cancel after prompt 1's enhancement lands, before its
			// variation call.
			if stage == StageEnhanced {
				cancel()
			}
		},
	)

	records, err := o.ProcessBatch(ctx, []string{"one", "two"}, "m", []string{"cinematic"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected zero committed records, got %d", len(records))
	}
	if !cancelled {
		t.Error("expected BatchCancelled event")
	}
	if client.enhanceCalls != 1 {
		t.Errorf("expected no network call for prompt 2, got %d enhance calls", client.enhanceCalls)
	}
	if len(client.variationCalls) != 0 {
		t.Errorf("expected no variation calls after cancellation, got %v", client.variationCalls)
	}
}

func TestProcessBatchCancelKeepsCommittedRecords(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := &fakeClient{}
	client.onEnhance = func(prompt string) (ollama.Result, error) {
		if prompt == "two" {
			// Cancellation fires while prompt 2 is in flight; the call
			// still completes (no socket-level cancellation).
			cancel()
		}
		return ollama.Result{Prompt: "enhanced " + prompt, SDModel: "SDXL"}, nil
	}
	o := New(client, defaultInstructions())

	cancelEvents := 0
	o.SetCallbacks(func(ev Event) {
		if _, ok := ev.(BatchCancelled); ok {
			cancelEvents++
		}
	}, nil)

	records, err := o.ProcessBatch(ctx, []string{"one", "two"}, "m", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Original != "one" {
		t.Errorf("expected only prompt 1 committed, got %v", records)
	}
	if cancelEvents != 1 {
		t.Errorf("expected exactly one BatchCancelled, got %d", cancelEvents)
	}
}

func TestProcessBatchEnhanceErrorAborts(t *testing.T) {
	wantErr := errors.New("server exploded")
	client := &fakeClient{}
	client.onEnhance = func(prompt string) (ollama.Result, error) {
		if prompt == "two" {
			return ollama.Result{}, wantErr
		}
		return ollama.Result{Prompt: "enhanced " + prompt, SDModel: "SDXL"}, nil
	}
	o := New(client, defaultInstructions())

	records, err := o.ProcessBatch(context.Background(),
		[]string{"one", "two", "three"}, "m", nil, "")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the enhancement error, got %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 committed record before the failure, got %d", len(records))
	}
	if client.enhanceCalls != 2 {
		t.Errorf("expected the batch aborted at prompt 2, got %d calls", client.enhanceCalls)
	}
}

func TestProcessBatchSkipsUnknownVariations(t *testing.T) {
	client := &fakeClient{}
	o := New(client, defaultInstructions())

	records, err := o.ProcessBatch(context.Background(),
		[]string{"one"}, "m", []string{"cinematic", "bogus"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := records[0]
	if len(rec.Variations) != 1 {
		t.Errorf("expected 1 variation, got %v", rec.Variations)
	}
	if _, ok := rec.Variations["bogus"]; ok {
		t.Error("unknown variation type must not appear in the record")
	}
	if fmt.Sprint(client.variationCalls) != "[cinematic]" {
		t.Errorf("variation calls = %v", client.variationCalls)
	}
}

func TestProcessBatchMissingEnhancementInstruction(t *testing.T) {
	o := New(&fakeClient{}, &fakeInstructions{known: map[string]string{}})
	_, err := o.ProcessBatch(context.Background(), []string{"one"}, "m", nil, "")
	if err == nil {
		t.Fatal("expected error when the enhancement instruction is unavailable")
	}
}

// Cancelling while an enhancement request is on the wire must let that
// request run to completion and then take the cancellation path, keeping
// every previously committed record.
func TestProcessBatchCancelMidFlightCompletesCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverCalls := 0
	sawHangUp := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverCalls++
		if serverCalls == 2 {
			cancel()
			time.Sleep(20 * time.Millisecond)
		}
		if r.Context().Err() != nil {
			sawHangUp = true
		}
		json.NewEncoder(w).Encode(map[string]string{
			"response": "ENHANCED_PROMPT: enhanced\nSD_MODEL: SDXL",
		})
	}))
	defer server.Close()

	client := ollama.NewClient(server.URL, ollama.DefaultTimeouts)
	o := New(client, defaultInstructions())

	cancelledEvents := 0
	o.SetCallbacks(func(ev Event) {
		if _, ok := ev.(BatchCancelled); ok {
			cancelledEvents++
		}
	}, nil)

	records, err := o.ProcessBatch(ctx, []string{"first", "second"}, "qwen:7b", nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Original != "first" {
		t.Fatalf("records = %+v", records)
	}
	if cancelledEvents != 1 {
		t.Errorf("BatchCancelled emitted %d times, want 1", cancelledEvents)
	}
	if serverCalls != 2 {
		t.Errorf("server calls = %d, want 2", serverCalls)
	}
	if sawHangUp {
		t.Error("in-flight call was aborted by cancellation")
	}
}
