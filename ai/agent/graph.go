package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/einlabs/ein/ai/llm"
	"github.com/einlabs/ein/ai/tools"
	"github.com/einlabs/ein/store"
)

// Stage names, used for routing, metrics labels and logging.
const (
	stageIntent   = "intent_classifier"
	stagePolicy   = "policy_gate"
	stageContext  = "context_assembler"
	stagePlanner  = "plan_synthesizer"
	stageExecutor = "action_executor"
	stageMemory   = "memory_sink"
	stageComposer = "response_composer"
	stageTerminal = "terminal"
)

// stageEdges is the static portion of the graph. The context stage has
// the one conditional edge, resolved in next().
var stageEdges = map[string]string{
	stageIntent:   stagePolicy,
	stagePolicy:   stageContext,
	stagePlanner:  stageExecutor,
	stageExecutor: stageMemory,
	stageMemory:   stageComposer,
	stageComposer: stageTerminal,
}

// Config wires the pipeline's collaborators. All stores are interfaces so
// tests can substitute in-memory fakes.
type Config struct {
	LLM       llm.Service
	Registry  *tools.Registry
	LongTerm  store.LongTermMemory
	Profile   store.StructuredMemory
	Habits    store.StructuredMemory
	Audit     store.AuditLog
	Policy    PolicyTable
	Transient *TransientStore
	TopK      int
	Metrics   *Metrics
}

// Result is the outcome of one pipeline run. Err is non-empty when the
// run short-circuited; Response always carries renderable text.
type Result struct {
	Response string
	Err      string
}

// Pipeline executes the fixed stage graph for one utterance at a time.
// A Pipeline is safe for concurrent use; each run owns its own record.
type Pipeline struct {
	classifier *IntentClassifier
	policy     *PolicyGate
	assembler  *ContextAssembler
	planner    *PlanSynthesizer
	executor   *ActionExecutor
	sink       *MemorySink
	composer   *ResponseComposer
	metrics    *Metrics
}

func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		classifier: NewIntentClassifier(cfg.LLM),
		policy:     NewPolicyGate(cfg.Policy, cfg.Audit),
		assembler:  NewContextAssembler(cfg.LLM, cfg.LongTerm, cfg.Profile, cfg.TopK),
		planner:    NewPlanSynthesizer(cfg.LLM, cfg.Registry, cfg.Habits),
		executor:   NewActionExecutor(cfg.LLM, cfg.Registry),
		sink:       NewMemorySink(cfg.LongTerm, cfg.Profile, cfg.Transient, cfg.Audit),
		composer:   NewResponseComposer(cfg.LLM),
		metrics:    cfg.Metrics,
	}
}

// Run pushes one utterance through the graph and returns the composed
// response. A stage failure jumps straight to the composer's error path;
// later stages, including the memory sink, do not run.
func (p *Pipeline) Run(ctx context.Context, input string, history []llm.Message) Result {
	r := NewRecord(input, history)
	runStart := time.Now()

	current := stageIntent
	for current != stageTerminal {
		stageStart := time.Now()
		result := p.runStage(ctx, current, r)
		p.metrics.observeStage(current, stageStart, result.Failed())

		if result.Failed() {
			slog.Warn("pipeline stage failed", "stage", current, "error", r.Err)
			p.composer.ComposeError(r)
			break
		}
		current = p.next(current, r)
	}

	p.metrics.observeRun(r.Err != "")
	slog.Debug("pipeline run complete",
		"intent", r.Intent,
		"actions", len(r.Plan),
		"failed", r.Err != "",
		"duration", time.Since(runStart),
	)
	return Result{Response: r.Response, Err: r.Err}
}

func (p *Pipeline) runStage(ctx context.Context, stage string, r *Record) StageResult {
	switch stage {
	case stageIntent:
		return p.classifier.Stage(ctx, r)
	case stagePolicy:
		return p.policy.Stage(ctx, r)
	case stageContext:
		return p.assembler.Stage(ctx, r)
	case stagePlanner:
		return p.planner.Stage(ctx, r)
	case stageExecutor:
		return p.executor.Stage(ctx, r)
	case stageMemory:
		return p.sink.Stage(ctx, r)
	case stageComposer:
		return p.composer.Stage(ctx, r)
	}
	return Fail(r, "unknown pipeline stage: "+stage)
}

// next resolves the outgoing edge. Chat intents skip planning and go
// straight to execution.
func (p *Pipeline) next(current string, r *Record) string {
	if current == stageContext {
		if r.Intent == IntentChat {
			return stageExecutor
		}
		return stagePlanner
	}
	return stageEdges[current]
}
