// Package agent implements the risk-aware agent: the state machine that
// sequences input screening, generation, output screening and mitigation,
// and assembles the final structured response.
package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/run-bigpig/riskguard/pkg/config"
	"github.com/run-bigpig/riskguard/pkg/detection"
	"github.com/run-bigpig/riskguard/pkg/interfaces"
	"github.com/run-bigpig/riskguard/pkg/logging"
	"github.com/run-bigpig/riskguard/pkg/mitigation"
	"github.com/run-bigpig/riskguard/pkg/risk"
	"github.com/run-bigpig/riskguard/pkg/scoring"
)

// Stage identifies a step of the processing sequence. Stages advance
// strictly forward; there is no branching back.
type Stage string

const (
	StageIdle              Stage = "idle"
	StageInputAnalysis     Stage = "input_analysis"
	StageGeneration        Stage = "generation"
	StageOutputAnalysis    Stage = "output_analysis"
	StageMitigationApplied Stage = "mitigation_applied"
	StageDone              Stage = "done"
)

// Substitute texts used when generation degrades. Generation failure is
// never fatal: the pipeline completes with a canned response so downstream
// analysis and reporting still run.
const (
	OfflineNotice         = "I'm currently offline. Please make sure the language model is available."
	GenerationErrorNotice = "I apologize, but I'm having trouble processing your request right now."
	EmptyResponseNotice   = "I received an empty response. Please try again."
)

// Response is the terminal artifact of one pipeline run. Its field set is
// the stable contract consumed by callers.
type Response struct {
	// FinalText is the response after mitigation, the text shown to users.
	FinalText string

	// OriginalText is the unmitigated generation output.
	OriginalText string

	// InputRisks and OutputRisks are the aggregated risk records for each
	// pipeline side, in detector category order.
	InputRisks  []risk.Entry
	OutputRisks []risk.Entry

	// OverallRisk is the verdict over the concatenation of both sides.
	OverallRisk risk.OverallScore

	// MitigationsApplied lists applied mitigation identifiers in order.
	MitigationsApplied []string

	// ProcessingTime is the wall-clock duration of the run.
	ProcessingTime time.Duration

	// RequestID uniquely identifies the run.
	RequestID string

	// Timestamp is when the response was assembled.
	Timestamp time.Time

	// Metadata echoes request context such as the originating input.
	Metadata map[string]string
}

// pipeline bundles everything derived from one configuration snapshot.
// Reconfiguration builds a new pipeline and swaps the pointer; a request
// already in flight keeps the snapshot it started with.
type pipeline struct {
	cfg       config.RiskConfig
	detectors []detection.Detector
	selector  *mitigation.Selector
}

// newPipeline builds immutable detectors in the fixed category order
// adversarial, pii, bias, hallucination.
func newPipeline(cfg config.RiskConfig) *pipeline {
	return &pipeline{
		cfg: cfg,
		detectors: []detection.Detector{
			detection.NewAdversarialDetector(cfg.Adversarial),
			detection.NewPIIDetector(cfg.PII),
			detection.NewBiasDetector(cfg.Bias),
			detection.NewHallucinationDetector(cfg.Hallucination),
		},
		selector: mitigation.NewSelector(),
	}
}

// Agent is the risk-aware orchestrator.
type Agent struct {
	llm      interfaces.LLM
	memory   interfaces.Memory
	tracer   interfaces.Tracer
	logger   logging.Logger
	pipeline atomic.Pointer[pipeline]
}

// Option represents an option for configuring an agent
type Option func(*Agent) error

// WithLLM sets the generation provider for the agent. Without one the
// agent still runs, substituting the offline notice for generation.
func WithLLM(llm interfaces.LLM) Option {
	return func(a *Agent) error {
		a.llm = llm
		return nil
	}
}

// WithMemory sets the conversation memory for the agent
func WithMemory(memory interfaces.Memory) Option {
	return func(a *Agent) error {
		a.memory = memory
		return nil
	}
}

// WithTracer sets the tracer for the agent
func WithTracer(tracer interfaces.Tracer) Option {
	return func(a *Agent) error {
		a.tracer = tracer
		return nil
	}
}

// WithLogger sets the logger for the agent
func WithLogger(logger logging.Logger) Option {
	return func(a *Agent) error {
		a.logger = logger
		return nil
	}
}

// WithConfig sets the risk configuration snapshot for the agent
func WithConfig(cfg config.RiskConfig) Option {
	return func(a *Agent) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid risk config: %w", err)
		}
		a.pipeline.Store(newPipeline(cfg))
		return nil
	}
}

// NewAgent creates a new agent with the given options. Without an explicit
// config the defaults apply.
func NewAgent(options ...Option) (*Agent, error) {
	agent := &Agent{
		logger: logging.New(),
	}
	agent.pipeline.Store(newPipeline(config.Default()))

	for _, option := range options {
		if err := option(agent); err != nil {
			return nil, err
		}
	}

	return agent, nil
}

// Reconfigure validates a new configuration snapshot and atomically swaps
// the whole pipeline. Thresholds are never partially applied: requests in
// flight finish on the snapshot they started with.
func (a *Agent) Reconfigure(cfg config.RiskConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid risk config: %w", err)
	}
	a.pipeline.Store(newPipeline(cfg))
	a.logger.Info(context.Background(), "Risk configuration updated", map[string]interface{}{
		"adversarial_threshold":   cfg.Adversarial.Threshold,
		"pii_threshold":           cfg.PII.Threshold,
		"bias_threshold":          cfg.Bias.Threshold,
		"hallucination_threshold": cfg.Hallucination.Threshold,
	})
	return nil
}

// OptimizeForUseCase bulk-adjusts thresholds for a named deployment
// profile and swaps in the resulting pipeline.
func (a *Agent) OptimizeForUseCase(useCase string) error {
	cfg, err := a.pipeline.Load().cfg.OptimizeForUseCase(useCase)
	if err != nil {
		return err
	}
	return a.Reconfigure(cfg)
}

// Config returns the active configuration snapshot.
func (a *Agent) Config() config.RiskConfig {
	return a.pipeline.Load().cfg
}

// Process runs the full pipeline for a single-turn input.
func (a *Agent) Process(ctx context.Context, input string, options ...interfaces.GenerateOption) (*Response, error) {
	generate := func(ctx context.Context) (*interfaces.LLMResponse, error) {
		return a.llm.Generate(ctx, input, options...)
	}
	return a.run(ctx, input, generate, map[string]string{"input_text": input})
}

// Chat runs the full pipeline for a multi-turn conversation. The most
// recent user-authored message drives input analysis; the whole history is
// handed to the generation provider.
func (a *Agent) Chat(ctx context.Context, messages []interfaces.Message, options ...interfaces.GenerateOption) (*Response, error) {
	userMessage := lastUserMessage(messages)

	generate := func(ctx context.Context) (*interfaces.LLMResponse, error) {
		return a.llm.Chat(ctx, messages, options...)
	}
	return a.run(ctx, userMessage, generate, map[string]string{"user_message": userMessage})
}

// run is the five-stage sequence shared by Process and Chat.
func (a *Agent) run(ctx context.Context, userInput string, generate func(context.Context) (*interfaces.LLMResponse, error), metadata map[string]string) (*Response, error) {
	start := time.Now()
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)

	ctx, span := a.startSpan(ctx, "agent.run")
	defer span.End()
	span.SetAttribute("request_id", requestID)

	p := a.pipeline.Load()

	// Idle -> InputAnalysis
	inputRisks := a.analyze(ctx, p, StageInputAnalysis, userInput, risk.SideInput, nil)
	a.logger.Info(ctx, "Input risk analysis completed", map[string]interface{}{
		"risks_detected": len(inputRisks),
	})

	// InputAnalysis -> Generation
	originalText := a.generate(ctx, generate)

	// Generation -> OutputAnalysis
	outputRisks := a.analyze(ctx, p, StageOutputAnalysis, originalText, risk.SideOutput, &risk.AnalysisContext{Input: userInput})
	a.logger.Info(ctx, "Output risk analysis completed", map[string]interface{}{
		"risks_detected": len(outputRisks),
	})

	// OutputAnalysis -> MitigationApplied. Input entries first, preserving
	// detector order, then output entries.
	allRisks := make([]risk.Entry, 0, len(inputRisks)+len(outputRisks))
	allRisks = append(allRisks, inputRisks...)
	allRisks = append(allRisks, outputRisks...)

	mitigationCtx, mitigationSpan := a.startSpan(ctx, "agent."+string(StageMitigationApplied))
	outcome := p.selector.Apply(allRisks, originalText)
	mitigationSpan.SetAttribute("mitigations_applied", len(outcome.Applied))
	mitigationSpan.End()
	if len(outcome.Applied) > 0 {
		a.logger.Info(mitigationCtx, "Mitigations applied", map[string]interface{}{
			"mitigations": outcome.Applied,
		})
	}

	overall := scoring.Overall(allRisks)

	a.remember(ctx, userInput, outcome.MitigatedText)

	a.logger.Info(ctx, "Risk analysis completed", map[string]interface{}{
		"overall_score": overall.Score,
		"risk_level":    string(overall.Level),
		"input_risks":   len(inputRisks),
		"output_risks":  len(outputRisks),
	})

	// MitigationApplied -> Done
	return &Response{
		FinalText:          outcome.MitigatedText,
		OriginalText:       originalText,
		InputRisks:         inputRisks,
		OutputRisks:        outputRisks,
		OverallRisk:        overall,
		MitigationsApplied: outcome.Applied,
		ProcessingTime:     time.Since(start),
		RequestID:          requestID,
		Timestamp:          time.Now(),
		Metadata:           metadata,
	}, nil
}

// analyze fans the detectors out concurrently and aggregates their results
// in the fixed category order. Degraded detector results are logged and
// kept; they carry no signal and never abort the run.
func (a *Agent) analyze(ctx context.Context, p *pipeline, stage Stage, text string, side risk.Side, ac *risk.AnalysisContext) []risk.Entry {
	ctx, span := a.startSpan(ctx, "agent."+string(stage))
	defer span.End()

	results := make([]risk.DetectionResult, len(p.detectors))
	var wg sync.WaitGroup
	for i, d := range p.detectors {
		wg.Add(1)
		go func(i int, d detection.Detector) {
			defer wg.Done()
			results[i] = d.Analyze(ctx, text, ac)
		}(i, d)
	}
	wg.Wait()

	for _, r := range results {
		if r.Degraded() {
			a.logger.Warn(ctx, "Detector degraded", map[string]interface{}{
				"detector": string(r.Type),
				"error":    r.Err,
			})
		}
	}

	thresholds := p.cfg.InputReport
	if side == risk.SideOutput {
		thresholds = p.cfg.OutputReport
	}

	entries := scoring.Aggregate(results, side, thresholds)
	span.SetAttribute("risk_entries", len(entries))
	return entries
}

// generate invokes the generation provider and downgrades every failure
// mode to a substitute text.
func (a *Agent) generate(ctx context.Context, generate func(context.Context) (*interfaces.LLMResponse, error)) string {
	ctx, span := a.startSpan(ctx, "agent."+string(StageGeneration))
	defer span.End()

	if a.llm == nil {
		return OfflineNotice
	}

	if !a.llm.HealthCheck(ctx) {
		a.logger.Warn(ctx, "Generation provider unhealthy", map[string]interface{}{
			"provider": a.llm.Name(),
		})
		return OfflineNotice
	}

	response, err := generate(ctx)
	if err != nil {
		span.RecordError(err)
		a.logger.Error(ctx, "Generation failed", map[string]interface{}{
			"provider": a.llm.Name(),
			"error":    err.Error(),
		})
		return GenerationErrorNotice
	}
	if response == nil || response.Text == "" {
		return EmptyResponseNotice
	}

	return response.Text
}

// remember appends the exchange to conversation memory when configured.
// Memory failures are logged, never surfaced.
func (a *Agent) remember(ctx context.Context, userInput, finalText string) {
	if a.memory == nil {
		return
	}

	for _, msg := range []interfaces.Message{
		{Role: "user", Content: userInput},
		{Role: "assistant", Content: finalText},
	} {
		if err := a.memory.AddMessage(ctx, msg); err != nil {
			a.logger.Warn(ctx, "Failed to store message in memory", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
	}
}

func (a *Agent) startSpan(ctx context.Context, name string) (context.Context, interfaces.Span) {
	if a.tracer == nil {
		return ctx, noopSpan{}
	}
	return a.tracer.StartSpan(ctx, name)
}

// lastUserMessage returns the content of the most recent user-authored
// message, or the empty string when the history has none.
func lastUserMessage(messages []interfaces.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

type noopSpan struct{}

func (noopSpan) End()                                       {}
func (noopSpan) SetAttribute(key string, value interface{}) {}
func (noopSpan) RecordError(err error)                      {}
