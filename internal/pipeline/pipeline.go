// Package pipeline resolves one utterance through the semantic tier, falls back to the
// intent classifier at most once, and hands the result to the dispatcher.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/deskpilot/internal/decision"
	"github.com/ent0n29/deskpilot/internal/dispatch"
	"github.com/ent0n29/deskpilot/internal/intent"
	"github.com/ent0n29/deskpilot/internal/memory"
	"github.com/ent0n29/deskpilot/internal/observability"
	"github.com/ent0n29/deskpilot/internal/reliability"
)

// ErrorResponse is returned when handling an utterance panics.
const ErrorResponse = "Sorry, there was an error processing your command."

// Tier names the stage that produced a command.
type Tier string

const (
	TierSemantic   Tier = "semantic"
	TierClassifier Tier = "classifier"
	TierNone       Tier = "none"
	TierError      Tier = "error"
)

// Fallback reasons.
const (
	ReasonDisabled      = "disabled"
	ReasonMalformed     = "malformed"
	ReasonNone          = "none"
	ReasonLowConfidence = "low_confidence"
	ReasonPanic         = "panic"
)

// errResolverPanic marks a semantic backend that panicked instead of returning an error.
var errResolverPanic = errors.New("resolver panicked")

// Classifier is the fallback tier.
type Classifier interface {
	Classify(utterance string) (intent.Label, float64)
}

// Outcome is the result of handling one utterance.
type Outcome struct {
	Response string           `json:"response"`
	Tier     Tier             `json:"tier"`
	Command  dispatch.Command `json:"command"`
}

type Options struct {
	Resolver     *decision.Resolver
	Classifier   Classifier
	Dispatcher   *dispatch.Dispatcher
	Memory       *memory.Memory
	ResolverGate float64
	// HistoryTurns is how many recent exchanges accompany the resolver prompt.
	HistoryTurns int
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

type Pipeline struct {
	resolver     *decision.Resolver
	classifier   Classifier
	dispatcher   *dispatch.Dispatcher
	mem          *memory.Memory
	gate         float64
	historyTurns int
	logger       *zap.Logger
	metrics      *observability.Metrics
}

func New(opts Options) *Pipeline {
	if opts.ResolverGate <= 0 {
		opts.ResolverGate = decision.DefaultConfidenceGate
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics("deskpilot", nil)
	}
	return &Pipeline{
		resolver:     opts.Resolver,
		classifier:   opts.Classifier,
		dispatcher:   opts.Dispatcher,
		mem:          opts.Memory,
		gate:         opts.ResolverGate,
		historyTurns: opts.HistoryTurns,
		logger:       opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Respond handles utterance and returns only the response text.
func (p *Pipeline) Respond(ctx context.Context, utterance string) string {
	return p.Handle(ctx, utterance).Response
}

// Handle resolves and dispatches utterance. It always returns a non-empty response.
func (p *Pipeline) Handle(ctx context.Context, utterance string) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("command handling panicked",
				zap.String("utterance", utterance),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			p.metrics.Resolutions.WithLabelValues(string(TierError), "panic").Inc()
			out = Outcome{Response: ErrorResponse, Tier: TierError}
			p.recordError(ctx, utterance)
		}
		p.metrics.Latency.Observe(observability.StageTotal, time.Since(start))
	}()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		cmd := dispatch.Clarify()
		p.metrics.Resolutions.WithLabelValues(string(TierNone), "empty").Inc()
		return Outcome{Response: p.dispatcher.Dispatch(ctx, utterance, cmd), Tier: TierNone, Command: cmd}
	}

	if cmd, ok := p.resolve(ctx, utterance); ok {
		p.metrics.Resolutions.WithLabelValues(string(TierSemantic), "accepted").Inc()
		return Outcome{Response: p.dispatcher.Dispatch(ctx, utterance, cmd), Tier: TierSemantic, Command: cmd}
	}

	cmd := p.classify(utterance)
	outcome := "accepted"
	if cmd.Kind == dispatch.KindClarify {
		outcome = "clarify"
	}
	p.metrics.Resolutions.WithLabelValues(string(TierClassifier), outcome).Inc()
	return Outcome{Response: p.dispatcher.Dispatch(ctx, utterance, cmd), Tier: TierClassifier, Command: cmd}
}

// resolve runs the semantic tier once. ok is false when control must fall back.
func (p *Pipeline) resolve(ctx context.Context, utterance string) (dispatch.Command, bool) {
	if !p.resolver.Available() {
		p.fallback(ReasonDisabled, nil)
		return dispatch.Command{}, false
	}

	req := decision.Request{Utterance: utterance}
	if last, ok := p.mem.LastApp(); ok {
		req.LastApp = last
	}
	if p.historyTurns > 0 {
		req.History = p.mem.RecentHistory(p.historyTurns)
	}

	started := time.Now()
	d, err := p.callResolver(ctx, req)
	p.metrics.ObserveResolverLatency(time.Since(started))

	switch {
	case err != nil:
		p.fallback(failureReason(err), err)
		return dispatch.Command{}, false
	case d.Action == decision.ActionNone:
		p.fallback(ReasonNone, nil)
		return dispatch.Command{}, false
	case !d.Accepted(p.gate):
		p.fallback(ReasonLowConfidence, fmt.Errorf("confidence %.2f below gate %.2f", d.Confidence, p.gate))
		return dispatch.Command{}, false
	}

	p.logger.Debug("semantic decision accepted",
		zap.String("backend", p.resolver.BackendName()),
		zap.String("action", string(d.Action)),
		zap.Float64("confidence", d.Confidence),
	)
	return dispatch.FromDecision(d), true
}

// callResolver converts a panicking backend into a resolution failure.
func (p *Pipeline) callResolver(ctx context.Context, req decision.Request) (d decision.Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("resolver panicked", zap.Any("panic", r), zap.Stack("stack"))
			d, err = decision.None(), fmt.Errorf("%w: %v", errResolverPanic, r)
		}
	}()
	return p.resolver.Resolve(ctx, req)
}

// recordError stores the generic error response for an utterance whose handling panicked.
func (p *Pipeline) recordError(ctx context.Context, utterance string) {
	if p.mem == nil {
		return
	}
	if err := p.mem.AppendHistory(ctx, utterance, ErrorResponse); err != nil {
		p.metrics.PersistErrors.Inc()
		p.logger.Warn("memory not persisted", zap.Error(err))
	}
}

func (p *Pipeline) classify(utterance string) dispatch.Command {
	started := time.Now()
	label, confidence := p.classifier.Classify(utterance)
	p.metrics.Latency.Observe(observability.StageClassify, time.Since(started))
	p.logger.Debug("intent classified",
		zap.String("label", string(label)),
		zap.Float64("confidence", confidence),
	)
	return dispatch.FromIntent(label, utterance)
}

func (p *Pipeline) fallback(reason string, err error) {
	p.metrics.Fallbacks.WithLabelValues(reason).Inc()
	p.metrics.Latency.Count("fallback_" + reason)
	fields := []zap.Field{zap.String("reason", reason)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	p.logger.Info("falling back to intent classifier", fields...)
}

func failureReason(err error) string {
	if errors.Is(err, errResolverPanic) {
		return ReasonPanic
	}
	if errors.Is(err, decision.ErrNoJSON) || errors.Is(err, decision.ErrMalformedDecision) {
		return ReasonMalformed
	}
	if errors.Is(err, decision.ErrBackendDisabled) {
		return ReasonDisabled
	}
	return reliability.Reason(err)
}
