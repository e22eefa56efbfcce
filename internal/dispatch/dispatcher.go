package dispatch

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/deskpilot/internal/memory"
	"github.com/ent0n29/deskpilot/internal/observability"
	"github.com/ent0n29/deskpilot/internal/skills"
)

// Fixed responses for outcomes that never reach a capability.
const (
	ClarifyResponse      = "I'm not quite sure what you mean. Could you please rephrase that?"
	UnrecognizedResponse = "I'm sorry, I don't know how to do that yet."
	MissingAppResponse   = "Please specify which application you mean."
	MissingNameResponse  = "Please specify a name for the file or folder."
)

// Dispatch result labels.
const (
	ResultOK              = "ok"
	ResultFailed          = "failed"
	ResultMissingArgument = "missing_argument"
	ResultClarify         = "clarify"
	ResultUnrecognized    = "unrecognized"
)

// WorkingDir supplies the directory file commands run in.
type WorkingDir interface {
	BaseDir() string
}

type route struct {
	needsApp    bool
	needsName   bool
	setsLastApp bool
	call        func(ctx context.Context, caps skills.Capabilities, dir string, c Command) skills.Result
}

var routes = map[Kind]route{
	KindOpenApp: {needsApp: true, setsLastApp: true, call: func(ctx context.Context, caps skills.Capabilities, _ string, c Command) skills.Result {
		return caps.OpenApplication(ctx, c.App)
	}},
	KindCloseApp: {needsApp: true, call: func(ctx context.Context, caps skills.Capabilities, _ string, c Command) skills.Result {
		return caps.CloseApplication(ctx, c.App)
	}},
	KindSwitchApp: {needsApp: true, setsLastApp: true, call: func(ctx context.Context, caps skills.Capabilities, _ string, c Command) skills.Result {
		return caps.SwitchApplication(ctx, c.App)
	}},
	KindListInstalled: {call: func(ctx context.Context, caps skills.Capabilities, _ string, _ Command) skills.Result {
		return caps.ListInstalledApplications(ctx)
	}},
	KindListRunning: {call: func(ctx context.Context, caps skills.Capabilities, _ string, _ Command) skills.Result {
		return caps.ListRunningApplications(ctx)
	}},
	KindSearch: {call: func(ctx context.Context, caps skills.Capabilities, _ string, c Command) skills.Result {
		return caps.SearchWeb(ctx, c.Query)
	}},
	KindCreateFile: {needsName: true, call: func(ctx context.Context, caps skills.Capabilities, dir string, c Command) skills.Result {
		return caps.CreateFile(ctx, dir, c.Name)
	}},
	KindDeleteFile: {needsName: true, call: func(ctx context.Context, caps skills.Capabilities, dir string, c Command) skills.Result {
		return caps.DeleteFile(ctx, dir, c.Name)
	}},
	KindCreateFolder: {needsName: true, call: func(ctx context.Context, caps skills.Capabilities, dir string, c Command) skills.Result {
		return caps.CreateFolder(ctx, dir, c.Name)
	}},
	KindDeleteFolder: {needsName: true, call: func(ctx context.Context, caps skills.Capabilities, dir string, c Command) skills.Result {
		return caps.DeleteFolder(ctx, dir, c.Name)
	}},
	KindListFiles: {call: func(ctx context.Context, caps skills.Capabilities, dir string, _ Command) skills.Result {
		return caps.ListFiles(ctx, dir)
	}},
}

// Dispatcher is the single funnel from a resolved command to a capability and to memory.
type Dispatcher struct {
	caps    skills.Capabilities
	mem     *memory.Memory
	dir     WorkingDir
	logger  *zap.Logger
	metrics *observability.Metrics
}

func New(caps skills.Capabilities, mem *memory.Memory, dir WorkingDir, logger *zap.Logger, metrics *observability.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{caps: caps, mem: mem, dir: dir, logger: logger, metrics: metrics}
}

// Dispatch runs c for utterance and returns the response. Exactly one history entry is
// appended per call, whatever the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, utterance string, c Command) string {
	start := time.Now()
	response, result := d.run(ctx, utterance, &c)

	if err := d.mem.AppendHistory(ctx, utterance, response); err != nil {
		d.persistWarning("append history", err)
	}

	if d.metrics != nil {
		d.metrics.DispatchOutcomes.WithLabelValues(string(c.Kind), result).Inc()
		d.metrics.Latency.Observe(observability.StageDispatch, time.Since(start))
	}
	d.logger.Info("command dispatched",
		zap.String("kind", string(c.Kind)),
		zap.String("app", c.App),
		zap.String("name", c.Name),
		zap.String("result", result),
		zap.Duration("elapsed", time.Since(start)),
	)
	return response
}

func (d *Dispatcher) run(ctx context.Context, utterance string, c *Command) (string, string) {
	if c.Kind == KindClarify {
		return ClarifyResponse, ResultClarify
	}
	r, known := routes[c.Kind]
	if !known {
		return UnrecognizedResponse, ResultUnrecognized
	}

	if r.needsApp && strings.TrimSpace(c.App) == "" {
		last, ok := d.mem.LastApp()
		if !ok {
			return MissingAppResponse, ResultMissingArgument
		}
		c.App = last
	}
	if r.needsName && strings.TrimSpace(c.Name) == "" {
		return MissingNameResponse, ResultMissingArgument
	}
	if c.Kind == KindSearch && strings.TrimSpace(c.Query) == "" {
		c.Query = utterance
	}

	var dir string
	if d.dir != nil {
		dir = d.dir.BaseDir()
	}
	res := r.call(ctx, d.caps, dir, *c)
	if !res.OK {
		d.logger.Warn("capability failed", zap.String("kind", string(c.Kind)), zap.String("response", res.Text))
		return res.Text, ResultFailed
	}
	if r.setsLastApp {
		if err := d.mem.UpdateLastApp(ctx, c.App); err != nil {
			d.persistWarning("update last app", err)
		}
	}
	return res.Text, ResultOK
}

func (d *Dispatcher) persistWarning(op string, err error) {
	d.logger.Warn("memory not persisted", zap.String("op", op), zap.Error(err))
	if d.metrics != nil {
		d.metrics.PersistErrors.Inc()
	}
}
