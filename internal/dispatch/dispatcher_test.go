package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ent0n29/deskpilot/internal/decision"
	"github.com/ent0n29/deskpilot/internal/intent"
	"github.com/ent0n29/deskpilot/internal/memory"
	"github.com/ent0n29/deskpilot/internal/observability"
	"github.com/ent0n29/deskpilot/internal/skills"
)

type capCall struct {
	op, dir, arg string
}

// fakeCaps records every capability call. Apps listed in failing report failure.
type fakeCaps struct {
	calls   []capCall
	failing map[string]bool
}

func (f *fakeCaps) record(op, dir, arg, text string) skills.Result {
	f.calls = append(f.calls, capCall{op, dir, arg})
	if f.failing[arg] {
		return skills.Result{Text: "Failed to " + op + " " + arg}
	}
	return skills.Result{Text: text, OK: true}
}

func (f *fakeCaps) OpenApplication(_ context.Context, n string) skills.Result {
	return f.record("open", "", n, "Opening "+n+".")
}
func (f *fakeCaps) CloseApplication(_ context.Context, n string) skills.Result {
	return f.record("close", "", n, "Closing "+n+".")
}
func (f *fakeCaps) SwitchApplication(_ context.Context, n string) skills.Result {
	return f.record("switch", "", n, "Switched to "+n+".")
}
func (f *fakeCaps) ListInstalledApplications(context.Context) skills.Result {
	return f.record("installed", "", "", "Installed applications:\n- chrome")
}
func (f *fakeCaps) ListRunningApplications(context.Context) skills.Result {
	return f.record("running", "", "", "Running applications:\n- chrome")
}
func (f *fakeCaps) SearchWeb(_ context.Context, q string) skills.Result {
	return f.record("search", "", q, "Searching the web for "+q+".")
}
func (f *fakeCaps) CreateFile(_ context.Context, dir, n string) skills.Result {
	return f.record("create_file", dir, n, "File "+n+" created.")
}
func (f *fakeCaps) DeleteFile(_ context.Context, dir, n string) skills.Result {
	return f.record("delete_file", dir, n, "File "+n+" deleted.")
}
func (f *fakeCaps) CreateFolder(_ context.Context, dir, n string) skills.Result {
	return f.record("create_folder", dir, n, "Folder "+n+" created.")
}
func (f *fakeCaps) DeleteFolder(_ context.Context, dir, n string) skills.Result {
	return f.record("delete_folder", dir, n, "Folder "+n+" deleted.")
}
func (f *fakeCaps) ListFiles(_ context.Context, dir string) skills.Result {
	return f.record("list_files", dir, "", "Files in "+dir+":")
}

type fixedDir string

func (d fixedDir) BaseDir() string { return string(d) }

type harness struct {
	caps *fakeCaps
	mem  *memory.Memory
	d    *Dispatcher
	logs *observer.ObservedLogs
}

func newHarness(t *testing.T, store memory.Store) *harness {
	t.Helper()
	if store == nil {
		store = memory.NewInMemoryStore()
	}
	mem, err := memory.Open(context.Background(), store)
	require.NoError(t, err)
	core, logs := observer.New(zapcore.DebugLevel)
	caps := &fakeCaps{failing: map[string]bool{}}
	d := New(caps, mem, fixedDir("/work"), zap.New(core), observability.NewMetrics("test", nil))
	return &harness{caps: caps, mem: mem, d: d, logs: logs}
}

func TestEveryOutcomeAppendsExactlyOnce(t *testing.T) {
	cmds := []Command{
		{Kind: KindOpenApp, App: "chrome"},
		{Kind: KindCloseApp},
		{Kind: KindListRunning},
		Clarify(),
		{Kind: KindUnrecognized},
		{Kind: KindCreateFile},
		{Kind: Kind("teleport")},
	}
	h := newHarness(t, nil)
	for i, c := range cmds {
		resp := h.d.Dispatch(context.Background(), "utterance", c)
		assert.NotEmpty(t, resp, "command %+v", c)
		assert.Len(t, h.mem.Snapshot().History, i+1, "command %+v", c)
		assert.Equal(t, resp, h.mem.Snapshot().History[i].Agent)
	}
}

func TestOpenSetsLastAppAndCloseKeepsIt(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	assert.Equal(t, "Opening chrome.", h.d.Dispatch(ctx, "open chrome", Command{Kind: KindOpenApp, App: "chrome"}))
	last, ok := h.mem.LastApp()
	require.True(t, ok)
	assert.Equal(t, "chrome", last)

	assert.Equal(t, "Closing chrome.", h.d.Dispatch(ctx, "close it", Command{Kind: KindCloseApp}))
	assert.Equal(t, capCall{"close", "", "chrome"}, h.caps.calls[1])
	last, _ = h.mem.LastApp()
	assert.Equal(t, "chrome", last)

	assert.Equal(t, "Switched to chrome.", h.d.Dispatch(ctx, "switch to it", Command{Kind: KindSwitchApp}))
	assert.Equal(t, capCall{"switch", "", "chrome"}, h.caps.calls[2])
}

func TestSwitchUpdatesLastApp(t *testing.T) {
	h := newHarness(t, nil)
	h.d.Dispatch(context.Background(), "switch to slack", Command{Kind: KindSwitchApp, App: "slack"})
	last, _ := h.mem.LastApp()
	assert.Equal(t, "slack", last)
}

func TestFailedOpenLeavesLastApp(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.d.Dispatch(ctx, "open chrome", Command{Kind: KindOpenApp, App: "chrome"})
	h.caps.failing["zork"] = true

	resp := h.d.Dispatch(ctx, "open zork", Command{Kind: KindOpenApp, App: "zork"})
	assert.Equal(t, "Failed to open zork", resp)
	last, _ := h.mem.LastApp()
	assert.Equal(t, "chrome", last)
	assert.Len(t, h.mem.Snapshot().History, 2)
}

func TestMissingAppWithoutContext(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.d.Dispatch(context.Background(), "close it", Command{Kind: KindCloseApp})
	assert.Equal(t, MissingAppResponse, resp)
	assert.Empty(t, h.caps.calls)
	_, ok := h.mem.LastApp()
	assert.False(t, ok)
	assert.Equal(t, []memory.Exchange{{User: "close it", Agent: MissingAppResponse}}, h.mem.RecentHistory(5))
}

func TestFileCommandsUseWorkingDir(t *testing.T) {
	h := newHarness(t, nil)
	resp := h.d.Dispatch(context.Background(), "create a file named report dot txt",
		FromIntent(intent.CreateFile, "create a file named report dot txt"))
	assert.Equal(t, "File report.txt created.", resp)
	assert.Equal(t, []capCall{{"create_file", "/work", "report.txt"}}, h.caps.calls)

	resp = h.d.Dispatch(context.Background(), "create a file", FromIntent(intent.CreateFile, "create a file"))
	assert.Equal(t, MissingNameResponse, resp)
	assert.Len(t, h.caps.calls, 1)
}

func TestSearchFallsBackToUtterance(t *testing.T) {
	h := newHarness(t, nil)
	h.d.Dispatch(context.Background(), "weather in rome", Command{Kind: KindSearch})
	assert.Equal(t, []capCall{{"search", "", "weather in rome"}}, h.caps.calls)
	_, ok := h.mem.LastApp()
	assert.False(t, ok)
}

func TestFixedResponses(t *testing.T) {
	h := newHarness(t, nil)
	assert.Equal(t, ClarifyResponse, h.d.Dispatch(context.Background(), "hmm", Clarify()))
	assert.Equal(t, UnrecognizedResponse, h.d.Dispatch(context.Background(), "fly", Command{Kind: KindUnrecognized}))
	assert.Empty(t, h.caps.calls)
}

func TestPersistFailureIsLoggedNotReturned(t *testing.T) {
	h := newHarness(t, &brokenStore{})
	resp := h.d.Dispatch(context.Background(), "open chrome", Command{Kind: KindOpenApp, App: "chrome"})
	assert.Equal(t, "Opening chrome.", resp)

	last, ok := h.mem.LastApp()
	require.True(t, ok)
	assert.Equal(t, "chrome", last)
	assert.Len(t, h.mem.Snapshot().History, 1)

	warnings := h.logs.FilterMessage("memory not persisted").All()
	require.Len(t, warnings, 2)
	assert.Equal(t, zapcore.WarnLevel, warnings[0].Level)
}

func TestFromDecision(t *testing.T) {
	cases := []struct {
		in   decision.Decision
		want Command
	}{
		{decision.Decision{Action: decision.ActionOpenApp, App: " chrome ", Confidence: 0.9}, Command{Kind: KindOpenApp, App: "chrome"}},
		{decision.Decision{Action: decision.ActionCloseApp}, Command{Kind: KindCloseApp}},
		{decision.Decision{Action: decision.ActionSwitchApp, App: "code"}, Command{Kind: KindSwitchApp, App: "code"}},
		{decision.Decision{Action: decision.ActionListInstalled}, Command{Kind: KindListInstalled}},
		{decision.Decision{Action: decision.ActionListRunning}, Command{Kind: KindListRunning}},
		{decision.Decision{Action: decision.ActionSearch, Query: "go"}, Command{Kind: KindSearch, Query: "go"}},
		{decision.None(), Command{Kind: KindUnrecognized}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FromDecision(tc.in))
	}
}

func TestFromIntent(t *testing.T) {
	assert.Equal(t, Command{Kind: KindOpenApp, App: "chrome"}, FromIntent(intent.OpenApplication, "open chrome"))
	assert.Equal(t, Command{Kind: KindCloseApp}, FromIntent(intent.CloseApplication, "close it"))
	assert.Equal(t, Command{Kind: KindDeleteFolder, Name: "projects"}, FromIntent(intent.DeleteFolder, "delete the folder named projects"))
	assert.Equal(t, Command{Kind: KindListFiles}, FromIntent(intent.ListFiles, "list files"))
	assert.Equal(t, Clarify(), FromIntent(intent.Unrecognized, "blorp"))
}

type brokenStore struct{}

func (brokenStore) Load(context.Context) (memory.State, error) { return memory.State{}, nil }
func (brokenStore) Save(context.Context, memory.State) error   { return errors.New("read-only filesystem") }
func (brokenStore) Close() error                                { return nil }
