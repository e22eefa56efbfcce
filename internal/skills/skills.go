// Package skills implements the desktop capabilities the dispatcher invokes: application
// control, web search and workspace file operations.
package skills

import "context"

// Result is the user-facing outcome of one capability call. Text is surfaced verbatim;
// OK is false when the capability reported a failure.
type Result struct {
	Text string
	OK   bool
}

func ok(text string) Result   { return Result{Text: text, OK: true} }
func fail(text string) Result { return Result{Text: text} }

// Capabilities is the full set of actions the dispatcher can reach.
type Capabilities interface {
	OpenApplication(ctx context.Context, name string) Result
	CloseApplication(ctx context.Context, name string) Result
	SwitchApplication(ctx context.Context, name string) Result
	ListInstalledApplications(ctx context.Context) Result
	ListRunningApplications(ctx context.Context) Result
	SearchWeb(ctx context.Context, query string) Result

	CreateFile(ctx context.Context, dir, name string) Result
	DeleteFile(ctx context.Context, dir, name string) Result
	CreateFolder(ctx context.Context, dir, name string) Result
	DeleteFolder(ctx context.Context, dir, name string) Result
	ListFiles(ctx context.Context, dir string) Result
}

// Registry composes the concrete capability providers.
type Registry struct {
	*AppControl
	*Browser
	Files
}

var _ Capabilities = (*Registry)(nil)

// NewRegistry wires app control and web search together with workspace file operations.
func NewRegistry(apps *AppControl, browser *Browser) *Registry {
	return &Registry{AppControl: apps, Browser: browser}
}
