package skills

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"
)

// AppOptions configures AppControl. Zero values select the host defaults.
type AppOptions struct {
	Runner  Runner
	Catalog *Catalog
	GOOS    string
	Logger  *zap.Logger

	// InstalledDirs overrides where installed applications are enumerated from.
	InstalledDirs []string
}

// AppControl launches, terminates, focuses and lists desktop applications.
type AppControl struct {
	runner  Runner
	catalog *Catalog
	goos    string
	plat    platform
	logger  *zap.Logger
}

func NewAppControl(opts AppOptions) *AppControl {
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	plat := platformFor(opts.GOOS)
	if opts.InstalledDirs != nil {
		plat.installedDirs = opts.InstalledDirs
	}
	return &AppControl{
		runner:  opts.Runner,
		catalog: opts.Catalog,
		goos:    opts.GOOS,
		plat:    plat,
		logger:  opts.Logger,
	}
}

func (a *AppControl) OpenApplication(_ context.Context, name string) Result {
	exe := a.catalog.Executable(name, a.goos)
	c := a.plat.launch(exe)
	a.logger.Debug("launch application", zap.String("app", name), zap.String("cmd", c.name), zap.Strings("args", c.args))
	if err := a.runner.Start(c.name, c.args...); err != nil {
		return fail(fmt.Sprintf("Failed to open %s: %v", name, err))
	}
	return ok(fmt.Sprintf("Opening %s.", name))
}

func (a *AppControl) CloseApplication(ctx context.Context, name string) Result {
	c := a.plat.terminate(a.catalog.Process(name))
	a.logger.Debug("terminate application", zap.String("app", name), zap.String("cmd", c.name), zap.Strings("args", c.args))
	if _, err := a.runner.Output(ctx, c.name, c.args...); err != nil {
		return fail(fmt.Sprintf("Failed to close %s: %v", name, err))
	}
	return ok(fmt.Sprintf("Closing %s.", name))
}

func (a *AppControl) SwitchApplication(ctx context.Context, name string) Result {
	out, err := a.runner.Output(ctx, a.plat.windows.name, a.plat.windows.args...)
	if err != nil {
		return fail(fmt.Sprintf("Failed to list windows: %v", err))
	}
	title, found := matchWindow(a.plat.parseWindows(out), a.catalog.Names(name))
	if !found {
		return fail(fmt.Sprintf("Could not find a window matching %s.", name))
	}
	c := a.plat.focus(title)
	if _, err := a.runner.Output(ctx, c.name, c.args...); err != nil {
		return fail(fmt.Sprintf("Failed to switch to %s: %v", name, err))
	}
	return ok(fmt.Sprintf("Switched to %s.", title))
}

func (a *AppControl) ListRunningApplications(ctx context.Context) Result {
	out, err := a.runner.Output(ctx, a.plat.running.name, a.plat.running.args...)
	if err != nil {
		return fail(fmt.Sprintf("Failed to list running applications: %v", err))
	}
	names := uniqueSorted(a.plat.parseRunning(out))
	if len(names) == 0 {
		return ok("No running applications found.")
	}
	return ok(bulleted("Running applications:", names))
}

func (a *AppControl) ListInstalledApplications(context.Context) Result {
	var names []string
	for _, dir := range a.plat.installedDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if strings.EqualFold(fileExt(e.Name()), a.plat.installedExt) {
				names = append(names, strings.TrimSuffix(e.Name(), fileExt(e.Name())))
			}
		}
	}
	names = uniqueSorted(names)
	if len(names) == 0 {
		return ok("No installed applications found.")
	}
	return ok(bulleted("Installed applications:", names))
}

// matchWindow picks a title for the wanted names: exact match first, then substring, then
// the closest title by edit distance within a small threshold.
func matchWindow(titles, wanted []string) (string, bool) {
	for _, w := range wanted {
		for _, t := range titles {
			if strings.EqualFold(strings.TrimSpace(t), w) {
				return t, true
			}
		}
	}
	for _, w := range wanted {
		if w == "" {
			continue
		}
		for _, t := range titles {
			if strings.Contains(strings.ToLower(t), w) {
				return t, true
			}
		}
	}

	best, bestDist := "", -1
	for _, w := range wanted {
		if w == "" {
			continue
		}
		limit := max(2, len(w)/3)
		for _, t := range titles {
			for _, word := range append([]string{strings.ToLower(t)}, strings.Fields(strings.ToLower(t))...) {
				d := levenshtein.ComputeDistance(w, word)
				if d <= limit && (bestDist < 0 || d < bestDist) {
					best, bestDist = t, d
				}
			}
		}
	}
	return best, bestDist >= 0
}

func bulleted(header string, items []string) string {
	var b strings.Builder
	b.WriteString(header)
	for _, it := range items {
		b.WriteString("\n- ")
		b.WriteString(it)
	}
	return b.String()
}

func fileExt(name string) string {
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		return name[i:]
	}
	return ""
}
