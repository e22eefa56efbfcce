package skills

import (
	"context"
	"fmt"
	"net/url"
	"runtime"
	"strings"
)

// DefaultSearchURLPattern is the search engine URL; %s receives the escaped query.
const DefaultSearchURLPattern = "https://www.google.com/search?q=%s"

// Browser opens web searches in the default browser.
type Browser struct {
	runner  Runner
	pattern string
	plat    platform
}

func NewBrowser(runner Runner, pattern, goos string) *Browser {
	if runner == nil {
		runner = ExecRunner{}
	}
	if !strings.Contains(pattern, "%s") {
		pattern = DefaultSearchURLPattern
	}
	if goos == "" {
		goos = runtime.GOOS
	}
	return &Browser{runner: runner, pattern: pattern, plat: platformFor(goos)}
}

// SearchURL returns the URL opened for query.
func (b *Browser) SearchURL(query string) string {
	return fmt.Sprintf(b.pattern, url.QueryEscape(strings.TrimSpace(query)))
}

func (b *Browser) SearchWeb(_ context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return fail("Please specify what to search for.")
	}
	c := b.plat.openURL(b.SearchURL(query))
	if err := b.runner.Start(c.name, c.args...); err != nil {
		return fail(fmt.Sprintf("Failed to search for %s: %v", query, err))
	}
	return ok(fmt.Sprintf("Searching the web for %s.", query))
}
