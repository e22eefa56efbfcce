// Package dispatch routes resolved commands to desktop capabilities and records every
// exchange in conversation memory.
package dispatch

import (
	"strings"

	"github.com/ent0n29/deskpilot/internal/decision"
	"github.com/ent0n29/deskpilot/internal/intent"
)

// Kind is the closed set of commands either tier can produce.
type Kind string

const (
	KindOpenApp       Kind = "open_app"
	KindCloseApp      Kind = "close_app"
	KindSwitchApp     Kind = "switch_app"
	KindListInstalled Kind = "list_installed"
	KindListRunning   Kind = "list_running"
	KindSearch        Kind = "search"
	KindCreateFile    Kind = "create_file"
	KindDeleteFile    Kind = "delete_file"
	KindCreateFolder  Kind = "create_folder"
	KindDeleteFolder  Kind = "delete_folder"
	KindListFiles     Kind = "list_files"

	// KindClarify asks the user to rephrase after a low-confidence resolution.
	KindClarify Kind = "clarify"
	// KindUnrecognized answers a command outside the supported set.
	KindUnrecognized Kind = "unrecognized"
)

// Command is one resolved action with its arguments.
type Command struct {
	Kind  Kind   `json:"kind"`
	App   string `json:"app,omitempty"`
	Query string `json:"query,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Clarify is the command for an utterance neither tier could resolve confidently.
func Clarify() Command { return Command{Kind: KindClarify} }

// FromDecision maps a semantic decision onto a command.
func FromDecision(d decision.Decision) Command {
	app, query := strings.TrimSpace(d.App), strings.TrimSpace(d.Query)
	switch d.Action {
	case decision.ActionOpenApp:
		return Command{Kind: KindOpenApp, App: app}
	case decision.ActionCloseApp:
		return Command{Kind: KindCloseApp, App: app}
	case decision.ActionSwitchApp:
		return Command{Kind: KindSwitchApp, App: app}
	case decision.ActionListInstalled:
		return Command{Kind: KindListInstalled}
	case decision.ActionListRunning:
		return Command{Kind: KindListRunning}
	case decision.ActionSearch:
		return Command{Kind: KindSearch, Query: query}
	default:
		return Command{Kind: KindUnrecognized}
	}
}

// FromIntent maps a classifier label onto a command, extracting arguments from utterance.
func FromIntent(label intent.Label, utterance string) Command {
	switch label {
	case intent.CreateFile:
		return Command{Kind: KindCreateFile, Name: intent.ExtractTargetName(utterance)}
	case intent.DeleteFile:
		return Command{Kind: KindDeleteFile, Name: intent.ExtractTargetName(utterance)}
	case intent.CreateFolder:
		return Command{Kind: KindCreateFolder, Name: intent.ExtractTargetName(utterance)}
	case intent.DeleteFolder:
		return Command{Kind: KindDeleteFolder, Name: intent.ExtractTargetName(utterance)}
	case intent.ListFiles:
		return Command{Kind: KindListFiles}
	case intent.OpenApplication:
		return Command{Kind: KindOpenApp, App: intent.ExtractAppName(utterance)}
	case intent.CloseApplication:
		return Command{Kind: KindCloseApp, App: intent.ExtractAppName(utterance)}
	case intent.SwitchApplication:
		return Command{Kind: KindSwitchApp, App: intent.ExtractAppName(utterance)}
	case intent.ListInstalledApplications:
		return Command{Kind: KindListInstalled}
	case intent.ListRunningApplications:
		return Command{Kind: KindListRunning}
	case intent.Unrecognized:
		return Clarify()
	default:
		return Command{Kind: KindUnrecognized}
	}
}
