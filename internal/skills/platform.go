package skills

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

type command struct {
	name string
	args []string
}

func cmd(name string, args ...string) command { return command{name: name, args: args} }

// platform is the per-OS command table used by AppControl.
type platform struct {
	launch        func(exe string) command
	terminate     func(process string) command
	running       command
	parseRunning  func(out string) []string
	windows       command
	parseWindows  func(out string) []string
	focus         func(title string) command
	openURL       func(url string) command
	installedDirs []string
	installedExt  string
}

func platformFor(goos string) platform {
	switch goos {
	case "darwin":
		return darwinPlatform()
	case "windows":
		return windowsPlatform()
	default:
		return linuxPlatform()
	}
}

func linuxPlatform() platform {
	home, _ := os.UserHomeDir()
	return platform{
		launch:       func(exe string) command { return cmd(exe) },
		terminate: func(p string) command {
			return cmd("pkill", "-x", "-i", "--", regexp.QuoteMeta(p))
		},
		running:      cmd("ps", "-eo", "comm="),
		parseRunning: splitLines,
		windows:      cmd("wmctrl", "-l"),
		parseWindows: parseWmctrl,
		focus:        func(title string) command { return cmd("wmctrl", "-F", "-a", title) },
		openURL:      func(url string) command { return cmd("xdg-open", url) },
		installedDirs: []string{
			"/usr/share/applications",
			"/usr/local/share/applications",
			filepath.Join(home, ".local", "share", "applications"),
		},
		installedExt: ".desktop",
	}
}

func darwinPlatform() platform {
	visible := cmd("osascript", "-e",
		`tell application "System Events" to get name of (processes where background only is false)`)
	return platform{
		launch:       func(exe string) command { return cmd("open", "-a", exe) },
		terminate:    func(p string) command { return appleScriptWithArg("quit app (item 1 of argv)", p) },
		running:      visible,
		parseRunning: splitCommas,
		windows:      visible,
		parseWindows: splitCommas,
		focus: func(title string) command {
			return appleScriptWithArg("tell application (item 1 of argv) to activate", title)
		},
		openURL:       func(url string) command { return cmd("open", url) },
		installedDirs: []string{"/Applications", "/System/Applications"},
		installedExt:  ".app",
	}
}

func windowsPlatform() platform {
	startMenu := filepath.Join(os.Getenv("ProgramData"), "Microsoft", "Windows", "Start Menu", "Programs")
	userMenu := filepath.Join(os.Getenv("AppData"), "Microsoft", "Windows", "Start Menu", "Programs")
	return platform{
		launch: func(exe string) command { return powershell("Start-Process -FilePath " + psQuote(exe)) },
		terminate: func(p string) command {
			p = strings.Map(func(r rune) rune {
				if r == '*' || r == '?' {
					return -1
				}
				return r
			}, p)
			if !strings.HasSuffix(strings.ToLower(p), ".exe") {
				p += ".exe"
			}
			return cmd("taskkill", "/IM", p, "/F")
		},
		running:      cmd("tasklist", "/FO", "CSV", "/NH"),
		parseRunning: parseTasklist,
		windows: cmd("powershell", "-NoProfile", "-Command",
			"Get-Process | Where-Object {$_.MainWindowTitle} | Select-Object -ExpandProperty MainWindowTitle"),
		parseWindows: splitLines,
		focus: func(title string) command {
			return powershell("(New-Object -ComObject WScript.Shell).AppActivate(" + psQuote(title) + ")")
		},
		openURL:       func(url string) command { return powershell("Start-Process " + psQuote(url)) },
		installedDirs: []string{startMenu, userMenu},
		installedExt:  ".lnk",
	}
}

// appleScriptWithArg runs a one-line script that reads the name from argv, so the name is
// never parsed as AppleScript.
func appleScriptWithArg(line, arg string) command {
	return cmd("osascript", "-e", "on run argv", "-e", line, "-e", "end run", "--", arg)
}

func powershell(script string) command {
	return cmd("powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

// psQuoteChars are the characters PowerShell accepts as a single quote.
var psQuoteChars = strings.NewReplacer("'", "''", "\u2018", "\u2018\u2018", "\u2019", "\u2019\u2019",
	"\u201a", "\u201a\u201a", "\u201b", "\u201b\u201b")

// psQuote renders s as a verbatim single-quoted PowerShell string.
func psQuote(s string) string {
	return "'" + psQuoteChars.Replace(s) + "'"
}

func splitLines(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names
}

func splitCommas(out string) []string {
	var names []string
	for _, part := range strings.Split(out, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// parseWmctrl extracts titles from `wmctrl -l` rows: id, desktop, host, title.
func parseWmctrl(out string) []string {
	var titles []string
	for _, line := range splitLines(out) {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		titles = append(titles, strings.Join(fields[3:], " "))
	}
	return titles
}

func parseTasklist(out string) []string {
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		return nil
	}
	var names []string
	for _, row := range rows {
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			names = append(names, strings.TrimSpace(row[0]))
		}
	}
	return names
}

// uniqueSorted de-duplicates case-insensitively, keeping the first spelling seen.
func uniqueSorted(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}
