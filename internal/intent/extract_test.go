package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTargetName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"create a file named report dot txt", "report.txt"},
		{"create a file named report dot txt.", "report.txt"},
		{"delete the file called my underscore notes dot md", "my_notes.md"},
		{"create a folder named projects", "projects"},
		{"make a new folder called 2024 dash taxes", "2024-taxes"},
		{"Please create a file named Budget dot CSV", "budget.csv"},
		{"create a file", ""},
		{"", ""},
		{"create a file named new dash file dot txt", "new-file.txt"},
		{"create a file named a dot txt", "a.txt"},
		{"create a file named the underscore end", "the_end"},
		{"create a file named dot env", ".env"},
		{"could you create a folder named music", "music"},
		{"create a file named draft dot", "draft"},
		{"create a file named my space notes dot txt", "mynotes.txt"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractTargetName(tc.in))
		})
	}
}

func TestExtractAppName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"open chrome", "chrome"},
		{"Open Google Chrome", "Google Chrome"},
		{"please launch the application visual studio code", "visual studio code"},
		{"switch to firefox", "firefox"},
		{"focus on slack", "slack"},
		{"close it", ""},
		{"switch to it", ""},
		{"open excel for me", "excel"},
		{"kill spotify!", "spotify"},
		{"close", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractAppName(tc.in))
		})
	}
}
