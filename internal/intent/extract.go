package intent

import (
	"regexp"
	"strings"
)

// spokenPunctuation glues the words on either side of it into one name.
var spokenPunctuation = map[string]string{
	"dot":        ".",
	"underscore": "_",
	"dash":       "-",
	"space":      "",
	"slash":      "/",
}

// nameMarkers introduce the name and never become part of it.
var nameMarkers = map[string]bool{"named": true, "called": true, "as": true}

var nameStopWords = map[string]bool{
	"file": true, "folder": true, "directory": true, "a": true, "an": true, "the": true, "new": true,
	"please": true, "create": true, "delete": true, "make": true, "remove": true,
}

var (
	// Multi-word verbs precede their single-word prefixes so "switch to" wins over "to".
	appVerbs  = regexp.MustCompile(`(?i)\b(switch to|focus on|open|close|run|launch|terminate|kill|start|exit|to)\b`)
	appFiller = regexp.MustCompile(`(?i)\b(application|program|app|the|a|an|please|can you|could you|for me|it|this|that)\b`)
)

const trailingPunct = ".,!?;:"

type nameChunk struct {
	text   string
	joined bool
}

// ExtractTargetName returns the file or folder name spoken in utterance, or "" when none
// remains after dropping command words. Words joined by spoken punctuation form one name,
// so "new dash file dot txt" is kept whole.
func ExtractTargetName(utterance string) string {
	toks := strings.Fields(strings.ToLower(utterance))

	var chunks []nameChunk
	for i := 0; i < len(toks); i++ {
		word := strings.TrimRight(toks[i], trailingPunct)
		sym, isPunct := spokenPunctuation[word]
		if isPunct && i+1 < len(toks) {
			last := len(chunks) - 1
			if last >= 0 && !(nameMarkers[chunks[last].text] && !chunks[last].joined) {
				chunks[last].text += sym + toks[i+1]
				chunks[last].joined = true
			} else {
				chunks = append(chunks, nameChunk{text: sym + toks[i+1], joined: true})
			}
			i++
			continue
		}
		if isPunct {
			continue
		}
		chunks = append(chunks, nameChunk{text: toks[i]})
	}

	var kept []string
	for i := 0; i < len(chunks); i++ {
		c := chunks[i]
		if !c.joined {
			word := strings.TrimRight(c.text, trailingPunct)
			if nameMarkers[word] || nameStopWords[word] {
				continue
			}
			if (word == "can" || word == "could") && i+1 < len(chunks) && !chunks[i+1].joined &&
				strings.TrimRight(chunks[i+1].text, trailingPunct) == "you" {
				i++
				continue
			}
		}
		kept = append(kept, c.text)
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.TrimRight(kept[len(kept)-1], trailingPunct)
}

// ExtractAppName returns the application named in utterance, or "" when only verbs and
// filler words were spoken.
func ExtractAppName(utterance string) string {
	text := appVerbs.ReplaceAllString(utterance, " ")
	text = appFiller.ReplaceAllString(text, " ")
	text = strings.Join(strings.Fields(text), " ")
	return strings.Trim(text, ".,!?;: ")
}
