package intent

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed corpus.yaml
var defaultCorpus []byte

// Example is one labelled training utterance.
type Example struct {
	Text  string
	Label Label
}

// Corpus is the training set, in a deterministic order.
type Corpus []Example

type corpusDoc struct {
	Intents map[string][]string `yaml:"intents"`
}

// DefaultCorpus returns the built-in training set.
func DefaultCorpus() (Corpus, error) {
	return LoadCorpus(bytes.NewReader(defaultCorpus))
}

// LoadCorpusFile reads a training set from a YAML file.
func LoadCorpusFile(path string) (Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return LoadCorpus(f)
}

// LoadCorpus decodes a YAML document of the form
//
//	intents:
//	  OPEN_APPLICATION:
//	    - open chrome
func LoadCorpus(r io.Reader) (Corpus, error) {
	var doc corpusDoc
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	if len(doc.Intents) == 0 {
		return nil, fmt.Errorf("corpus has no intents")
	}

	names := make([]string, 0, len(doc.Intents))
	for name := range doc.Intents {
		names = append(names, name)
	}
	sort.Strings(names)

	var out Corpus
	for _, name := range names {
		label, ok := ParseLabel(name)
		if !ok {
			return nil, fmt.Errorf("corpus: unknown intent %q", name)
		}
		for _, text := range doc.Intents[name] {
			out = append(out, Example{Text: text, Label: label})
		}
	}
	return out, nil
}
