// Package intent is the statistical fallback tier: a linear one-vs-rest classifier over
// word unigrams and bigrams, trained at startup from a labelled corpus.
package intent

import (
	"errors"
	"math"
	"strings"
	"unicode"
)

const (
	// DefaultConfidenceGate is the minimum winning score for a label to be accepted.
	DefaultConfidenceGate = 0.4

	trainEpochs = 200
	trainMargin = 1.0
	learnRate   = 0.5
)

// Classifier maps an utterance to one label of the closed set and a confidence score.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	labels  []Label
	weights map[Label]map[string]float64
	gate    float64
}

// New trains a classifier on corpus. The weight vectors carry no bias term, so an
// utterance sharing no features with the corpus scores zero for every label.
func New(corpus Corpus, gate float64) (*Classifier, error) {
	if len(corpus) == 0 {
		return nil, errors.New("intent: empty corpus")
	}
	if gate <= 0 {
		gate = DefaultConfidenceGate
	}

	seen := map[Label]bool{}
	for _, ex := range corpus {
		seen[ex.Label] = true
	}
	c := &Classifier{weights: map[Label]map[string]float64{}, gate: gate}
	for _, l := range Labels() {
		if seen[l] {
			c.labels = append(c.labels, l)
			c.weights[l] = map[string]float64{}
		}
	}

	vecs := make([]map[string]float64, len(corpus))
	for i, ex := range corpus {
		vecs[i] = features(ex.Text)
	}

	for epoch := 0; epoch < trainEpochs; epoch++ {
		updates := 0
		for i, ex := range corpus {
			x := vecs[i]
			for _, l := range c.labels {
				y := -1.0
				if ex.Label == l {
					y = 1.0
				}
				if y*dot(c.weights[l], x) >= trainMargin {
					continue
				}
				w := c.weights[l]
				for f, v := range x {
					w[f] += learnRate * y * v
				}
				updates++
			}
		}
		if updates == 0 {
			break
		}
	}
	return c, nil
}

// Gate returns the acceptance threshold.
func (c *Classifier) Gate() float64 { return c.gate }

// Scores returns the raw per-label scores for utterance.
func (c *Classifier) Scores(utterance string) map[Label]float64 {
	x := features(utterance)
	out := make(map[Label]float64, len(c.labels))
	for _, l := range c.labels {
		out[l] = dot(c.weights[l], x)
	}
	return out
}

// Classify returns the best label and its score. When the score is below the gate the
// label is Unrecognized; the score is still reported.
func (c *Classifier) Classify(utterance string) (Label, float64) {
	x := features(utterance)
	best, bestScore := Unrecognized, math.Inf(-1)
	for _, l := range c.labels {
		if s := dot(c.weights[l], x); s > bestScore {
			best, bestScore = l, s
		}
	}
	if len(x) == 0 || bestScore < c.gate {
		if len(x) == 0 {
			bestScore = 0
		}
		return Unrecognized, bestScore
	}
	return best, bestScore
}

func dot(w, x map[string]float64) float64 {
	var s float64
	for f, v := range x {
		s += w[f] * v
	}
	return s
}

// features returns the L2-normalised binary unigram and bigram vector of text.
func features(text string) map[string]float64 {
	toks := tokenize(text)
	if len(toks) == 0 {
		return nil
	}
	set := make(map[string]struct{}, 2*len(toks))
	for i, t := range toks {
		set["u:"+t] = struct{}{}
		if i > 0 {
			set["b:"+toks[i-1]+"_"+t] = struct{}{}
		}
	}
	v := 1 / math.Sqrt(float64(len(set)))
	out := make(map[string]float64, len(set))
	for f := range set {
		out[f] = v
	}
	return out
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
