package game

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func marks(r Result) []Mark {
	out := make([]Mark, len(r))
	for i, l := range r {
		out[i] = l.Status
	}
	return out
}

const (
	cor = MarkCorrect
	pre = MarkPresent
	abs = MarkAbsent
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		guess, target string
		want          []Mark
	}{
		{"repeated letters in guess and target", "babes", "abbey", []Mark{pre, pre, cor, cor, abs}},
		{"more guessed E than target holds", "eerie", "level", []Mark{pre, cor, abs, abs, abs}},
		{"identity", "crane", "crane", []Mark{cor, cor, cor, cor, cor}},
		{"anagram", "react", "crate", []Mark{pre, pre, cor, pre, pre}},
		{"nothing in common", "bumpy", "crane", []Mark{abs, abs, abs, abs, abs}},
		{"exact matches consume letters before presents", "lolly", "hello", []Mark{abs, pre, cor, cor, abs}},
		{"single target letter flagged once", "sassy", "basic", []Mark{abs, cor, cor, abs, abs}},
		{"accent-free french words", "ecole", "eleve", []Mark{cor, abs, abs, pre, cor}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.guess, tt.target)
			assert.Len(t, got, len(tt.target))
			assert.Equal(t, tt.want, marks(got))
			for i, l := range got {
				assert.Equal(t, tt.guess[i:i+1], l.Letter)
			}
		})
	}
}

func TestClassify_Identity(t *testing.T) {
	r := Classify("level", "level")
	assert.True(t, r.AllCorrect())
	assert.False(t, Classify("eerie", "level").AllCorrect())
	assert.False(t, Result{}.AllCorrect())
}

// A letter is never flagged correct/present more times than it occurs in the target.
func TestClassify_NeverOvercounts(t *testing.T) {
	pool := []string{"abbey", "babes", "level", "eerie", "sassy", "basic", "hello", "lolly", "geese", "eagle", "allee", "llama"}
	for _, target := range pool {
		for _, guess := range pool {
			res := Classify(guess, target)
			flagged := map[string]int{}
			for i, l := range res {
				if l.Status != MarkAbsent {
					flagged[l.Letter]++
				}
				if l.Status == MarkCorrect {
					assert.Equal(t, target[i], guess[i])
				}
			}
			for letter, n := range flagged {
				assert.LessOrEqual(t, n, strings.Count(target, letter), "guess=%s target=%s letter=%s", guess, target, letter)
			}
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	assert.Equal(t, Classify("babes", "abbey"), Classify("babes", "abbey"))
}
