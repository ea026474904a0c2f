// Package synth derives successive benchmark windows from a single event log.
//
// A run rescales the source log into the target span, replicates a share of
// its traces, then repeatedly relabels, splits and renders the traces so that
// unfinished cases continue from one window into the next.
package synth

import "math/rand"

const caseIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultCaseIDLength is the length of generated case identifiers.
const DefaultCaseIDLength = 10

// CaseIDs generates random alphanumeric case identifiers.
type CaseIDs struct {
	rng    *rand.Rand
	length int
}

// NewCaseIDs creates a generator drawing from rng.
func NewCaseIDs(rng *rand.Rand, length int) *CaseIDs {
	if length <= 0 {
		length = DefaultCaseIDLength
	}
	return &CaseIDs{rng: rng, length: length}
}

// Next returns a new identifier.
func (g *CaseIDs) Next() string {
	b := make([]byte, g.length)
	for i := range b {
		b[i] = caseIDAlphabet[g.rng.Intn(len(caseIDAlphabet))]
	}
	return string(b)
}
