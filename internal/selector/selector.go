// Package selector picks the target location of a round.
package selector

import (
	"errors"
	"math/rand/v2"
	"strings"
)

// DefaultRetries bounds how often Rotate re-picks to avoid a repeat.
const DefaultRetries = 10

// ErrNoCandidates is returned when there is nothing to pick from.
var ErrNoCandidates = errors.New("no candidate locations")

// Selector picks uniformly at random. A Selector built from an explicit
// source is not safe for concurrent use.
type Selector struct {
	intN    func(n int) int
	retries int
}

// New creates a Selector drawing from src, or from the global generator when
// src is nil.
func New(src rand.Source) *Selector {
	s := &Selector{intN: rand.IntN, retries: DefaultRetries}
	if src != nil {
		s.intN = rand.New(src).IntN
	}
	return s
}

// Pick returns a uniformly random candidate.
func (s *Selector) Pick(candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", ErrNoCandidates
	}
	return candidates[s.intN(len(candidates))], nil
}

// Rotate picks a candidate other than excluding, retrying a bounded number of
// times. When every attempt collides (tiny candidate sets) the repeat is
// accepted.
func (s *Selector) Rotate(candidates []string, excluding string) (string, error) {
	pick, err := s.Pick(candidates)
	if err != nil {
		return "", err
	}
	for i := 0; i < s.retries && strings.EqualFold(pick, excluding); i++ {
		pick, _ = s.Pick(candidates)
	}
	return pick, nil
}

// Select forces override when it names a candidate, and otherwise rotates
// away from excluding.
func (s *Selector) Select(candidates []string, override, excluding string) (string, error) {
	if override = strings.TrimSpace(override); override != "" {
		for _, c := range candidates {
			if strings.EqualFold(c, override) {
				return c, nil
			}
		}
	}
	return s.Rotate(candidates, excluding)
}
