// Package round implements the progressive-disclosure round engine: the
// guess/advance/finish state machine and the layer reveal policy.
package round

import (
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

// DefaultMaxRounds is the number of guesses per location.
const DefaultMaxRounds = 4

var (
	// ErrReadOnly is returned for guesses in admin mode.
	ErrReadOnly = errors.New("guessing is disabled in admin mode")
	// ErrFinished is returned for guesses after the round has finished.
	ErrFinished = errors.New("round already finished")
	// ErrNoLocation is returned for guesses before a location was set.
	ErrNoLocation = errors.New("no active location")
)

// Config tunes the state machine.
type Config struct {
	MaxRounds int
	Schedule  Schedule
}

// Options select the interactive or admin mode of a session.
type Options struct {
	// Admin disables guessing and shows exactly Override.
	Admin bool
	// Override kinds are visible regardless of round.
	Override []domain.LayerKind
}

// State is a snapshot of the machine.
type State struct {
	LocationCode string   `json:"location_code"`
	Round        int      `json:"round"`
	MaxRounds    int      `json:"max_rounds"`
	Tried        []string `json:"tried"`
	Solved       []string `json:"solved"`
	Finished     bool     `json:"finished"`
	Success      bool     `json:"success"`
	Correct      int      `json:"correct"`
	Played       int      `json:"played"`
	Admin        bool     `json:"admin"`
}

// Result describes the effect of one guess.
type Result struct {
	Code     string `json:"code,omitempty"`
	Correct  bool   `json:"correct"`
	Finished bool   `json:"finished"`
	Round    int    `json:"round"`
}

// Machine is the round state machine of one session. It is not safe for
// concurrent use.
type Machine struct {
	cfg      Config
	admin    bool
	override map[domain.LayerKind]bool

	code     string
	round    int
	tried    []string
	finished bool
	success  bool

	solved  []string
	correct int
	played  int
}

// New validates cfg and creates a Machine with no active location.
func New(cfg Config, opts Options) (*Machine, error) {
	if cfg.MaxRounds < 1 {
		return nil, fmt.Errorf("max rounds must be at least 1, got %d", cfg.MaxRounds)
	}
	if cfg.Schedule == nil {
		cfg.Schedule = DefaultSchedule()
	}
	m := &Machine{
		cfg:      cfg,
		admin:    opts.Admin,
		override: make(map[domain.LayerKind]bool, len(opts.Override)),
	}
	for _, k := range opts.Override {
		m.override[k] = true
	}
	return m, nil
}

// Reset starts a fresh round for code. Tried guesses are cleared; solved
// locations and the score carry over.
func (m *Machine) Reset(code string) {
	m.code = code
	m.round = 1
	m.tried = nil
	m.finished = false
	m.success = false
}

// Guess applies a resolved guess. An empty code stands for text that
// resolved to no location: it is wrong but is not recorded as tried.
func (m *Machine) Guess(code string) (Result, error) {
	switch {
	case m.admin:
		return Result{}, ErrReadOnly
	case m.code == "":
		return Result{}, ErrNoLocation
	case m.finished:
		return Result{Round: m.round, Finished: true}, ErrFinished
	}

	if code != "" && strings.EqualFold(code, m.code) {
		m.finish(true)
		return Result{Code: m.code, Correct: true, Finished: true, Round: m.round}, nil
	}

	if code != "" && !contains(m.tried, code) {
		m.tried = append(m.tried, code)
	}
	if m.round < m.cfg.MaxRounds {
		m.round++
	} else {
		m.finish(false)
	}
	return Result{Code: code, Finished: m.finished, Round: m.round}, nil
}

func (m *Machine) finish(success bool) {
	m.finished = true
	m.success = success
	m.played++
	if success {
		m.correct++
	}
	if !contains(m.solved, m.code) {
		m.solved = append(m.solved, m.code)
	}
}

// Visible returns the kinds that should be on the map, in canonical order.
// The set only grows as rounds advance.
func (m *Machine) Visible() []domain.LayerKind {
	if m.admin {
		return domain.SortLayerKinds(m.override)
	}
	if m.finished {
		return append([]domain.LayerKind(nil), domain.AllLayerKinds...)
	}

	set := make(map[domain.LayerKind]bool, len(domain.AllLayerKinds))
	for k := range m.override {
		set[k] = true
	}
	if m.code != "" {
		for _, k := range m.cfg.Schedule.Through(m.round) {
			set[k] = true
		}
	}
	return domain.SortLayerKinds(set)
}

// State returns a snapshot.
func (m *Machine) State() State {
	return State{
		LocationCode: m.code,
		Round:        m.round,
		MaxRounds:    m.cfg.MaxRounds,
		Tried:        append([]string{}, m.tried...),
		Solved:       append([]string{}, m.solved...),
		Finished:     m.finished,
		Success:      m.success,
		Correct:      m.correct,
		Played:       m.played,
		Admin:        m.admin,
	}
}

// Status is the one-line text shown in the page's score element.
func (m *Machine) Status() string {
	score := fmt.Sprintf("Score %d/%d", m.correct, m.played)
	switch {
	case m.admin:
		return "Preview: " + m.code
	case m.code == "":
		return "Loading..."
	case m.finished && m.success:
		return fmt.Sprintf("Correct! It was %s. %s", m.code, score)
	case m.finished:
		return fmt.Sprintf("Out of guesses. It was %s. %s", m.code, score)
	case len(m.tried) > 0:
		return fmt.Sprintf("Round %d/%d. Tried %s. %s", m.round, m.cfg.MaxRounds, strings.Join(m.tried, ", "), score)
	default:
		return fmt.Sprintf("Round %d/%d. %s", m.round, m.cfg.MaxRounds, score)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
