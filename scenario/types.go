// Package scenario defines the immutable dialog configuration: keyword
// intents, multi-step scenarios, and the closed set of step handlers.
// Configuration is loaded once at startup and validated so thoroughly
// that the engine never hits a dangling reference at runtime.
package scenario

import (
	"errors"
	"strings"
)

// ErrConfig marks configuration errors that must abort startup.
var ErrConfig = errors.New("scenario config")

// Step is one node of a scenario: a prompt, an optional attachment
// generator, a validator for the user's answer, and the successor pointer.
// An empty NextStep denotes scenario completion.
type Step struct {
	Name        string
	Text        string
	FailureText string
	NextStep    string
	Validator   Validator
	Image       ImageGenerator
}

// Terminal reports whether reaching this step completes the scenario.
func (s *Step) Terminal() bool { return s.NextStep == "" }

// Scenario is a named chain of steps starting at FirstStep.
type Scenario struct {
	Name      string
	FirstStep string
	Steps     map[string]*Step
}

// Step returns the named step.
func (s *Scenario) Step(name string) (*Step, bool) {
	st, ok := s.Steps[name]
	return st, ok
}

// Intent is a stateless keyword-triggered shortcut: either a canned answer
// or a scenario starter. Intents apply only when no scenario is active.
type Intent struct {
	Name     string
	Tokens   []string
	Answer   string
	Scenario *Scenario
}

// Config aggregates the whole dialog configuration.
type Config struct {
	DefaultAnswer string
	Intents       []Intent
	Scenarios     map[string]*Scenario
}

// MatchIntent classifies text against the configured intents. The text is
// lowercased once; intents are tried in declaration order and the first
// one with any token appearing as a substring wins. Ties are broken by
// order, not token specificity. Returns nil when nothing matches.
func (c *Config) MatchIntent(text string) *Intent {
	lowered := strings.ToLower(text)
	for i := range c.Intents {
		for _, token := range c.Intents[i].Tokens {
			if strings.Contains(lowered, token) {
				return &c.Intents[i]
			}
		}
	}
	return nil
}

// Scenario returns the named scenario.
func (c *Config) Scenario(name string) (*Scenario, bool) {
	s, ok := c.Scenarios[name]
	return s, ok
}
