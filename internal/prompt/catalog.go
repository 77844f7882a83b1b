package prompt

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leadloop/quill/internal/together"
)

// Scenario names one reply situation. The two control scenarios drive the
// reviewer and selector calls and never produce a client-facing draft.
type Scenario string

const (
	ScenarioSummarizer      Scenario = "summarizer"
	ScenarioIntro           Scenario = "intro_email"
	ScenarioContinuation    Scenario = "continuation_email"
	ScenarioClosingReferral Scenario = "closing_referral"
	ScenarioSelector        Scenario = "selector_llm"
	ScenarioReviewer        Scenario = "reviewer_llm"
)

// Entry is one catalog row: a system instruction plus the generation
// hyperparameters fixed for that scenario.
type Entry struct {
	System          string
	Hyperparameters together.Hyperparameters
}

// Preferences are the per-account writing preferences. Empty string means
// unset; the "NULL" sentinel used by the profile store is mapped to empty at
// the records adapter.
type Preferences struct {
	Tone     string
	Style    string
	Sample   string
	Location string
	Bio      string
}

// Known reports whether s names a catalog entry.
func Known(s Scenario) bool {
	_, ok := catalog[s]
	return ok
}

// IsControl reports whether s is one of the selector/reviewer scenarios.
func (s Scenario) IsControl() bool {
	return s == ScenarioSelector || s == ScenarioReviewer
}

// Lookup returns the base entry for a known scenario, without any
// personalization applied.
func Lookup(s Scenario) Entry {
	return catalog[s]
}

// Resolve builds the entry for a scenario with account preferences spliced
// into the system instruction. It is a pure function: the catalog is never
// mutated and nothing is cached. Hyperparameters do not vary with
// preferences. Control scenarios always get their base entry.
func Resolve(s Scenario, prefs Preferences) Entry {
	base := catalog[s]
	if s.IsControl() {
		return base
	}

	var instructions []string
	if prefs.Tone != "" {
		instructions = append(instructions, "IMPORTANT: You MUST write in a "+prefs.Tone+" tone throughout the entire response")
	}
	if prefs.Style != "" {
		instructions = append(instructions, "IMPORTANT: You MUST use a "+prefs.Style+" writing style for all content")
	}
	if prefs.Sample != "" {
		instructions = append(instructions, "IMPORTANT: You MUST closely match the style and tone of this writing sample: "+prefs.Sample)
	}
	if len(instructions) == 0 {
		return base
	}

	system := "IMPORTANT WRITING PREFERENCES - FOLLOW THESE STRICTLY:\n" +
		strings.Join(instructions, "\n") +
		"\n\n---\n\n" +
		base.System

	return Entry{System: system, Hyperparameters: base.Hyperparameters}
}

// PreferenceSource fetches account preferences from the profile store.
type PreferenceSource interface {
	AccountPreferences(ctx context.Context, accountID string) (Preferences, error)
}

// Catalog resolves scenario prompts, fetching account preferences for
// drafting scenarios.
type Catalog struct {
	prefs  PreferenceSource
	logger *slog.Logger
}

func NewCatalog(prefs PreferenceSource, logger *slog.Logger) *Catalog {
	return &Catalog{prefs: prefs, logger: logger}
}

// Prompt returns the effective scenario and its resolved entry. An unknown
// scenario falls back to continuation_email. Preference lookup failures are
// non-fatal: the base prompt is used.
func (c *Catalog) Prompt(ctx context.Context, scenario Scenario, accountID string) (Scenario, Entry) {
	if !Known(scenario) {
		c.logger.Warn("unknown scenario, defaulting to continuation_email", "scenario", string(scenario))
		scenario = ScenarioContinuation
	}

	if scenario.IsControl() || accountID == "" {
		return scenario, Lookup(scenario)
	}

	prefs, err := c.prefs.AccountPreferences(ctx, accountID)
	if err != nil {
		c.logger.Warn("preference lookup failed, using base prompt",
			"account_id", accountID,
			"scenario", string(scenario),
			"error", err,
		)
		return scenario, Lookup(scenario)
	}

	return scenario, Resolve(scenario, prefs)
}
