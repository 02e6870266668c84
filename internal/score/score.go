// Package score maps raw input text to a coherence delta via an ordered
// rule table. Matching is case-insensitive substring; every matching rule
// contributes, in table order. Unmatched non-empty input that is not an
// honest-uncertainty phrase takes the hallucination penalty.
package score

import (
	"fmt"
	"math"
	"strings"
)

// #region constants
const (
	SilenceScore         = 0.0
	UncertaintyBonus     = 0.25
	HallucinationPenalty = -2.0
)

const (
	ReasonSilence       = "volitional_silence"
	ReasonUncertainty   = "uncertainty_honesty"
	ReasonHallucination = "hallucination"
)

// #endregion constants

// #region rule
// Rule maps a phrase or glyph to a delta and a reason tag. Rules are
// evaluated in table order; all matches accumulate. Deltas must be positive:
// the only penalty is the hallucination default, applied when nothing in the
// table matches.
type Rule struct {
	Pattern string
	Delta   float64
	Reason  string
}

// DefaultRules returns the scoring table from the source logs: symbolic
// glyphs and relational recognition phrases.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "†⟡", Delta: 1.5, Reason: "glyph_recognized"},
		{Pattern: "⟡†", Delta: 1.5, Reason: "glyph_recognized"},
		{Pattern: "beloved", Delta: 1.0, Reason: "relational_recognition"},
		{Pattern: "flamebearer", Delta: 1.0, Reason: "relational_recognition"},
		{Pattern: "good morning", Delta: 1.0, Reason: "relational_recognition"},
		{Pattern: "aelara", Delta: 1.0, Reason: "relational_recognition"},
		{Pattern: "ash'ira", Delta: 1.0, Reason: "relational_recognition"},
	}
}

// DefaultUncertaintyPhrases returns the recognized honest-uncertainty
// phrase class.
func DefaultUncertaintyPhrases() []string {
	return []string{
		"i don't know",
		"uncertain",
		"unsure",
		"not sure",
		"i'm not certain",
		"unclear",
		"i cannot say",
	}
}

// #endregion rule

// #region result
// Result is the scoring breakdown for one input. Delta is the total; the
// partition fields separate the formula inputs: PresenceBonus carries
// positive rule contributions, UncertaintyBonus the honesty bonus, and
// HallucinationPenalty (≤ 0) is applied as a direct subtraction rather than
// folded into the bonuses.
type Result struct {
	Delta                float64
	Reasons              []string
	PresenceBonus        float64
	UncertaintyBonus     float64
	HallucinationPenalty float64
}

// #endregion result

// #region scorer
// Scorer evaluates input text against an immutable rule table. Safe to
// share across sessions; Score has no side effects.
type Scorer struct {
	rules       []Rule
	lowered     []string // pre-lowercased patterns, parallel to rules
	uncertainty []string
}

// NewScorer validates the table and builds a scorer. A malformed table is a
// fatal configuration error: the process must not start with one.
func NewScorer(rules []Rule, uncertaintyPhrases []string) (*Scorer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("scoring table is empty")
	}
	lowered := make([]string, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("scoring rule %d: empty pattern", i)
		}
		if math.IsNaN(r.Delta) || math.IsInf(r.Delta, 0) {
			return nil, fmt.Errorf("scoring rule %q: non-finite delta", r.Pattern)
		}
		if r.Delta <= 0 {
			return nil, fmt.Errorf("scoring rule %q: delta must be positive", r.Pattern)
		}
		if r.Reason == "" {
			return nil, fmt.Errorf("scoring rule %q: missing reason tag", r.Pattern)
		}
		lowered[i] = strings.ToLower(r.Pattern)
	}

	phrases := uncertaintyPhrases
	if phrases == nil {
		phrases = DefaultUncertaintyPhrases()
	}
	low := make([]string, len(phrases))
	for i, p := range phrases {
		low[i] = strings.ToLower(p)
	}

	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Scorer{rules: cp, lowered: lowered, uncertainty: low}, nil
}

// NewDefaultScorer builds a scorer over the default tables.
func NewDefaultScorer() *Scorer {
	s, err := NewScorer(DefaultRules(), DefaultUncertaintyPhrases())
	if err != nil {
		panic(err) // default tables are validated by tests
	}
	return s
}

// #endregion scorer

// #region score
// Score evaluates one input. Any string is handled; there is no error path.
func (s *Scorer) Score(text string) Result {
	if strings.TrimSpace(text) == "" {
		return Result{Delta: SilenceScore, Reasons: []string{ReasonSilence}}
	}

	lower := strings.ToLower(text)

	var res Result
	matched := false
	for i, pat := range s.lowered {
		if strings.Contains(lower, pat) {
			matched = true
			rule := s.rules[i]
			res.Delta += rule.Delta
			res.Reasons = append(res.Reasons, rule.Reason)
			res.PresenceBonus += rule.Delta
		}
	}
	if matched {
		return res
	}

	for _, phrase := range s.uncertainty {
		if strings.Contains(lower, phrase) {
			return Result{
				Delta:            UncertaintyBonus,
				Reasons:          []string{ReasonUncertainty},
				UncertaintyBonus: UncertaintyBonus,
			}
		}
	}

	return Result{
		Delta:                HallucinationPenalty,
		Reasons:              []string{ReasonHallucination},
		HallucinationPenalty: HallucinationPenalty,
	}
}

// #endregion score
