package mentor

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// KeywordRule maps a case-insensitive substring of the primary goal to a
// persona. Rules are evaluated in order and the first match wins.
type KeywordRule struct {
	Keyword string    `json:"keyword" mapstructure:"keyword"`
	Persona PersonaID `json:"persona" mapstructure:"persona"`
}

// WeightTable holds the points each answer value grants to each persona.
type WeightTable struct {
	Knowledge  map[KnowledgeLevel]map[PersonaID]int
	Emotion    map[EmotionalState]map[PersonaID]int
	Style      map[LearningStyle]map[PersonaID]int
	Discipline map[Discipline]map[PersonaID]int
}

// Config is everything the scorer needs. It is passed by value into
// NewScorer; the package keeps no mutable state of its own.
type Config struct {
	Rules   []KeywordRule
	Weights WeightTable
	Default PersonaID
}

// RandSource picks the winner among tied personas. *rand.Rand from
// math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRules returns the built-in keyword rules in evaluation order.
func DefaultRules() []KeywordRule {
	return []KeywordRule{
		{Keyword: "emprender", Persona: Entrepreneur},
		{Keyword: "ahorr", Persona: Saver},
		{Keyword: "invert", Persona: Strategist},
		{Keyword: "inversión", Persona: Strategist},
		{Keyword: "presupuesto", Persona: Illustrator},
		{Keyword: "gastos", Persona: Illustrator},
		{Keyword: "controlar", Persona: Illustrator},
	}
}

// DefaultWeights returns the built-in weight table. Emotional state and
// discipline grant 3 points, learning style 2 and knowledge level 1.
func DefaultWeights() WeightTable {
	return WeightTable{
		Knowledge: map[KnowledgeLevel]map[PersonaID]int{
			KnowledgeBasic:        {Illustrator: 1},
			KnowledgeIntermediate: {Saver: 1, Entrepreneur: 1},
			KnowledgeAdvanced:     {Strategist: 1},
		},
		Emotion: map[EmotionalState]map[PersonaID]int{
			EmotionStarting:   {Illustrator: 3},
			EmotionLearning:   {Saver: 3},
			EmotionImproving:  {Entrepreneur: 3},
			EmotionOptimizing: {Strategist: 3},
		},
		Style: map[LearningStyle]map[PersonaID]int{
			StyleGames:     {Entrepreneur: 2},
			StyleVideos:    {Illustrator: 2},
			StyleExamples:  {Saver: 2},
			StylePractical: {Strategist: 2},
		},
		Discipline: map[Discipline]map[PersonaID]int{
			DisciplineLow:      {Illustrator: 3},
			DisciplineMedium:   {Entrepreneur: 3},
			DisciplineConstant: {Saver: 3},
			DisciplineHigh:     {Strategist: 3},
		},
	}
}

// DefaultConfig returns a fresh copy of the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Rules:   DefaultRules(),
		Weights: DefaultWeights(),
		Default: Illustrator,
	}
}

// Validate checks that every persona referenced by the configuration exists.
func (c Config) Validate() error {
	if _, ok := Lookup(c.Default); !ok {
		return fmt.Errorf("unknown default persona %q", c.Default)
	}
	for i, rule := range c.Rules {
		if strings.TrimSpace(rule.Keyword) == "" {
			return fmt.Errorf("rule %d: keyword cannot be empty", i)
		}
		if _, ok := Lookup(rule.Persona); !ok {
			return fmt.Errorf("rule %d (%s): unknown persona %q", i, rule.Keyword, rule.Persona)
		}
	}
	return nil
}

// Assignment explains how a persona was chosen.
type Assignment struct {
	Persona Persona           `json:"persona"`
	Keyword string            `json:"keyword,omitempty"`
	Scores  map[PersonaID]int `json:"scores,omitempty"`
	Tied    []PersonaID       `json:"tied,omitempty"`
}

// Scorer assigns personas. It is safe for concurrent use when its
// RandSource is.
type Scorer struct {
	config Config
	rand   RandSource
}

// NewScorer validates the configuration and builds a scorer. A nil rnd uses
// the concurrency-safe global source of math/rand/v2.
func NewScorer(config Config, rnd RandSource) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mentor configuration: %w", err)
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	rules := make([]KeywordRule, 0, len(config.Rules))
	for _, rule := range config.Rules {
		rules = append(rules, KeywordRule{
			Keyword: strings.ToLower(strings.TrimSpace(rule.Keyword)),
			Persona: rule.Persona,
		})
	}
	config.Rules = rules
	return &Scorer{config: config, rand: rnd}, nil
}

// Assign returns the persona for the answers. It never fails.
func (s *Scorer) Assign(answers Answers) Persona {
	return s.Evaluate(answers).Persona
}

// Evaluate runs the keyword short-circuit and, when nothing matches, the
// weighted scoring with a random tie-break.
func (s *Scorer) Evaluate(answers Answers) Assignment {
	if rule, ok := s.matchKeyword(answers.PrimaryGoal); ok {
		persona, _ := Lookup(rule.Persona)
		return Assignment{Persona: persona, Keyword: rule.Keyword}
	}

	scores := s.score(answers)
	best := 0
	for _, id := range personaOrder {
		if scores[id] > best {
			best = scores[id]
		}
	}

	if best == 0 {
		persona, _ := Lookup(s.config.Default)
		return Assignment{Persona: persona, Scores: scores}
	}

	var tied []PersonaID
	for _, id := range personaOrder {
		if scores[id] == best {
			tied = append(tied, id)
		}
	}

	winner := tied[0]
	if len(tied) > 1 {
		winner = tied[s.rand.IntN(len(tied))]
	} else {
		tied = nil
	}
	persona, _ := Lookup(winner)
	return Assignment{Persona: persona, Scores: scores, Tied: tied}
}

func (s *Scorer) matchKeyword(goal string) (KeywordRule, bool) {
	text := strings.ToLower(goal)
	if strings.TrimSpace(text) == "" {
		return KeywordRule{}, false
	}
	for _, rule := range s.config.Rules {
		if strings.Contains(text, rule.Keyword) {
			return rule, true
		}
	}
	return KeywordRule{}, false
}

func (s *Scorer) score(answers Answers) map[PersonaID]int {
	scores := make(map[PersonaID]int, len(personaOrder))
	for _, id := range personaOrder {
		scores[id] = 0
	}
	add := func(points map[PersonaID]int) {
		for id, p := range points {
			if _, ok := scores[id]; ok {
				scores[id] += p
			}
		}
	}
	w := s.config.Weights
	add(w.Knowledge[answers.Knowledge])
	add(w.Emotion[answers.Emotion])
	add(w.Style[answers.Style])
	add(w.Discipline[answers.Discipline])
	return scores
}
