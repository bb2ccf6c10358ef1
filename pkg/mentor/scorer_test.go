package mentor

import (
	"math/rand/v2"
	"testing"
)

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func newTestScorer(t *testing.T, rnd RandSource) *Scorer {
	t.Helper()
	scorer, err := NewScorer(DefaultConfig(), rnd)
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}
	return scorer
}

func TestKeywordShortCircuit(t *testing.T) {
	scorer := newTestScorer(t, fixedRand(0))

	tests := []struct {
		name     string
		goal     string
		expected PersonaID
		keyword  string
	}{
		{name: "saver keyword", goal: "quiero ahorrar", expected: Saver, keyword: "ahorr"},
		{name: "case insensitive", goal: "Quiero EMPRENDER un negocio", expected: Entrepreneur, keyword: "emprender"},
		{name: "invert prefix", goal: "aprender a invertir", expected: Strategist, keyword: "invert"},
		{name: "accented keyword", goal: "Mi primera INVERSIÓN", expected: Strategist, keyword: "inversión"},
		{name: "budget", goal: "armar un presupuesto", expected: Illustrator, keyword: "presupuesto"},
		{name: "expenses", goal: "reducir mis gastos hormiga", expected: Illustrator, keyword: "gastos"},
		{name: "control", goal: "controlar la tarjeta", expected: Illustrator, keyword: "controlar"},
		{name: "first rule wins", goal: "ahorrar para emprender", expected: Entrepreneur, keyword: "emprender"},
		{name: "saver before strategist", goal: "invertir lo que ahorro", expected: Saver, keyword: "ahorr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Evaluate(Answers{PrimaryGoal: tt.goal})
			if result.Persona.ID != tt.expected {
				t.Fatalf("goal %q assigned %s, expected %s", tt.goal, result.Persona.ID, tt.expected)
			}
			if result.Keyword != tt.keyword {
				t.Fatalf("goal %q matched keyword %q, expected %q", tt.goal, result.Keyword, tt.keyword)
			}
			if result.Scores != nil {
				t.Fatalf("keyword match should skip scoring, got scores %v", result.Scores)
			}
		})
	}
}

func TestKeywordOverridesScores(t *testing.T) {
	scorer := newTestScorer(t, nil)
	answers := Answers{
		Knowledge:   KnowledgeAdvanced,
		Emotion:     EmotionOptimizing,
		Style:       StylePractical,
		Discipline:  DisciplineHigh,
		PrimaryGoal: "quiero ahorrar",
	}
	for i := 0; i < 50; i++ {
		if got := scorer.Assign(answers); got.ID != Saver {
			t.Fatalf("expected saver on run %d, got %s", i, got.ID)
		}
	}
}

func TestWeightedScoring(t *testing.T) {
	scorer := newTestScorer(t, fixedRand(0))

	tests := []struct {
		name     string
		answers  Answers
		expected PersonaID
		score    int
	}{
		{
			name:     "strategist profile",
			answers:  Answers{Knowledge: KnowledgeAdvanced, Emotion: EmotionOptimizing, Style: StylePractical, Discipline: DisciplineHigh},
			expected: Strategist,
			score:    9,
		},
		{
			name:     "saver profile",
			answers:  Answers{Knowledge: KnowledgeBasic, Emotion: EmotionLearning, Style: StyleExamples, Discipline: DisciplineConstant},
			expected: Saver,
			score:    8,
		},
		{
			name:     "entrepreneur profile with unmatched goal",
			answers:  Answers{Emotion: EmotionImproving, Style: StyleGames, PrimaryGoal: "viajar por el mundo"},
			expected: Entrepreneur,
			score:    5,
		},
		{
			name:     "illustrator profile",
			answers:  Answers{Emotion: EmotionStarting, Discipline: DisciplineLow, Style: StyleGames},
			expected: Illustrator,
			score:    6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Evaluate(tt.answers)
			if result.Persona.ID != tt.expected {
				t.Fatalf("assigned %s, expected %s (scores %v)", result.Persona.ID, tt.expected, result.Scores)
			}
			if result.Scores[tt.expected] != tt.score {
				t.Fatalf("score for %s = %d, expected %d", tt.expected, result.Scores[tt.expected], tt.score)
			}
			if len(result.Tied) != 0 {
				t.Fatalf("expected no tie, got %v", result.Tied)
			}
		})
	}
}

func TestEmptyAnswersDefaultToIllustrator(t *testing.T) {
	scorer := newTestScorer(t, fixedRand(3))

	for _, answers := range []Answers{
		{},
		{PrimaryGoal: "   "},
		{Knowledge: "unknown", Emotion: "??", Style: "", Discipline: "extreme"},
	} {
		result := scorer.Evaluate(answers)
		if result.Persona.ID != Illustrator {
			t.Fatalf("answers %+v assigned %s, expected illustrator", answers, result.Persona.ID)
		}
		if result.Persona.Name == "" || result.Persona.Color == "" {
			t.Fatalf("expected full persona record, got %+v", result.Persona)
		}
	}
}

func TestTieBreakUsesRandSource(t *testing.T) {
	// Learning grants Saver 3 and Medium grants Entrepreneur 3.
	answers := Answers{Emotion: EmotionLearning, Discipline: DisciplineMedium}

	first := newTestScorer(t, fixedRand(0)).Evaluate(answers)
	if first.Persona.ID != Entrepreneur {
		t.Fatalf("index 0 should pick entrepreneur, got %s", first.Persona.ID)
	}
	if len(first.Tied) != 2 || first.Tied[0] != Entrepreneur || first.Tied[1] != Saver {
		t.Fatalf("unexpected tied set %v", first.Tied)
	}

	second := newTestScorer(t, fixedRand(1)).Evaluate(answers)
	if second.Persona.ID != Saver {
		t.Fatalf("index 1 should pick saver, got %s", second.Persona.ID)
	}
}

func TestTieBreakSeededSourceIsReproducible(t *testing.T) {
	answers := Answers{Knowledge: KnowledgeIntermediate}
	a := newTestScorer(t, rand.New(rand.NewPCG(7, 11)))
	b := newTestScorer(t, rand.New(rand.NewPCG(7, 11)))
	for i := 0; i < 100; i++ {
		if x, y := a.Assign(answers), b.Assign(answers); x.ID != y.ID {
			t.Fatalf("run %d: seeded scorers diverged (%s vs %s)", i, x.ID, y.ID)
		}
	}
}

func TestTieBreakStatistical(t *testing.T) {
	scorer := newTestScorer(t, nil)
	answers := Answers{Emotion: EmotionLearning, Discipline: DisciplineMedium}

	counts := make(map[PersonaID]int)
	const runs = 2000
	for i := 0; i < runs; i++ {
		counts[scorer.Assign(answers).ID]++
	}

	for id, n := range counts {
		if id != Saver && id != Entrepreneur {
			t.Fatalf("persona %s outside the tied set was chosen %d times", id, n)
		}
	}
	// Each side of a fair coin lands far above 700 in 2000 flips.
	if counts[Saver] < 700 || counts[Entrepreneur] < 700 {
		t.Fatalf("tie-break looks biased: %v", counts)
	}
}

func TestNewScorerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = append(cfg.Rules, KeywordRule{Keyword: "viajar", Persona: "traveler"})
	if _, err := NewScorer(cfg, nil); err == nil {
		t.Fatal("expected error for unknown persona in rules")
	}

	cfg = DefaultConfig()
	cfg.Rules = []KeywordRule{{Keyword: "  ", Persona: Saver}}
	if _, err := NewScorer(cfg, nil); err == nil {
		t.Fatal("expected error for empty keyword")
	}

	cfg = DefaultConfig()
	cfg.Default = ""
	if _, err := NewScorer(cfg, nil); err == nil {
		t.Fatal("expected error for missing default persona")
	}
}

func TestCustomRulesAreNormalized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rules = []KeywordRule{{Keyword: "  VIAJAR ", Persona: Strategist}}
	scorer, err := NewScorer(cfg, fixedRand(0))
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}
	if got := scorer.Assign(Answers{PrimaryGoal: "Quiero viajar"}); got.ID != Strategist {
		t.Fatalf("expected strategist, got %s", got.ID)
	}
	// Default rules were replaced.
	if got := scorer.Assign(Answers{PrimaryGoal: "ahorrar"}); got.ID != Illustrator {
		t.Fatalf("expected fallback illustrator, got %s", got.ID)
	}
}

func TestDefaultConfigIsACopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.Emotion[EmotionLearning][Saver] = 100
	cfg.Rules[0].Keyword = "changed"

	fresh := DefaultConfig()
	if fresh.Weights.Emotion[EmotionLearning][Saver] != 3 {
		t.Fatal("mutating one config leaked into DefaultConfig")
	}
	if fresh.Rules[0].Keyword != "emprender" {
		t.Fatal("mutating rules leaked into DefaultConfig")
	}
}
