package mentor

import "strings"

// KnowledgeLevel is the self-reported financial knowledge.
type KnowledgeLevel string

const (
	KnowledgeBasic        KnowledgeLevel = "basic"
	KnowledgeIntermediate KnowledgeLevel = "intermediate"
	KnowledgeAdvanced     KnowledgeLevel = "advanced"
)

// EmotionalState is how the user currently feels about their finances.
type EmotionalState string

const (
	EmotionStarting   EmotionalState = "starting"
	EmotionLearning   EmotionalState = "learning"
	EmotionImproving  EmotionalState = "improving"
	EmotionOptimizing EmotionalState = "optimizing"
)

// LearningStyle is the preferred lesson format.
type LearningStyle string

const (
	StyleGames     LearningStyle = "games"
	StyleVideos    LearningStyle = "videos"
	StyleExamples  LearningStyle = "examples"
	StylePractical LearningStyle = "practical"
)

// Discipline is how consistently the user sticks to a plan.
type Discipline string

const (
	DisciplineLow      Discipline = "low"
	DisciplineMedium   Discipline = "medium"
	DisciplineConstant Discipline = "constant"
	DisciplineHigh     Discipline = "high"
)

// Answers holds the questionnaire. Empty fields are unanswered.
type Answers struct {
	Knowledge   KnowledgeLevel `json:"knowledge,omitempty"`
	Emotion     EmotionalState `json:"emotion,omitempty"`
	Style       LearningStyle  `json:"style,omitempty"`
	Discipline  Discipline     `json:"discipline,omitempty"`
	PrimaryGoal string         `json:"primaryGoal,omitempty"`
}

// RawAnswers is the questionnaire as submitted by a form, before parsing.
type RawAnswers struct {
	Knowledge   string `json:"knowledge,omitempty"`
	Emotion     string `json:"emotion,omitempty"`
	Style       string `json:"style,omitempty"`
	Discipline  string `json:"discipline,omitempty"`
	PrimaryGoal string `json:"primaryGoal,omitempty"`
}

// Parse normalizes every field. Unknown labels become unanswered.
func (r RawAnswers) Parse() Answers {
	return Answers{
		Knowledge:   ParseKnowledgeLevel(r.Knowledge),
		Emotion:     ParseEmotionalState(r.Emotion),
		Style:       ParseLearningStyle(r.Style),
		Discipline:  ParseDiscipline(r.Discipline),
		PrimaryGoal: strings.TrimSpace(r.PrimaryGoal),
	}
}

// ParseKnowledgeLevel accepts English names and the onboarding form labels.
func ParseKnowledgeLevel(value string) KnowledgeLevel {
	switch normalize(value) {
	case "basic", "basico", "básico":
		return KnowledgeBasic
	case "intermediate", "intermedio":
		return KnowledgeIntermediate
	case "advanced", "avanzado":
		return KnowledgeAdvanced
	}
	return ""
}

// ParseEmotionalState accepts English names and the onboarding form labels.
func ParseEmotionalState(value string) EmotionalState {
	switch normalize(value) {
	case "starting", "empezando", "comenzando":
		return EmotionStarting
	case "learning", "aprendiendo":
		return EmotionLearning
	case "improving", "mejorando":
		return EmotionImproving
	case "optimizing", "optimizando":
		return EmotionOptimizing
	}
	return ""
}

// ParseLearningStyle accepts English names and the onboarding form labels.
func ParseLearningStyle(value string) LearningStyle {
	switch normalize(value) {
	case "games", "juegos":
		return StyleGames
	case "videos", "vídeos":
		return StyleVideos
	case "examples", "ejemplos":
		return StyleExamples
	case "practical", "practico", "práctico":
		return StylePractical
	}
	return ""
}

// ParseDiscipline accepts English names and the onboarding form labels.
func ParseDiscipline(value string) Discipline {
	switch normalize(value) {
	case "low", "baja":
		return DisciplineLow
	case "medium", "media":
		return DisciplineMedium
	case "constant", "constante":
		return DisciplineConstant
	case "high", "alta":
		return DisciplineHigh
	}
	return ""
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
