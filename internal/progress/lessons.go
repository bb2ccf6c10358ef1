package progress

import (
	"errors"
	"fmt"
)

// Difficulty groups lessons on the map.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "med"
	Advanced     Difficulty = "adv"
)

// Category is a node on the lesson map.
type Category struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	Difficulty  Difficulty `json:"difficulty"`
}

// LessonState is the learner's progress on one category.
type LessonState struct {
	Percent   int  `json:"percent"`
	Completed bool `json:"completed"`
	Unlocked  bool `json:"unlocked"`
	Tries     int  `json:"tries,omitempty"`
}

// Lesson joins a category with its state.
type Lesson struct {
	Category
	LessonState
}

var (
	// ErrUnknownLesson is returned for an ID outside the catalog.
	ErrUnknownLesson = errors.New("unknown lesson")
	// ErrLessonLocked is returned when completing a lesson not yet unlocked.
	ErrLessonLocked = errors.New("lesson is locked")
)

// LessonReward is granted the first time a lesson reaches 100%.
var LessonReward = Reward{XP: 75, Coins: 25, Stars: 1}

var categories = []Category{
	{ID: "presupuesto", Title: "Presupuesto", Description: "Divide ingresos con la regla 50/30/20. Ajusta tu flujo.", Color: "#10B981", Difficulty: Beginner},
	{ID: "ahorro", Title: "Ahorro", Description: "Cajas, metas y automatización del ahorro.", Color: "#F97316", Difficulty: Beginner},
	{ID: "deuda", Title: "Deuda", Description: "Prioriza y reduce deuda con estrategia.", Color: "#FB7185", Difficulty: Beginner},
	{ID: "fondo_emergencia", Title: "Fondo Emergencia", Description: "Construye un colchón de 3 a 6 meses.", Color: "#8B5CF6", Difficulty: Intermediate},
	{ID: "inversion", Title: "Inversión", Description: "Riesgo, diversificación y horizonte temporal.", Color: "#06B6D4", Difficulty: Intermediate},
	{ID: "seguros", Title: "Seguros", Description: "Protege tu salud y bienes eficientemente.", Color: "#F59E0B", Difficulty: Intermediate},
	{ID: "impuestos", Title: "Impuestos", Description: "Optimiza impuestos dentro de la ley.", Color: "#9333EA", Difficulty: Advanced},
	{ID: "retiro", Title: "Retiro", Description: "Planifica tu jubilación con anticipación.", Color: "#0EA5A4", Difficulty: Advanced},
}

// Categories returns the lesson catalog in map order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// InitialState is the map of a new learner: the first lesson done, the
// first two unlocked.
func InitialState() map[string]LessonState {
	state := make(map[string]LessonState, len(categories))
	for i, c := range categories {
		s := LessonState{Unlocked: i < 2}
		if i == 0 {
			s.Percent = 20
			s.Completed = true
		}
		state[c.ID] = s
	}
	return state
}

// Map is the lesson map of one learner.
type Map struct {
	state map[string]LessonState
}

// NewMap wraps a stored state. Missing categories get their initial state.
func NewMap(state map[string]LessonState) *Map {
	initial := InitialState()
	merged := make(map[string]LessonState, len(initial))
	for id, s := range initial {
		if stored, ok := state[id]; ok {
			s = stored
		}
		merged[id] = s
	}
	return &Map{state: merged}
}

// State returns a copy of the per-lesson state, suitable for persisting.
func (m *Map) State() map[string]LessonState {
	out := make(map[string]LessonState, len(m.state))
	for id, s := range m.state {
		out[id] = s
	}
	return out
}

// Lessons lists the map, filtered by difficulty unless filter is empty or "all".
func (m *Map) Lessons(filter Difficulty) []Lesson {
	var out []Lesson
	for _, c := range categories {
		if filter != "" && filter != "all" && c.Difficulty != filter {
			continue
		}
		out = append(out, Lesson{Category: c, LessonState: m.state[c.ID]})
	}
	return out
}

// Complete marks a lesson as done and unlocks the next one on the map. Every
// call counts as a try. It returns LessonReward, or a zero Reward when the
// lesson was already complete at 100%.
func (m *Map) Complete(id string) (Reward, error) {
	idx := -1
	for i, c := range categories {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Reward{}, fmt.Errorf("%w: %s", ErrUnknownLesson, id)
	}

	s := m.state[id]
	if !s.Unlocked {
		return Reward{}, fmt.Errorf("%w: %s", ErrLessonLocked, id)
	}

	earned := LessonReward
	if s.Completed && s.Percent == 100 {
		earned = Reward{}
	}
	s.Completed = true
	s.Percent = 100
	s.Tries++
	m.state[id] = s

	if idx+1 < len(categories) {
		next := categories[idx+1].ID
		ns := m.state[next]
		ns.Unlocked = true
		m.state[next] = ns
	}
	return earned, nil
}
