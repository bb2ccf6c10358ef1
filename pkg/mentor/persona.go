// Package mentor assigns one of the four mentor personas from the answers of
// the onboarding questionnaire.
package mentor

import "strings"

// PersonaID identifies a mentor persona.
type PersonaID string

const (
	Entrepreneur PersonaID = "entrepreneur"
	Saver        PersonaID = "saver"
	Strategist   PersonaID = "strategist"
	Illustrator  PersonaID = "illustrator"
)

// Persona is the immutable description of a mentor.
type Persona struct {
	ID          PersonaID `json:"id"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
}

// personaOrder fixes the iteration order used for scoring and tie-breaks.
var personaOrder = [...]PersonaID{Entrepreneur, Saver, Strategist, Illustrator}

var catalog = map[PersonaID]Persona{
	Entrepreneur: {
		ID:          Entrepreneur,
		Name:        "Kantu",
		Role:        "El Mono Emprendedor",
		Description: "Creativo, sociable y entusiasta. Si el camino no existe, lo inventa.",
		Color:       "#F59E0B",
	},
	Saver: {
		ID:          Saver,
		Name:        "Saison",
		Role:        "La Ardilla Ahorradora",
		Description: "Ágil y previsora. Planea con anticipación y ahorra con propósito.",
		Color:       "#F97316",
	},
	Strategist: {
		ID:          Strategist,
		Name:        "Inti",
		Role:        "El Cóndor Estratega",
		Description: "Serio y estratégico. Solo quien se eleva ve el camino completo.",
		Color:       "#06B6D4",
	},
	Illustrator: {
		ID:          Illustrator,
		Name:        "Sumaq",
		Role:        "El Gato Ilustrador",
		Description: "Intuitivo y paciente. Explica presupuestos y gastos con ejemplos visuales.",
		Color:       "#10B981",
	},
}

// Personas returns the catalog in its canonical order.
func Personas() []Persona {
	out := make([]Persona, 0, len(personaOrder))
	for _, id := range personaOrder {
		out = append(out, catalog[id])
	}
	return out
}

// Lookup returns the persona with the given ID.
func Lookup(id PersonaID) (Persona, bool) {
	p, ok := catalog[id]
	return p, ok
}

// ParsePersonaID accepts a persona ID or the mentor's display name.
func ParsePersonaID(value string) (PersonaID, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, id := range personaOrder {
		if v == string(id) || v == strings.ToLower(catalog[id].Name) {
			return id, true
		}
	}
	return "", false
}
