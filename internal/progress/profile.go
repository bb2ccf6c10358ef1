// Package progress tracks the gamification state of a learner: experience
// points, coins, level names and the lesson map.
package progress

import (
	"math"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Profile is the learner's running score.
type Profile struct {
	Name   string `json:"name"`
	XP     int    `json:"xp"`
	Coins  int    `json:"coins"`
	Stars  int    `json:"stars"`
	Mentor string `json:"mentor,omitempty"`
}

// IsZero reports whether p is the zero Profile, as decoded from a missing
// document.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Level is the display information derived from a profile's XP.
type Level struct {
	Name       string  `json:"name"`
	NextTarget int     `json:"nextTarget"`
	Percent    float64 `json:"percent"`
}

type threshold struct {
	below int
	name  string
}

var levels = []threshold{
	{below: 100, name: "Novato"},
	{below: 350, name: "Aprendiz"},
	{below: 800, name: "Estratega"},
}

const (
	masterLevel  = "Maestro"
	masterTarget = 1500

	maxTransactionXP    = 10
	maxTransactionCoins = 5
)

// NewProfile returns an empty profile with the given name, or the default
// explorer name when empty.
func NewProfile(name string) Profile {
	if name == "" {
		name = constants.DefaultProfileName
	}
	return Profile{Name: name}
}

// LevelFor maps XP to a level name and the next XP goal.
func LevelFor(xp int) Level {
	name := masterLevel
	next := masterTarget
	for _, t := range levels {
		if xp < t.below {
			name = t.name
			next = t.below
			break
		}
	}
	return Level{
		Name:       name,
		NextTarget: next,
		Percent:    math.Round(mathutil.ProgressPercent(float64(xp), float64(next))),
	}
}

// Level returns the level of the profile.
func (p Profile) Level() Level {
	return LevelFor(p.XP)
}

// Reward is what a recorded transaction or a completed lesson grants.
type Reward struct {
	XP    int `json:"xp"`
	Coins int `json:"coins"`
	Stars int `json:"stars,omitempty"`
}

// TransactionReward grants round(min(10, |amount|/10)) XP and
// round(min(5, |amount|/20)) coins.
func TransactionReward(amount decimal.Decimal) Reward {
	abs, _ := amount.Abs().Float64()
	return Reward{
		XP:    int(math.Round(math.Min(maxTransactionXP, abs/10))),
		Coins: int(math.Round(math.Min(maxTransactionCoins, abs/20))),
	}
}

// Apply adds a reward to the profile.
func (p *Profile) Apply(r Reward) {
	p.XP += r.XP
	p.Coins += r.Coins
	p.Stars += r.Stars
}
