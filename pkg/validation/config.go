package validation

import (
	"fmt"
	"strings"

	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/robfig/cron/v3"
)

// ValidateSimulatorDefaults warns about default simulator inputs that would
// make the calculators degenerate.
func ValidateSimulatorDefaults(ratePercent float64, years int, target float64) []string {
	var warnings []string

	if ratePercent < 0 {
		warnings = append(warnings, fmt.Sprintf("Simulator rate %.2f%% is negative", ratePercent))
	}
	if years < 0 {
		warnings = append(warnings, fmt.Sprintf("Simulator years %d is negative", years))
	}
	if target < 0 {
		warnings = append(warnings, fmt.Sprintf("Simulator target %.2f is negative", target))
	}

	return warnings
}

// ValidateKeywordRule checks that a rule has a keyword and names a known
// persona, by ID or display name.
func ValidateKeywordRule(keyword, persona string) []string {
	var warnings []string

	if strings.TrimSpace(keyword) == "" {
		warnings = append(warnings, fmt.Sprintf("Mentor rule for '%s' has an empty keyword", persona))
	}
	if _, ok := mentor.ParsePersonaID(persona); !ok {
		warnings = append(warnings, fmt.Sprintf("Mentor rule '%s' names unknown persona '%s'", keyword, persona))
	}

	return warnings
}

// ValidateSyncSettings checks the remote sync settings when sync is enabled.
func ValidateSyncSettings(enabled bool, address, schedule string) []string {
	if !enabled {
		return nil
	}

	var warnings []string
	if strings.TrimSpace(address) == "" {
		warnings = append(warnings, "Sync is enabled but no address is set - sync will be disabled")
	}
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			warnings = append(warnings, fmt.Sprintf("Sync schedule '%s' is invalid: %v", schedule, err))
		}
	}

	return warnings
}

// ConfigValidator collects the settings checked by ValidateAll.
type ConfigValidator struct {
	Simulator SimulatorConfig
	Rules     []RuleConfig
	Sync      SyncConfig
}

type SimulatorConfig struct {
	RatePercent float64
	Years       int
	Target      float64
}

type RuleConfig struct {
	Keyword string
	Persona string
}

type SyncConfig struct {
	Enabled  bool
	Address  string
	Schedule string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	warnings = append(warnings, ValidateSimulatorDefaults(cv.Simulator.RatePercent, cv.Simulator.Years, cv.Simulator.Target)...)

	for _, rule := range cv.Rules {
		warnings = append(warnings, ValidateKeywordRule(rule.Keyword, rule.Persona)...)
	}

	warnings = append(warnings, ValidateSyncSettings(cv.Sync.Enabled, cv.Sync.Address, cv.Sync.Schedule)...)

	return warnings
}
