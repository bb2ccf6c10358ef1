package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/carlitos-finanzas/carlitos/pkg/mathutil"
)

const sampleConfig = `
logging:
  level: debug
  format: console
output:
  format: json
simulator:
  ratePercent: 7.5
  years: 20
  target: 250000
mentor:
  default: Kantu
  rules:
    - keyword: viaje
      persona: saver
    - keyword: negocio
      persona: Kantu
storage:
  path: /tmp/carlitos-test.db
sync:
  enabled: true
  address: localhost:6379
  keyPrefix: demo
  schedule: "0 * * * *"
  user: ana
profile:
  name: Ana
`

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				if err == nil {
					t.Errorf("LoadConfiguration() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("LoadConfiguration() error = %v", err)
				return
			}
			if config == nil {
				t.Errorf("LoadConfiguration() returned nil config")
			}
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if config.Logging.Level != "debug" || config.Logging.Format != "console" {
		t.Errorf("unexpected logging config %+v", config.Logging)
	}
	if config.Output.Format != "json" {
		t.Errorf("Expected output format json, got %q", config.Output.Format)
	}
	if config.Simulator.RatePercent != 7.5 || config.Simulator.Years != 20 || config.Simulator.Target != 250000 {
		t.Errorf("unexpected simulator config %+v", config.Simulator)
	}
	if len(config.Mentor.Rules) != 2 || config.Mentor.Rules[1].Persona != "Kantu" {
		t.Errorf("unexpected mentor rules %+v", config.Mentor.Rules)
	}
	if config.Storage.Path != "/tmp/carlitos-test.db" {
		t.Errorf("Expected storage path, got %q", config.Storage.Path)
	}
	if !config.Sync.Enabled || config.Sync.Address != "localhost:6379" || config.Sync.KeyPrefix != "demo" || config.Sync.User != "ana" {
		t.Errorf("unexpected sync config %+v", config.Sync)
	}
	if config.Profile.Name != "Ana" {
		t.Errorf("Expected profile name Ana, got %q", config.Profile.Name)
	}
	if !config.SyncEnabled() {
		t.Errorf("SyncEnabled() = false, expected true")
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader("output:\n  format: csv\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if config.Output.Format != "csv" {
		t.Errorf("Expected csv, got %q", config.Output.Format)
	}
	if config.Simulator.Target != constants.MillionTarget {
		t.Errorf("Expected default target %v, got %v", constants.MillionTarget, config.Simulator.Target)
	}
	if config.Storage.Path != constants.DefaultStoragePath {
		t.Errorf("Expected default storage path, got %q", config.Storage.Path)
	}
	if config.Sync.Schedule != constants.DefaultSyncSchedule {
		t.Errorf("Expected default schedule, got %q", config.Sync.Schedule)
	}
	if config.SyncEnabled() {
		t.Errorf("SyncEnabled() = true, expected false by default")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("CARLITOS_STORAGE_PATH", "/data/override.db")
	t.Setenv("CARLITOS_SIMULATOR_YEARS", "30")
	t.Setenv("CARLITOS_SYNC_ENABLED", "true")

	config, err := LoadConfigurationFromReader(strings.NewReader("storage:\n  path: file.db\n"))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	if config.Storage.Path != "/data/override.db" {
		t.Errorf("Expected env override for storage path, got %q", config.Storage.Path)
	}
	if config.Simulator.Years != 30 {
		t.Errorf("Expected env override for years, got %d", config.Simulator.Years)
	}
	if !config.Sync.Enabled {
		t.Errorf("Expected env override for sync.enabled")
	}
}

func TestLoadEnvFile(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("LoadEnvFile() on missing file error = %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CARLITOS_PROFILE_NAME=Rosa\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("CARLITOS_PROFILE_NAME", "")
	os.Unsetenv("CARLITOS_PROFILE_NAME")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}

	config, err := DefaultConfiguration()
	if err != nil {
		t.Fatalf("DefaultConfiguration() error = %v", err)
	}
	if config.Profile.Name != "Rosa" {
		t.Errorf("Expected profile name from env file, got %q", config.Profile.Name)
	}
}

func TestMentorConfig(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}

	mc, err := config.MentorConfig()
	if err != nil {
		t.Fatalf("MentorConfig() error = %v", err)
	}
	if mc.Default != mentor.Entrepreneur {
		t.Errorf("Expected default persona entrepreneur, got %s", mc.Default)
	}
	if len(mc.Rules) != 2 || mc.Rules[0].Persona != mentor.Saver || mc.Rules[1].Persona != mentor.Entrepreneur {
		t.Errorf("unexpected rules %+v", mc.Rules)
	}

	empty := &Configuration{}
	mc, err = empty.MentorConfig()
	if err != nil {
		t.Fatalf("MentorConfig() error = %v", err)
	}
	if len(mc.Rules) != len(mentor.DefaultRules()) {
		t.Errorf("Expected built-in rules when none configured, got %d", len(mc.Rules))
	}

	bad := &Configuration{Mentor: MentorConfig{Rules: []RuleConfig{{Keyword: "x", Persona: "wizard"}}}}
	if _, err := bad.MentorConfig(); err == nil {
		t.Errorf("MentorConfig() expected error for unknown persona")
	}
}

func TestSimulatorHelpers(t *testing.T) {
	config := &Configuration{Simulator: SimulatorConfig{RatePercent: 5, Years: 10, Target: 1000}}

	plan := config.ContributionPlan(100)
	if !mathutil.WithinTolerance(plan.AnnualRate, 0.05, 1e-12) || plan.Years != 10 || plan.Monthly != 100 {
		t.Errorf("unexpected plan %+v", plan)
	}

	target := config.SavingsTarget(50)
	if target.Target != 1000 || target.Monthly != 50 {
		t.Errorf("unexpected target %+v", target)
	}
}

func TestValidateConfiguration(t *testing.T) {
	conf := Configuration{
		Logging:   LoggingConfig{Level: "verbose"},
		Output:    OutputConfig{Format: "xml"},
		Simulator: SimulatorConfig{RatePercent: -1},
		Mentor:    MentorConfig{Rules: []RuleConfig{{Keyword: "casa", Persona: "unicorn"}}},
		Sync:      SyncConfig{Enabled: true},
	}

	warnings := conf.ValidateConfiguration()
	if len(warnings) != 5 {
		t.Fatalf("Expected 5 warnings, got %d: %v", len(warnings), warnings)
	}

	clean := Configuration{Simulator: SimulatorConfig{RatePercent: 5, Years: 10, Target: 100}}
	if warnings := clean.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", warnings)
	}
}

func TestYAML(t *testing.T) {
	conf := Configuration{Profile: ProfileConfig{Name: "Ana"}, Storage: StorageConfig{Path: "x.db"}}
	out, err := conf.YAML()
	if err != nil {
		t.Fatalf("YAML() error = %v", err)
	}
	if !strings.Contains(string(out), "name: Ana") || !strings.Contains(string(out), "path: x.db") {
		t.Errorf("unexpected YAML:\n%s", out)
	}
}
