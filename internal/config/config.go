// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/carlitos-finanzas/carlitos/pkg/projection"
	"github.com/carlitos-finanzas/carlitos/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Configuration holds all configuration for carlitos.
type Configuration struct {
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Output    OutputConfig    `yaml:"output,omitempty"`
	Simulator SimulatorConfig `yaml:"simulator,omitempty"`
	Mentor    MentorConfig    `yaml:"mentor,omitempty"`
	Storage   StorageConfig   `yaml:"storage,omitempty"`
	Sync      SyncConfig      `yaml:"sync,omitempty"`
	Profile   ProfileConfig   `yaml:"profile,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// SimulatorConfig holds the defaults of the two calculators. The rate is a
// percentage as typed by the user.
type SimulatorConfig struct {
	RatePercent float64 `yaml:"ratePercent"`
	Years       int     `yaml:"years"`
	Target      float64 `yaml:"target"`
}

// MentorConfig overrides the built-in keyword rules when Rules is non-empty.
// Personas may be given by ID or by mentor name.
type MentorConfig struct {
	Rules   []RuleConfig `yaml:"rules,omitempty"`
	Default string       `yaml:"default,omitempty"`
}

// RuleConfig is one keyword rule as written in the config file.
type RuleConfig struct {
	Keyword string `yaml:"keyword" mapstructure:"keyword"`
	Persona string `yaml:"persona" mapstructure:"persona"`
}

// StorageConfig selects the local store.
type StorageConfig struct {
	Path      string `yaml:"path"`
	Ephemeral bool   `yaml:"ephemeral,omitempty"` // keep everything in memory
}

// SyncConfig configures best-effort remote sync.
type SyncConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Address   string `yaml:"address,omitempty"`   // redis host:port
	KeyPrefix string `yaml:"keyPrefix,omitempty"` // document key prefix
	Schedule  string `yaml:"schedule,omitempty"`  // cron spec
	User      string `yaml:"user,omitempty"`
}

// ProfileConfig holds the learner's display name.
type ProfileConfig struct {
	Name string `yaml:"name,omitempty"`
}

// setDefaults registers every key so that environment overrides apply even
// when the file omits the key.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")
	v.SetDefault("simulator.ratePercent", 5.0)
	v.SetDefault("simulator.years", 10)
	v.SetDefault("simulator.target", constants.MillionTarget)
	v.SetDefault("mentor.default", string(mentor.Illustrator))
	v.SetDefault("storage.path", constants.DefaultStoragePath)
	v.SetDefault("storage.ephemeral", false)
	v.SetDefault("sync.enabled", false)
	v.SetDefault("sync.address", "")
	v.SetDefault("sync.keyPrefix", constants.DefaultSyncKeyPrefix)
	v.SetDefault("sync.schedule", constants.DefaultSyncSchedule)
	v.SetDefault("sync.user", constants.DefaultUserID)
	v.SetDefault("profile.name", constants.DefaultProfileName)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Environment variables prefixed with CARLITOS_
// override file values, e.g. CARLITOS_STORAGE_PATH.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}

	return decode(v)
}

// DefaultConfiguration returns the configuration used when no file exists,
// still honoring environment overrides.
func DefaultConfiguration() (*Configuration, error) {
	return decode(newViper())
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = constants.DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a configuration file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MentorConfig builds the scorer configuration: the built-in weights, the
// configured rules or the built-in ones, and the default persona.
func (c *Configuration) MentorConfig() (mentor.Config, error) {
	mc := mentor.DefaultConfig()

	if c.Mentor.Default != "" {
		id, ok := mentor.ParsePersonaID(c.Mentor.Default)
		if !ok {
			return mentor.Config{}, fmt.Errorf("unknown default persona %q", c.Mentor.Default)
		}
		mc.Default = id
	}

	if len(c.Mentor.Rules) > 0 {
		rules := make([]mentor.KeywordRule, 0, len(c.Mentor.Rules))
		for i, rule := range c.Mentor.Rules {
			id, ok := mentor.ParsePersonaID(rule.Persona)
			if !ok {
				return mentor.Config{}, fmt.Errorf("mentor rule %d (%s): unknown persona %q", i, rule.Keyword, rule.Persona)
			}
			rules = append(rules, mentor.KeywordRule{Keyword: rule.Keyword, Persona: id})
		}
		mc.Rules = rules
	}

	if err := mc.Validate(); err != nil {
		return mentor.Config{}, err
	}
	return mc, nil
}

// ContributionPlan returns the simulator defaults as a projection plan with
// the given monthly contribution.
func (c *Configuration) ContributionPlan(monthly float64) projection.ContributionPlan {
	return projection.ContributionPlan{
		Monthly:    monthly,
		AnnualRate: projection.PercentToRate(c.Simulator.RatePercent),
		Years:      c.Simulator.Years,
	}
}

// SavingsTarget returns the simulator defaults as a savings target with the
// given monthly contribution.
func (c *Configuration) SavingsTarget(monthly float64) projection.SavingsTarget {
	return projection.SavingsTarget{
		Monthly:    monthly,
		AnnualRate: projection.PercentToRate(c.Simulator.RatePercent),
		Target:     c.Simulator.Target,
	}
}

// SyncEnabled reports whether remote sync can run.
func (c *Configuration) SyncEnabled() bool {
	return c.Sync.Enabled && strings.TrimSpace(c.Sync.Address) != ""
}

// YAML renders the effective configuration.
func (c *Configuration) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return out, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var rules []validation.RuleConfig
	for _, rule := range c.Mentor.Rules {
		rules = append(rules, validation.RuleConfig{
			Keyword: rule.Keyword,
			Persona: rule.Persona,
		})
	}

	validator := validation.ConfigValidator{
		Simulator: validation.SimulatorConfig{
			RatePercent: c.Simulator.RatePercent,
			Years:       c.Simulator.Years,
			Target:      c.Simulator.Target,
		},
		Rules: rules,
		Sync: validation.SyncConfig{
			Enabled:  c.Sync.Enabled,
			Address:  c.Sync.Address,
			Schedule: c.Sync.Schedule,
		},
	}

	warnings := validator.ValidateAll()
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		warnings = append(warnings, err.Error())
	}
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings
}
