// Package config loads run configuration with viper.
// Precedence: CLI flags > environment > config file > defaults.
// API keys are environment-only; the providers read them directly.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Built-in defaults. The evaluation profile supplies thresholds unless
// configuration explicitly overrides them, so the CLI can tell "left at
// default" apart from "set to the default value's number".
const (
	DefaultFuzzyThreshold = 80
	DefaultPassThreshold  = 0.90
	DefaultRuleIDBase     = 200000
)

// Config carries every tunable of a synthesis or evaluation run.
type Config struct {
	Provider       string  // llm provider: anthropic, openai, google
	Model          string  // provider-specific model override, empty = provider default
	Profile        string  // evaluation profile name
	FuzzyThreshold int     // 0-100 token-sort-ratio acceptance bar
	PassThreshold  float64 // overall score at or above which evaluation passes
	RuleIDBase     int     // seed for the rule-id counter
	Semantic       bool    // enable the LLM semantic-match step
	Debug          bool
}

// Load builds a Config. configPath may be empty; environment variables use
// the RF_ prefix (RF_PROVIDER, RF_PASS_THRESHOLD, ...).
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "")
	v.SetDefault("profile", "general")
	v.SetDefault("fuzzy_threshold", DefaultFuzzyThreshold)
	v.SetDefault("pass_threshold", DefaultPassThreshold)
	v.SetDefault("rule_id_base", DefaultRuleIDBase)
	v.SetDefault("semantic", true)
	v.SetDefault("debug", false)

	v.SetEnvPrefix("RF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", configPath, err)
		}
	}

	// API keys are environment-only; a key in a config file is a mistake.
	if err := rejectSecrets(v); err != nil {
		return nil, err
	}

	cfg := &Config{
		Provider:       v.GetString("provider"),
		Model:          v.GetString("model"),
		Profile:        v.GetString("profile"),
		FuzzyThreshold: v.GetInt("fuzzy_threshold"),
		PassThreshold:  v.GetFloat64("pass_threshold"),
		RuleIDBase:     v.GetInt("rule_id_base"),
		Semantic:       v.GetBool("semantic"),
		Debug:          v.GetBool("debug"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "google":
	default:
		return fmt.Errorf("config: unknown provider %q (anthropic, openai, google)", c.Provider)
	}
	if c.FuzzyThreshold < 0 || c.FuzzyThreshold > 100 {
		return fmt.Errorf("config: fuzzy_threshold must be in [0, 100], got %d", c.FuzzyThreshold)
	}
	if c.PassThreshold <= 0 || c.PassThreshold > 1 {
		return fmt.Errorf("config: pass_threshold must be in (0, 1], got %v", c.PassThreshold)
	}
	if c.RuleIDBase <= 0 {
		return fmt.Errorf("config: rule_id_base must be positive, got %d", c.RuleIDBase)
	}
	return nil
}

func rejectSecrets(v *viper.Viper) error {
	for _, key := range []string{"anthropic_api_key", "openai_api_key", "google_api_key", "api_key"} {
		if v.InConfig(key) {
			return fmt.Errorf("config: API keys are not allowed in config files (use the provider's environment variable)")
		}
	}
	return nil
}
