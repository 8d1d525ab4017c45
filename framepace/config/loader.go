package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables that override the
// configuration, e.g. FRAMEPACE_PACING_TARGET_RATE.
const EnvPrefix = "FRAMEPACE"

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty) and the environment. overrides are applied last, keyed by the
// dotted config path (e.g. "pacing.target_rate"). The result is validated.
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %w", err)
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("pacing.target_rate", d.Pacing.TargetRate)
	v.SetDefault("pacing.safety_margin", d.Pacing.SafetyMargin)
	v.SetDefault("pacing.enabled", d.Pacing.Enabled)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("buffer", d.Buffer)
	v.SetDefault("workload.kind", d.Workload.Kind)
	v.SetDefault("workload.constant", d.Workload.Constant)
	v.SetDefault("workload.min", d.Workload.Min)
	v.SetDefault("workload.max", d.Workload.Max)
	v.SetDefault("workload.step_before", d.Workload.StepBefore)
	v.SetDefault("workload.step_after", d.Workload.StepAfter)
	v.SetDefault("workload.step_frame", d.Workload.StepFrame)
	v.SetDefault("workload.prepare", d.Workload.Prepare)
	v.SetDefault("workload.seed", d.Workload.Seed)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("frames", d.Frames)
	v.SetDefault("simulated", d.Simulated)
	v.SetDefault("report", d.Report)
}
