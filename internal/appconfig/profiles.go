// internal/appconfig/profiles.go
package appconfig

import (
	"fmt"
	"strings"

	"github.com/mwiater/foodbench/eval"
)

// ProfileName identifies an evaluation preset/profile.
type ProfileName string

const (
	ProfileStandard ProfileName = "standard"
	ProfileStrict   ProfileName = "strict"
	ProfileLenient  ProfileName = "lenient"
	ProfileSmoke    ProfileName = "smoke"
)

// EvalParams holds the tunable evaluation knobs a profile presets.
// Pointer fields preserve unset vs explicitly set. Preset values must be
// nonzero so they survive the zero-means-unset merge into Config.
type EvalParams struct {
	Threshold   *float64
	Bins        *int
	MiningDepth *int
	WarmupRuns  *int
	SampleLimit *int
	Seed        *int64
	Workers     *int
}

// ParamsForProfile selects an evaluation profile by name.
// Behavior:
//   - empty string => Standard (default)
//   - unknown string => Standard (default)
func ParamsForProfile(name string) EvalParams {
	n := normalizeProfileName(name)

	switch ProfileName(n) {
	case ProfileStrict:
		return DefaultStrictParams()
	case ProfileLenient:
		return DefaultLenientParams()
	case ProfileSmoke:
		return DefaultSmokeParams()
	case ProfileStandard:
		fallthrough
	default:
		return DefaultStandardParams()
	}
}

// DefaultStandardParams mirrors the library defaults and is used when no profile is set.
func DefaultStandardParams() EvalParams {
	return EvalParams{
		Threshold:   ptrFloat(eval.DefaultThreshold),
		Bins:        ptrInt(eval.DefaultBins),
		MiningDepth: ptrInt(eval.DefaultMiningDepth),
		WarmupRuns:  ptrInt(defaultWarmupRuns),
		Seed:        ptrInt64(defaultShuffleSeed),
	}
}

// DefaultStrictParams relabels anything the model is not highly confident
// about and mines deeper for calibration failures.
func DefaultStrictParams() EvalParams {
	return EvalParams{
		Threshold:   ptrFloat(0.90),
		Bins:        ptrInt(20),
		MiningDepth: ptrInt(25),
		WarmupRuns:  ptrInt(defaultWarmupRuns),
		Seed:        ptrInt64(defaultShuffleSeed),
	}
}

// DefaultLenientParams relabels only predictions without a majority share,
// keeping most of the raw confusion structure visible.
func DefaultLenientParams() EvalParams {
	return EvalParams{
		Threshold:   ptrFloat(0.50),
		Bins:        ptrInt(eval.DefaultBins),
		MiningDepth: ptrInt(eval.DefaultMiningDepth),
		WarmupRuns:  ptrInt(defaultWarmupRuns),
		Seed:        ptrInt64(defaultShuffleSeed),
	}
}

// DefaultSmokeParams caps the run for fast end-to-end checks.
func DefaultSmokeParams() EvalParams {
	return EvalParams{
		Threshold:   ptrFloat(eval.DefaultThreshold),
		Bins:        ptrInt(5),
		MiningDepth: ptrInt(5),
		WarmupRuns:  ptrInt(1),
		SampleLimit: ptrInt(30),
		Seed:        ptrInt64(defaultShuffleSeed),
	}
}

func applyEvalProfile(config *Config) error {
	name := strings.TrimSpace(config.Profile)
	if name == "" {
		return nil
	}
	normalized := normalizeProfileName(name)
	switch ProfileName(normalized) {
	case ProfileStandard, ProfileStrict, ProfileLenient, ProfileSmoke:
	default:
		return fmt.Errorf("unknown evaluation profile %q", config.Profile)
	}
	merged := mergeParams(ParamsForProfile(normalized), paramsFromConfig(*config))
	writeParams(config, merged)
	config.Profile = normalized
	return nil
}

// ApplyEvalProfile layers the named profile under any explicit config values.
func ApplyEvalProfile(config *Config) error {
	return applyEvalProfile(config)
}

// paramsFromConfig lifts the explicitly set scalar knobs into pointer form so
// they win the merge against the profile preset.
func paramsFromConfig(config Config) EvalParams {
	var params EvalParams
	if config.Threshold != 0 {
		params.Threshold = ptrFloat(config.Threshold)
	}
	if config.Bins != 0 {
		params.Bins = ptrInt(config.Bins)
	}
	if config.MiningDepth != 0 {
		params.MiningDepth = ptrInt(config.MiningDepth)
	}
	if config.WarmupRuns != 0 {
		params.WarmupRuns = ptrInt(config.WarmupRuns)
	}
	if config.SampleLimit != 0 {
		params.SampleLimit = ptrInt(config.SampleLimit)
	}
	if config.Seed != 0 {
		params.Seed = ptrInt64(config.Seed)
	}
	if config.Workers != 0 {
		params.Workers = ptrInt(config.Workers)
	}
	return params
}

func writeParams(config *Config, params EvalParams) {
	if params.Threshold != nil {
		config.Threshold = *params.Threshold
	}
	if params.Bins != nil {
		config.Bins = *params.Bins
	}
	if params.MiningDepth != nil {
		config.MiningDepth = *params.MiningDepth
	}
	if params.WarmupRuns != nil {
		config.WarmupRuns = *params.WarmupRuns
	}
	if params.SampleLimit != nil {
		config.SampleLimit = *params.SampleLimit
	}
	if params.Seed != nil {
		config.Seed = *params.Seed
	}
	if params.Workers != nil {
		config.Workers = *params.Workers
	}
}

func mergeParams(base EvalParams, override EvalParams) EvalParams {
	if override.Threshold != nil {
		base.Threshold = override.Threshold
	}
	if override.Bins != nil {
		base.Bins = override.Bins
	}
	if override.MiningDepth != nil {
		base.MiningDepth = override.MiningDepth
	}
	if override.WarmupRuns != nil {
		base.WarmupRuns = override.WarmupRuns
	}
	if override.SampleLimit != nil {
		base.SampleLimit = override.SampleLimit
	}
	if override.Seed != nil {
		base.Seed = override.Seed
	}
	if override.Workers != nil {
		base.Workers = override.Workers
	}
	return base
}

func normalizeProfileName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	// allow a few friendly aliases
	switch s {
	case "", "default", "std":
		return string(ProfileStandard)
	case "high", "high-confidence", "high_confidence":
		return string(ProfileStrict)
	case "low", "permissive", "keep-all":
		return string(ProfileLenient)
	case "quick", "fast", "ci":
		return string(ProfileSmoke)
	default:
		return s
	}
}

// Pointer helpers (keeps structs clean + preserves unset vs explicitly set).
func ptrInt(v int) *int           { return &v }
func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
