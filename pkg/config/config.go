package config

import (
	"fmt"

	"github.com/casm-lang/casmc/pkg/cli"
)

type Feature int

const (
	FeatLegacyCounter Feature = iota
	FeatLegacyLabel
	FeatCount
)

type Warning int

const (
	WarnLegacy Warning = iota
	WarnStrlenMiss
	WarnSyscallArity
	WarnUnknownNode
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features    map[Feature]Info
	Warnings    map[Warning]Info
	FeatureMap  map[string]Feature
	WarningMap  map[string]Warning
	TargetBits  int
	BackendName string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		TargetBits:  32,
		BackendName: "nasm32",
	}

	features := map[Feature]Info{
		FeatLegacyCounter: {"legacy-counter", true, "Recognize the historical '[counter]' spelling of '&strlen&'."},
		FeatLegacyLabel:   {"legacy-label", true, "Recognize the historical 'label' keyword as a synonym for 'func'."},
	}

	warnings := map[Warning]Info{
		WarnLegacy:       {"legacy", true, "Warn on historical spellings like 'label' and '[counter]'."},
		WarnStrlenMiss:   {"strlen-miss", true, "Warn when '&strlen&' has no earlier string to measure."},
		WarnSyscallArity: {"syscall-arity", true, "Warn when 'sys_call' has more parameters than registers."},
		WarnUnknownNode:  {"unknown-node", true, "Warn when the generator meets a statement it cannot emit."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget selects the code generation target word size. Only the 32-bit
// NASM target is implemented.
func (c *Config) SetTarget(bits int) error {
	switch bits {
	case 32:
		c.TargetBits, c.BackendName = 32, "nasm32"
	case 64:
		return fmt.Errorf("64-bit mode is not supported yet")
	default:
		return fmt.Errorf("unsupported target word size %d", bits)
	}
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetAllWarnings enables or disables all warnings at once.
func (c *Config) SetAllWarnings(enabled bool) {
	for wt := Warning(0); wt < WarnCount; wt++ {
		c.SetWarning(wt, enabled)
	}
}

func (c *Config) WarningName(wt Warning) string { return c.Warnings[wt].Name }

func (c *Config) FeatureName(ft Feature) string { return c.Features[ft].Name }

// SetupFlagGroups registers -W<warning> and -F<feature> flag groups on the
// flag set and returns the entries, indexed by Warning and Feature ordinal,
// for the caller to apply after parsing.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningEntries := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		enabled, disabled := false, false
		warningEntries[i] = cli.FlagGroupEntry{
			Name:     c.Warnings[i].Name,
			Prefix:   "W",
			Usage:    c.Warnings[i].Description,
			Default:  c.Warnings[i].Enabled,
			Enabled:  &enabled,
			Disabled: &disabled,
		}
	}
	fs.AddFlagGroup("Warnings", "Toggle diagnostic warnings.", "warning", "Available warnings", warningEntries)

	featureEntries := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		enabled, disabled := false, false
		featureEntries[i] = cli.FlagGroupEntry{
			Name:     c.Features[i].Name,
			Prefix:   "F",
			Usage:    c.Features[i].Description,
			Default:  c.Features[i].Enabled,
			Enabled:  &enabled,
			Disabled: &disabled,
		}
	}
	fs.AddFlagGroup("Features", "Toggle language features.", "feature", "Available features", featureEntries)

	return warningEntries, featureEntries
}
