package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultFatalRulesYAML contains the embedded default fatal-pattern rules.
//
//go:embed defaults/fatal_rules.yaml
var DefaultFatalRulesYAML []byte
