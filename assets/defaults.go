// Package assets embeds files shipped inside the macdiet binary.
package assets

import _ "embed"

// DefaultConfigYAML is written to ~/.config/macdiet/config.yaml on first run
// and is the baseline for `macdiet config diff`.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte
