package config

import _ "embed"

// defaultSourcesYAML is the source configuration used when no file is
// supplied on the command line.
//
//go:embed sources.yaml
var defaultSourcesYAML []byte
