// Package config loads the analysis core's tunables from a YAML file:
// the obfuscation marker list, scan-window constants, short-name
// threshold, and search default limit (§4.9, §4.4, §4.7). Loading goes
// through afs so the same code path reads local paths and any afs
// scheme (s3://, gs://, ...) without a second code path, grounded in
// the teacher's project detector's afs.New()/DownloadWithURL use.
package config

import (
	"context"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Obfuscation holds the §4.9 heuristic tunables.
type Obfuscation struct {
	KnownTools        []string `yaml:"knownTools"`
	ShortNameMaxLen   int      `yaml:"shortNameMaxLen"`
	ScoreObfuscatedAt float64  `yaml:"scoreObfuscatedAt"`
}

// CallGraph holds the §4.4 backward-scan window constants.
type CallGraph struct {
	LambdaScanWindow     int `yaml:"lambdaScanWindow"`
	ReflectionScanWindow int `yaml:"reflectionScanWindow"`
}

// Search holds the §4.7 engine defaults.
type Search struct {
	DefaultLimit int `yaml:"defaultLimit"`
}

// Config is the full set of loaded tunables; Default() holds the
// built-in values. A zero-value Config is not Default(): the Configure
// setters ignore its zero obfuscation and call-graph fields, and a zero
// Search.DefaultLimit leaves session searches unlimited.
type Config struct {
	Obfuscation Obfuscation `yaml:"obfuscation"`
	CallGraph   CallGraph   `yaml:"callGraph"`
	Search      Search      `yaml:"search"`
}

// Default returns the tunables baked into the detectors themselves,
// i.e. what running with no config file at all behaves as.
func Default() Config {
	return Config{
		Obfuscation: Obfuscation{
			KnownTools: []string{
				"Dotfuscator", "ConfuserEx", "SmartAssembly", "Eazfuscator", "Babel",
				".NET Reactor", "VMProtect", "Enigma", "Obfuscar",
			},
			ShortNameMaxLen:   2,
			ScoreObfuscatedAt: 30,
		},
		CallGraph: CallGraph{
			LambdaScanWindow:     20,
			ReflectionScanWindow: 50,
		},
		Search: Search{DefaultLimit: 50},
	}
}

// Load fetches path via afs and parses it as YAML over the built-in
// defaults: fields absent from the file keep their default value.
func Load(ctx context.Context, path string) (Config, error) {
	cfg := Default()
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
