package config

import (
	"bytes"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"piquant/domain/parameters"
	"piquant/internal/errors"
)

// QuantifierParamsKey is the sweep file key holding key=value settings
// passed through to the quantification methods
const QuantifierParamsKey = "quantifier-params"

// SweepFile is a parameter specification file. Each parameter maps to a
// list of candidate values, either a YAML sequence or a comma-separated
// string:
//
//	read-length: [50, 100]
//	paired-end: "false,true"
//	quantifier-params:
//	  polya: "false"
type SweepFile struct {
	Params           map[string][]string
	QuantifierParams map[string]string
}

// LoadSweepFile reads and parses a sweep file
func LoadSweepFile(path string) (*SweepFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapCode(err, errors.CodeConfigInvalid, "Parameter specification file should exist")
	}
	sf, err := ParseSweepFile(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return sf, nil
}

// ParseSweepFile parses sweep file contents
func ParseSweepFile(data []byte) (*SweepFile, error) {
	sf := &SweepFile{
		Params:           make(map[string][]string),
		QuantifierParams: make(map[string]string),
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return sf, nil
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapCode(err, errors.CodeConfigInvalid, "invalid parameter specification file")
	}

	for key, node := range doc {
		node := node
		if key == QuantifierParamsKey {
			if err := node.Decode(&sf.QuantifierParams); err != nil {
				return nil, errors.InvalidOption(key, node.Value, "quantifier parameters must be a mapping of strings")
			}
			continue
		}
		switch node.Kind {
		case yaml.SequenceNode:
			values := make([]string, 0, len(node.Content))
			for _, item := range node.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, errors.InvalidOption(key, item.Value, "parameter values must be scalars")
				}
				values = append(values, item.Value)
			}
			sf.Params[key] = values
		case yaml.ScalarNode:
			sf.Params[key] = parameters.SplitList(node.Value)
		default:
			return nil, errors.InvalidOption(key, node.Value, "parameter values must be a list or a comma-separated string")
		}
	}
	return sf, nil
}

// Merge overlays explicit values on top of the file's, returning a new map.
// A parameter given explicitly replaces the file's list entirely.
func (sf *SweepFile) Merge(explicit map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(sf.Params)+len(explicit))
	for k, v := range sf.Params {
		merged[k] = v
	}
	for k, v := range explicit {
		if len(v) > 0 {
			merged[k] = v
		}
	}
	return merged
}

// ParseKeyValues parses "k1=v1,k2=v2"
func ParseKeyValues(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range parameters.SplitList(raw) {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, errors.InvalidOption("params", pair, "parameters must be given as key=value")
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
