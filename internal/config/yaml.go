// Package config loads flag values from YAML configuration files.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAML is a kong.ConfigurationLoader for YAML files.
//
// A flag is looked up by its name with dashes replaced by underscores, so
// --tls-conf-dir reads tls_conf_dir. Flags that share a prefix may also be
// grouped one level deep:
//
//	postgres:
//	  conn_string: postgres://localhost/latosol
//	  max_conns: 20
func YAML(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	var f kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		return lookup(values, flag.Name), nil
	}

	return f, nil
}

func lookup(values map[string]any, flagName string) any {
	name := strings.ReplaceAll(flagName, "-", "_")
	if raw, ok := values[name]; ok {
		return raw
	}
	if raw, ok := values[flagName]; ok {
		return raw
	}

	group, rest, found := strings.Cut(name, "_")
	if !found {
		return nil
	}

	nested, ok := values[group].(map[string]any)
	if !ok {
		return nil
	}

	return nested[rest]
}
