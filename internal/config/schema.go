// SPDX-License-Identifier: MPL-2.0

package config

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// JSONSchema reflects the Config struct into a JSON Schema document for
// editor integration and external validation. Field names follow the json
// tags, which match the CUE schema and the TOML override keys.
func JSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{}
	s := r.Reflect(&Config{})
	s.Title = "kernlet configuration"
	s.Description = "Schema for the kernlet config file (config.cue globally, kernlet.toml per directory)."

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	data = append(data, '\n')

	return data, nil
}
