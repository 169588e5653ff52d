// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that yaml can parse from either a Go
// duration string ("20ms") or a bare number of seconds (0.02), the
// format older config files used.
type Duration time.Duration

var _ yaml.Unmarshaler = (*Duration)(nil)
var _ yaml.Marshaler = Duration(0)

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	// bare numbers decode into a string too, so try the numeric form first
	var seconds float64
	if err := node.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds * float64(time.Second)))
		return nil
	}

	var asString string
	if err := node.Decode(&asString); err != nil {
		return fmt.Errorf("invalid duration value: %s", node.Value)
	}
	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
