// Latentrank - Latent Factor Rating Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/latentrank

package config

import (
	"fmt"

	"github.com/tomtom215/latentrank/internal/validation"
)

// Validate checks field constraints, then settings that depend on each other.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateOutput(); err != nil {
		return err
	}

	return c.validateInput()
}

// validateOutput requires the destination of the selected sink.
func (c *Config) validateOutput() error {
	switch c.Output.Kind {
	case "csv":
		if c.Output.Path == "" {
			return fmt.Errorf("output.path is required when output.kind is csv")
		}
	case "redis":
		if c.Output.Redis.Addr == "" {
			return fmt.Errorf("output.redis.addr is required when output.kind is redis")
		}
	}
	return nil
}

// validateInput rejects csv-only settings that cannot mean anything for
// the selected source.
func (c *Config) validateInput() error {
	if c.Input.Kind == "duckdb" && c.Input.Orientation == "users_by_items" {
		return fmt.Errorf("input.orientation users_by_items only applies to csv input")
	}
	if c.Input.Kind == "csv" && c.Output.Kind == "csv" && c.Input.Path == c.Output.Path {
		return fmt.Errorf("input.path and output.path must differ (%s)", c.Input.Path)
	}
	return nil
}
