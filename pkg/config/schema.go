// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"sigs.k8s.io/yaml"
)

//go:embed schema.json
var schemaBytes []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaBytes)

// ErrSchema is wrapped by every structural configuration error.
var ErrSchema = errors.New("configuration does not match schema")

// validateSchema checks the shape of a YAML document: known sections and
// keys with the right value types. Semantic checks are left to Validate.
func validateSchema(data []byte) error {
	doc, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse config file yaml: %w", err)
	}
	// an empty file is an empty configuration
	if string(doc) == "null" {
		return nil
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate configuration schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]error, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, errors.New(e.String()))
	}
	return fmt.Errorf("%w: %w", ErrSchema, errors.Join(errs...))
}
