// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package codec converts structured settings to and from the flat strings
// they are persisted as. Empty input always decodes to an empty, non-nil
// collection.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

const algorithmSeparator = ","

// EncodeAllowedSigningAlgorithms joins the set as a sorted comma list.
func EncodeAllowedSigningAlgorithms(algs sets.Set[string]) string {
	if algs.Len() == 0 {
		return ""
	}
	return strings.Join(sets.List(algs), algorithmSeparator)
}

// DecodeAllowedSigningAlgorithms splits a comma list into a set. Blank
// entries and surrounding spaces are dropped.
func DecodeAllowedSigningAlgorithms(s string) sets.Set[string] {
	algs := sets.New[string]()
	for _, part := range strings.Split(s, algorithmSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			algs.Insert(part)
		}
	}
	return algs
}

// EncodeProperties serializes a string map as a JSON object.
func EncodeProperties(props map[string]string) (string, error) {
	if props == nil {
		props = map[string]string{}
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(data), nil
}

// DecodeProperties parses a JSON object of strings. Blank input yields an
// empty map.
func DecodeProperties(s string) (map[string]string, error) {
	props := map[string]string{}
	if strings.TrimSpace(s) == "" {
		return props, nil
	}
	if err := json.Unmarshal([]byte(s), &props); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	if props == nil {
		// the literal "null"
		props = map[string]string{}
	}
	return props, nil
}
