// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noah Contributors

package sqlite

import (
	"encoding/json"

	noaherr "github.com/chakany/noah/pkg/errors"
)

// jsonContains reports whether the JSON document doc structurally contains
// pattern, in the manner of Postgres jsonb containment:
//
//   - object ⊇ object: every key of the pattern exists in the document and
//     its value is contained recursively
//   - array ⊇ array: every pattern element is contained in some document
//     element
//   - array ⊇ scalar or object: contained if any element contains it
//   - scalars: equality after JSON decoding
//
// Registered as the json_contains SQL function; it is the tags-exact filter
// primitive.
func jsonContains(doc, pattern string) (bool, error) {
	var d, p any
	if err := json.Unmarshal([]byte(doc), &d); err != nil {
		return false, noaherr.Errorf(noaherr.CodeStoreInvalidInput, "json_contains: malformed document: %w", err)
	}
	if err := json.Unmarshal([]byte(pattern), &p); err != nil {
		return false, noaherr.Errorf(noaherr.CodeStoreInvalidInput, "json_contains: malformed pattern: %w", err)
	}
	return contains(d, p), nil
}

func contains(doc, pattern any) bool {
	switch pat := pattern.(type) {
	case map[string]any:
		if d, ok := doc.(map[string]any); ok {
			for key, pv := range pat {
				dv, ok := d[key]
				if !ok || !contains(dv, pv) {
					return false
				}
			}
			return true
		}
		return arrayContains(doc, pattern)
	case []any:
		d, ok := doc.([]any)
		if !ok {
			return false
		}
		for _, pv := range pat {
			found := false
			for _, dv := range d {
				if contains(dv, pv) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	default:
		switch doc.(type) {
		case []any:
			return arrayContains(doc, pattern)
		case map[string]any:
			return false
		default:
			return doc == pattern
		}
	}
}

// arrayContains reports whether doc is an array with an element containing
// pattern. This generalizes the jsonb "array contains a scalar on its top
// level" exception to objects, so a tag document of any shape can be matched
// by a single record pattern.
func arrayContains(doc, pattern any) bool {
	d, ok := doc.([]any)
	if !ok {
		return false
	}
	for _, el := range d {
		if contains(el, pattern) {
			return true
		}
	}
	return false
}
