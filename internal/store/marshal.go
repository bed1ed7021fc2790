package store

import (
	"encoding/json"
	"fmt"

	"github.com/klausbehnamshad/relational-justice-analysis/internal/frame"
)

// marshalStrings converts a string slice to canonical JSON TEXT for storage.
// Nil marshals to "[]" so stored columns are never NULL and byte comparison
// across runs stays valid.
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := frame.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal string list: %w", err)
	}
	return string(data), nil
}

// marshalAxisPairs converts a segment's co-occurring axis pairs to
// canonical JSON TEXT. Nil marshals to "[]" like marshalStrings.
func marshalAxisPairs(pairs []frame.AxisPair) (string, error) {
	list := make([]any, len(pairs))
	for i, p := range pairs {
		list[i] = map[string]any{
			"aspiration": p.Aspiration,
			"structural": p.Structural,
		}
	}
	data, err := frame.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal axis pairs: %w", err)
	}
	return string(data), nil
}

func unmarshalAxisPairs(data string) ([]frame.AxisPair, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var pairs []frame.AxisPair
	if err := json.Unmarshal([]byte(data), &pairs); err != nil {
		return nil, fmt.Errorf("unmarshal axis pairs: %w", err)
	}
	return pairs, nil
}

// unmarshalStrings parses a canonical JSON TEXT column back to a slice.
// An empty array yields nil, matching the in-memory representation.
func unmarshalStrings(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal string list: %w", err)
	}
	return values, nil
}
