package main

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
)

// applyFilter runs a jq expression over an arbitrary value and returns the
// emitted results. The value is round-tripped through JSON first so gojq
// sees plain maps and slices rather than struct types.
func applyFilter(value any, expr string) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal value for filtering: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to unmarshal value for filtering: %w", err)
	}

	var results []any
	iter := code.Run(generic)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq filter error: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}
