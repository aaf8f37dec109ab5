package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sticky/pkg/domain"
)

// parseStep parses "name" or "name:key=value,key=value" into a state name and params.
func parseStep(s string) (string, domain.Params, error) {
	name, rest, found := strings.Cut(s, ":")
	if name == "" && !found {
		return "", nil, fmt.Errorf("invalid step %q", s)
	}
	params := domain.Params{}
	if !found || rest == "" {
		return name, params, nil
	}
	for _, pair := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return "", nil, fmt.Errorf("invalid param %q in step %q: expected key=value", pair, s)
		}
		params[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return name, params, nil
}
