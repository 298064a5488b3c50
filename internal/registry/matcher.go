package registry

import (
	"fmt"
	"strings"

	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// validateMatcher rejects matcher patterns that are neither exact types
// nor one of the two supported wildcard forms.
func validateMatcher(m string) error {
	if m == "" {
		return errclass.ErrConfigInvalid.WithMessage("empty matcher")
	}
	if strings.Count(m, "*") > 1 {
		return errclass.ErrConfigInvalid.WithMessagef("matcher has multiple wildcards: %s", m)
	}
	if strings.Contains(m, "*") && !strings.HasSuffix(m, ".*") && !strings.HasPrefix(m, "*.") {
		return errclass.ErrConfigInvalid.WithMessagef("wildcard must be leading '*.' or trailing '.*': %s", m)
	}
	return nil
}

func matchesAny(matchers []string, eventType model.EventType) bool {
	for _, m := range matchers {
		if matchesOne(m, string(eventType)) {
			return true
		}
	}
	return false
}

// matchesOne implements the three matcher forms: exact, trailing ".*"
// (any event sharing the prefix), and leading "*." (any event sharing the
// final segment).
func matchesOne(matcher, eventType string) bool {
	switch {
	case strings.HasSuffix(matcher, ".*"):
		prefix := strings.TrimSuffix(matcher, "*")
		return strings.HasPrefix(eventType, prefix)
	case strings.HasPrefix(matcher, "*."):
		suffix := strings.TrimPrefix(matcher, "*.")
		segments := strings.Split(eventType, ".")
		return segments[len(segments)-1] == suffix
	default:
		return matcher == eventType
	}
}

// matchesFilter evaluates a field-level predicate over the event context.
// Every filter key must be satisfied. List-valued filters are "any of";
// a key suffixed with '+' is "all of" against a list-valued context field.
func matchesFilter(filter map[string]any, context map[string]any) bool {
	for key, want := range filter {
		if strings.HasSuffix(key, "+") {
			if !matchesAllOf(context[strings.TrimSuffix(key, "+")], want) {
				return false
			}
			continue
		}
		if !matchesAnyOf(context[key], want) {
			return false
		}
	}
	return true
}

func matchesAnyOf(got, want any) bool {
	if wantList, ok := want.([]any); ok {
		for _, w := range wantList {
			if valueMatches(got, w) {
				return true
			}
		}
		return false
	}
	return valueMatches(got, want)
}

func matchesAllOf(got, want any) bool {
	wantList, ok := want.([]any)
	if !ok {
		wantList = []any{want}
	}
	for _, w := range wantList {
		if !valueMatches(got, w) {
			return false
		}
	}
	return true
}

// valueMatches compares a context value to a filter value. A list-valued
// context field matches when any element matches. Scalars compare by
// normalized string form so YAML and JSON numeric types line up.
func valueMatches(got, want any) bool {
	if gotList, ok := got.([]any); ok {
		for _, g := range gotList {
			if scalarEqual(g, want) {
				return true
			}
		}
		return false
	}
	if gotStrs, ok := got.([]string); ok {
		for _, g := range gotStrs {
			if scalarEqual(g, want) {
				return true
			}
		}
		return false
	}
	return scalarEqual(got, want)
}

func scalarEqual(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
