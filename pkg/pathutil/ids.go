package pathutil

import (
	"regexp"

	"golang.org/x/text/unicode/norm"

	"github.com/taskhook-project/taskhook/pkg/errclass"
)

// Work-item ids follow a strict grammar: prefix-<integer> or
// prefix-<integer>.<integer>. Double separators, non-numeric segments and
// trailing garbage all fail, which lets unrelated files share the tracked
// directory without aborting detection.
var idRegex = regexp.MustCompile(`^[a-z][a-z0-9]*-[0-9]+(\.[0-9]+)?$`)

// NormalizeID returns the NFC-normalized form of a candidate id.
func NormalizeID(id string) string {
	return norm.NFC.String(id)
}

// ValidateWorkItemID checks a candidate id against the strict grammar.
func ValidateWorkItemID(id string) error {
	id = NormalizeID(id)
	if id == "" {
		return errclass.ErrIDInvalid.WithMessage("id must not be empty")
	}
	if !idRegex.MatchString(id) {
		return errclass.ErrIDInvalid.WithMessagef("id must match prefix-<int>[.<int>]: %s", id)
	}
	return nil
}
