package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"alert-relay-go/internal/models"
)

// ErrInvalidPattern is returned when a pattern does not compile, so
// callers can reject bad input instead of silently matching nothing.
var ErrInvalidPattern = errors.New("invalid pattern")

// SearchText builds the text a pattern is tested against: the alert's
// resolved title, description, severity, service, hostname and source,
// space-joined, skipping attributes the payload does not carry.
func SearchText(a models.Alert) string {
	var parts []string
	for _, candidates := range [][]string{
		models.TitleKeys,
		models.DescriptionKeys,
		models.SeverityKeys,
		models.ServiceKeys,
		models.HostnameKeys,
		models.SourceKeys,
	} {
		if v := a.Field(candidates...); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Compile builds a case-insensitive matcher from a user-supplied
// pattern. An empty pattern matches everything.
func Compile(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = ".*"
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return re, nil
}

// Matches reports whether the pattern matches the alert's search text.
func Matches(pattern string, a models.Alert) (bool, error) {
	re, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(SearchText(a)), nil
}
