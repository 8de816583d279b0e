package signature

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/praetorian-inc/sniff/pkg/types"
)

// FilterConfig specifies include and exclude patterns for signature filtering.
// Patterns use regexp2 syntax, so lookarounds such as `^sniff\.(?!mpeg)` work.
type FilterConfig struct {
	Include []string // Regex patterns - only matching signatures included
	Exclude []string // Regex patterns - matching signatures excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to signature IDs.
// Include is applied first, then exclude.
// Empty include means "include all".
// Returns error if any pattern is invalid regex.
func Filter(sigs []*types.Signature, config FilterConfig) ([]*types.Signature, error) {
	if len(sigs) == 0 {
		return sigs, nil
	}

	include, err := compilePatterns(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	filtered := sigs
	if len(include) > 0 {
		filtered, err = selectSignatures(filtered, include, true)
		if err != nil {
			return nil, err
		}
	}
	if len(exclude) > 0 {
		filtered, err = selectSignatures(filtered, exclude, false)
		if err != nil {
			return nil, err
		}
	}

	return filtered, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func compilePatterns(patterns []string) ([]*regexp2.Regexp, error) {
	regexes := make([]*regexp2.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp2.Compile(pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

// selectSignatures keeps signatures whose ID matching any regex equals keep.
func selectSignatures(sigs []*types.Signature, regexes []*regexp2.Regexp, keep bool) ([]*types.Signature, error) {
	result := make([]*types.Signature, 0)
	for _, s := range sigs {
		matched, err := matchesAny(s.ID, regexes)
		if err != nil {
			return nil, err
		}
		if matched == keep {
			result = append(result, s)
		}
	}
	return result, nil
}

func matchesAny(id string, regexes []*regexp2.Regexp) (bool, error) {
	for _, re := range regexes {
		ok, err := re.MatchString(id)
		if err != nil {
			return false, fmt.Errorf("matching %q against %q: %w", id, re.String(), err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
