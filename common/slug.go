package common

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Slack channel names: lowercase letters, digits, hyphens and underscores, at most 80 runes.
const maxGroupNameLen = 80

var (
	ErrEmptySlug = errors.New("slug cannot be empty")
	nonSlugChars = regexp.MustCompile(`[^a-z0-9_]+`)
)

func Slugify(input, fallback string) (string, error) {
	slug := slugify(input)
	if slug == "" {
		slug = slugify(fallback)
	}
	if slug == "" {
		return "", ErrEmptySlug
	}
	return slug, nil
}

// GroupName builds the messaging group name for an issue: "{namespace}-{issueNumber}".
func GroupName(namespace string, issueNumber int) string {
	ns, err := Slugify(namespace, "studio")
	if err != nil {
		ns = "studio"
	}
	suffix := fmt.Sprintf("-%d", issueNumber)
	if len(ns)+len(suffix) > maxGroupNameLen {
		ns = strings.Trim(ns[:maxGroupNameLen-len(suffix)], "-")
	}
	return ns + suffix
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func slugify(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	slug := nonSlugChars.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}
