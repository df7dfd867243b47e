package utils

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MaxTitleLength   = 255
	MaxCommentLength = 1000
	MaxTags          = 10
	MaxTagLength     = 30
)

func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return errors.New("title must be at most 255 characters")
	}
	return nil
}

// ValidateCommentContent trims content and checks it is 1-1000 characters.
func ValidateCommentContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" || utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return "", errors.New("comment must be between 1-1000 characters")
	}
	return trimmed, nil
}

// NormalizeTags lowercases, trims and de-duplicates tags, keeping the first
// MaxTags. Empty and over-long tags are dropped.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || utf8.RuneCountInString(tag) > MaxTagLength {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// ClampLimit applies def when limit is unset and caps it at ceiling.
func ClampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
