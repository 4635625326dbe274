package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	unwanted   = regexp.MustCompile(`[^\w\s-]`)
	separators = regexp.MustCompile(`[\s_-]+`)
)

// maxAttempts bounds Unique so a broken exists func cannot loop forever
const maxAttempts = 1000

// Make lowercases title and joins its words with single hyphens
func Make(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = unwanted.ReplaceAllString(s, "")
	s = separators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ExistsFunc reports whether a candidate slug is already taken
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Unique returns base, or base-1, base-2, ... whichever is free first
func Unique(ctx context.Context, base string, exists ExistsFunc) (string, error) {
	if base == "" {
		return "", fmt.Errorf("empty slug")
	}

	candidate := base
	for counter := 1; counter <= maxAttempts; counter++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}

	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxAttempts)
}
