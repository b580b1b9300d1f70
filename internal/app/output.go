package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const maxSlugLength = 50

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// SaveResult writes r as indented JSON to dir under a timestamped name
// derived from its title and returns the file path.
func SaveResult(dir string, r *Result, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	slug := sanitizeForPath(r.Title)
	if slug == "" {
		slug = "untitled"
	}
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "_")
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s_%s.json", now.Format("20060102_150405"), r.ContentType, slug))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	return path, nil
}

func sanitizeForPath(s string) string {
	s = strings.ToLower(s)
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
