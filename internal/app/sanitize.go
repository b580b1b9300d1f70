package app

import "strings"

var quoteStripper = strings.NewReplacer("'", "", `"`, "", "`", "")

// Sanitize returns a copy of fields with quote characters and backticks
// removed from every key and value. Keys that collide after stripping keep
// the value of the lexically greatest original key.
func Sanitize(fields Fields) Fields {
	out := make(Fields, len(fields))
	origins := make(map[string]string, len(fields))

	for key, value := range fields {
		clean := quoteStripper.Replace(key)
		if prev, ok := origins[clean]; ok && prev > key {
			continue
		}
		origins[clean] = key
		out[clean] = quoteStripper.Replace(value)
	}
	return out
}
