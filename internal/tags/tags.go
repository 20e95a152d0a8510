// Package tags extracts and resolves {{name}} placeholders in subject and
// body templates.
package tags

import "regexp"

var placeholder = regexp.MustCompile(`\{\{([A-Za-z0-9_.\-]+)\}\}`)

// Tags maps a placeholder name to its resolved value.
type Tags map[string]string

// Extract scans every source for placeholders and returns each distinct
// name with an empty value.
func Extract(sources ...string) Tags {
	t := make(Tags)
	for _, src := range sources {
		for _, m := range placeholder.FindAllStringSubmatch(src, -1) {
			t[m[1]] = ""
		}
	}
	return t
}

// Populate sets the value of an extracted tag. Names that were not extracted
// and empty values are ignored.
func (t Tags) Populate(name, value string) {
	if value == "" {
		return
	}
	if _, ok := t[name]; ok {
		t[name] = value
	}
}

// Resolve replaces every known placeholder in template with its value.
// Placeholders with no entry in t are left as they are.
func Resolve(template string, t Tags) string {
	if len(t) == 0 {
		return template
	}
	return placeholder.ReplaceAllStringFunc(template, func(m string) string {
		name := m[2 : len(m)-2]
		if v, ok := t[name]; ok {
			return v
		}
		return m
	})
}
