// Package names shields configured literal tokens from the translation
// provider by swapping them for positional placeholders before dispatch
// and swapping them back afterwards.
package names

import (
	"fmt"
	"regexp"
	"strings"
)

const placeholderPrefix = "__PROTECTED_NAME_"

type Protector struct {
	names    []string
	patterns []*regexp.Regexp
}

func New(protected []string) *Protector {
	p := &Protector{
		names:    make([]string, 0, len(protected)),
		patterns: make([]*regexp.Regexp, 0, len(protected)),
	}

	for _, name := range protected {
		if name == "" {
			continue
		}
		p.names = append(p.names, name)
		p.patterns = append(p.patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(name)+`\b`))
	}

	return p
}

// Protect rewrites every whole-word occurrence of each configured name
// into its placeholder and returns the mapping needed to undo it.
func (p *Protector) Protect(text string) (string, map[string]string) {
	replacements := make(map[string]string)

	for i, pattern := range p.patterns {
		if !pattern.MatchString(text) {
			continue
		}

		placeholder := fmt.Sprintf("%s%d__", placeholderPrefix, i)
		text = pattern.ReplaceAllString(text, placeholder)
		replacements[placeholder] = p.names[i]
	}

	return text, replacements
}

// Restore substitutes placeholders back to their original names. A
// placeholder the provider mangled simply stays in the text; restoration
// never fails.
func (p *Protector) Restore(text string, replacements map[string]string) string {
	for placeholder, original := range replacements {
		text = strings.ReplaceAll(text, placeholder, original)
	}
	return text
}
