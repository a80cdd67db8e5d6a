package logging

import (
	"fmt"
	"regexp"
	"strings"
)

// RedactPattern is a named regular expression whose matches are replaced in
// logged string values.
type RedactPattern struct {
	Name        string `yaml:"name"`
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Redactor redacts contact details and credentials from log fields.
// Operator notes attached to scenarios routinely contain crew phone numbers
// and e-mail addresses.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternEmail       = "email"
	PatternPhone       = "phone"
	PatternBearerToken = "bearer_token"
	PatternPassword    = "password"
)

// defaultPatterns are applied in this order before custom patterns.
var defaultPatterns = []RedactPattern{
	{Name: PatternBearerToken, Pattern: `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, Replacement: "Bearer ***"},
	{Name: PatternPassword, Pattern: `(password|passwd|pwd)[:=]\s*[^\s]+`, Replacement: "$1: ***"},
	{Name: PatternEmail, Pattern: `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, Replacement: "***@***"},
	{Name: PatternPhone, Pattern: `(?:\+?1[-.\s]?)?\(?\b\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`, Replacement: "***-***-****"},
}

// sensitiveKeys are field names whose values are always masked.
var sensitiveKeys = []string{"password", "passwd", "secret", "token", "authorization", "api_key", "apikey"}

// NewRedactor creates a Redactor with the default patterns followed by
// custom ones.
func NewRedactor(custom []RedactPattern) (*Redactor, error) {
	r := &Redactor{}
	for _, p := range append(append([]RedactPattern{}, defaultPatterns...), custom...) {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid redact pattern %q: %w", p.Name, err)
		}
		r.patterns = append(r.patterns, &redactPattern{name: p.Name, regex: re, replacement: p.Replacement})
	}
	return r, nil
}

// RedactString redacts sensitive substrings from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
