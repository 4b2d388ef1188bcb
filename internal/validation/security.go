package validation

import (
	"regexp"
	"strings"

	"marketplace/internal/models"
	"marketplace/internal/observability"
)

var sqlInjectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
	regexp.MustCompile(`(?i)\bselect\b.+\bfrom\b`),
	regexp.MustCompile(`(?i)\b(insert\s+into|delete\s+from|drop\s+(table|database)|truncate\s+table|alter\s+table)\b`),
	regexp.MustCompile(`(?i)\bupdate\s+\w+\s+set\b`),
	regexp.MustCompile(`(?i)\bexec(ute)?\s*\(`),
	regexp.MustCompile(`(--|/\*|\*/)`),
	regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
	regexp.MustCompile(`(?i)'\s*(or|and)\s+'`),
	regexp.MustCompile(`(?i);\s*(select|insert|update|delete|drop|create|alter)\b`),
}

var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)vbscript:`),
	regexp.MustCompile(`(?i)\bon(load|error|click|mouseover|focus)\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DetectSQLInjection reports whether text looks like an injected SQL fragment.
func DetectSQLInjection(text string) bool {
	for _, p := range sqlInjectionPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// DetectXSS reports whether text carries script content.
func DetectXSS(text string) bool {
	for _, p := range xssPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckText rejects suspicious free text with a 400 naming the field.
func CheckText(field, text string) error {
	if text == "" {
		return nil
	}
	if DetectSQLInjection(text) || DetectXSS(text) {
		observability.GlobalLogger.Warn("suspicious input rejected", "field", field)
		return models.NewBadRequestError("Invalid characters in " + field)
	}
	return nil
}

// NormalizeText strips NUL bytes, collapses whitespace runs and trims.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// NormalizeOptional applies NormalizeText through a pointer.
func NormalizeOptional(text *string) *string {
	if text == nil {
		return nil
	}
	n := NormalizeText(*text)
	return &n
}
