package mathcheck

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	numberPattern = `(?:\d+(?:\.\d+)?|\.\d+)`
	termPattern   = `(?:(?:` + numberPattern + `\s*\*?\s*)?[xX](?:\s*(?:\^|\*\*)\s*-?\d+)?|` + numberPattern + `)`
	exprPattern   = `(?:-\s*)?` + termPattern + `(?:\s*[-+*/=]\s*-?\s*` + termPattern + `)*`
)

//nolint:gochecknoglobals // compiled once
var (
	exprRe        = regexp.MustCompile(exprPattern)
	coefficientRe = regexp.MustCompile(`(\d)\s*\*?\s*x`)
	powerRe       = regexp.MustCompile(`\s*\^\s*`)
)

// Extract returns the first run of polynomial terms in text that mentions
// the variable and is not part of a longer word, e.g. "2x^2 + 3x" from
// "Find the derivative of 2x^2 + 3x".
func Extract(text string) (string, bool) {
	for _, loc := range exprRe.FindAllStringIndex(text, -1) {
		cand := text[loc[0]:loc[1]]
		if !strings.ContainsAny(cand, "xX") {
			continue
		}
		if letterBefore(text, loc[0]) || letterAfter(text, loc[1]) {
			continue
		}
		return cand, true
	}
	return "", false
}

func letterBefore(s string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return unicode.IsLetter(r) || r == '_'
}

func letterAfter(s string, i int) bool {
	if i >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return unicode.IsLetter(r) || r == '_'
}

// Normalize rewrites student notation into parser syntax: X folds to x,
// a coefficient gets an explicit product (2x -> 2*x) and ^ becomes **.
func Normalize(expr string) string {
	expr = strings.ReplaceAll(expr, "X", "x")
	expr = coefficientRe.ReplaceAllString(expr, "$1*x")
	return powerRe.ReplaceAllString(expr, "**")
}
