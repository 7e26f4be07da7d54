package gasparser

import "strings"

// signatureMatch is one function header located in the source.
type signatureMatch struct {
	start       int // offset of "function"
	bodyOpen    int // offset of the opening brace
	name        string
	params      string
	visibility  string
	mutability  string
	returns     string
	startLine   int
}

// locateFunctions scans the source left to right for function signatures.
// Matches never overlap and come back in source order.
func locateFunctions(source string) []signatureMatch {
	locs := functionPattern.FindAllStringSubmatchIndex(source, -1)
	matches := make([]signatureMatch, 0, len(locs))

	line, counted := 1, 0
	for _, loc := range locs {
		start := loc[0]
		line += strings.Count(source[counted:start], "\n")
		counted = start

		m := signatureMatch{
			start:      start,
			bodyOpen:   loc[1] - 1,
			name:       group(source, loc, 1),
			params:     group(source, loc, 2),
			visibility: group(source, loc, 3),
			mutability: group(source, loc, 4),
			returns:    group(source, loc, 5),
			startLine:  line,
		}
		if m.visibility == "" {
			m.visibility = DefaultVisibility
		}
		if m.mutability == "" {
			m.mutability = DefaultStateMutability
		}
		matches = append(matches, m)
	}
	return matches
}

// group returns capture i of a submatch index slice, or "" when it did not participate.
func group(s string, loc []int, i int) string {
	if 2*i+1 >= len(loc) || loc[2*i] < 0 {
		return ""
	}
	return s[loc[2*i]:loc[2*i+1]]
}

// extractParameters pulls (type, name) pairs out of a raw parameter list.
// Qualifiers that break the two-identifier shape are simply not matched.
func extractParameters(raw string) []Parameter {
	params := make([]Parameter, 0)
	if raw == "" {
		return params
	}
	for _, m := range paramPattern.FindAllStringSubmatch(raw, -1) {
		params = append(params, Parameter{Type: m[1], Name: m[2]})
	}
	return params
}

// extractReturnTypes pulls the type tokens out of a raw returns list.
func extractReturnTypes(raw string) []string {
	types := make([]string, 0)
	if raw == "" {
		return types
	}
	for _, m := range returnPattern.FindAllStringSubmatch(raw, -1) {
		types = append(types, m[1])
	}
	return types
}
