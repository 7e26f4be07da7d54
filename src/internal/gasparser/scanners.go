package gasparser

import "regexp"

// ContractName returns the identifier after the first "contract" keyword,
// or DefaultContractName when there is none.
func ContractName(source string) string {
	if m := contractPattern.FindStringSubmatch(source); m != nil {
		return m[1]
	}
	return DefaultContractName
}

// StateVariables returns every name declared with a known value type, in
// source order, duplicates included. User-defined types are never captured.
func StateVariables(source string) []string {
	return allGroups(stateVarPattern, source, 2)
}

// Declaration is one state variable match with its value type.
type Declaration struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// StateVariableDecls is StateVariables with the matched type kept.
func StateVariableDecls(source string) []Declaration {
	out := make([]Declaration, 0)
	for _, m := range stateVarPattern.FindAllStringSubmatch(source, -1) {
		out = append(out, Declaration{Type: m[1], Name: m[2]})
	}
	return out
}

// Events returns the names of all event declarations in source order.
func Events(source string) []string {
	return allGroups(eventPattern, source, 1)
}

func allGroups(re *regexp.Regexp, source string, idx int) []string {
	out := make([]string, 0)
	for _, m := range re.FindAllStringSubmatch(source, -1) {
		out = append(out, m[idx])
	}
	return out
}
