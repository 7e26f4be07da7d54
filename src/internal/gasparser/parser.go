package gasparser

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Analyze extracts the contract summary and per-function gas patterns from
// source. Finding nothing is not an error; the report degrades to defaults.
// It holds no state between calls and is safe for concurrent use.
func Analyze(source string) (report *ContractReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			report = nil
			err = &ParseError{Cause: fmt.Errorf("%v", r)}
		}
	}()
	return analyze(source), nil
}

// AnalyzeBytes is Analyze for raw input read from a file or a caller that may
// hand over something that is not text.
func AnalyzeBytes(src []byte) (*ContractReport, error) {
	if err := ValidateSource(src); err != nil {
		return nil, err
	}
	return Analyze(string(src))
}

// ValidateSource rejects missing input and input that is not UTF-8 text.
func ValidateSource(src []byte) error {
	if src == nil {
		return fmt.Errorf("%w: source is required", ErrInvalidArgument)
	}
	if bytes.IndexByte(src, 0) >= 0 || !utf8.Valid(src) {
		return fmt.Errorf("%w: source is not text", ErrInvalidArgument)
	}
	return nil
}

func analyze(source string) *ContractReport {
	report := &ContractReport{
		Name:           ContractName(source),
		Functions:      make([]FunctionInfo, 0),
		TotalLines:     strings.Count(source, "\n") + 1,
		StateVariables: StateVariables(source),
		Events:         Events(source),
	}

	for _, sig := range locateFunctions(source) {
		code, _ := resolveSpan(source, sig.start, sig.bodyOpen)
		patterns := DetectPatterns(code)
		report.Functions = append(report.Functions, FunctionInfo{
			Name:            sig.name,
			Visibility:      sig.visibility,
			StateMutability: sig.mutability,
			StartLine:       sig.startLine,
			SourceCode:      code,
			Parameters:      extractParameters(sig.params),
			ReturnTypes:     extractReturnTypes(sig.returns),
			Patterns:        patterns,
			ComplexityScore: ComplexityScore(patterns),
		})
	}
	return report
}
