package gasparser

import (
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// GasRule is the fixed description, cost and remediation for one pattern kind.
type GasRule struct {
	Description string
	BaseCost    int
	Suggestion  string
}

// GasTable holds every heuristic constant the detector emits.
var GasTable = map[PatternKind]GasRule{
	PatternLoop: {
		Description: "Loop detected - gas scales with iterations",
		BaseCost:    5000,
		Suggestion:  "Consider using unchecked arithmetic for counters and caching array length",
	},
	PatternStorageWrite: {
		Description: "Storage write operations detected",
		BaseCost:    int(params.SstoreSetGas),
		Suggestion:  "Consider batching storage operations or using memory for intermediate calculations",
	},
	PatternValidation: {
		Description: "Input validation detected",
		BaseCost:    500,
		Suggestion:  "Consider custom errors instead of require with strings",
	},
	PatternExternalCall: {
		Description: "External call detected",
		BaseCost:    int(params.CallStipend),
		Suggestion:  "Ensure proper gas estimation and consider reentrancy protection",
	},
	PatternArrayOperation: {
		Description: "Array operations detected",
		BaseCost:    1000,
		Suggestion:  "Cache array length in loops and consider gas costs of dynamic arrays",
	},
	PatternStringOperation: {
		Description: "String operations detected",
		BaseCost:    2000,
		Suggestion:  "String operations are expensive; consider using bytes32 for fixed-length strings",
	},
}

// rule counts occurrences of one pattern kind in a function body.
// Presence-only rules return 0 or 1.
type rule struct {
	kind  PatternKind
	count func(body string) int
}

// rules run in this order; the order is part of the report.
var rules = []rule{
	{PatternLoop, presence(loopPattern.MatchString)},
	{PatternStorageWrite, countStorageWrites},
	{PatternValidation, func(body string) int { return len(requirePattern.FindAllStringIndex(body, -1)) }},
	{PatternExternalCall, presence(externalCallPattern.MatchString)},
	{PatternArrayOperation, presence(arrayPattern.MatchString)},
	{PatternStringOperation, presence(stringPattern.MatchString)},
}

func presence(match func(string) bool) func(string) int {
	return func(body string) int {
		if match(body) {
			return 1
		}
		return 0
	}
}

// NewFinding builds the finding for kind seen count times.
func NewFinding(kind PatternKind, count int) PatternFinding {
	r := GasTable[kind]
	return PatternFinding{
		Kind:         kind,
		Description:  r.Description,
		EstimatedGas: r.BaseCost * count,
		Suggestion:   r.Suggestion,
	}
}

// DetectPatterns evaluates every rule independently over the same body text.
func DetectPatterns(body string) []PatternFinding {
	findings := make([]PatternFinding, 0, len(rules))
	for _, r := range rules {
		if n := r.count(body); n > 0 {
			findings = append(findings, NewFinding(r.kind, n))
		}
	}
	return findings
}

// ComplexityScore is 1 + 2 per finding.
func ComplexityScore(findings []PatternFinding) int {
	return 1 + 2*len(findings)
}

// countStorageWrites counts assignment-shaped matches that are not comparisons,
// not require calls, and not loop counter setup inside a for header.
func countStorageWrites(body string) int {
	headers := forHeaders(body)
	count := 0
	for _, loc := range storagePattern.FindAllStringIndex(body, -1) {
		if containsAny(body[loc[0]:loc[1]], storageExclusions) {
			continue
		}
		if within(loc[0], headers) {
			continue
		}
		count++
	}
	return count
}

// forHeaders returns the [open, close] paren offsets of every for header.
func forHeaders(body string) [][2]int {
	var headers [][2]int
	for _, loc := range forHeaderPattern.FindAllStringIndex(body, -1) {
		open := loc[1] - 1
		end := len(body) - 1
		depth := 0
	scan:
		for i := open; i < len(body); i++ {
			switch body[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = i
					break scan
				}
			}
		}
		headers = append(headers, [2]int{open, end})
	}
	return headers
}

func within(offset int, ranges [][2]int) bool {
	for _, r := range ranges {
		if offset > r[0] && offset < r[1] {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
