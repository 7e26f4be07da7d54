package gasparser

import "regexp"

var (
	// Pattern: contract <name>
	contractPattern = regexp.MustCompile(`contract\s+(\w+)`)

	// Pattern: function <name>(<params>) [visibility] [mutability] [returns (<types>)] {
	functionPattern = regexp.MustCompile(
		`function\s+(\w+)\s*\(([^)]*)\)\s*(?:(public|private|internal|external))?\s*(?:(pure|view|payable|nonpayable))?\s*(?:returns\s*\(([^)]*)\))?\s*\{`,
	)

	// Pattern: <type>[[]] <name>
	paramPattern = regexp.MustCompile(`\s*(\w+(?:\[\])?)\s+(\w+)`)

	// Pattern: <type>[[]]
	returnPattern = regexp.MustCompile(`\s*(\w+(?:\[\])?)`)

	// Pattern: <value type> [visibility] <name>
	stateVarPattern = regexp.MustCompile(`\s*(uint256|uint|address|bool|string|mapping)\s+(?:public\s+|private\s+|internal\s+)?(\w+)`)

	// Pattern: event <name>(
	eventPattern = regexp.MustCompile(`event\s+(\w+)\s*\(`)
)

// Function body rules.
var (
	loopPattern         = regexp.MustCompile(`\b(for|while)\s*\(`)
	storagePattern      = regexp.MustCompile(`\w+\s*[\[\.].*?\]\s*=|\w+\s*=\s*[^=!<>]`)
	requirePattern      = regexp.MustCompile(`require\s*\(`)
	externalCallPattern = regexp.MustCompile(`\w+\.call\(|\w+\.delegatecall\(|\w+\.staticcall\(`)
	arrayPattern        = regexp.MustCompile(`\w+\.length|\w+\.push\(|\w+\.pop\(\)`)
	stringPattern       = regexp.MustCompile(`string\s*\(\s*|\babi\.encode|\babi\.encodePacked`)
	forHeaderPattern    = regexp.MustCompile(`\bfor\s*\(`)
)

// storageExclusions are substrings that disqualify a storage write match.
var storageExclusions = []string{"==", "!=", "require", "<=", ">="}
