package gasparser

// ContractReport is the structured summary of one contract source.
type ContractReport struct {
	Name           string         `json:"name"`
	Functions      []FunctionInfo `json:"functions"`
	TotalLines     int            `json:"totalLines"`
	StateVariables []string       `json:"stateVariables"`
	Events         []string       `json:"events"`
}

type FunctionInfo struct {
	Name            string           `json:"name"`
	Visibility      string           `json:"visibility"`
	StateMutability string           `json:"stateMutability"`
	StartLine       int              `json:"startLine"`
	SourceCode      string           `json:"sourceCode"`
	Parameters      []Parameter      `json:"parameters"`
	ReturnTypes     []string         `json:"returnTypes"`
	Patterns        []PatternFinding `json:"patterns"`
	ComplexityScore int              `json:"complexityScore"`
}

type Parameter struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// PatternKind identifies one gas heuristic.
type PatternKind string

const (
	PatternLoop            PatternKind = "loop"
	PatternStorageWrite    PatternKind = "storage_write"
	PatternValidation      PatternKind = "validation"
	PatternExternalCall    PatternKind = "external_call"
	PatternArrayOperation  PatternKind = "array_operation"
	PatternStringOperation PatternKind = "string_operation"
)

type PatternFinding struct {
	Kind         PatternKind `json:"type"`
	Description  string      `json:"description"`
	EstimatedGas int         `json:"estimatedGas"`
	Suggestion   string      `json:"suggestion"`
}

const (
	DefaultContractName    = "Unknown"
	DefaultVisibility      = "public"
	DefaultStateMutability = "nonpayable"
)

// HasPattern reports whether the function carries a finding of the given kind.
func (f FunctionInfo) HasPattern(kind PatternKind) bool {
	for _, p := range f.Patterns {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

// EstimatedGas sums the heuristic cost of every finding.
func (f FunctionInfo) EstimatedGas() int {
	total := 0
	for _, p := range f.Patterns {
		total += p.EstimatedGas
	}
	return total
}
