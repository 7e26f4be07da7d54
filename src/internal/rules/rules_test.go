package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
)

func types(suggestions []Suggestion) []string {
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Type
	}
	return out
}

func pattern(kind gasparser.PatternKind) gasparser.PatternFinding {
	return gasparser.NewFinding(kind, 1)
}

func TestAnalyze_Loop(t *testing.T) {
	fn := gasparser.FunctionInfo{
		Name:            "sum",
		Visibility:      "public",
		StateMutability: "view",
		SourceCode: `function sum(uint[] memory xs) public view returns (uint) {
        uint total;
        for (uint i; i < xs.length; ++i) { total += xs[i]; }
        return total;
    }`,
		Patterns: []gasparser.PatternFinding{
			pattern(gasparser.PatternLoop),
			pattern(gasparser.PatternArrayOperation),
		},
	}

	got := Analyze(fn)
	assert.Equal(t, []string{"loop", "loop", "loop", "visibility"}, types(got))
	for _, s := range got {
		assert.Equal(t, SourceStatic, s.Source)
	}
	assert.Equal(t, 5000+3000+2500+1000, TotalSavings(got))
}

func TestAnalyze_LoopRulesNeedLoopPattern(t *testing.T) {
	fn := gasparser.FunctionInfo{
		Name:            "bump",
		Visibility:      "internal",
		StateMutability: "nonpayable",
		SourceCode:      "function bump() internal { counter++; }",
	}
	for _, s := range Analyze(fn) {
		assert.NotEqual(t, "loop", s.Type)
	}
}

func TestAnalyze_Mutability(t *testing.T) {
	pure := gasparser.FunctionInfo{
		Name:            "double",
		Visibility:      "internal",
		StateMutability: "nonpayable",
		SourceCode:      "function double(uint x) internal returns (uint) { return x * 2; }",
	}
	got := Analyze(pure)
	require.Len(t, got, 1)
	assert.Equal(t, "mutability", got[0].Type)
	assert.Contains(t, got[0].Message, `"pure"`)
	assert.Equal(t, ImpactLow, got[0].Impact)

	view := gasparser.FunctionInfo{
		Name:            "ownerOf",
		Visibility:      "internal",
		StateMutability: "nonpayable",
		SourceCode:      "function ownerOf(uint id) internal returns (address) { return owners[id]; }",
	}
	got = Analyze(view)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, `"view"`)

	declared := view
	declared.StateMutability = "view"
	assert.Empty(t, Analyze(declared))
}

func TestAnalyze_StorageWrites(t *testing.T) {
	fn := gasparser.FunctionInfo{
		Name:            "set",
		Visibility:      "external",
		StateMutability: "nonpayable",
		SourceCode:      "function set() external { a = 1; b = 2; c = 3; d[4] = 5; }",
		Patterns:        []gasparser.PatternFinding{gasparser.NewFinding(gasparser.PatternStorageWrite, 4)},
	}
	got := Analyze(fn)
	require.Len(t, got, 1)
	assert.Equal(t, "storage", got[0].Type)
	assert.Equal(t, ImpactHigh, got[0].Impact)
	assert.Equal(t, 20000, got[0].EstimatedSaving)
}

func TestAnalyze_ExternalAndAdvanced(t *testing.T) {
	fn := gasparser.FunctionInfo{
		Name:            "getHash",
		Visibility:      "external",
		StateMutability: "view",
		SourceCode: `function getHash(bytes memory data) external view returns (bytes32) {
        return keccak256(data);
    }`,
	}
	got := Analyze(fn)
	assert.Equal(t, []string{"visibility", "patterns", "assembly"}, types(got))
}

func TestAnalyze_ReentrancyAndControlFlow(t *testing.T) {
	fn := gasparser.FunctionInfo{
		Name:            "withdraw",
		Visibility:      "internal",
		StateMutability: "nonpayable",
		SourceCode: `function withdraw(uint amount) internal {
        require(amount > 0);
        require(open);
        require(msg.sender != address(0) && amount < limit);
        (bool ok, ) = msg.sender.call("");
    }`,
	}
	got := Analyze(fn)
	assert.Contains(t, types(got), "security")
	assert.Contains(t, types(got), "control_flow")

	var requires Suggestion
	for _, s := range got {
		if s.Type == "control_flow" && s.Impact == ImpactMedium {
			requires = s
		}
	}
	assert.Equal(t, 3000, requires.EstimatedSaving)

	fn.SourceCode = "function withdraw() internal nonReentrant { to.call(\"\"); }"
	assert.NotContains(t, types(Analyze(fn)), "security")
}

func TestCalledInternally(t *testing.T) {
	assert.True(t, calledInternally("function fib(uint n) public returns (uint) { return fib(n-1); }", "fib"))
	assert.False(t, calledInternally("function fib(uint n) public returns (uint) { return n; }", "fib"))
	assert.False(t, calledInternally("function fibonacci() public { fib2(); }", "fib"))
	assert.False(t, calledInternally("anything()", ""))
}

func TestReusedLiteral(t *testing.T) {
	assert.True(t, reusedLiteral("uint x = 5; uint y = x + 1;"))
	assert.False(t, reusedLiteral("uint x = 5;\nuint y = x + 1;"))
	assert.False(t, reusedLiteral("uint x = y; uint z = x;"))
}

func TestDeduplicate(t *testing.T) {
	in := []Suggestion{
		{Message: "Use calldata for external parameters"},
		{Message: "Use calldata for external function parameters"},
		{Message: "Division is expensive"},
	}
	got := Deduplicate(in)
	require.Len(t, got, 2)
	assert.Equal(t, in[0].Message, got[0].Message)
	assert.Equal(t, in[2].Message, got[1].Message)

	assert.Empty(t, Deduplicate(nil))
}

func TestSimilar(t *testing.T) {
	assert.True(t, similar("Cache array length before loop", "cache the array length before the loop"))
	assert.False(t, similar("Cache array length", "Use unchecked increments"))
	assert.False(t, similar("", ""))
}

func TestRank(t *testing.T) {
	in := []Suggestion{
		{Message: "a", Impact: ImpactLow, Confidence: 0.9},
		{Message: "b", Impact: ImpactHigh, Confidence: 0.5},
		{Message: "c", Impact: ImpactMedium, Confidence: 0.75},
		{Message: "d", Impact: ImpactMedium, Confidence: 0.9},
	}
	got := Rank(in)
	msgs := make([]string, len(got))
	for i, s := range got {
		msgs[i] = s.Message
	}
	assert.Equal(t, []string{"d", "b", "c", "a"}, msgs)
	assert.Equal(t, "a", in[0].Message, "input is not reordered")
}

func TestImpactWeight(t *testing.T) {
	assert.Equal(t, 3, ImpactHigh.Weight())
	assert.Equal(t, 2, ImpactMedium.Weight())
	assert.Equal(t, 1, ImpactLow.Weight())
	assert.Equal(t, 1, Impact("").Weight())
}

func TestByImpactAndTop(t *testing.T) {
	in := []Suggestion{
		{Type: "x", Impact: ImpactLow, Confidence: 0.4},
		{Type: "y", Impact: ImpactHigh, Confidence: 0.8},
		{Type: "z", Impact: ImpactHigh, Confidence: 0.6},
	}
	groups := ByImpact(in)
	assert.Len(t, groups[ImpactHigh], 2)
	assert.Empty(t, groups[ImpactMedium])
	assert.Len(t, groups[ImpactLow], 1)

	top := Top(in, 2)
	assert.Equal(t, []string{"y", "z"}, types(top))
	assert.Len(t, Top(in, 10), 3)
}
