package static_analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/rules"
	"github.com/VectorBits/GasGuardian/src/internal/solc"
)

const bankSource = `pragma solidity ^0.8.20;

contract Bank {
    address public owner;
    event Deposited(address who);

    function deposit() external payable {
        balances[msg.sender] = balances[msg.sender] + msg.value;
    }

    function total() public view returns (uint256) {
        return 1;
    }
}`

func TestNewAnalyzer(t *testing.T) {
	a, err := NewAnalyzer(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &regexAnalyzer{}, a)

	a, err = NewAnalyzer(AnalyzerConfig{Backend: BackendRegex, Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &NoOpAnalyzer{}, a)

	a, err = NewAnalyzer(AnalyzerConfig{Backend: BackendNoOp, Enabled: true})
	require.NoError(t, err)
	assert.IsType(t, &NoOpAnalyzer{}, a)

	_, err = NewAnalyzer(AnalyzerConfig{Backend: "slither", Enabled: true})
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestAnalyzeContract(t *testing.T) {
	a := &regexAnalyzer{}
	result, err := a.AnalyzeContract(context.Background(), bankSource, &AnalysisConfig{
		Path:    "Bank.sol",
		GasData: map[string]int{"deposit": 45000},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bank", result.Name)
	assert.Equal(t, "Bank.sol", result.Path)
	assert.Equal(t, "0.8.20", result.PragmaVersion)
	assert.True(t, strings.HasPrefix(result.SourceHash, "0x"))
	assert.Len(t, result.SourceHash, 66)
	assert.Equal(t, []StateVariable{{Name: "owner", Type: "address"}, {Name: "who", Type: "address"}}, result.StateVariables)
	assert.Equal(t, []string{"Deposited"}, result.Events)
	require.Len(t, result.Functions, 2)

	deposit := result.Functions[0]
	assert.Equal(t, "deposit", deposit.Name)
	assert.Equal(t, "deposit()", deposit.Signature)
	assert.Equal(t, "0xd0e30db0", deposit.Selector)
	assert.Equal(t, 20000, deposit.PatternGas)
	assert.Equal(t, 45000, deposit.GasUsage)
	assert.Equal(t, GasRankMedium, deposit.GasRank)
	assert.True(t, deposit.HasGasData)
	assert.Empty(t, deposit.Suggestions)
	assert.Zero(t, deposit.PotentialSavings)

	total := result.Functions[1]
	assert.Equal(t, GasRankUnknown, total.GasRank)
	assert.False(t, total.HasGasData)
	require.Len(t, total.Suggestions, 1)
	assert.Equal(t, "visibility", total.Suggestions[0].Type)
	assert.Equal(t, 1000, total.PotentialSavings)

	assert.Equal(t, 20000, result.TotalPatternGas)
	assert.Equal(t, 45000, result.TotalGasUsage)
	assert.Equal(t, 1000, result.TotalPotentialSavings)
	assert.True(t, result.GasDataAvailable)
}

func TestAnalyzeContract_Names(t *testing.T) {
	a := &regexAnalyzer{}
	ctx := context.Background()

	result, err := a.AnalyzeContract(ctx, solc.AttachMetadata(bankSource, "Vault"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Vault", result.Name)

	result, err = a.AnalyzeContract(ctx, bankSource, &AnalysisConfig{ContractName: "Override"})
	require.NoError(t, err)
	assert.Equal(t, "Override", result.Name)
}

func TestAnalyzeContract_InvalidContract(t *testing.T) {
	a := &regexAnalyzer{}
	result, err := a.AnalyzeContract(context.Background(), "hello\nworld", &AnalysisConfig{Path: "notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, InvalidContractName, result.Name)
	assert.Equal(t, 2, result.TotalLines)
	assert.Empty(t, result.Functions)
	assert.NotNil(t, result.Functions)

	result, err = a.AnalyzeContract(context.Background(), "library Math { }", nil)
	require.NoError(t, err)
	assert.Equal(t, gasparser.DefaultContractName, result.Name)
}

func TestAnalyzeContract_StripLibraries(t *testing.T) {
	source := `// File: @openzeppelin/contracts/utils/Context.sol
contract Context {
    function _msgSender() internal view returns (address) { return msg.sender; }
}

// File: contracts/Bank.sol
` + bankSource

	a := &regexAnalyzer{}
	full, err := a.AnalyzeContract(context.Background(), source, nil)
	require.NoError(t, err)
	assert.Len(t, full.Functions, 3)

	stripped, err := a.AnalyzeContract(context.Background(), source, &AnalysisConfig{StripLibraries: true})
	require.NoError(t, err)
	assert.Equal(t, "Bank", stripped.Name)
	assert.Len(t, stripped.Functions, 2)
}

func TestAnalyzeContract_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&regexAnalyzer{}).AnalyzeContract(ctx, bankSource, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetHelpers(t *testing.T) {
	a := &regexAnalyzer{}
	vars, err := a.GetStateVariables(context.Background(), bankSource)
	require.NoError(t, err)
	assert.Len(t, vars, 2)

	fns, err := a.GetFunctions(context.Background(), bankSource)
	require.NoError(t, err)
	assert.Len(t, fns, 2)

	noop := NewNoOpAnalyzer()
	fns, err = noop.GetFunctions(context.Background(), bankSource)
	require.NoError(t, err)
	assert.Empty(t, fns)
	assert.NoError(t, noop.Close())
}

func TestRankGas(t *testing.T) {
	tests := []struct {
		usage int
		want  GasRank
	}{
		{0, GasRankUnknown},
		{1, GasRankLow},
		{29999, GasRankLow},
		{30000, GasRankMedium},
		{99999, GasRankMedium},
		{100000, GasRankHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RankGas(tt.usage), tt.usage)
	}
}

func TestPotentialSavings(t *testing.T) {
	suggestions := []rules.Suggestion{
		{Impact: rules.ImpactHigh},
		{Impact: rules.ImpactMedium},
		{Impact: rules.ImpactLow},
		{Impact: ""},
	}
	assert.Equal(t, 15000+5000+1000+500, PotentialSavings(suggestions, 0))
	assert.Equal(t, 15000+8000+3000+100, PotentialSavings(suggestions, 100000))
	assert.Equal(t, 4999, PotentialSavings(suggestions[:1], 33333))
	assert.Zero(t, PotentialSavings(nil, 100000))
}

type stubSuggestions struct {
	byFunction map[string][]rules.Suggestion
	err        error
}

func (s *stubSuggestions) Suggest(_ context.Context, fn gasparser.FunctionInfo) ([]rules.Suggestion, error) {
	return s.byFunction[fn.Name], s.err
}

func TestAnalyzeContract_ExtraSuggestionsMergedBeforeRanking(t *testing.T) {
	extra := &stubSuggestions{byFunction: map[string][]rules.Suggestion{
		"total": {
			{Type: "ai_generated", Message: `Consider using "external" instead of "public" if function is only called externally.`, Confidence: 0.8, Impact: rules.ImpactLow, Source: rules.SourceLLM},
			{Type: "ai_generated", Message: "Cache storage reads in memory variables to avoid repeated SLOAD operations.", Confidence: 0.8, Impact: rules.ImpactHigh, Source: rules.SourceLLM},
		},
	}}

	result, err := (&regexAnalyzer{}).AnalyzeContract(context.Background(), bankSource, &AnalysisConfig{Suggestions: extra})
	require.NoError(t, err)

	total := result.Functions[1]
	require.Len(t, total.Suggestions, 2)
	assert.Equal(t, rules.SourceLLM, total.Suggestions[0].Source)
	assert.Equal(t, rules.ImpactHigh, total.Suggestions[0].Impact)
	// 与静态建议重复的那条被去掉，保留先出现的静态建议
	assert.Equal(t, rules.SourceStatic, total.Suggestions[1].Source)
	assert.Equal(t, 16000, total.PotentialSavings)
}

func TestAnalyzeContract_ExtraSuggestionsFailureKeepsStatic(t *testing.T) {
	extra := &stubSuggestions{err: assert.AnError}

	result, err := (&regexAnalyzer{}).AnalyzeContract(context.Background(), bankSource, &AnalysisConfig{Suggestions: extra})
	require.NoError(t, err)
	require.Len(t, result.Functions[1].Suggestions, 1)
	assert.Equal(t, rules.SourceStatic, result.Functions[1].Suggestions[0].Source)
}
