package gasparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPatterns(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[PatternKind]int
	}{
		{
			name: "no findings",
			body: "function f() public pure returns (uint) { return 1; }",
			want: map[PatternKind]int{},
		},
		{
			name: "while loop",
			body: "while (x < 3) { }",
			want: map[PatternKind]int{PatternLoop: 5000},
		},
		{
			name: "storage writes scale with count",
			body: "a = 1; b[2] = 3; c.d = 4;",
			want: map[PatternKind]int{PatternStorageWrite: 60000},
		},
		{
			name: "comparisons are not writes",
			body: "if (a == b) { } if (c <= d) { } if (e != f) { }",
			want: map[PatternKind]int{},
		},
		{
			name: "loop counter setup is not a storage write",
			body: "for (uint i = 0; i < n; i++) { sum = sum + i; }",
			want: map[PatternKind]int{PatternLoop: 5000, PatternStorageWrite: 20000},
		},
		{
			name: "validation scales with count",
			body: "require(a > 0); require (b > 0, \"b\");",
			want: map[PatternKind]int{PatternValidation: 1000},
		},
		{
			name: "delegatecall",
			body: "target.delegatecall(data);",
			want: map[PatternKind]int{PatternExternalCall: 2300},
		},
		{
			name: "pop",
			body: "items.pop();",
			want: map[PatternKind]int{PatternArrayOperation: 1000},
		},
		{
			name: "string cast",
			body: "return string(raw);",
			want: map[PatternKind]int{PatternStringOperation: 2000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := map[PatternKind]int{}
			for _, f := range DetectPatterns(tt.body) {
				got[f.Kind] = f.EstimatedGas
				assert.Equal(t, GasTable[f.Kind].Description, f.Description)
				assert.Equal(t, GasTable[f.Kind].Suggestion, f.Suggestion)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectPatterns_FixedOrder(t *testing.T) {
	body := `for (uint i; i < a.length; i++) {
        total = total + a[i];
        require(a[i] > 0);
        to.call(abi.encodePacked(i));
    }`
	findings := DetectPatterns(body)
	require.Len(t, findings, 6)
	assert.Equal(t, []PatternKind{
		PatternLoop,
		PatternStorageWrite,
		PatternValidation,
		PatternExternalCall,
		PatternArrayOperation,
		PatternStringOperation,
	}, kinds(findings))
	assert.Equal(t, 13, ComplexityScore(findings))
}

func TestGasTable(t *testing.T) {
	want := map[PatternKind]int{
		PatternLoop:            5000,
		PatternStorageWrite:    20000,
		PatternValidation:      500,
		PatternExternalCall:    2300,
		PatternArrayOperation:  1000,
		PatternStringOperation: 2000,
	}
	require.Len(t, GasTable, len(want))
	for kind, cost := range want {
		entry, ok := GasTable[kind]
		require.True(t, ok, kind)
		assert.Equal(t, cost, entry.BaseCost, kind)
		assert.NotEmpty(t, entry.Description, kind)
		assert.NotEmpty(t, entry.Suggestion, kind)
	}
}

func TestResolveSpan(t *testing.T) {
	source := "function f() { if (a) { b(); } } trailing"
	open := 13
	require.Equal(t, byte('{'), source[open])

	span, closed := resolveSpan(source, 0, open)
	assert.True(t, closed)
	assert.Equal(t, "function f() { if (a) { b(); } }", span)

	// braces inside string literals still count
	source = `function g() { s = "}"; t = 1; }`
	span, closed = resolveSpan(source, 0, 13)
	assert.True(t, closed)
	assert.Equal(t, `function g() { s = "}`, span)

	span, closed = resolveSpan("function h() { {", 0, 13)
	assert.False(t, closed)
	assert.Equal(t, "function h() { {", span)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "é漢", truncate("é漢字", 2))
	assert.Equal(t, "", truncate("", 5))
}

func TestSelector(t *testing.T) {
	tests := []struct {
		fn        FunctionInfo
		signature string
		selector  string
	}{
		{
			fn:        FunctionInfo{Name: "transfer", Parameters: []Parameter{{"address", "to"}, {"uint", "amount"}}},
			signature: "transfer(address,uint256)",
			selector:  "0xa9059cbb",
		},
		{
			fn:        FunctionInfo{Name: "balanceOf", Parameters: []Parameter{{"address", "owner"}}},
			signature: "balanceOf(address)",
			selector:  "0x70a08231",
		},
		{
			fn:        FunctionInfo{Name: "totalSupply"},
			signature: "totalSupply()",
			selector:  "0x18160ddd",
		},
		{
			fn:        FunctionInfo{Name: "batch", Parameters: []Parameter{{"int[]", "xs"}, {"byte", "b"}}},
			signature: "batch(int256[],bytes1)",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.signature, tt.fn.CanonicalSignature())
		if tt.selector != "" {
			assert.Equal(t, tt.selector, tt.fn.Selector())
		}
		assert.Len(t, tt.fn.Selector(), 10)
	}
}
