package rules

import (
	"regexp"
	"strings"

	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
)

var (
	storageWritePattern = regexp.MustCompile(`\w+\s*=\s*[^=!<>]|\w+\[\w*\]\s*=`)
	storageReadPattern  = regexp.MustCompile(`\w+\[[\w\s]*\]`)
	defaultInitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\w+\s*=\s*0[^x\w]`),
		regexp.MustCompile(`\w+\s*=\s*false`),
		regexp.MustCompile(`\w+\s*=\s*""`),
	}
	nestedLoopPattern = regexp.MustCompile(`for\s*\([^}]*for\s*\(`)
	literalAssignment = regexp.MustCompile(`\b(\w+)\s*=\s*[\d"'][^;]*;`)
	requireCall       = regexp.MustCompile(`require\s*\(`)
	elseIfPattern     = regexp.MustCompile(`\belse\s+if\b`)

	stateChangePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\w+\s*=\s*[^=!<>]`),
		regexp.MustCompile(`\w+\[\w*\]\s*=`),
		regexp.MustCompile(`emit\s+\w+`),
		regexp.MustCompile(`\.transfer\(`),
		regexp.MustCompile(`\.call\(`),
		regexp.MustCompile(`\.delegatecall\(`),
		regexp.MustCompile(`\.send\(`),
		regexp.MustCompile(`selfdestruct\(`),
		regexp.MustCompile(`require\(`),
		regexp.MustCompile(`assert\(`),
		regexp.MustCompile(`revert\(`),
		regexp.MustCompile(`delete\s+\w+`),
		regexp.MustCompile(`\.push\(`),
		regexp.MustCompile(`\.pop\(`),
	}

	stateReadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bmsg\.`),
		regexp.MustCompile(`\btx\.`),
		regexp.MustCompile(`\bblock\.`),
		regexp.MustCompile(`\baddress\(this\)`),
		regexp.MustCompile(`\bbalance`),
		regexp.MustCompile(`\w+\[\w*\]`),
		regexp.MustCompile(`\w+\.call`),
		regexp.MustCompile(`keccak256\(`),
		regexp.MustCompile(`ecrecover\(`),
	}
)

// checker 一组相关规则，命中时向 out 追加建议
type checker func(fn gasparser.FunctionInfo, code string, out *[]Suggestion)

// checkers 按固定顺序执行
var checkers = []checker{
	checkStorage,
	checkLoops,
	checkVisibility,
	checkMutability,
	checkExpensiveOperations,
	checkVariables,
	checkControlFlow,
	checkAdvancedPatterns,
}

// Analyze 对单个函数运行全部静态规则，返回未去重、未排序的建议
func Analyze(fn gasparser.FunctionInfo) []Suggestion {
	suggestions := []Suggestion{}
	for _, check := range checkers {
		check(fn, fn.SourceCode, &suggestions)
	}
	return suggestions
}

func add(out *[]Suggestion, kind, message string, confidence float64, impact Impact, saving int) {
	*out = append(*out, Suggestion{
		Type:            kind,
		Message:         message,
		Confidence:      confidence,
		Impact:          impact,
		Source:          SourceStatic,
		EstimatedSaving: saving,
	})
}

func checkStorage(fn gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if fn.HasPattern(gasparser.PatternStorageWrite) {
		if writes := len(storageWritePattern.FindAllStringIndex(code, -1)); writes > 3 {
			add(out, "storage",
				"Multiple storage writes detected. Consider batching operations or using memory for intermediate calculations.",
				0.8, ImpactHigh, writes*5000)
		}
	}

	if reads := len(storageReadPattern.FindAllStringIndex(code, -1)); reads > 2 {
		add(out, "storage",
			"Multiple storage reads detected. Cache storage values in memory variables.",
			0.7, ImpactMedium, (reads-1)*2100)
	}

	if strings.Contains(code, "struct") && strings.Contains(code, "uint256") {
		add(out, "storage",
			"Consider packing struct variables to use fewer storage slots (uint128 instead of uint256 when possible).",
			0.6, ImpactHigh, 20000)
	}

	for _, p := range defaultInitPatterns {
		if p.MatchString(code) {
			add(out, "storage",
				`Avoid explicit initialization to default values (0, false, "") to save gas.`,
				0.9, ImpactLow, 2000)
			break
		}
	}
}

func checkLoops(fn gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if !fn.HasPattern(gasparser.PatternLoop) {
		return
	}

	add(out, "loop",
		"Loop detected. Consider using unchecked arithmetic for counters and caching array length.",
		0.9, ImpactMedium, 5000)

	if strings.Contains(code, ".length") && (strings.Contains(code, "for") || strings.Contains(code, "while")) {
		add(out, "loop",
			"Cache array length before loop: uint256 len = array.length; for(uint256 i = 0; i < len;)",
			0.85, ImpactMedium, 3000)
	}

	if strings.Contains(code, "++") || strings.Contains(code, "i + 1") {
		add(out, "loop",
			"Use unchecked{++i} for loop increments when overflow is impossible.",
			0.9, ImpactMedium, 2500)
	}

	if nestedLoopPattern.MatchString(code) {
		add(out, "loop",
			"Nested loops detected. Consider alternative algorithms or breaking into separate functions.",
			0.7, ImpactHigh, 10000)
	}
}

func checkVisibility(fn gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if fn.Visibility == "public" && !calledInternally(code, fn.Name) {
		add(out, "visibility",
			`Consider using "external" instead of "public" if function is only called externally.`,
			0.6, ImpactLow, 1000)
	}

	if fn.Visibility == "external" && strings.Contains(code, "memory") && !strings.Contains(code, "calldata") {
		add(out, "visibility",
			`Use "calldata" instead of "memory" for external function parameters.`,
			0.8, ImpactMedium, 3000)
	}
}

func checkMutability(fn gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if fn.StateMutability != gasparser.DefaultStateMutability ||
		anyMatch(stateChangePatterns, code) ||
		fn.HasPattern(gasparser.PatternStorageWrite) {
		return
	}

	message := `Function appears to be read-only. Consider marking as "view".`
	if !anyMatch(stateReadPatterns, code) {
		message = `Function appears to be pure (no state reading). Consider marking as "pure".`
	}
	add(out, "mutability", message, 0.5, ImpactLow, 500)
}

func checkExpensiveOperations(_ gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if strings.Contains(code, "/") && !strings.Contains(code, "//") {
		add(out, "arithmetic",
			"Division operations are expensive. Consider using bit shifting for powers of 2.",
			0.6, ImpactMedium, 1500)
	}

	if strings.Contains(code, "%") {
		add(out, "arithmetic",
			"Modulo operations are expensive. Consider using bitwise AND for powers of 2.",
			0.6, ImpactMedium, 1200)
	}

	if strings.Contains(code, "string") && (strings.Contains(code, "concat") || strings.Contains(code, "+")) {
		add(out, "string",
			"String concatenation is gas-expensive. Consider using bytes or assembly.",
			0.7, ImpactHigh, 8000)
	}

	if strings.Contains(code, ".push(") || strings.Contains(code, ".pop()") {
		add(out, "array",
			"Dynamic array operations are expensive. Consider using fixed-size arrays when possible.",
			0.5, ImpactMedium, 4000)
	}
}

func checkVariables(_ gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if strings.Contains(code, "uint256") && strings.Contains(code, "< 256") {
		add(out, "types",
			"Consider using uint8 or uint16 for small values to save gas in structs.",
			0.4, ImpactLow, 1000)
	}

	if reusedLiteral(code) && !strings.Contains(code, "constant") {
		add(out, "constants",
			`Consider marking unchanging values as "constant" or "immutable".`,
			0.6, ImpactMedium, 2000)
	}

	if strings.Contains(code, "uint256 i = 0") {
		add(out, "variables",
			"Avoid explicit initialization of loop counters to 0 (default value).",
			0.8, ImpactLow, 500)
	}
}

func checkControlFlow(_ gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if n := len(requireCall.FindAllStringIndex(code, -1)); n > 2 {
		add(out, "control_flow",
			"Multiple require statements detected. Consider custom errors and early returns.",
			0.7, ImpactMedium, n*1000)
	}

	if strings.Contains(code, "&&") || strings.Contains(code, "||") {
		add(out, "control_flow",
			"Optimize boolean operations by placing cheaper conditions first.",
			0.5, ImpactLow, 500)
	}

	if len(elseIfPattern.FindAllStringIndex(code, -1)) > 3 {
		add(out, "control_flow",
			"Consider using mapping-based lookup instead of long if-else chains.",
			0.6, ImpactMedium, 3000)
	}
}

func checkAdvancedPatterns(fn gasparser.FunctionInfo, code string, out *[]Suggestion) {
	if strings.Contains(code, ".call(") && !strings.Contains(code, "nonReentrant") {
		add(out, "security",
			"External call detected. Consider reentrancy protection and checks-effects-interactions pattern.",
			0.8, ImpactHigh, 0)
	}

	if strings.Contains(code, "emit") && strings.Contains(code, "string") {
		add(out, "events",
			"Avoid emitting strings in events. Use indexed parameters and bytes32 when possible.",
			0.7, ImpactMedium, 5000)
	}

	if strings.Contains(fn.Name, "get") && strings.Contains(code, "return") {
		add(out, "patterns",
			`Getter functions should be marked as "view" and consider using public variables instead.`,
			0.6, ImpactLow, 1000)
	}

	if strings.Contains(code, "keccak256") || strings.Contains(code, "sha256") {
		add(out, "assembly",
			"Consider using inline assembly for hash operations to save gas.",
			0.4, ImpactMedium, 2000)
	}
}

// calledInternally 函数名以调用形式出现多于一次（定义本身算一次）
func calledInternally(code, name string) bool {
	if name == "" {
		return false
	}
	call := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
	return len(call.FindAllStringIndex(code, -1)) > 1
}

// reusedLiteral 某变量被赋予字面量后，在同一行后续位置再次被引用
func reusedLiteral(code string) bool {
	for _, m := range literalAssignment.FindAllStringSubmatchIndex(code, -1) {
		name := code[m[2]:m[3]]
		rest := code[m[1]:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		ref := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		if ref.MatchString(rest) {
			return true
		}
	}
	return false
}

func anyMatch(patterns []*regexp.Regexp, code string) bool {
	for _, p := range patterns {
		if p.MatchString(code) {
			return true
		}
	}
	return false
}
