package renderers

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/VectorBits/GasGuardian/src/internal/rules"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
)

type MarkdownRenderer struct{}

func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderSuggestion 单条建议渲染为列表项
func (r *MarkdownRenderer) RenderSuggestion(s rules.Suggestion) string {
	icon := getImpactIcon(s.Impact)
	line := fmt.Sprintf("- %s **[%s]** `%s` %s (confidence %.0f%%", icon, s.Impact, s.Type, s.Message, s.Confidence*100)
	if s.EstimatedSaving > 0 {
		line += fmt.Sprintf(", ~%s gas", humanize.Comma(int64(s.EstimatedSaving)))
	}
	return line + ")"
}

// RenderFunction 渲染函数详情：签名、检测到的模式和建议
func (r *MarkdownRenderer) RenderFunction(fn static_analyzer.Function) string {
	var result strings.Builder

	result.WriteString(fmt.Sprintf("#### `%s` %s\n\n", fn.Signature, fn.Selector))
	result.WriteString(fmt.Sprintf("- **Line**: %d\n", fn.StartLine))
	result.WriteString(fmt.Sprintf("- **Visibility**: %s / %s\n", fn.Visibility, fn.StateMutability))
	result.WriteString(fmt.Sprintf("- **Complexity**: %d\n", fn.ComplexityScore))
	result.WriteString(fmt.Sprintf("- **Pattern Gas Estimate**: %s\n\n", humanize.Comma(int64(fn.PatternGas))))

	if len(fn.Patterns) > 0 {
		result.WriteString("| Pattern | Estimated Gas | Suggestion |\n")
		result.WriteString("|---------|---------------|------------|\n")
		for _, p := range fn.Patterns {
			result.WriteString(fmt.Sprintf("| %s | %s | %s |\n", p.Kind, humanize.Comma(int64(p.EstimatedGas)), escapeCell(p.Suggestion)))
		}
		result.WriteString("\n")
	}

	if len(fn.Suggestions) > 0 {
		for _, s := range fn.Suggestions {
			result.WriteString(r.RenderSuggestion(s) + "\n")
		}
		result.WriteString("\n")
	}

	return result.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

func getImpactIcon(impact rules.Impact) string {
	switch impact {
	case rules.ImpactHigh:
		return "🔴"
	case rules.ImpactMedium:
		return "🟡"
	case rules.ImpactLow:
		return "🟢"
	default:
		return "⚪"
	}
}
