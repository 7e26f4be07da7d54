package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/VectorBits/GasGuardian/src/internal/report/renderers"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
)

const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

type Report struct {
	Framework string
	ScanTime  time.Time
	Result    *static_analyzer.BatchResult
}

type Generator interface {
	Generate(report *Report) (string, error)
	// Extension 报告文件扩展名（不含点）
	Extension() string
}

// NewGenerator 按格式名创建生成器
func NewGenerator(format string) (Generator, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md", "":
		return NewMarkdownGenerator(), nil
	case FormatJSON:
		return NewJSONGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s (supported: markdown, json)", format)
	}
}

type MarkdownGenerator struct {
	renderer *renderers.MarkdownRenderer
}

func NewMarkdownGenerator() *MarkdownGenerator {
	return &MarkdownGenerator{renderer: renderers.NewMarkdownRenderer()}
}

func (g *MarkdownGenerator) Extension() string { return "md" }

// Generate 生成 markdown 报告
func (g *MarkdownGenerator) Generate(report *Report) (string, error) {
	if report == nil || report.Result == nil {
		return "", fmt.Errorf("report has no analysis result")
	}
	var b strings.Builder
	summary := report.Result.Summary

	// 报告头部
	b.WriteString("# Gas Guardian Analysis Report\n\n")
	b.WriteString(fmt.Sprintf("**Scan Time**: %s\n\n", report.ScanTime.Format("2006-01-02 15:04:05")))

	// 汇总
	b.WriteString("## Summary\n")
	b.WriteString(fmt.Sprintf("- **Framework**: %s\n", report.Framework))
	b.WriteString(fmt.Sprintf("- **Contracts**: %d\n", summary.TotalContracts))
	b.WriteString(fmt.Sprintf("- **Functions**: %d\n", summary.TotalFunctions))
	b.WriteString(fmt.Sprintf("- **Total Gas Usage**: %s\n", humanize.Comma(int64(summary.TotalGasUsage))))
	b.WriteString(fmt.Sprintf("- **Potential Savings**: %s gas (%d%%)\n",
		humanize.Comma(int64(summary.TotalPotentialSavings)), summary.PotentialSavingsPercentage))
	b.WriteString(fmt.Sprintf("- **Gas Data Coverage**: %d%%\n\n", summary.GasDataCoverage))

	for i, contract := range report.Result.Contracts {
		b.WriteString(fmt.Sprintf("## Contract: %s\n\n", contract.Name))
		if contract.Path != "" {
			b.WriteString(fmt.Sprintf("- **File**: `%s`\n", contract.Path))
		}
		if contract.PragmaVersion != "" {
			b.WriteString(fmt.Sprintf("- **Solidity**: %s\n", contract.PragmaVersion))
		}
		b.WriteString(fmt.Sprintf("- **Functions**: %d\n", len(contract.Functions)))
		b.WriteString(fmt.Sprintf("- **Lines**: %d\n", contract.TotalLines))
		b.WriteString(fmt.Sprintf("- **Gas Data Available**: %s\n\n", yesNo(contract.GasDataAvailable)))

		if len(contract.Functions) > 0 {
			b.WriteString("### Functions\n\n")
			b.WriteString("| Function | Gas Usage | Rank | Suggestions | Potential Savings |\n")
			b.WriteString("|----------|-----------|------|-------------|------------------|\n")
			for _, fn := range contract.Functions {
				gasUsage := "N/A"
				if fn.GasUsage > 0 {
					gasUsage = humanize.Comma(int64(fn.GasUsage))
				}
				b.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
					fn.Name, gasUsage, fn.GasRank, len(fn.Suggestions), humanize.Comma(int64(fn.PotentialSavings))))
			}
			b.WriteString("\n")

			b.WriteString("### Details\n\n")
			for _, fn := range contract.Functions {
				b.WriteString(g.renderer.RenderFunction(fn))
			}
		}

		// 如果不是最后一个结果，添加分隔线
		if i < len(report.Result.Contracts)-1 {
			b.WriteString("---\n\n")
		}
	}

	return b.String(), nil
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// JSONGenerator 输出缩进的 JSON 批量结果
type JSONGenerator struct{}

func NewJSONGenerator() *JSONGenerator {
	return &JSONGenerator{}
}

func (g *JSONGenerator) Extension() string { return "json" }

func (g *JSONGenerator) Generate(report *Report) (string, error) {
	if report == nil || report.Result == nil {
		return "", fmt.Errorf("report has no analysis result")
	}
	payload := struct {
		*static_analyzer.BatchResult
		Framework string `json:"framework"`
	}{report.Result, report.Framework}

	bs, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(bs) + "\n", nil
}
