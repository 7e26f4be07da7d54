package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/VectorBits/GasGuardian/src/internal/rules"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
)

const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	Gray   = "\033[37m"
	Bold   = "\033[1m"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

func PrintBanner() {
	banner := `
  ____             ____                     _ _
 / ___| __ _ ___  / ___|_   _  __ _ _ __ __| (_) __ _ _ __
| |  _ / _` + "`" + ` / __|| |  _| | | |/ _` + "`" + ` | '__/ _` + "`" + ` | |/ _` + "`" + ` | '_ \
| |_| | (_| \__ \| |_| | |_| | (_| | | | (_| | | (_| | | | |
 \____|\__,_|___/ \____|\__,_|\__,_|_|  \__,_|_|\__,_|_| |_|
`
	fmt.Fprintln(out, Cyan+banner+Reset)
	fmt.Fprintln(out, Gray+"  v1.0.0 - Solidity Gas Analysis and Optimization Toolkit"+Reset)
	fmt.Fprintln(out)
}

func clearLine() {
	fmt.Fprint(out, "\r\033[K")
}

func LogSuccess(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	clearLine()
	fmt.Fprintf(out, Green+"[SUCCESS] "+Reset+format+"\n", a...)
}

func LogInfo(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	clearLine()
	fmt.Fprintf(out, Blue+"[INFO] "+Reset+format+"\n", a...)
}

func LogError(format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	clearLine()
	fmt.Fprintf(out, Red+"[ERROR] "+Reset+format+"\n", a...)
}

// PrintContractTable 控制台输出每个合约的函数表
func PrintContractTable(w io.Writer, result *static_analyzer.BatchResult) {
	for _, contract := range result.Contracts {
		fmt.Fprintf(w, "\n%s📄 %s%s (%d functions, %d lines)\n", Bold, contract.Name, Reset, len(contract.Functions), contract.TotalLines)
		if len(contract.Functions) == 0 {
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FUNCTION\tSELECTOR\tPATTERN GAS\tGAS USAGE\tRANK\tSUGGESTIONS\tSAVINGS")
		for _, fn := range contract.Functions {
			usage := "N/A"
			if fn.GasUsage > 0 {
				usage = humanize.Comma(int64(fn.GasUsage))
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
				fn.Name,
				fn.Selector,
				humanize.Comma(int64(fn.PatternGas)),
				usage,
				fn.GasRank,
				len(fn.Suggestions),
				humanize.Comma(int64(fn.PotentialSavings)),
			)
		}
		tw.Flush()
	}
}

func PrintStats(summary static_analyzer.Summary, duration time.Duration) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, Gray+strings.Repeat("─", 50)+Reset)
	fmt.Fprintf(out, "🏁 Analysis Completed in %s\n", duration.Round(time.Millisecond))
	fmt.Fprintf(out, "📊 Contracts: %d | Functions: %d | Gas Usage: %s | 💡 Potential Savings: %s gas (%d%%)\n",
		summary.TotalContracts,
		summary.TotalFunctions,
		humanize.Comma(int64(summary.TotalGasUsage)),
		humanize.Comma(int64(summary.TotalPotentialSavings)),
		summary.PotentialSavingsPercentage,
	)
	fmt.Fprintln(out, Gray+strings.Repeat("─", 50)+Reset)
}

var impactIcons = map[rules.Impact]string{
	rules.ImpactHigh:   "🔥",
	rules.ImpactMedium: "⚡",
	rules.ImpactLow:    "💡",
}

// PrintSuggestions 逐个函数列出排序后的优化建议，标注来源 (static / llm)
func PrintSuggestions(w io.Writer, result *static_analyzer.BatchResult) {
	for _, contract := range result.Contracts {
		fmt.Fprintf(w, "\n%s📄 %s%s (%s)\n", Bold, contract.Name, Reset, contract.Path)
		if len(contract.Functions) == 0 {
			fmt.Fprintln(w, "  No functions found")
			continue
		}

		for _, fn := range contract.Functions {
			fmt.Fprintf(w, "  🔍 %s%s%s  %s | complexity %d\n", Cyan, fn.Name, Reset, fn.Visibility, fn.ComplexityScore)
			if len(fn.Suggestions) == 0 {
				fmt.Fprintln(w, "     ✅ No optimization suggestions")
				continue
			}
			for _, s := range fn.Suggestions {
				icon, ok := impactIcons[s.Impact]
				if !ok {
					icon = impactIcons[rules.ImpactLow]
				}
				source := s.Source
				if source == "" {
					source = rules.SourceStatic
				}
				fmt.Fprintf(w, "     %s [%s] %s\n", icon, source, s.Message)
				detail := fmt.Sprintf("impact: %s | confidence: %.0f%%", s.Impact, s.Confidence*100)
				if s.EstimatedSaving > 0 {
					detail += " | est. saving: " + humanize.Comma(int64(s.EstimatedSaving)) + " gas"
				}
				fmt.Fprintf(w, "        %s%s%s\n", Gray, detail, Reset)
			}
		}
	}
}
