package static_analyzer

import (
	"context"
	"errors"
	"strings"

	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/logger"
	"github.com/VectorBits/GasGuardian/src/internal/rules"
)

// enrichFunction 计算选择器、实测 gas 排名与预计节省；额外来源的建议排在静态建议之后再去重
func enrichFunction(ctx context.Context, fn gasparser.FunctionInfo, config *AnalysisConfig) Function {
	suggestions := rules.Analyze(fn)
	if config.Suggestions != nil {
		extra, err := config.Suggestions.Suggest(ctx, fn)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("Extra suggestions for %s failed: %v", fn.Name, err)
		}
		suggestions = append(suggestions, extra...)
	}
	suggestions = rules.DeduplicateAndRank(suggestions)
	usage := config.GasData[strings.ToLower(fn.Name)]

	return Function{
		FunctionInfo:     fn,
		Signature:        fn.CanonicalSignature(),
		Selector:         fn.Selector(),
		PatternGas:       fn.EstimatedGas(),
		GasUsage:         usage,
		GasRank:          RankGas(usage),
		HasGasData:       usage > 0,
		Suggestions:      suggestions,
		PotentialSavings: PotentialSavings(suggestions, usage),
	}
}

// RankGas 按实测 gas 分级，0 表示没有数据
func RankGas(usage int) GasRank {
	switch {
	case usage <= 0:
		return GasRankUnknown
	case usage < 30000:
		return GasRankLow
	case usage < 100000:
		return GasRankMedium
	default:
		return GasRankHigh
	}
}

// PotentialSavings 有实测数据时按百分比估算 (15%/8%/3%)，否则按影响等级给固定值
func PotentialSavings(suggestions []rules.Suggestion, usage int) int {
	total := 0
	for _, s := range suggestions {
		if usage > 0 {
			switch s.Impact {
			case rules.ImpactHigh:
				total += usage * 15 / 100
			case rules.ImpactMedium:
				total += usage * 8 / 100
			case rules.ImpactLow:
				total += usage * 3 / 100
			default:
				total += 100
			}
			continue
		}

		switch s.Impact {
		case rules.ImpactHigh:
			total += 15000
		case rules.ImpactMedium:
			total += 5000
		case rules.ImpactLow:
			total += 1000
		default:
			total += 500
		}
	}
	return total
}
