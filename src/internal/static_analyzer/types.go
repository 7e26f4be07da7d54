package static_analyzer

import (
	"context"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/rules"
)

// InvalidContractName 不含 contract/interface/library 关键字的文件使用的占位名
const InvalidContractName = "InvalidContract"

type GasRank string

const (
	GasRankUnknown GasRank = "unknown"
	GasRankLow     GasRank = "low"
	GasRankMedium  GasRank = "medium"
	GasRankHigh    GasRank = "high"
)

type AnalysisResult struct {
	Path                  string          `json:"path,omitempty"`
	Name                  string          `json:"name"`
	PragmaVersion         string          `json:"pragmaVersion,omitempty"`
	SourceHash            string          `json:"sourceHash"`
	TotalLines            int             `json:"totalLines"`
	StateVariables        []StateVariable `json:"stateVariables"`
	Events                []string        `json:"events"`
	Functions             []Function      `json:"functions"`
	TotalPatternGas       int             `json:"totalPatternGas"`
	TotalGasUsage         int             `json:"totalGasUsage"`
	TotalPotentialSavings int             `json:"totalPotentialSavings"`
	GasDataAvailable      bool            `json:"gasDataAvailable"`
	AnalysisTimestamp     time.Time       `json:"analysisTimestamp"`
}

type StateVariable struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Function 在解析结果基础上附加选择器、实测 gas 和优化建议
type Function struct {
	gasparser.FunctionInfo
	Signature        string             `json:"signature"`
	Selector         string             `json:"selector"`
	PatternGas       int                `json:"patternGas"`
	GasUsage         int                `json:"gasUsage"`
	GasRank          GasRank            `json:"gasRank"`
	HasGasData       bool               `json:"hasGasData"`
	Suggestions      []rules.Suggestion `json:"suggestions"`
	PotentialSavings int                `json:"potentialSavings"`
}

type AnalysisConfig struct {
	Path           string         `json:"path"`
	ContractName   string         `json:"contract_name"`   // 非空时覆盖解析出的合约名
	GasData        map[string]int `json:"gas_data"`        // 小写函数名 -> 实测 gas
	StripLibraries bool           `json:"strip_libraries"` // 分析前删除扁平化源码中的库代码
	// Suggestions 可选的额外建议来源（如 LLM）
	Suggestions SuggestionSource `json:"-"`
}

// SuggestionSource 为单个函数提供额外建议；出错时调用方只告警，保留静态规则结果
type SuggestionSource interface {
	Suggest(ctx context.Context, fn gasparser.FunctionInfo) ([]rules.Suggestion, error)
}

// BatchResult 多文件分析结果
type BatchResult struct {
	Contracts []*AnalysisResult `json:"contracts"`
	Summary   Summary           `json:"summary"`
	Timestamp time.Time         `json:"timestamp"`
}

type Summary struct {
	TotalContracts             int `json:"totalContracts"`
	TotalFunctions             int `json:"totalFunctions"`
	TotalGasUsage              int `json:"totalGasUsage"`
	TotalPotentialSavings      int `json:"totalPotentialSavings"`
	ContractsWithGasData       int `json:"contractsWithGasData"`
	GasDataCoverage            int `json:"gasDataCoverage"`
	AverageGasPerFunction      int `json:"averageGasPerFunction"`
	PotentialSavingsPercentage int `json:"potentialSavingsPercentage"`
}
