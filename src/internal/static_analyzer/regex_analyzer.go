package static_analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/VectorBits/GasGuardian/src/internal/cleaner"
	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/logger"
	"github.com/VectorBits/GasGuardian/src/internal/solc"
)

// regexAnalyzer 基于 gasparser 正则引擎的后端，无外部进程依赖
type regexAnalyzer struct{}

func (a *regexAnalyzer) AnalyzeContract(ctx context.Context, code string, config *AnalysisConfig) (*AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config == nil {
		config = &AnalysisConfig{}
	}

	code, meta := solc.DetachMetadata(code)
	if config.StripLibraries {
		code = cleaner.StripLibraries(code)
	}

	if !looksLikeSolidity(code) {
		logger.Warn("%s doesn't appear to contain valid Solidity code", displayName(config.Path))
		result := emptyResult(code)
		result.Path = config.Path
		result.Name = InvalidContractName
		return result, nil
	}

	report, err := gasparser.Analyze(code)
	if err != nil {
		return nil, fmt.Errorf("invalid Solidity syntax in %s: %w", displayName(config.Path), err)
	}

	result := emptyResult(code)
	result.Path = config.Path
	result.Name = report.Name
	result.PragmaVersion = solc.ExtractPragmaVersion(code)
	result.TotalLines = report.TotalLines
	result.Events = report.Events
	if meta != nil && meta.ContractName != "" {
		result.Name = meta.ContractName
	}
	if config.ContractName != "" {
		result.Name = config.ContractName
	}
	for _, decl := range gasparser.StateVariableDecls(code) {
		result.StateVariables = append(result.StateVariables, StateVariable{Name: decl.Name, Type: decl.Type})
	}

	for _, fn := range report.Functions {
		enriched := enrichFunction(ctx, fn, config)
		logger.Debug("Function: %s -> gas usage %d, %d suggestions", fn.Name, enriched.GasUsage, len(enriched.Suggestions))

		result.Functions = append(result.Functions, enriched)
		result.TotalPatternGas += enriched.PatternGas
		result.TotalGasUsage += enriched.GasUsage
		result.TotalPotentialSavings += enriched.PotentialSavings
	}
	result.GasDataAvailable = result.TotalGasUsage > 0

	return result, nil
}

func (a *regexAnalyzer) GetStateVariables(ctx context.Context, code string) ([]StateVariable, error) {
	return GetStateVariables(a, ctx, code)
}

func (a *regexAnalyzer) GetFunctions(ctx context.Context, code string) ([]Function, error) {
	return GetFunctions(a, ctx, code)
}

func (a *regexAnalyzer) Close() error {
	return nil
}

func emptyResult(code string) *AnalysisResult {
	return &AnalysisResult{
		Name:              gasparser.DefaultContractName,
		SourceHash:        crypto.Keccak256Hash([]byte(code)).Hex(),
		TotalLines:        strings.Count(code, "\n") + 1,
		StateVariables:    []StateVariable{},
		Events:            []string{},
		Functions:         []Function{},
		AnalysisTimestamp: time.Now().UTC(),
	}
}

// looksLikeSolidity 源码至少包含 contract、interface 或 library 之一
func looksLikeSolidity(code string) bool {
	return strings.Contains(code, "contract") ||
		strings.Contains(code, "interface") ||
		strings.Contains(code, "library")
}

func displayName(path string) string {
	if path == "" {
		return "<source>"
	}
	return path
}
