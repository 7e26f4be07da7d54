package static_analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VectorBits/GasGuardian/src/internal/cleaner"
	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/logger"
	"github.com/VectorBits/GasGuardian/src/internal/solc"
)

// BatchOptions 多文件分析参数
type BatchOptions struct {
	Concurrency    int
	StripLibraries bool
	GasData        map[string]int
	// GasCache 未给出 GasData 时按文件所在项目查找实测数据
	GasCache *GasDataCache
	// Suggestions 额外的建议来源，与静态规则合并后统一去重排序
	Suggestions SuggestionSource
	// OnFileDone 每个文件结束后回调，失败时 err 非空；因其它文件失败而取消的不回调。并发调用
	OnFileDone func(path string, err error)
}

// AnalyzeFiles 并发分析多个文件，结果顺序与输入一致
// 任一文件失败时取消剩余任务并返回第一个错误
func AnalyzeFiles(ctx context.Context, a Analyzer, paths []string, opts BatchOptions) (*BatchResult, error) {
	perFile := make([][]*AnalysisResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results, err := analyzeFile(gctx, a, path, opts)
			if opts.OnFileDone != nil && !errors.Is(err, context.Canceled) {
				opts.OnFileDone(path, err)
			}
			if err != nil {
				return err
			}
			perFile[i] = results
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var contracts []*AnalysisResult
	for _, results := range perFile {
		contracts = append(contracts, results...)
	}
	if contracts == nil {
		contracts = []*AnalysisResult{}
	}

	return &BatchResult{
		Contracts: contracts,
		Summary:   BuildSummary(contracts),
		Timestamp: time.Now().UTC(),
	}, nil
}

func analyzeFile(ctx context.Context, a Analyzer, path string, opts BatchOptions) ([]*AnalysisResult, error) {
	logger.Info("Analyzing contract: %s", filepath.Base(path))

	code, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	if opts.GasData == nil && opts.GasCache != nil {
		gasData, err := opts.GasCache.ForContract(ctx, path)
		if err != nil {
			logger.Warn("Failed to load gas data for %s: %v", path, err)
		}
		opts.GasData = gasData
	}
	results, err := AnalyzeSource(ctx, a, path, code, opts)
	if err != nil {
		return nil, fmt.Errorf("contract analysis failed: %w", err)
	}
	return results, nil
}

// AnalyzeSource 分析一个文件的内容；标准 JSON 输入会拆分为多个源文件逐个分析
func AnalyzeSource(ctx context.Context, a Analyzer, path, code string, opts BatchOptions) ([]*AnalysisResult, error) {
	if !solc.IsJSONSource(code) {
		result, err := a.AnalyzeContract(ctx, code, &AnalysisConfig{
			Path:           path,
			GasData:        opts.GasData,
			StripLibraries: opts.StripLibraries,
			Suggestions:    opts.Suggestions,
		})
		if err != nil {
			return nil, err
		}
		return []*AnalysisResult{result}, nil
	}

	sources, err := solc.SplitJSONSources(code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if opts.StripLibraries {
		sources = cleaner.StripLibrarySources(sources)
	}

	results := make([]*AnalysisResult, 0, len(sources))
	for _, src := range sources {
		result, err := a.AnalyzeContract(ctx, src.Content, &AnalysisConfig{
			Path:        path + ":" + src.Path,
			GasData:     opts.GasData,
			Suggestions: opts.Suggestions,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// ReadSource 读取合约文件并校验其为 UTF-8 文本
func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	if err := gasparser.ValidateSource(data); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return string(data), nil
}

// BuildSummary 汇总多个合约的分析结果，百分比四舍五入为整数
func BuildSummary(results []*AnalysisResult) Summary {
	var s Summary
	s.TotalContracts = len(results)
	for _, r := range results {
		s.TotalFunctions += len(r.Functions)
		s.TotalGasUsage += r.TotalGasUsage
		s.TotalPotentialSavings += r.TotalPotentialSavings
		if r.GasDataAvailable {
			s.ContractsWithGasData++
		}
	}

	if s.TotalContracts > 0 {
		s.GasDataCoverage = roundRatio(s.ContractsWithGasData*100, s.TotalContracts)
	}
	if s.TotalFunctions > 0 {
		s.AverageGasPerFunction = roundRatio(s.TotalGasUsage, s.TotalFunctions)
	}
	if s.TotalGasUsage > 0 {
		s.PotentialSavingsPercentage = roundRatio(s.TotalPotentialSavings*100, s.TotalGasUsage)
	}
	return s
}

func roundRatio(num, den int) int {
	return int(math.Round(float64(num) / float64(den)))
}
