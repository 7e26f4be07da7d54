package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/VectorBits/GasGuardian/src/internal/ai"
	"github.com/VectorBits/GasGuardian/src/internal/config"
	"github.com/VectorBits/GasGuardian/src/internal/dbutil"
	"github.com/VectorBits/GasGuardian/src/internal/gasparser"
	"github.com/VectorBits/GasGuardian/src/internal/logger"
	"github.com/VectorBits/GasGuardian/src/internal/report"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
	"github.com/VectorBits/GasGuardian/src/internal/ui"
)

// 报告与表格写到 stdout，进度与日志走 stderr
var stdout io.Writer = os.Stdout

func loadAppConfig(cfg *CLIConfig) *config.AppConfig {
	var (
		appConfig *config.AppConfig
		err       error
	)
	if cfg.ConfigPath != "" {
		appConfig, err = config.LoadConfigFrom(cfg.ConfigPath)
	} else {
		appConfig, err = config.LoadConfig()
	}
	if err != nil {
		logger.Warn("Failed to load config: %v", err)
		return nil
	}
	if cfg.ConfigPath == "" {
		logger.Debug("Using config %s", config.GetConfigPath())
	}
	return appConfig
}

// prepareRun 合并配置并初始化日志；返回的 cleanup 关闭日志文件
func prepareRun(cfg *CLIConfig) (config.ScanConfiguration, func()) {
	scanConfig := cfg.MergeConfigs(loadAppConfig(cfg))

	logger.SetVerbose(scanConfig.Verbose)
	if !scanConfig.LogEnabled {
		return scanConfig, func() {}
	}
	if logPath, err := logger.InitLogger(scanConfig.LogDir); err != nil {
		logger.Warn("Failed to init logger: %v", err)
	} else {
		logger.Debug("Logging to %s", logPath)
	}
	return scanConfig, logger.Close
}

// runAnalysis analyze / report / suggest 共用的批量分析
func runAnalysis(ctx context.Context, cfg *CLIConfig, scanConfig *config.ScanConfiguration) (*static_analyzer.BatchResult, error) {
	files, err := cfg.ResolveFiles()
	if err != nil {
		return nil, err
	}
	scanConfig.Files = files

	analyzer, err := static_analyzer.NewAnalyzer(static_analyzer.AnalyzerConfig{
		Backend: static_analyzer.BackendType(scanConfig.Backend),
		Enabled: true,
	})
	if err != nil {
		return nil, err
	}
	defer analyzer.Close()

	opts := static_analyzer.BatchOptions{
		Concurrency:    scanConfig.Concurrency,
		StripLibraries: scanConfig.StripLibraries,
	}

	source, err := static_analyzer.NewGasSource(scanConfig.Framework, scanConfig.SnapshotFile)
	if err != nil {
		return nil, err
	}
	var gasCache *static_analyzer.GasDataCache
	if source != nil {
		gasCache = static_analyzer.NewGasDataCache(source, scanConfig.GenerateSnapshot)
		opts.GasCache = gasCache
	}

	if scanConfig.LLM {
		suggestor, err := ai.NewFromConfig(scanConfig.AI)
		if err != nil {
			return nil, fmt.Errorf("LLM suggestions: %w", err)
		}
		defer suggestor.Close()
		opts.Suggestions = suggestor
	}

	var pb *ui.ProgressBar
	if cfg.Command != CommandReport && len(files) > 1 {
		pb = ui.NewProgressBar(len(files), "Analyzing")
		opts.OnFileDone = func(_ string, err error) {
			if err != nil {
				pb.AddFailure()
			}
			pb.Increment()
		}
	}

	result, err := static_analyzer.AnalyzeFiles(ctx, analyzer, files, opts)
	if pb != nil {
		pb.Finish()
	}
	if err != nil {
		return nil, err
	}
	if gasCache != nil && gasCache.Loaded() == 0 {
		logger.Warn("No gas data found, measured gas is unavailable (%s)", gasCache.Hint())
	}
	return result, nil
}

// ExecuteAnalyze analyze / report 命令入口
func ExecuteAnalyze(ctx context.Context, cfg *CLIConfig) error {
	start := time.Now()
	scanConfig, cleanup := prepareRun(cfg)
	defer cleanup()

	result, err := runAnalysis(ctx, cfg, &scanConfig)
	if err != nil {
		return err
	}

	generator, err := report.NewGenerator(scanConfig.ReportFormat)
	if err != nil {
		return err
	}
	reporter := report.NewReporter(generator, report.NewFileStorage(scanConfig.ReportDir))
	rep := report.NewReport(scanConfig.Framework, result)

	switch {
	case scanConfig.Output != "":
		content, err := reporter.Render(rep)
		if err != nil {
			return err
		}
		if err := report.WriteFileAtomic(scanConfig.Output, content); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		logger.Info("Report written to %s", scanConfig.Output)

	case cfg.Command == CommandReport:
		content, err := reporter.Render(rep)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, content)

	default:
		path, err := reporter.GenerateAndSave(rep)
		if err != nil {
			return err
		}
		ui.LogSuccess("Report saved: %s", path)
	}

	if cfg.Command == CommandAnalyze {
		ui.PrintContractTable(stdout, result)
		ui.PrintStats(result.Summary, time.Since(start))
	}

	if !scanConfig.NoSave {
		saveHistory(ctx, scanConfig.Database, result)
	}
	return nil
}

// ExecuteSuggest 只在终端列出每个函数的优化建议，不写报告和历史
func ExecuteSuggest(ctx context.Context, cfg *CLIConfig) error {
	scanConfig, cleanup := prepareRun(cfg)
	defer cleanup()

	result, err := runAnalysis(ctx, cfg, &scanConfig)
	if err != nil {
		return err
	}
	ui.PrintSuggestions(stdout, result)
	return nil
}

// saveHistory 写入历史库；失败只告警，不影响分析结果
func saveHistory(ctx context.Context, dbConfig config.DatabaseConfig, result *static_analyzer.BatchResult) {
	store, err := dbutil.Open(ctx, dbConfig)
	if err != nil {
		logger.Warn("History database unavailable: %v", err)
		return
	}
	defer store.Close()

	runID, err := dbutil.SaveBatch(ctx, store, result)
	if err != nil {
		logger.Warn("Failed to save analysis history: %v", err)
		return
	}
	if runID != "" {
		logger.Debug("Analysis recorded as run %s", runID)
	}
}

// ExecuteParse 只运行提取引擎，逐个输出 JSON
func ExecuteParse(ctx context.Context, cfg *CLIConfig) error {
	files, err := cfg.ResolveFiles()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		code, err := static_analyzer.ReadSource(path)
		if err != nil {
			return err
		}
		contract, err := gasparser.Analyze(code)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := enc.Encode(contract); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteHistory 列出最近的分析记录
func ExecuteHistory(ctx context.Context, cfg *CLIConfig) error {
	scanConfig := cfg.MergeConfigs(loadAppConfig(cfg))

	store, err := dbutil.Open(ctx, scanConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	records, err := store.RecentAnalyses(ctx, cfg.Limit)
	if err != nil {
		return fmt.Errorf("failed to query history: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "No analyses recorded yet.")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tRUN\tCONTRACT\tPATH\tFUNCTIONS\tGAS USAGE\tSAVINGS")
	for _, r := range records {
		runID := r.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			humanize.Time(r.CreatedAt),
			runID,
			r.ContractName,
			r.Path,
			r.FunctionCount,
			humanize.Comma(r.TotalGasUsage),
			humanize.Comma(r.TotalSavings),
		)
	}
	return tw.Flush()
}

func Execute(ctx context.Context, cfg *CLIConfig) error {
	// stdout 留给报告内容
	logger.SetOutput(os.Stderr)

	switch cfg.Command {
	case CommandParse:
		return ExecuteParse(ctx, cfg)
	case CommandHistory:
		return ExecuteHistory(ctx, cfg)
	case CommandSuggest:
		return ExecuteSuggest(ctx, cfg)
	default:
		return ExecuteAnalyze(ctx, cfg)
	}
}

// Print 输出启动横幅
func Print() {
	ui.PrintBanner()
}

func Run() error {
	cfg, err := ParseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	go func() {
		count := 0
		for range sigChan {
			count++
			if count == 1 {
				fmt.Fprintln(os.Stderr, "\nInterrupt received, stopping... (press Ctrl+C again to force exit)")
				cancel()
				continue
			}
			fmt.Fprintln(os.Stderr, "\nForce exiting...")
			os.Exit(130)
		}
	}()

	return Execute(ctx, cfg)
}

func PrintFatal(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
