package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/VectorBits/GasGuardian/src/internal"
	"github.com/VectorBits/GasGuardian/src/internal/config"
	"github.com/VectorBits/GasGuardian/src/internal/report"
	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
	"github.com/VectorBits/GasGuardian/src/internal/ui"
)

const (
	CommandAnalyze = "analyze"
	CommandReport  = "report"
	CommandParse   = "parse"
	CommandHistory = "history"
	CommandSuggest = "suggest"
)

type CLIConfig struct {
	Command          string
	Inputs           []string
	ListFile         string
	ConfigPath       string
	Backend          string
	Framework        string
	Concurrency      int
	StripLibraries   *bool
	SnapshotFile     string
	GenerateSnapshot *bool
	LLM              *bool
	ReportFormat     string
	ReportDir        string
	Output           string
	NoSave           bool
	Verbose          bool
	Limit            int
	Driver           string
}

// 扫描目录时跳过的子目录
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"lib":          true,
	"out":          true,
	"cache":        true,
}

func (c *CLIConfig) Validate() error {
	switch c.Command {
	case CommandAnalyze, CommandReport, CommandParse, CommandSuggest:
		if len(c.Inputs) == 0 && c.ListFile == "" {
			return errors.New("at least one contract file or directory is required (or -list <file>)")
		}
	case CommandHistory:
		if c.Limit <= 0 {
			c.Limit = 20
		}
		return nil
	default:
		return fmt.Errorf("unknown command: %s", c.Command)
	}

	if c.Concurrency < 0 {
		return errors.New("-concurrency must be >= 0")
	}
	if err := static_analyzer.ValidateFramework(c.Framework); err != nil {
		return fmt.Errorf("-framework: %w", err)
	}
	if c.ReportFormat != "" && c.ReportFormat != report.FormatMarkdown && c.ReportFormat != report.FormatJSON {
		return fmt.Errorf("-f must be one of: %s, %s", report.FormatMarkdown, report.FormatJSON)
	}
	return nil
}

// MergeConfigs 默认值 -> YAML -> 命令行，后者覆盖前者
func (c *CLIConfig) MergeConfigs(appConfig *config.AppConfig) config.ScanConfiguration {
	// 1. Start with defaults
	cfg := config.DefaultScanConfiguration()

	// 2. Override with YAML config if available
	cfg.ApplyAppConfig(appConfig)

	// 3. Override with CLI arguments (if provided)
	if c.Backend != "" {
		cfg.Backend = c.Backend
	}
	if c.Framework != "" {
		cfg.Framework = c.Framework
	}
	if c.Concurrency > 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.StripLibraries != nil {
		cfg.StripLibraries = *c.StripLibraries
	}
	if c.SnapshotFile != "" {
		cfg.SnapshotFile = c.SnapshotFile
	}
	if c.GenerateSnapshot != nil {
		cfg.GenerateSnapshot = *c.GenerateSnapshot
	}
	if c.LLM != nil {
		cfg.LLM = *c.LLM
	}
	if c.ReportFormat != "" {
		cfg.ReportFormat = c.ReportFormat
	}
	if c.ReportDir != "" {
		cfg.ReportDir = c.ReportDir
	}
	if c.Driver != "" {
		cfg.Database.Driver = c.Driver
	}
	cfg.Output = c.Output
	cfg.NoSave = c.NoSave
	cfg.Verbose = c.Verbose

	return cfg
}

// ResolveFiles 展开输入：文件原样保留，目录递归收集 .sol，-list 文件逐行读取
func (c *CLIConfig) ResolveFiles() ([]string, error) {
	inputs := append([]string{}, c.Inputs...)
	if c.ListFile != "" {
		lines, err := internal.ReadLines(c.ListFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read list file: %w", err)
		}
		inputs = append(inputs, lines...)
	}

	seen := make(map[string]bool)
	files := make([]string, 0, len(inputs))
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil || !info.IsDir() {
			// 不存在的文件交给分析器报 file not found
			add(in)
			continue
		}
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != in && skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.EqualFold(filepath.Ext(path), ".sol") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", in, err)
		}
	}

	if len(files) == 0 {
		return nil, errors.New("no Solidity files found")
	}
	return files, nil
}

func showHelp(topic string) {
	switch topic {
	case CommandAnalyze, "a":
		showAnalyzeHelp()
	case CommandReport, "r":
		showReportHelp()
	case CommandParse, "p":
		showParseHelp()
	case CommandHistory:
		showHistoryHelp()
	case CommandSuggest, "s":
		showSuggestHelp()
	case "config":
		showConfigHelp()
	default:
		showGeneralHelp()
	}
}

func showGeneralHelp() {
	fmt.Println(ui.Cyan + "USAGE:" + ui.Reset)
	fmt.Println("  gasguardian [COMMAND] [OPTIONS] <file.sol|dir>...")
	fmt.Println()

	fmt.Println(ui.Cyan + "COMMANDS:" + ui.Reset)
	fmt.Printf("  %-25s %s\n", "analyze (default)", "Analyze contracts, print a summary table and save a report")
	fmt.Printf("  %-25s %s\n", "report", "Analyze contracts and write the report to stdout (or -o)")
	fmt.Printf("  %-25s %s\n", "suggest", "Print ranked optimisation suggestions per function (-llm adds AI suggestions)")
	fmt.Printf("  %-25s %s\n", "parse", "Print the raw extraction result (JSON) for each file")
	fmt.Printf("  %-25s %s\n", "history", "List recent analyses from the history database")
	fmt.Println()

	fmt.Println(ui.Cyan + "HELP:" + ui.Reset)
	fmt.Println("  gasguardian [COMMAND] --help   Show detailed help for a specific command")
	fmt.Println("  gasguardian help config        Show configuration file layout")
	fmt.Println()

	fmt.Println(ui.Cyan + "EXAMPLES:" + ui.Reset)
	fmt.Println(ui.Gray + "  # Analyze a Foundry project (reads .gas-snapshot if present)" + ui.Reset)
	fmt.Println("  gasguardian src/")
	fmt.Println()
	fmt.Println(ui.Gray + "  # JSON report to a file, no history record" + ui.Reset)
	fmt.Println("  gasguardian report -f json -o gas.json -no-save src/Token.sol")
	fmt.Println()
	fmt.Println(ui.Gray + "  # Hardhat project, run the gas reporter when no report exists" + ui.Reset)
	fmt.Println("  gasguardian -framework hardhat -gen-snapshot contracts/")
	fmt.Println()
	fmt.Println(ui.Gray + "  # Static and LLM suggestions for one contract" + ui.Reset)
	fmt.Println("  gasguardian suggest -llm src/Vault.sol")
	fmt.Println()
	fmt.Println(ui.Gray + "  # Last 10 analyses" + ui.Reset)
	fmt.Println("  gasguardian history -n 10")
}

func showAnalyzeOptions() {
	fmt.Println(ui.Cyan + "OPTIONS:" + ui.Reset)
	fmt.Printf("  %-25s %s\n", "-b <backend>", "Analyzer backend: regex | noop (default: regex)")
	fmt.Printf("  %-25s %s\n", "-framework <name>", "Test framework for measured gas: foundry | hardhat | none (default: foundry)")
	fmt.Printf("  %-25s %s\n", "-snapshot <file>", "Gas data file (default: .gas-snapshot / gasReporterOutput.json in the project root)")
	fmt.Printf("  %-25s %s\n", "-gen-snapshot", "Run forge snapshot / hardhat gas reporter when no gas data exists")
	fmt.Printf("  %-25s %s\n", "-llm", "Merge LLM suggestions (config section 'ai')")
	fmt.Printf("  %-25s %s\n", "-concurrency <n>", "Number of concurrent workers (default: 4)")
	fmt.Printf("  %-25s %s\n", "-strip-libs", "Strip library sections from flattened sources (default: true)")
	fmt.Printf("  %-25s %s\n", "-list <file>", "Read contract paths from a txt/yaml file")
	fmt.Printf("  %-25s %s\n", "-f <format>", "Report format: markdown | json (default: markdown)")
	fmt.Printf("  %-25s %s\n", "-r <dir>", "Report output directory (default: reports)")
	fmt.Printf("  %-25s %s\n", "-o <file>", "Write the report to this file instead")
	fmt.Printf("  %-25s %s\n", "-no-save", "Do not record the analysis in the history database")
	fmt.Printf("  %-25s %s\n", "-db <driver>", "History driver: sqlite | postgres | mysql | none")
	fmt.Printf("  %-25s %s\n", "-config <file>", "Configuration file (default: config/settings.yaml)")
	fmt.Printf("  %-25s %s\n", "-v", "Verbose output")
}

func showAnalyzeHelp() {
	fmt.Println(ui.Cyan + "🔍 ANALYZE" + ui.Reset)
	fmt.Println(ui.Gray + "Extract functions, detect gas patterns and rank optimisation suggestions." + ui.Reset)
	fmt.Println()
	fmt.Println(ui.Cyan + "USAGE:" + ui.Reset)
	fmt.Println("  gasguardian analyze [OPTIONS] <file.sol|file.json|dir>...")
	fmt.Println()
	showAnalyzeOptions()
}

func showReportHelp() {
	fmt.Println(ui.Cyan + "📄 REPORT" + ui.Reset)
	fmt.Println(ui.Gray + "Same analysis as 'analyze', the rendered report goes to stdout." + ui.Reset)
	fmt.Println()
	fmt.Println(ui.Cyan + "USAGE:" + ui.Reset)
	fmt.Println("  gasguardian report [OPTIONS] <file.sol|dir>...")
	fmt.Println()
	showAnalyzeOptions()
}

func showSuggestHelp() {
	fmt.Println(ui.Cyan + "💡 SUGGEST" + ui.Reset)
	fmt.Println(ui.Gray + "Analyze contracts and print the ranked suggestions of every function. No report or history is written." + ui.Reset)
	fmt.Println()
	fmt.Println(ui.Cyan + "USAGE:" + ui.Reset)
	fmt.Println("  gasguardian suggest [-llm] [OPTIONS] <file.sol|dir>...")
	fmt.Println()
	showAnalyzeOptions()
}

func showParseHelp() {
	fmt.Println(ui.Cyan + "🧩 PARSE" + ui.Reset)
	fmt.Println(ui.Gray + "Run only the extraction engine and print its JSON result." + ui.Reset)
	fmt.Println()
	fmt.Println(ui.Cyan + "USAGE:" + ui.Reset)
	fmt.Println("  gasguardian parse <file.sol>...")
}

func showHistoryHelp() {
	fmt.Println(ui.Cyan + "🕘 HISTORY" + ui.Reset)
	fmt.Println(ui.Gray + "List recent analyses stored in the history database." + ui.Reset)
	fmt.Println()
	fmt.Println(ui.Cyan + "OPTIONS:" + ui.Reset)
	fmt.Printf("  %-25s %s\n", "-n <limit>", "Number of records (default: 20)")
	fmt.Printf("  %-25s %s\n", "-db <driver>", "History driver: sqlite | postgres | mysql")
	fmt.Printf("  %-25s %s\n", "-config <file>", "Configuration file")
}

func showConfigHelp() {
	fmt.Println(ui.Cyan + "⚙️  CONFIGURATION" + ui.Reset)
	fmt.Println("  Searched in: config/settings.yaml, settings.yaml, src/config/settings.yaml, ../config/settings.yaml")
	fmt.Println("  Sections: " + ui.Bold + "analysis, report, database, log, ai" + ui.Reset)
	fmt.Println("  Command line flags override the file; the file overrides built-in defaults.")
}

// splitCommand 取出子命令，缺省为 analyze
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return CommandAnalyze, args
	}
	switch args[0] {
	case CommandAnalyze, CommandReport, CommandParse, CommandHistory, CommandSuggest:
		return args[0], args[1:]
	}
	return CommandAnalyze, args
}

// ParseArgs 解析命令行参数
func ParseArgs(args []string) (*CLIConfig, error) {
	if len(args) > 0 && args[0] == "help" {
		topic := ""
		if len(args) > 1 {
			topic = args[1]
		}
		showHelp(topic)
		return nil, flag.ErrHelp
	}

	command, rest := splitCommand(args)

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.Usage = func() {
		showHelp(command)
	}

	cfg := &CLIConfig{Command: command}
	configPath := fs.String("config", "", "Configuration file")
	verbose := fs.Bool("v", false, "Verbose output")
	driver := fs.String("db", "", "History database driver")

	var (
		backend, framework, snapshot, format, reportDir, output, list *string
		concurrency, limit                                             *int
		noSave, strip, generate, llm                                   *bool
	)
	switch command {
	case CommandHistory:
		limit = fs.Int("n", 20, "Number of records")
	case CommandParse:
		// 只有通用参数
	default:
		backend = fs.String("b", "", "Analyzer backend")
		framework = fs.String("framework", "", "Test framework")
		snapshot = fs.String("snapshot", "", "Gas snapshot file")
		concurrency = fs.Int("concurrency", 0, "Worker concurrency")
		strip = fs.Bool("strip-libs", true, "Strip library sections")
		list = fs.String("list", "", "File with contract paths")
		format = fs.String("f", "", "Report format")
		reportDir = fs.String("r", "", "Report output directory")
		output = fs.String("o", "", "Report output file")
		noSave = fs.Bool("no-save", false, "Do not record history")
		generate = fs.Bool("gen-snapshot", false, "Generate missing gas data")
		llm = fs.Bool("llm", false, "Merge LLM suggestions")
	}

	if err := fs.Parse(rest); err != nil {
		return nil, err
	}

	cfg.ConfigPath = strings.TrimSpace(*configPath)
	cfg.Verbose = *verbose
	cfg.Driver = strings.TrimSpace(*driver)
	cfg.Inputs = fs.Args()

	if limit != nil {
		cfg.Limit = *limit
	}
	if backend != nil {
		cfg.Backend = strings.TrimSpace(*backend)
		cfg.Framework = strings.ToLower(strings.TrimSpace(*framework))
		cfg.SnapshotFile = strings.TrimSpace(*snapshot)
		cfg.Concurrency = *concurrency
		cfg.ListFile = strings.TrimSpace(*list)
		cfg.ReportFormat = strings.ToLower(strings.TrimSpace(*format))
		cfg.ReportDir = strings.TrimSpace(*reportDir)
		cfg.Output = strings.TrimSpace(*output)
		cfg.NoSave = *noSave
		// 未显式给出时保留配置文件中的值
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "strip-libs":
				cfg.StripLibraries = strip
			case "gen-snapshot":
				cfg.GenerateSnapshot = generate
			case "llm":
				cfg.LLM = llm
			}
		})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
