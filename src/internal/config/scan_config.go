package config

type ScanConfiguration struct {
	// 分析相关
	Files          []string
	Backend        string
	Framework      string
	Concurrency    int
	StripLibraries bool
	SnapshotFile   string
	// GenerateSnapshot 缺少 gas 数据时运行框架工具生成
	GenerateSnapshot bool
	// LLM 为 true 时把 AI 建议合并进结果
	LLM bool
	AI  AIConfig

	// 报告相关
	ReportFormat string
	ReportDir    string
	Output       string // 非空时直接写到该文件，否则写到 ReportDir

	// 系统相关
	Verbose    bool
	NoSave     bool
	Database   DatabaseConfig
	LogDir     string
	LogEnabled bool
}

func DefaultScanConfiguration() ScanConfiguration {
	return ScanConfiguration{
		Backend:        "regex",
		Framework:      "foundry",
		Concurrency:    4, // 默认并发数
		StripLibraries: true,
		ReportFormat:   "markdown",
		ReportDir:      "reports",
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/gasguardian.db",
		},
		LogDir:     "logs",
		LogEnabled: true,
	}
}

// ApplyAppConfig 用 YAML 中显式给出的值覆盖默认值
func (s *ScanConfiguration) ApplyAppConfig(app *AppConfig) {
	if app == nil {
		return
	}
	if app.Analysis.Backend != "" {
		s.Backend = app.Analysis.Backend
	}
	if app.Analysis.Framework != "" {
		s.Framework = app.Analysis.Framework
	}
	if app.Analysis.Concurrency > 0 {
		s.Concurrency = app.Analysis.Concurrency
	}
	if app.Analysis.StripLibraries != nil {
		s.StripLibraries = *app.Analysis.StripLibraries
	}
	if app.Analysis.SnapshotFile != "" {
		s.SnapshotFile = app.Analysis.SnapshotFile
	}
	if app.Analysis.GenerateSnapshot != nil {
		s.GenerateSnapshot = *app.Analysis.GenerateSnapshot
	}
	s.AI = app.AI
	s.LLM = app.AI.Enabled
	if app.Report.Dir != "" {
		s.ReportDir = app.Report.Dir
	}
	if app.Report.Format != "" {
		s.ReportFormat = app.Report.Format
	}
	if app.Database.Driver != "" {
		s.Database = app.Database
	}
	if app.Log.Dir != "" {
		s.LogDir = app.Log.Dir
	}
	if app.Log.Enabled != nil {
		s.LogEnabled = *app.Log.Enabled
	}
}
