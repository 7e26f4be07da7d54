package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

type AnalysisConfig struct {
	Backend        string `yaml:"backend"`
	Framework      string `yaml:"framework"`
	Concurrency    int    `yaml:"concurrency"`
	StripLibraries *bool  `yaml:"strip_libraries"`
	SnapshotFile   string `yaml:"snapshot_file"`
	// GenerateSnapshot 找不到 gas 数据时运行 forge snapshot / hardhat gas reporter
	GenerateSnapshot *bool `yaml:"generate_snapshot"`
}

type ReportConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
}

// DatabaseConfig driver: sqlite | postgres | mysql | none
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type LogConfig struct {
	Dir     string `yaml:"dir"`
	Enabled *bool  `yaml:"enabled"`
}

// AIConfig LLM 建议来源，默认关闭；provider: openai | deepseek | local-llm | ollama
type AIConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	Proxy          string `yaml:"proxy"`
	Timeout        int    `yaml:"timeout"`     // 秒
	MaxRetries     int    `yaml:"max_retries"` // 0 使用默认值 3，负数不重试
	MaxSuggestions int    `yaml:"max_suggestions"`
	Concurrency    int    `yaml:"concurrency"`
	CacheDir       string `yaml:"cache_dir"`
	NoCache        bool   `yaml:"no_cache"`
}

type AppConfig struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Report   ReportConfig   `yaml:"report"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	AI       AIConfig       `yaml:"ai"`
}

var loadOnce sync.Once
var loadedConfig *AppConfig
var loadedErr error

// LoadConfig 加载 YAML 配置，进程内只读取一次
func LoadConfig() (*AppConfig, error) {
	loadOnce.Do(func() {
		configPath := findConfigFile()
		if configPath == "" {
			loadedErr = fmt.Errorf("the configuration file settings.yaml was not found")
			return
		}

		loadedConfig, loadedErr = LoadConfigFrom(configPath)
	})

	if loadedErr != nil {
		return nil, loadedErr
	}
	return loadedConfig, nil
}

// LoadConfigFrom 从指定路径读取配置，不经过缓存
func LoadConfigFrom(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var config AppConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	return &config, nil
}

func findConfigFile() string {
	possiblePaths := []string{
		"config/settings.yaml",
		"settings.yaml",
		"src/config/settings.yaml",
		"../config/settings.yaml",
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// GetDatabaseDSN MySQL DSN；includeDBName 为 false 时连接到 server 本身，用于建库
func (c *AppConfig) GetDatabaseDSN(includeDBName bool) string {
	dsn := mysql.NewConfig()
	dsn.User = c.Database.User
	dsn.Passwd = c.Database.Password
	dsn.Net = "tcp"
	dsn.Addr = c.Database.Host + ":" + c.Database.Port
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	if includeDBName {
		dsn.DBName = c.Database.Name
	}
	return dsn.FormatDSN()
}

// GetPostgresDSN gorm postgres 驱动使用的 key=value DSN
func (c *AppConfig) GetPostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

func GetConfigPath() string {
	return findConfigFile()
}
