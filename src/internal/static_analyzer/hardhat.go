package static_analyzer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

// DefaultHardhatReportFile hardhat-gas-reporter outputJSON 的默认文件名
const DefaultHardhatReportFile = "gasReporterOutput.json"

// hardhatTestTimeout 单次 npx hardhat test 的最长运行时间
const hardhatTestTimeout = 3 * time.Minute

// 未指定报告文件时依次查找
var hardhatReportFiles = []string{
	DefaultHardhatReportFile,
	"gas-report.json",
	filepath.Join("reports", "gas-report.json"),
	".gas-report.json",
}

var hardhatConfigFiles = []string{"hardhat.config.js", "hardhat.config.ts"}

var (
	// |  Token  ·  transfer  ·  51234  ·  68334  ·  59784  ·  4  ·  -  │
	reporterRowRe = regexp.MustCompile(`\|\s*(\w+)\s*·\s*(\w+)\s*·[^·]*·[^·]*·\s*(\d+)\s*·`)
	// transfer gas used: 51234
	gasUsedLineRe = regexp.MustCompile(`(?i)(\w+)\s+gas used:\s*(\d+)`)
)

// FindHardhatRoot 从合约所在目录向上查找 hardhat.config.{js,ts}，
// 或 dependencies/devDependencies 中包含 hardhat 的 package.json
func FindHardhatRoot(contractPath string) (string, bool) {
	abs, err := filepath.Abs(contractPath)
	if err != nil {
		return "", false
	}
	dir := filepath.Dir(abs)
	for depth := 0; depth < maxRootDepth; depth++ {
		if stopDirs[dir] || filepath.Dir(dir) == dir {
			break
		}
		for _, name := range hardhatConfigFiles {
			if exists(filepath.Join(dir, name)) {
				return dir, true
			}
		}
		if hasHardhatDependency(filepath.Join(dir, "package.json")) {
			return dir, true
		}
		dir = filepath.Dir(dir)
	}
	return "", false
}

func hasHardhatDependency(packageJSON string) bool {
	data, err := os.ReadFile(packageJSON)
	if err != nil {
		return false
	}
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		logger.Debug("Ignoring unreadable %s: %v", packageJSON, err)
		return false
	}
	_, dep := pkg.Dependencies["hardhat"]
	_, devDep := pkg.DevDependencies["hardhat"]
	return dep || devDep
}

// LocateHardhatReport 确定 gas 报告路径；未指定文件名时按候选列表查找第一个存在的
func LocateHardhatReport(contractPath, reportFile string) (string, bool) {
	if reportFile != "" && filepath.IsAbs(reportFile) {
		return reportFile, exists(reportFile)
	}
	base := ""
	if root, ok := FindHardhatRoot(contractPath); ok {
		base = root
	}
	candidates := hardhatReportFiles
	if reportFile != "" {
		candidates = []string{reportFile}
	}
	for _, name := range candidates {
		path := filepath.Join(base, name)
		if exists(path) {
			return path, true
		}
	}
	return filepath.Join(base, candidates[0]), false
}

// ParseHardhatReport 解析 gas 报告：JSON (outputJSON 或按合约分组的 avg) 优先，
// 不是 JSON 时按 gas-reporter 文本表格和 "xxx gas used: N" 行解析
func ParseHardhatReport(data []byte) (map[string]int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		gasData, err := parseHardhatJSON(trimmed)
		if err == nil {
			return gasData, nil
		}
		logger.Debug("Gas report is not valid JSON, trying text: %v", err)
	}
	return parseHardhatText(data)
}

type reporterMethod struct {
	Method              string  `json:"method"`
	GasData             []int   `json:"gasData"`
	ExecutionGasAverage float64 `json:"executionGasAverage"`
}

type groupedMethod struct {
	Avg float64 `json:"avg"`
}

func parseHardhatJSON(data []byte) (map[string]int, error) {
	var report struct {
		Info struct {
			Methods map[string]json.RawMessage `json:"methods"`
		} `json:"info"`
		Methods map[string]struct {
			GasUsed int `json:"gasUsed"`
		} `json:"methods"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	gasData := make(map[string]int)
	for key, raw := range report.Info.Methods {
		// outputJSON: "Token_transfer(address,uint256)": {"method": "transfer", "gasData": [...]}
		var method reporterMethod
		if err := json.Unmarshal(raw, &method); err == nil && method.Method != "" {
			if gas := averageGas(method); gas > 0 {
				gasData[strings.ToLower(method.Method)] = gas
			}
			continue
		}
		// {"Token": {"transfer": {"avg": 51234}}}
		var grouped map[string]groupedMethod
		if err := json.Unmarshal(raw, &grouped); err != nil {
			logger.Debug("Skipping gas report entry %s: %v", key, err)
			continue
		}
		for name, m := range grouped {
			if m.Avg > 0 {
				gasData[strings.ToLower(name)] = int(math.Round(m.Avg))
			}
		}
	}
	for name, m := range report.Methods {
		if m.GasUsed > 0 {
			gasData[strings.ToLower(name)] = m.GasUsed
		}
	}
	return gasData, nil
}

func averageGas(m reporterMethod) int {
	if len(m.GasData) == 0 {
		return int(math.Round(m.ExecutionGasAverage))
	}
	total := 0
	for _, g := range m.GasData {
		total += g
	}
	return int(math.Round(float64(total) / float64(len(m.GasData))))
}

func parseHardhatText(data []byte) (map[string]int, error) {
	gasData := make(map[string]int)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if match := reporterRowRe.FindStringSubmatch(line); match != nil {
			if gas, err := strconv.Atoi(match[3]); err == nil && gas > 0 {
				gasData[strings.ToLower(match[2])] = gas
			}
			continue
		}
		if match := gasUsedLineRe.FindStringSubmatch(line); match != nil {
			if gas, err := strconv.Atoi(match[2]); err == nil && gas > 0 {
				gasData[strings.ToLower(match[1])] = gas
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gas report: %w", err)
	}
	return gasData, nil
}

// LoadHardhatReport 读取并解析 gas 报告文件
func LoadHardhatReport(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open gas report: %w", err)
	}
	return ParseHardhatReport(data)
}

// HardhatSource 读取 hardhat-gas-reporter 的输出
type HardhatSource struct {
	ReportFile string
	Runner     CommandRunner
}

func (s *HardhatSource) Locate(contractPath string) (string, bool) {
	return LocateHardhatReport(contractPath, s.ReportFile)
}

func (s *HardhatSource) Load(path string) (map[string]int, error) {
	return LoadHardhatReport(path)
}

// Generate 在 Hardhat 根目录以 REPORT_GAS=true 运行测试；报告文件由项目的 gas-reporter 配置写出
func (s *HardhatSource) Generate(ctx context.Context, contractPath string) error {
	root, ok := FindHardhatRoot(contractPath)
	if !ok {
		return fmt.Errorf("%w: no hardhat.config.js/ts above %s", ErrNoProjectRoot, contractPath)
	}

	ctx, cancel := context.WithTimeout(ctx, hardhatTestTimeout)
	defer cancel()

	logger.Info("Running hardhat gas reporter in %s", root)
	output, err := runnerOrDefault(s.Runner)(ctx, root, []string{"REPORT_GAS=true"}, "npx", "hardhat", "test")
	if err != nil {
		return commandError("npx hardhat test", output, err)
	}
	if _, found := s.Locate(contractPath); !found {
		logger.Warn("hardhat test finished but no gas report was written (enable outputJSON in hardhat-gas-reporter)")
	}
	return nil
}

func (s *HardhatSource) Hint() string {
	return "run 'REPORT_GAS=true npx hardhat test' with hardhat-gas-reporter outputJSON enabled, or pass -gen-snapshot"
}
