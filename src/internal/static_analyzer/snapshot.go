package static_analyzer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/logger"
)

// DefaultSnapshotFile forge snapshot 默认输出文件名
const DefaultSnapshotFile = ".gas-snapshot"

// snapshotTimeout 单次 forge snapshot 的最长运行时间
const snapshotTimeout = 2 * time.Minute

// maxRootDepth 向上查找 Foundry 项目根目录的最大层数
const maxRootDepth = 10

// 到达这些系统目录即停止向上查找
var stopDirs = map[string]bool{
	"/var":    true,
	"/usr":    true,
	"/home":   true,
	"/Users":  true,
	"/System": true,
}

// VaultTest:testDeposit() (gas: 51234)
var snapshotLineRe = regexp.MustCompile(`(\w+):test(\w+)\(\)\s+\(gas:\s*(\d+)\)`)

// ParseSnapshot 解析 .gas-snapshot 内容，返回 小写函数名 -> gas
// 同名测试出现多次时以最后一次为准
func ParseSnapshot(r io.Reader) (map[string]int, error) {
	gasData := make(map[string]int)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		match := snapshotLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		gas, err := strconv.Atoi(match[3])
		if err != nil {
			continue
		}
		gasData[strings.ToLower(match[2])] = gas
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gas snapshot: %w", err)
	}
	return gasData, nil
}

// LoadSnapshot 读取并解析快照文件
func LoadSnapshot(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to open gas snapshot: %w", err)
	}
	defer f.Close()
	return ParseSnapshot(f)
}

// FindFoundryRoot 从合约所在目录向上查找 foundry.toml 或 lib 目录
func FindFoundryRoot(contractPath string) (string, bool) {
	abs, err := filepath.Abs(contractPath)
	if err != nil {
		return "", false
	}
	dir := filepath.Dir(abs)
	for depth := 0; depth < maxRootDepth; depth++ {
		if stopDirs[dir] || filepath.Dir(dir) == dir {
			break
		}
		if exists(filepath.Join(dir, "foundry.toml")) || exists(filepath.Join(dir, "lib")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

// LocateSnapshot 确定快照文件路径：绝对路径原样使用；相对名按合约所属 Foundry 根目录解析，
// 找不到根目录时才相对当前目录。返回的路径即使不存在也是期望位置
func LocateSnapshot(contractPath, snapshotFile string) (string, bool) {
	if snapshotFile != "" && filepath.IsAbs(snapshotFile) {
		return snapshotFile, exists(snapshotFile)
	}
	name := snapshotFile
	if name == "" {
		name = DefaultSnapshotFile
	}
	if root, ok := FindFoundryRoot(contractPath); ok {
		path := filepath.Join(root, name)
		return path, exists(path)
	}
	return name, exists(name)
}

// FoundrySource 读取 forge snapshot 生成的 .gas-snapshot
type FoundrySource struct {
	SnapshotFile string
	Runner       CommandRunner
}

func (s *FoundrySource) Locate(contractPath string) (string, bool) {
	return LocateSnapshot(contractPath, s.SnapshotFile)
}

func (s *FoundrySource) Load(path string) (map[string]int, error) {
	return LoadSnapshot(path)
}

// Generate 在合约所属 Foundry 根目录执行 forge snapshot，非默认文件名通过 --snap 传入
func (s *FoundrySource) Generate(ctx context.Context, contractPath string) error {
	root, ok := FindFoundryRoot(contractPath)
	if !ok {
		return fmt.Errorf("%w: no foundry.toml above %s", ErrNoProjectRoot, contractPath)
	}
	args := []string{"snapshot"}
	if s.SnapshotFile != "" && s.SnapshotFile != DefaultSnapshotFile {
		args = append(args, "--snap", s.SnapshotFile)
	}

	ctx, cancel := context.WithTimeout(ctx, snapshotTimeout)
	defer cancel()

	logger.Info("Running forge snapshot in %s", root)
	output, err := runnerOrDefault(s.Runner)(ctx, root, nil, "forge", args...)
	if err != nil {
		return commandError("forge snapshot", output, err)
	}
	return nil
}

func (s *FoundrySource) Hint() string {
	return "run 'forge snapshot' first or pass -gen-snapshot"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
