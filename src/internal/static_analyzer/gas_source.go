package static_analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	FrameworkFoundry = "foundry"
	FrameworkHardhat = "hardhat"
	FrameworkNone    = "none"
)

// maxCommandOutput 错误信息中保留的命令输出长度
const maxCommandOutput = 2048

// GasSource 某个测试框架的实测 gas 数据来源，函数名统一小写
type GasSource interface {
	// Locate 返回合约对应数据文件的期望路径，以及该文件是否存在
	Locate(contractPath string) (string, bool)
	Load(path string) (map[string]int, error)
	// Generate 在合约所属项目中运行框架工具生成数据文件
	Generate(ctx context.Context, contractPath string) error
	// Hint 找不到任何数据时给用户的提示
	Hint() string
}

// CommandRunner 在 dir 下执行外部命令并返回合并输出，env 追加到当前环境变量之后
type CommandRunner func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	return cmd.CombinedOutput()
}

// NewGasSource 按框架名创建数据来源；none 返回 nil
func NewGasSource(framework, dataFile string) (GasSource, error) {
	switch strings.ToLower(strings.TrimSpace(framework)) {
	case FrameworkFoundry:
		return &FoundrySource{SnapshotFile: dataFile}, nil
	case FrameworkHardhat:
		return &HardhatSource{ReportFile: dataFile}, nil
	case FrameworkNone, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: foundry, hardhat, none)", ErrUnsupportedFramework, framework)
	}
}

// ValidateFramework 校验框架名
func ValidateFramework(framework string) error {
	_, err := NewGasSource(framework, "")
	return err
}

func runnerOrDefault(r CommandRunner) CommandRunner {
	if r == nil {
		return execRunner
	}
	return r
}

// commandError 包装外部命令失败，附带输出末尾
func commandError(command string, output []byte, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		tool := strings.Fields(command)[0]
		return fmt.Errorf("%s failed: %s is not installed or not in PATH", command, tool)
	}
	msg := strings.TrimSpace(string(output))
	if len(msg) > maxCommandOutput {
		msg = "..." + msg[len(msg)-maxCommandOutput:]
	}
	if msg == "" {
		return fmt.Errorf("%s failed: %w", command, err)
	}
	return fmt.Errorf("%s failed: %w: %s", command, err, msg)
}
