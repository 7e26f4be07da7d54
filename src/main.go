package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/VectorBits/GasGuardian/src/cmd"
	"github.com/VectorBits/GasGuardian/src/internal/ui"
)

//go:embed config/settings.example.yaml
var embeddedFiles embed.FS

func main() {
	// 初始化默认配置文件
	if err := initConfigFile(); err != nil {
		cmd.PrintFatal(fmt.Errorf("failed to init config file: %w", err))
	}

	cmd.Print()
	if err := cmd.Run(); err != nil {
		cmd.PrintFatal(err)
	}
}

func initConfigFile() error {
	targetDir := "config"
	targetFile := filepath.Join(targetDir, "settings.yaml")

	// 检查目标文件是否存在
	if _, err := os.Stat(targetFile); err == nil {
		return nil // 已存在，跳过
	}

	// 创建目录
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	// 读取嵌入的源文件
	data, err := embeddedFiles.ReadFile("config/settings.example.yaml")
	if err != nil {
		return err
	}

	// 写入目标文件
	if err := os.WriteFile(targetFile, data, 0644); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, ui.Green+"✅ Created default config file: %s"+ui.Reset+"\n", targetFile)
	return nil
}
