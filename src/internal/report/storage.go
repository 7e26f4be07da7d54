package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Storage interface {
	Save(report *Report, content, ext string) (string, error)
}

type FileStorage struct {
	OutputDir string
}

func NewFileStorage(outputDir string) *FileStorage {
	return &FileStorage{
		OutputDir: outputDir,
	}
}

func sanitizeFilenameComponent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	out := b.String()
	out = strings.Trim(out, "._-")
	if out == "" {
		return "unknown"
	}
	return out
}

// reportSubject 单合约报告用合约名，多合约用 batch
func reportSubject(report *Report) string {
	if report != nil && report.Result != nil && len(report.Result.Contracts) == 1 {
		return report.Result.Contracts[0].Name
	}
	return "batch"
}

func (s *FileStorage) Save(report *Report, content, ext string) (string, error) {
	if s.OutputDir == "" {
		s.OutputDir = "reports"
	}

	// 生成文件名
	timestamp := time.Now().UnixNano()
	subject := sanitizeFilenameComponent(reportSubject(report))
	filename := fmt.Sprintf("gas_report_%s_%d.%s", subject, timestamp, ext)
	reportPath := filepath.Join(s.OutputDir, filename)

	if err := WriteFileAtomic(reportPath, content); err != nil {
		return "", err
	}
	return reportPath, nil
}

// WriteFileAtomic 先写临时文件再 rename，避免读到半截报告
func WriteFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	// 确保输出目录存在
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmpFile.WriteString(content); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp report file: %w", err)
	}
	if err := tmpFile.Chmod(0644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to chmod temp report file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp report file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to finalize report file: %w", err)
	}
	return nil
}
