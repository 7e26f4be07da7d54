package report

import (
	"fmt"
	"time"

	"github.com/VectorBits/GasGuardian/src/internal/static_analyzer"
)

type Reporter struct {
	generator Generator
	storage   Storage
}

func NewReporter(generator Generator, storage Storage) *Reporter {
	return &Reporter{
		generator: generator,
		storage:   storage,
	}
}

// Render 只生成内容，不落盘
func (r *Reporter) Render(report *Report) (string, error) {
	content, err := r.generator.Generate(report)
	if err != nil {
		return "", fmt.Errorf("failed to generate report: %w", err)
	}
	return content, nil
}

func (r *Reporter) GenerateAndSave(report *Report) (string, error) {
	// 生成报告内容
	content, err := r.Render(report)
	if err != nil {
		return "", err
	}

	// 保存报告
	filepath, err := r.storage.Save(report, content, r.generator.Extension())
	if err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	return filepath, nil
}

func NewReport(framework string, result *static_analyzer.BatchResult) *Report {
	return &Report{
		Framework: framework,
		ScanTime:  time.Now(),
		Result:    result,
	}
}
