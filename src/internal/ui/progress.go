package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const Clear = "\033[2K\r"

type ProgressBar struct {
	total       int
	current     int
	failed      int
	startTime   time.Time
	description string
	mu          sync.Mutex
	width       int
	w           io.Writer
}

func NewProgressBar(total int, description string) *ProgressBar {
	return &ProgressBar{
		total:       total,
		current:     0,
		startTime:   time.Now(),
		description: description,
		width:       40, // 进度条长度
		w:           out,
	}
}

// SetWriter 替换输出目标
func (pb *ProgressBar) SetWriter(w io.Writer) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.w = w
}

func (pb *ProgressBar) Increment() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current++
	pb.render()
}

func (pb *ProgressBar) AddFailure() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.failed++
	// 不需要重新渲染，下次 Increment 会更新
}

func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	// 确保进度满格
	pb.current = pb.total
	fmt.Fprint(pb.w, Clear)
	pb.render()
	fmt.Fprintln(pb.w) // 换行
}

func (pb *ProgressBar) render() {
	percent := 1.0
	if pb.total > 0 {
		percent = float64(pb.current) / float64(pb.total)
	}
	if percent > 1.0 {
		percent = 1.0
	}

	filled := int(float64(pb.width) * percent)
	bar := strings.Repeat("=", filled)
	if filled < pb.width {
		bar += ">" + strings.Repeat(".", pb.width-filled-1)
	} else {
		// 完成时去掉箭头
		bar = strings.Repeat("=", pb.width)
	}

	// 计算 ETA
	elapsed := time.Since(pb.startTime)
	rate := float64(pb.current) / elapsed.Seconds()
	remaining := time.Duration(0)
	if rate > 0 {
		remaining = time.Duration(float64(pb.total-pb.current)/rate) * time.Second
	}
	etaStr := fmt.Sprintf("%02dm%02ds", int(remaining.Minutes()), int(remaining.Seconds())%60)

	// 颜色逻辑
	barColor := Cyan
	if percent >= 1.0 {
		barColor = Green
	}

	failColor := Green
	if pb.failed > 0 {
		failColor = Red
	}

	fmt.Fprintf(pb.w, "%s%s %s [%s]%s %.0f%% | %d/%d | ETA: %s | Failed: %s%d%s \n",
		Clear, // 清除行
		pb.description,
		barColor, bar, Reset,
		percent*100,
		pb.current, pb.total,
		etaStr,
		failColor, pb.failed, Reset,
	)
}
