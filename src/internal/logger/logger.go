package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	fileLogger  *log.Logger
	logFile     *os.File
	initialized bool
	verbose     bool
	console     io.Writer = os.Stdout
	consoleMu   sync.Mutex
)

// InitLogger 在 dir 下创建 analysis_<时间戳>.log 并同时写入文件
func InitLogger(dir string) (string, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(dir, fmt.Sprintf("analysis_%s.log", timestamp))

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to open log file: %w", err)
	}

	consoleMu.Lock()
	logFile = f
	fileLogger = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	initialized = true
	consoleMu.Unlock()

	return logPath, nil
}

// SetVerbose 开启后 Debug 也输出到控制台
func SetVerbose(v bool) {
	consoleMu.Lock()
	verbose = v
	consoleMu.Unlock()
}

// SetOutput 替换控制台输出，返回原来的 writer
func SetOutput(w io.Writer) io.Writer {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	prev := console
	console = w
	return prev
}

func Close() {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = nil
	fileLogger = nil
	initialized = false
}

func InfoFileOnly(format string, v ...interface{}) {
	output("INFO", false, format, v...)
}

func Info(format string, v ...interface{}) {
	output("INFO", true, format, v...)
}

func Debug(format string, v ...interface{}) {
	output("DEBUG", false, format, v...)
}

func Error(format string, v ...interface{}) {
	output("ERROR", true, format, v...)
}

func Warn(format string, v ...interface{}) {
	output("WARN", true, format, v...)
}

func output(level string, toConsole bool, format string, v ...interface{}) {
	consoleMu.Lock()
	defer consoleMu.Unlock()

	if level == "DEBUG" {
		toConsole = verbose
	}
	msg := fmt.Sprintf(format, v...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	line := "[" + level + "] " + msg

	if initialized {
		// calldepth 3: output -> Info/Warn/... -> 调用方
		fileLogger.Output(3, line)
	}
	if toConsole {
		fmt.Fprint(console, line)
	}
}

// GetLogWriter 当前日志文件；未初始化时丢弃输出
func GetLogWriter() io.Writer {
	consoleMu.Lock()
	defer consoleMu.Unlock()
	if logFile == nil {
		return io.Discard
	}
	return logFile
}
