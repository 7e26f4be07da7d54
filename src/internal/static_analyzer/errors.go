package static_analyzer

import "errors"

var ErrFileNotFound = errors.New("file not found")

var ErrUnsupportedFramework = errors.New("unsupported framework")

// ErrNoProjectRoot 生成 gas 数据需要先找到框架项目根目录
var ErrNoProjectRoot = errors.New("project root not found")
