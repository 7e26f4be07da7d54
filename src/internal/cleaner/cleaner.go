package cleaner

import (
	"regexp"
	"strings"

	"github.com/VectorBits/GasGuardian/src/internal/solc"
)

var LibraryPatterns = []string{
	"@openzeppelin",
	"node_modules",
	"lib/openzeppelin",
	"lib/solmate",
	"lib/forge-std",
	"test/",
	"mock/",
}

var TokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^ERC\d{2,}.*\.sol$`),
	regexp.MustCompile(`(?i)^BEP\d{2,}.*\.sol$`),
	regexp.MustCompile(`(?i)^I?ERC20\.sol$`),
}

var fileHeaderRe = regexp.MustCompile(`(?m)^//\s*File:?\s+(.*)$`)

// StripLibraries 删除扁平化源码中属于外部库的 // File: 段落
// 没有 File 标记的源码原样返回
func StripLibraries(code string) string {
	indexes := fileHeaderRe.FindAllStringSubmatchIndex(code, -1)
	if len(indexes) == 0 {
		return code
	}

	var sb strings.Builder
	// 第一个 File 标记之前的内容（SPDX、pragma 等）保留
	sb.WriteString(code[:indexes[0][0]])

	for i, loc := range indexes {
		start := loc[0]
		end := len(code)
		if i < len(indexes)-1 {
			end = indexes[i+1][0]
		}

		filePath := strings.TrimSpace(code[loc[2]:loc[3]])
		if IsLibrary(filePath) {
			continue
		}
		sb.WriteString(code[start:end])
	}

	return sb.String()
}

// StripLibrarySources 过滤标准 JSON 输入拆分出的库文件
func StripLibrarySources(sources []solc.Source) []solc.Source {
	kept := make([]solc.Source, 0, len(sources))
	for _, src := range sources {
		if !IsLibrary(src.Path) {
			kept = append(kept, src)
		}
	}
	return kept
}

// IsLibrary 判断文件路径是否属于常见外部库或测试代码
func IsLibrary(path string) bool {
	pathLower := strings.ToLower(path)
	for _, pattern := range LibraryPatterns {
		if strings.Contains(pathLower, pattern) {
			return true
		}
	}

	parts := strings.Split(path, "/")
	fileName := parts[len(parts)-1]

	for _, pattern := range TokenPatterns {
		if pattern.MatchString(fileName) {
			return true
		}
	}

	return false
}
