package solc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	pragmaRe  = regexp.MustCompile(`pragma\s+solidity\s+([^;]+);`)
	versionRe = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
)

// ExtractPragmaVersion 从合约源码中提取 pragma solidity 版本
// 多个 pragma 时选择出现过的最高版本
func ExtractPragmaVersion(source string) string {
	// pragma solidity ^0.8.16; 或 pragma solidity >=0.8.0 <0.9.0;
	var versions []string
	for _, match := range pragmaRe.FindAllStringSubmatch(source, -1) {
		versions = append(versions, versionRe.FindAllString(match[1], -1)...)
	}

	if len(versions) == 0 {
		return ""
	}

	sort.Slice(versions, func(i, j int) bool {
		return compareVersions(versions[i], versions[j]) > 0
	})

	return versions[0]
}

// NormalizePragmas 删除所有 pragma solidity 行，只保留一条最高版本
// 扁平化后的多文件源码常带有多条相互冲突的 pragma
func NormalizePragmas(source string) string {
	highest := ExtractPragmaVersion(source)
	if highest == "" {
		return source
	}

	cleaned := pragmaRe.ReplaceAllString(source, "")
	finalPragma := fmt.Sprintf("pragma solidity ^%s;", highest)

	lines := strings.Split(cleaned, "\n")
	for i, line := range lines {
		if strings.Contains(line, "SPDX-License-Identifier") {
			// Insert after SPDX
			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:i+1]...)
			out = append(out, finalPragma)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n")
		}
	}
	return finalPragma + "\n" + cleaned
}

func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")
	for i := 0; i < 3; i++ {
		var n1, n2 int
		if i < len(parts1) {
			fmt.Sscanf(parts1[i], "%d", &n1)
		}
		if i < len(parts2) {
			fmt.Sscanf(parts2[i], "%d", &n2)
		}
		if n1 != n2 {
			return n1 - n2
		}
	}
	return 0
}
