package solc

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const MetadataPrefix = "// GasGuardian Metadata: "

type Metadata struct {
	ContractName string `json:"ContractName"`
}

// AttachMetadata 附加元数据到源码
func AttachMetadata(source, contractName string) string {
	if contractName == "" {
		return source
	}
	meta := Metadata{ContractName: contractName}
	bs, _ := json.Marshal(meta)
	return MetadataPrefix + string(bs) + "\n" + source
}

// DetachMetadata 分离元数据和源码
func DetachMetadata(source string) (string, *Metadata) {
	if strings.HasPrefix(source, MetadataPrefix) {
		idx := strings.Index(source, "\n")
		if idx != -1 {
			jsonStr := source[len(MetadataPrefix):idx]
			var meta Metadata
			if err := json.Unmarshal([]byte(jsonStr), &meta); err == nil {
				return source[idx+1:], &meta
			}
		}
	}
	return source, nil
}

// StandardInputJSON 标准 JSON 输入格式
type StandardInputJSON struct {
	Language string                 `json:"language"`
	Sources  map[string]SourceFile  `json:"sources"`
	Settings map[string]interface{} `json:"settings,omitempty"`
}

type SourceFile struct {
	Content string `json:"content"`
}

// Source 拆分后的单个源文件
type Source struct {
	Path    string
	Content string
}

// IsJSONSource 检查源代码是否为多文件 JSON 格式
func IsJSONSource(source string) bool {
	cleanSource, _ := DetachMetadata(source)
	trimmed := strings.TrimSpace(cleanSource)
	return strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, "\"content\"")
}

// SplitJSONSources 将标准 JSON 输入拆分为独立源文件，按路径排序
// 区块浏览器导出的 JSON 有时带双层花括号 {{...}}
func SplitJSONSources(source string) ([]Source, error) {
	cleanSource, _ := DetachMetadata(source)
	normalized := normalizeJSONSource(cleanSource)

	var input StandardInputJSON
	err := json.Unmarshal([]byte(normalized), &input)
	if err != nil || len(input.Sources) == 0 {
		// 部分浏览器直接返回 sources 映射本身
		var sources map[string]SourceFile
		if err2 := json.Unmarshal([]byte(normalized), &sources); err2 == nil {
			input.Sources = sources
		} else if err != nil {
			return nil, fmt.Errorf("failed to parse standard JSON input: %w", err)
		}
	}

	if len(input.Sources) == 0 {
		return nil, fmt.Errorf("standard JSON input has no sources")
	}

	paths := make([]string, 0, len(input.Sources))
	for p := range input.Sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]Source, 0, len(paths))
	for _, p := range paths {
		out = append(out, Source{Path: p, Content: input.Sources[p].Content})
	}
	return out, nil
}

// normalizeJSONSource 规范化 JSON 字符串
func normalizeJSONSource(jsonStr string) string {
	trimmed := strings.TrimSpace(jsonStr)
	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") {
		return trimmed[1 : len(trimmed)-1]
	}
	return trimmed
}
