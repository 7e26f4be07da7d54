package internal

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReadLines 读取文件列表：YAML 数组 / targets / files，或每行一个路径
func ReadLines(path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	if ext == ".yaml" || ext == ".yml" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		var list []string
		if err := yaml.Unmarshal(bs, &list); err == nil && len(list) > 0 {
			return normalizeUniqueNonEmpty(list), nil
		}

		var wrapper struct {
			Targets []string `yaml:"targets"`
			Files   []string `yaml:"files"`
		}
		if err := yaml.Unmarshal(bs, &wrapper); err == nil {
			if len(wrapper.Targets) > 0 {
				return normalizeUniqueNonEmpty(wrapper.Targets), nil
			}
			if len(wrapper.Files) > 0 {
				return normalizeUniqueNonEmpty(wrapper.Files), nil
			}
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.TrimSpace(fields[0]))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return normalizeUniqueNonEmpty(lines), nil
}

func normalizeUniqueNonEmpty(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		v := strings.TrimSpace(it)
		if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "//") {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
