package rules

import (
	"sort"
	"strings"
	"unicode"
)

// Impact 优化建议的影响等级
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// 建议来源标记
const (
	SourceStatic = "static"
	SourceLLM    = "llm"
)

// similarityThreshold 两条建议共享词比例超过该值即视为重复
const similarityThreshold = 0.7

// Suggestion 单条 gas 优化建议
type Suggestion struct {
	Type            string  `json:"type"`
	Message         string  `json:"message"`
	Confidence      float64 `json:"confidence"`
	Impact          Impact  `json:"impact"`
	Source          string  `json:"source"`
	EstimatedSaving int     `json:"estimatedSaving"`
}

// Weight 排序权重: high 3, medium 2, 其它 1
func (i Impact) Weight() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	default:
		return 1
	}
}

func (s Suggestion) score() float64 {
	confidence := s.Confidence
	if confidence == 0 {
		confidence = 0.5
	}
	return float64(s.Impact.Weight()) * confidence
}

// Deduplicate 去掉与之前某条建议措辞高度相似的建议，保留首次出现的那条
func Deduplicate(suggestions []Suggestion) []Suggestion {
	unique := make([]Suggestion, 0, len(suggestions))
	for i, s := range suggestions {
		duplicate := false
		for _, prev := range suggestions[:i] {
			if similar(s.Message, prev.Message) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, s)
		}
	}
	return unique
}

// Rank 按 影响权重 x 置信度 降序排列，分数相同保持原顺序
func Rank(suggestions []Suggestion) []Suggestion {
	ranked := make([]Suggestion, len(suggestions))
	copy(ranked, suggestions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score() > ranked[j].score()
	})
	return ranked
}

// DeduplicateAndRank 先去重再排序
func DeduplicateAndRank(suggestions []Suggestion) []Suggestion {
	return Rank(Deduplicate(suggestions))
}

// TotalSavings 所有建议预计节省的 gas 之和
func TotalSavings(suggestions []Suggestion) int {
	total := 0
	for _, s := range suggestions {
		total += s.EstimatedSaving
	}
	return total
}

// ByImpact 按影响等级分组
func ByImpact(suggestions []Suggestion) map[Impact][]Suggestion {
	groups := map[Impact][]Suggestion{
		ImpactHigh:   {},
		ImpactMedium: {},
		ImpactLow:    {},
	}
	for _, s := range suggestions {
		groups[s.Impact] = append(groups[s.Impact], s)
	}
	return groups
}

// Top 返回置信度最高的前 limit 条
func Top(suggestions []Suggestion, limit int) []Suggestion {
	sorted := make([]Suggestion, len(suggestions))
	copy(sorted, suggestions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if limit >= 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// similar 统计 a 中出现在 b 里的词数，除以两者较长的词数
func similar(a, b string) bool {
	wordsA := splitWords(a)
	wordsB := splitWords(b)
	total := len(wordsA)
	if len(wordsB) > total {
		total = len(wordsB)
	}
	if total == 0 {
		return false
	}

	inB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		inB[w] = struct{}{}
	}
	common := 0
	for _, w := range wordsA {
		if _, ok := inB[w]; ok {
			common++
		}
	}
	return float64(common)/float64(total) > similarityThreshold
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}
