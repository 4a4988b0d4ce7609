package analyzer

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// LabelSimilarity 基于编辑距离的名称相似度，忽略大小写，取值 [0,1]
//
// 插入、删除代价为 1，替换代价为 2，因此距离不超过两串长度之和，以此归一化。
func LabelSimilarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))

	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	distance := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return 1 - float64(distance)/float64(total)
}

// ValueSimilarity 两组样本值的内容重合度（去重后的 Jaccard 系数）
func ValueSimilarity(a, b []string) float64 {
	setA := distinct(a)
	setB := distinct(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	common := 0
	for v := range setA {
		if setB[v] {
			common++
		}
	}
	union := len(setA) + len(setB) - common
	return float64(common) / float64(union)
}

func distinct(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// tupleKey 把多列的值拼成一个键
func tupleKey(t rowReader, cols []int, row int) string {
	if len(cols) == 1 {
		return t.Value(cols[0], row)
	}
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(t.Value(c, row))
	}
	return sb.String()
}

type rowReader interface {
	Value(col, row int) string
}
