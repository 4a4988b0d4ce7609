package analyzer

import (
	"sort"
	"strings"
	"unicode/utf8"

	"schema-matcher/internal/schema"
)

// keySuffixes 标识类列名的常见后缀
var keySuffixes = []string{"id", "key", "nr", "no", "code"}

// PrimaryKeyScore 唯一列组合作为主键的可能性，四项证据的平均值
func PrimaryKeyScore(t *schema.Table, cols []int) (float64, []Evidence) {
	evidences := []Evidence{
		{Type: "cardinality", Score: cardinalityScore(t, cols), Description: "组合值去重数 / 行数"},
		{Type: "value_length", Score: valueLengthScore(t, cols), Description: "值越短越像主键"},
		{Type: "position", Score: positionScore(cols), Description: "越靠前越像主键"},
		{Type: "name_suffix", Score: nameSuffixScore(t, cols), Description: "列名以 id/key/nr/no/code 结尾"},
	}
	return average(evidences), evidences
}

func cardinalityScore(t *schema.Table, cols []int) float64 {
	rows := t.RowCount()
	if len(cols) == 0 || rows == 0 {
		return 0
	}
	seen := make(map[string]bool, rows)
	for row := 0; row < rows; row++ {
		seen[tupleKey(t, cols, row)] = true
	}
	return float64(len(seen)) / float64(rows)
}

func valueLengthScore(t *schema.Table, cols []int) float64 {
	if len(cols) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range cols {
		maxLen := 0
		for _, v := range t.Columns[c].Values {
			if l := utf8.RuneCountInString(v); l > maxLen {
				maxLen = l
			}
		}
		sum += 1 / float64(maxInt(1, maxLen-8))
	}
	return sum / float64(len(cols))
}

// positionScore left 为第一个成员之前的列数，between 为首尾成员之间的非成员列数
func positionScore(cols []int) float64 {
	if len(cols) == 0 {
		return 0
	}
	sorted := append([]int(nil), cols...)
	sort.Ints(sorted)

	left := sorted[0]
	between := sorted[len(sorted)-1] - sorted[0] + 1 - len(sorted)
	return 0.5 * (1/float64(left+1) + 1/float64(between+1))
}

func nameSuffixScore(t *schema.Table, cols []int) float64 {
	if len(cols) == 0 {
		return 0
	}
	hits := 0
	for _, c := range cols {
		name := strings.ToLower(strings.Trim(t.Columns[c].Name, "_"))
		for _, suffix := range keySuffixes {
			if strings.HasSuffix(name, suffix) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(cols))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
