package analyzer

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"schema-matcher/internal/schema"
)

// Evidence 评分的一项证据
type Evidence struct {
	Type        string
	Score       float64
	Description string
	Details     string
}

// booleanTypes 被引用列为这些类型时包含依赖不可能是外键
var booleanTypes = map[string]bool{
	"bool": true, "boolean": true, "bit": true, "tinyint(1)": true,
}

// isBooleanType 判断是否为布尔类型
func isBooleanType(dataType string) bool {
	return booleanTypes[strings.ToLower(strings.TrimSpace(dataType))]
}

// ForeignKeyScore 包含依赖作为外键的可能性，四项证据的平均值
//
// dep、ref 为依赖侧和被引用侧的表，depCols、refCols 为按位置对齐的列下标。
func ForeignKeyScore(dep *schema.Table, depCols []int, ref *schema.Table, refCols []int) (float64, []Evidence) {
	depTuples := tupleSet(dep, depCols)
	refTuples := tupleSet(ref, refCols)

	// 1. 覆盖率：依赖侧去重值出现在被引用侧的比例
	coverage := 0.0
	if len(depTuples) > 0 {
		found := 0
		for v := range depTuples {
			if refTuples[v] {
				found++
			}
		}
		coverage = float64(found) / float64(len(depTuples))
	}

	// 2. 命名相似度：依赖列名 ↔ 被引用表名_被引用列名
	nameScore := 0.0
	var pairs []string
	for i := range depCols {
		depName := dep.Columns[depCols[i]].Name
		refName := ref.Name + "_" + ref.Columns[refCols[i]].Name
		nameScore += LabelSimilarity(depName, refName)
		pairs = append(pairs, depName+" ↔ "+refName)
	}
	if len(depCols) > 0 {
		nameScore /= float64(len(depCols))
	}

	// 3. 值长度差异
	lengthScore := 0.0
	avgDep, avgRef := averageLength(dep, depCols), averageLength(ref, refCols)
	if hi := math.Max(avgDep, avgRef); hi > 0 {
		lengthScore = 1 - math.Abs(avgDep-avgRef)/hi
	}

	// 4. 越界：被引用侧的值有多少没有出现在依赖侧
	outOfRange := 0.0
	if len(refTuples) > 0 {
		absent := 0
		for v := range refTuples {
			if !depTuples[v] {
				absent++
			}
		}
		outOfRange = 1 - float64(absent)/float64(len(refTuples))
	}

	evidences := []Evidence{
		{
			Type:        "value_containment",
			Score:       coverage,
			Description: "值集合包含度",
			Details:     fmt.Sprintf("%.1f%% 的值存在于目标表", coverage*100),
		},
		{
			Type:        "naming_similarity",
			Score:       nameScore,
			Description: "列名相似度",
			Details:     strings.Join(pairs, ", "),
		},
		{
			Type:        "value_length",
			Score:       lengthScore,
			Description: "平均值长度差异",
			Details:     fmt.Sprintf("%.2f ↔ %.2f", avgDep, avgRef),
		},
		{
			Type:        "out_of_range",
			Score:       outOfRange,
			Description: "被引用值在依赖侧出现的比例",
		},
	}
	return average(evidences), evidences
}

// tupleSet 多列组合的去重值集合
func tupleSet(t *schema.Table, cols []int) map[string]bool {
	rows := t.RowCount()
	set := make(map[string]bool, rows)
	for row := 0; row < rows; row++ {
		set[tupleKey(t, cols, row)] = true
	}
	return set
}

func averageLength(t *schema.Table, cols []int) float64 {
	total, count := 0, 0
	for _, c := range cols {
		for _, v := range t.Columns[c].Values {
			total += utf8.RuneCountInString(v)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func average(evidences []Evidence) float64 {
	if len(evidences) == 0 {
		return 0
	}
	sum := 0.0
	for _, e := range evidences {
		sum += e.Score
	}
	return sum / float64(len(evidences))
}
