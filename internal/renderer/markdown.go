package renderer

import (
	"fmt"
	"sort"
	"strings"

	"schema-matcher/internal/config"
	"schema-matcher/internal/evaluate"
	"schema-matcher/internal/flooding"
	"schema-matcher/internal/schema"
)

// DefaultTopN 报告中每个源列列出的候选数
const DefaultTopN = 3

// Candidate 一个目标列及其相似度
type Candidate struct {
	Column string  `json:"column"`
	Score  float64 `json:"score"`
}

// ColumnMatches 一个源列的候选目标列，按相似度降序
type ColumnMatches struct {
	Column     string      `json:"column"`
	Candidates []Candidate `json:"candidates"`
}

// TopMatches 每个源列取相似度最高的 n 个目标列（只保留大于 0 的值，同分按列顺序）
func TopMatches(m *flooding.Matrix, source, target *schema.Schema, n int) []ColumnMatches {
	srcNames := source.QualifiedNames()
	tgtNames := target.QualifiedNames()
	rows, cols := m.Dims()

	out := make([]ColumnMatches, 0, rows)
	for i := 0; i < rows && i < len(srcNames); i++ {
		var cands []Candidate
		for j := 0; j < cols && j < len(tgtNames); j++ {
			if v := m.At(i, j); v > 0 {
				cands = append(cands, Candidate{Column: tgtNames[j], Score: v})
			}
		}
		sort.SliceStable(cands, func(a, b int) bool { return cands[a].Score > cands[b].Score })
		if n > 0 && len(cands) > n {
			cands = cands[:n]
		}
		out = append(out, ColumnMatches{Column: srcNames[i], Candidates: cands})
	}
	return out
}

// MatchReport 匹配报告的输入
type MatchReport struct {
	Source  *schema.Schema
	Target  *schema.Schema
	Matrix  *flooding.Matrix
	Result  *flooding.Result
	Params  config.Parameters
	Metrics *evaluate.Metrics // 有标准答案时才有
	TopN    int
}

// MarkdownRenderer Markdown 匹配报告渲染器
type MarkdownRenderer struct{}

// NewMarkdownRenderer 创建渲染器
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render 渲染为 Markdown 格式
func (m *MarkdownRenderer) Render(r MatchReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# 模式匹配报告：%s → %s\n\n", r.Source.Name, r.Target.Name))
	sb.WriteString(fmt.Sprintf("矩阵指纹：`%016x`\n\n", r.Matrix.Fingerprint()))

	m.renderParams(&sb, r.Params)
	if r.Result != nil {
		m.renderStats(&sb, r.Result)
	}
	if r.Metrics != nil {
		sb.WriteString("## 评估\n\n")
		sb.WriteString("| Precision | Recall | F1 | 命中 | 预测 | 标准 |\n")
		sb.WriteString("|-----------|--------|----|------|------|------|\n")
		sb.WriteString(fmt.Sprintf("| %.3f | %.3f | %.3f | %d | %d | %d |\n\n",
			r.Metrics.Precision, r.Metrics.Recall, r.Metrics.F1,
			r.Metrics.TruePositives, r.Metrics.Predicted, r.Metrics.Expected))
	}

	topN := r.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	sb.WriteString("## 列匹配\n\n")
	matches := TopMatches(r.Matrix, r.Source, r.Target, topN)
	offset := 0
	for _, t := range r.Source.Tables {
		sb.WriteString(fmt.Sprintf("### %s\n\n", t.Name))
		sb.WriteString("| 列名 | 类型 | 候选 |\n")
		sb.WriteString("|------|------|------|\n")
		for k, c := range t.Columns {
			var cands []Candidate
			if offset+k < len(matches) {
				cands = matches[offset+k].Candidates
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", c.Name, dash(c.DataType), formatCandidates(cands)))
		}
		sb.WriteString("\n")
		offset += len(t.Columns)
	}

	return sb.String()
}

func (m *MarkdownRenderer) renderParams(sb *strings.Builder, p config.Parameters) {
	sb.WriteString("## 参数\n\n")
	sb.WriteString("| 参数 | 取值 |\n")
	sb.WriteString("|------|------|\n")
	values := p.Get()
	for _, key := range config.Keys() {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", key, dash(values[key])))
	}
	sb.WriteString(fmt.Sprintf("| max_iterations | %d |\n", p.MaxIterations))
	sb.WriteString(fmt.Sprintf("| epsilon | %g |\n\n", p.Epsilon))
}

func (m *MarkdownRenderer) renderStats(sb *strings.Builder, res *flooding.Result) {
	converged := "否"
	if res.Stats.Converged {
		converged = "是"
	}

	sb.WriteString("## 传播\n\n")
	sb.WriteString(fmt.Sprintf("- 源模式图：%d 个节点，%d 条边\n", res.SourceNodes, res.SourceEdges))
	sb.WriteString(fmt.Sprintf("- 目标模式图：%d 个节点，%d 条边\n", res.TargetNodes, res.TargetEdges))
	sb.WriteString(fmt.Sprintf("- 传播图：%d 个节点对，%d 条边\n", res.Pairs, res.PropagationEdges))
	sb.WriteString(fmt.Sprintf("- 迭代：%d 次，残差 %.6f，收敛：%s\n", res.Stats.Iterations, res.Stats.Residual, converged))

	for _, side := range []struct {
		name string
		deps dependencyCounts
	}{
		{"源", countDependencies(res.SourceDependencies)},
		{"目标", countDependencies(res.TargetDependencies)},
	} {
		if side.deps.total() == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("- %s依赖：FD %d，UCC %d，IND %d\n", side.name, side.deps.fd, side.deps.ucc, side.deps.ind))
	}
	sb.WriteString("\n")
}

type dependencyCounts struct{ fd, ucc, ind int }

func (c dependencyCounts) total() int { return c.fd + c.ucc + c.ind }

func countDependencies(d schema.Dependencies) dependencyCounts {
	return dependencyCounts{fd: len(d.Functional), ucc: len(d.Unique), ind: len(d.Inclusion)}
}

func formatCandidates(cands []Candidate) string {
	if len(cands) == 0 {
		return "-"
	}
	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = fmt.Sprintf("`%s` (%.2f)", c.Column, c.Score)
	}
	return strings.Join(parts, "<br>")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
