package renderer

import (
	"fmt"
	"strings"

	"schema-matcher/internal/graph"
)

// MermaidRenderer Mermaid 流程图渲染器
type MermaidRenderer struct{}

// NewMermaidRenderer 创建渲染器
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// Render 把模式图渲染为 flowchart，边上标注角色
//
// 标识节点画成圆角框，类别节点画成六边形，其余具名节点画成矩形。
func (m *MermaidRenderer) Render(g *graph.SchemaGraph) string {
	var sb strings.Builder
	arena := g.Arena()

	sb.WriteString("flowchart LR\n")

	for _, h := range g.Nodes() {
		label := escapeMermaid(arena.Label(h))
		switch n := arena.Node(h).(type) {
		case *graph.IdentifierNode:
			sb.WriteString(fmt.Sprintf("    %s([\"%s\"])\n", nodeID(h), label))
		case *graph.NamedNode:
			if n.Marker == graph.MarkerCategory {
				sb.WriteString(fmt.Sprintf("    %s{{\"%s\"}}\n", nodeID(h), label))
			} else {
				sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", nodeID(h), label))
			}
		}
	}

	sb.WriteString("\n")

	for _, e := range g.Edges() {
		sb.WriteString(fmt.Sprintf("    %s -->|%s| %s\n", nodeID(e.From), e.Label, nodeID(e.To)))
	}

	return sb.String()
}

func nodeID(h graph.Handle) string {
	return fmt.Sprintf("n%d", h)
}

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;")

func escapeMermaid(s string) string {
	return mermaidEscaper.Replace(s)
}
