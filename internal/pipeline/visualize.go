package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VisualizationFormat represents the output format for pipeline visualization.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatDOT     VisualizationFormat = "dot"
	FormatJSON    VisualizationFormat = "json"
)

// SupportedFormats lists the visualization formats.
func SupportedFormats() []VisualizationFormat {
	return []VisualizationFormat{FormatText, FormatMermaid, FormatDOT, FormatJSON}
}

// FormatDescription returns a description of a visualization format.
func FormatDescription(format VisualizationFormat) string {
	descriptions := map[VisualizationFormat]string{
		FormatText:    "Human-readable text with ASCII art",
		FormatMermaid: "Mermaid diagram (for GitHub, GitLab, etc.)",
		FormatDOT:     "Graphviz DOT format (render with `dot -Tpng passes.dot -o passes.png`)",
		FormatJSON:    "Structured JSON representation",
	}
	return descriptions[format]
}

// Visualize renders the resolved pass order.
func Visualize(passes []Pass, format VisualizationFormat) (string, error) {
	ordered, err := Resolve(passes)
	if err != nil {
		return "", err
	}
	switch format {
	case FormatText:
		return visualizeText(ordered), nil
	case FormatMermaid:
		return visualizeMermaid(ordered), nil
	case FormatDOT:
		return visualizeDOT(ordered), nil
	case FormatJSON:
		return visualizeJSON(ordered)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// edge is a "from must run before to" constraint with its reason.
type edge struct {
	from, to, label string
}

func edges(passes []Pass) []edge {
	producer := map[Resource]string{}
	for _, p := range passes {
		for _, r := range p.Dependencies().Produces {
			producer[r] = p.Name()
		}
	}
	var out []edge
	for _, p := range passes {
		deps := p.Dependencies()
		for _, r := range deps.Requires {
			out = append(out, edge{from: producer[r], to: p.Name(), label: string(r)})
		}
		for _, after := range deps.MustRunAfter {
			out = append(out, edge{from: after, to: p.Name(), label: "after"})
		}
	}
	return out
}

func resources(rs []Resource) string {
	s := make([]string, len(rs))
	for i, r := range rs {
		s[i] = string(r)
	}
	return strings.Join(s, ", ")
}

func visualizeText(passes []Pass) string {
	var sb strings.Builder
	sb.WriteString("Build Pass Order\n")
	sb.WriteString("================\n\n")
	for i, p := range passes {
		deps := p.Dependencies()
		prefix := "├──"
		if i == len(passes)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(&sb, "%s %d. [%s]\n", prefix, i+1, p.Name())
		if len(deps.Requires) > 0 {
			fmt.Fprintf(&sb, "│      ⤷ requires: %s\n", resources(deps.Requires))
		}
		if len(deps.Produces) > 0 {
			fmt.Fprintf(&sb, "│      ⤶ produces: %s\n", resources(deps.Produces))
		}
		if len(deps.MustRunAfter) > 0 {
			fmt.Fprintf(&sb, "│      ⤷ after: %s\n", strings.Join(deps.MustRunAfter, ", "))
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %d passes\n", len(passes))
	return sb.String()
}

func mermaidID(name string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(name)
}

func visualizeMermaid(passes []Pass) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")
	for _, p := range passes {
		fmt.Fprintf(&sb, "    %s[\"%s\"]\n", mermaidID(p.Name()), p.Name())
	}
	sb.WriteString("\n")
	for _, e := range edges(passes) {
		fmt.Fprintf(&sb, "    %s -->|%s| %s\n", mermaidID(e.from), e.label, mermaidID(e.to))
	}
	sb.WriteString("```\n")
	return sb.String()
}

func visualizeDOT(passes []Pass) string {
	var sb strings.Builder
	sb.WriteString("digraph BuildPasses {\n")
	sb.WriteString("    rankdir=TB;\n")
	sb.WriteString("    node [shape=box, style=rounded];\n\n")
	for _, p := range passes {
		fmt.Fprintf(&sb, "    %q;\n", p.Name())
	}
	sb.WriteString("\n")
	for _, e := range edges(passes) {
		fmt.Fprintf(&sb, "    %q -> %q [label=%q];\n", e.from, e.to, e.label)
	}
	sb.WriteString("}\n")
	return sb.String()
}

type jsonPass struct {
	Name         string   `json:"name"`
	Order        int      `json:"order"`
	Requires     []string `json:"requires"`
	Produces     []string `json:"produces"`
	MustRunAfter []string `json:"mustRunAfter"`
}

func visualizeJSON(passes []Pass) (string, error) {
	out := struct {
		Passes      []jsonPass `json:"passes"`
		TotalPasses int        `json:"totalPasses"`
	}{TotalPasses: len(passes)}
	for i, p := range passes {
		deps := p.Dependencies()
		jp := jsonPass{Name: p.Name(), Order: i + 1, Requires: []string{}, Produces: []string{}, MustRunAfter: []string{}}
		for _, r := range deps.Requires {
			jp.Requires = append(jp.Requires, string(r))
		}
		for _, r := range deps.Produces {
			jp.Produces = append(jp.Produces, string(r))
		}
		jp.MustRunAfter = append(jp.MustRunAfter, deps.MustRunAfter...)
		out.Passes = append(out.Passes, jp)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
