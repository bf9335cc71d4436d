package report

import (
	"fmt"
	"sort"
	"strings"
)

// MarkdownRenderer renders a run record as generic markdown.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(data Data) (string, error) {
	run := data.Run

	var b strings.Builder
	title := run.Name
	if title == "" {
		title = run.ID
	}
	fmt.Fprintf(&b, "# Run %s\n\n", title)

	fmt.Fprintf(&b, "| Experiment | %s |\n", data.Experiment.Name)
	fmt.Fprintf(&b, "| Run ID | %s |\n", run.ID)
	fmt.Fprintf(&b, "| Status | %s |\n", run.Status)
	fmt.Fprintf(&b, "| Started | %s |\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.EndedAt.IsZero() {
		fmt.Fprintf(&b, "| Ended | %s |\n", run.EndedAt.Format("2006-01-02 15:04:05"))
	}
	b.WriteString("\n")

	b.WriteString(kvSection("Parameters", data.Params))

	if len(data.Metrics) > 0 {
		b.WriteString("## Metrics\n\n")
		b.WriteString("| Key | Value | Step |\n|---|---|---|\n")
		for _, m := range data.Metrics {
			fmt.Fprintf(&b, "| %s | %g | %d |\n", m.Key, m.Value, m.Step)
		}
		b.WriteString("\n")
	}

	b.WriteString(kvSection("Tags", data.Tags))

	if len(data.Models) > 0 {
		b.WriteString("## Models\n\n")
		for _, mv := range data.Models {
			fmt.Fprintf(&b, "- %s v%d (`%s`)\n", mv.Name, mv.Version, mv.ArtifactPath)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// kvSection renders a string map as a sorted markdown list block.
func kvSection(heading string, kv map[string]string) string {
	if len(kv) == 0 {
		return ""
	}
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := fmt.Sprintf("## %s\n\n", heading)
	for _, k := range keys {
		out += fmt.Sprintf("- **%s**: %s\n", k, kv[k])
	}
	out += "\n"
	return out
}
