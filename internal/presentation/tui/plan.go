package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/sticky/pkg/domain"
)

// PlanMarkdown explains a transition plan as markdown.
// fromPath and toPath are the state names on both sides of the transition, root first.
func PlanMarkdown(fromPath, toPath []string, plan *domain.TransitionPlan) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Transition %s to %s\n\n", display(leafOf(fromPath)), display(leafOf(toPath)))

	kept := make([]string, 0, plan.Keep)
	for _, name := range toPath[:min(plan.Keep, len(toPath))] {
		kept = append(kept, display(name))
	}
	fmt.Fprintf(&sb, "Retained: %s\n\n", strings.Join(kept, ", "))
	fmt.Fprintf(&sb, "Sticky pivot: from `%t`, to `%t`\n\n", plan.Sticky.From, plan.Sticky.To)

	sb.WriteString("## Exit (leaf first)\n\n")
	if len(plan.Exit) == 0 {
		sb.WriteString("_nothing is exited_\n\n")
	} else {
		sb.WriteString("| State | Action |\n|---|---|\n")
		for i := len(plan.Exit) - 1; i >= 0; i-- {
			fmt.Fprintf(&sb, "| %s | %s |\n", display(fromPath[plan.Keep+i]), plan.Exit[i])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Enter (root first)\n\n")
	if len(plan.Enter) == 0 {
		sb.WriteString("_nothing is entered_\n\n")
	} else {
		sb.WriteString("| State | Action |\n|---|---|\n")
		for i, action := range plan.Enter {
			fmt.Fprintf(&sb, "| %s | %s |\n", display(toPath[plan.Keep+i]), action)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Parked afterwards\n\n")
	if len(plan.Inactive) == 0 {
		sb.WriteString("_no parked states_\n")
	}
	for _, inst := range plan.Inactive {
		fmt.Fprintf(&sb, "- %s", display(inst.Name()))
		if len(inst.Params) > 0 {
			fmt.Fprintf(&sb, " %v", map[string]any(inst.Params))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func leafOf(path []string) string {
	if len(path) == 0 {
		return domain.RootName
	}
	return path[len(path)-1]
}

func display(name string) string {
	if name == domain.RootName {
		return "`(root)`"
	}
	return "`" + name + "`"
}
