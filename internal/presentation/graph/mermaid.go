package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/sticky/pkg/domain"
)

// rootID is the Mermaid identifier of the implicit root state.
const rootID = "root"

// GraphOverlay contains router state to visualize on the tree.
type GraphOverlay struct {
	// ActivePath lists the names of the active states, root first.
	ActivePath []string
	// Parked lists the names of the states held in the inactive registry.
	Parked []string
}

// GenerateMermaid produces a Mermaid flowchart of the state tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Sticky: ([Stadium])
// - Default: [Rectangle]
// Own params are listed under the state name. Overlay styles (active, current,
// parked) are applied if an overlay is provided.
func GenerateMermaid(nodes []*domain.StateNode, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("    %s((\"root\"))\n", rootID))

	for _, node := range nodes {
		safeID := sanitizeMermaidID(node.Name)

		opener, closer := "[", "]"
		if node.Sticky {
			opener, closer = "([", "])"
		}

		label := node.Name
		switch {
		case node.OwnParams == nil:
			label += " <br/> :*"
		case len(node.OwnParams) > 0:
			label += " <br/> :" + strings.Join(node.OwnParams, ", :")
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(label), closer))

		parentID := rootID
		if node.Parent != domain.RootName {
			parentID = sanitizeMermaidID(node.Parent)
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", parentID, safeID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef parked fill:#eeeeee,stroke:#757575,stroke-width:2px,stroke-dasharray:5 5,color:#000;\n")

		for _, name := range overlay.Parked {
			sb.WriteString(fmt.Sprintf("    class %s parked;\n", idFor(name)))
		}

		n := len(overlay.ActivePath)
		for i, name := range overlay.ActivePath {
			class := "active"
			if i == n-1 {
				class = "current"
			}
			sb.WriteString(fmt.Sprintf("    class %s %s;\n", idFor(name), class))
		}
	}

	return sb.String()
}

func idFor(name string) string {
	if name == domain.RootName {
		return rootID
	}
	return sanitizeMermaidID(name)
}

// sanitizeMermaidID maps a state name to a Mermaid identifier. The "s_" prefix
// keeps state names from colliding with the root node and Mermaid keywords (end).
func sanitizeMermaidID(name string) string {
	s := strings.ReplaceAll(name, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return "s_" + s
}

func escapeLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
