package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/sticky/internal/presentation/graph"
	"github.com/aretw0/sticky/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []*domain.StateNode
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name:  "Root Shape",
			nodes: nil,
			contains: []string{
				`root(("root"))`,
			},
		},
		{
			name: "Sticky Shape",
			nodes: []*domain.StateNode{
				{Name: "inbox", Sticky: true, OwnParams: []string{}},
				{Name: "settings", OwnParams: []string{}},
			},
			contains: []string{
				`s_inbox(["inbox"])`,
				`s_settings["settings"]`,
				"root --> s_inbox",
			},
		},
		{
			name: "Own Params",
			nodes: []*domain.StateNode{
				{Name: "inbox.thread", Parent: "inbox", OwnParams: []string{"thread_id", "page"}},
				{Name: "search", OwnParams: nil},
			},
			contains: []string{
				`s_inbox_thread["inbox.thread <br/> :thread_id, :page"]`,
				`s_search["search <br/> :*"]`,
				"s_inbox --> s_inbox_thread",
			},
		},
		{
			name: "ID Sanitization",
			nodes: []*domain.StateNode{
				{Name: "hyphen-ated", OwnParams: []string{}},
				{Name: "end", OwnParams: []string{}},
			},
			contains: []string{
				`s_hyphen_ated["hyphen-ated"]`,
				`s_end["end"]`,
			},
		},
		{
			name: "Overlay",
			nodes: []*domain.StateNode{
				{Name: "inbox", Sticky: true, OwnParams: []string{}},
				{Name: "settings", OwnParams: []string{}},
			},
			overlay: &graph.GraphOverlay{
				ActivePath: []string{domain.RootName, "settings"},
				Parked:     []string{"inbox"},
			},
			contains: []string{
				"class root active;",
				"class s_settings current;",
				"class s_inbox parked;",
			},
		},
		{
			name: "No Overlay",
			nodes: []*domain.StateNode{
				{Name: "inbox", OwnParams: []string{}},
			},
			excludes: []string{
				"classDef",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.nodes, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnexpected substring: %v", got, unwanted)
				}
			}
		})
	}
}
