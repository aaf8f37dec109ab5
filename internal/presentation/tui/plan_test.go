package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/sticky/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestPlanMarkdown(t *testing.T) {
	inbox := &domain.StateNode{Name: "inbox", Sticky: true, OwnParams: []string{}}
	thread := &domain.StateNode{Name: "inbox.thread", Parent: "inbox", Sticky: true, OwnParams: []string{"thread_id"}}

	plan := &domain.TransitionPlan{
		Keep:  1,
		Exit:  []domain.ExitAction{domain.ExitInactivate, domain.ExitInactivate},
		Enter: []domain.EnterAction{domain.EnterFresh},
		Inactive: []*domain.StateInstance{
			domain.NewInstance(inbox, nil, nil),
			domain.NewInstance(thread, domain.Params{"thread_id": "t1"}, nil),
		},
		Sticky: domain.StickyTransition{From: true},
	}

	md := PlanMarkdown([]string{"", "inbox", "inbox.thread"}, []string{"", "settings"}, plan)

	assert.Contains(t, md, "# Transition `inbox.thread` to `settings`")
	assert.Contains(t, md, "Retained: `(root)`")
	assert.Contains(t, md, "| `settings` | enter |")
	assert.Contains(t, md, "- `inbox.thread` map[thread_id:t1]")
	// Exits are listed leaf first.
	assert.Less(t, strings.Index(md, "| `inbox.thread` | inactivate |"), strings.Index(md, "| `inbox` | inactivate |"))
}

func TestPlanMarkdown_Empty(t *testing.T) {
	plan := &domain.TransitionPlan{Keep: 2, Enter: []domain.EnterAction{}, Exit: []domain.ExitAction{}}

	md := PlanMarkdown([]string{"", "a"}, []string{"", "a"}, plan)

	assert.Contains(t, md, "_nothing is exited_")
	assert.Contains(t, md, "_nothing is entered_")
	assert.Contains(t, md, "_no parked states_")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")
}
