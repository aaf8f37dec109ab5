package dto

import (
	"fmt"
	"strings"

	"github.com/aretw0/sticky/pkg/domain"
)

// TreeDefinition is the document form of a state tree file.
// It uses "mapstructure" tags to match the YAML/JSON keys.
type TreeDefinition struct {
	Name   string            `json:"name" mapstructure:"name"`
	States []StateDefinition `json:"states" mapstructure:"states"`
}

// StateDefinition is the document form of a single state.
// Nested states take their parent's name as prefix: "thread" under "inbox" is "inbox.thread".
type StateDefinition struct {
	Name   string `json:"name" mapstructure:"name"`
	Sticky bool   `json:"sticky" mapstructure:"sticky"`

	// Params lists the parameter keys the state introduces.
	Params []string `json:"params" mapstructure:"params"`

	// CompareAllParams makes the state compare every parameter key. It overrides Params.
	CompareAllParams bool `json:"compare_all_params" mapstructure:"compare_all_params"`

	Description string `json:"description" mapstructure:"description"`

	States []StateDefinition `json:"states" mapstructure:"states"`

	// General Metadata
	Metadata map[string]string `json:"metadata" mapstructure:"metadata"`
}

// Nodes flattens the definition into state nodes, parents before children.
func (d TreeDefinition) Nodes() ([]domain.StateNode, error) {
	var nodes []domain.StateNode
	for _, s := range d.States {
		var err error
		if nodes, err = s.appendNodes(nodes, domain.RootName); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// Node converts the definition into a state node named fullName.
func (s StateDefinition) Node(fullName string) domain.StateNode {
	node := domain.StateNode{
		Name:        fullName,
		Sticky:      s.Sticky,
		Description: s.Description,
	}
	if !s.CompareAllParams {
		node.OwnParams = append([]string{}, s.Params...)
	}
	return node
}

func (s StateDefinition) appendNodes(nodes []domain.StateNode, prefix string) ([]domain.StateNode, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return nil, fmt.Errorf("state under %q has no name", prefix)
	}
	if prefix != domain.RootName {
		name = prefix + "." + name
	}
	nodes = append(nodes, s.Node(name))
	for _, child := range s.States {
		var err error
		if nodes, err = child.appendNodes(nodes, name); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// Script is a scripted sequence of transitions, used by the simulate command.
type Script struct {
	Steps []ScriptStep `json:"steps" mapstructure:"steps"`
}

// ScriptStep is a single scripted transition.
type ScriptStep struct {
	To     string         `json:"to" mapstructure:"to"`
	Params map[string]any `json:"params" mapstructure:"params"`
}
