package node

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

var ErrUnknownNode = errors.New("unknown node")

type entry struct {
	node        Node
	displayName string
}

// Registry maps node ids to nodes and display names. Ids are unique.
type Registry struct {
	nodes map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]entry)}
}

func (r *Registry) Register(id string, displayName string, n Node) error {
	if id == "" || n == nil {
		return errors.New("register node: id and node are required")
	}
	if _, exists := r.nodes[id]; exists {
		return errors.Errorf("register node: %q already registered", id)
	}

	if displayName == "" {
		displayName = id
	}

	r.nodes[id] = entry{node: n, displayName: displayName}
	return nil
}

func (r *Registry) Get(id string) (Node, bool) {
	e, ok := r.nodes[id]
	return e.node, ok
}

// IDs returns the registered ids, sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.nodes))
	for id := range r.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) ClassMappings() map[string]Node {
	out := make(map[string]Node, len(r.nodes))
	for id, e := range r.nodes {
		out[id] = e.node
	}
	return out
}

func (r *Registry) DisplayNameMappings() map[string]string {
	out := make(map[string]string, len(r.nodes))
	for id, e := range r.nodes {
		out[id] = e.displayName
	}
	return out
}

// Descriptor is the editor-facing description of a node.
type Descriptor struct {
	Name           string     `json:"name"`
	DisplayName    string     `json:"display_name"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	Function       string     `json:"function"`
	Input          InputTypes `json:"input"`
	Output         []string   `json:"output"`
	OutputName     []string   `json:"output_name"`
	OutputTooltips []string   `json:"output_tooltips,omitempty"`
}

// Describe builds the descriptor, declaring inputs at call time.
func (r *Registry) Describe(id string) (Descriptor, bool) {
	e, ok := r.nodes[id]
	if !ok {
		return Descriptor{}, false
	}

	return Descriptor{
		Name:           id,
		DisplayName:    e.displayName,
		Description:    e.node.Description(),
		Category:       e.node.Category(),
		Function:       e.node.Function(),
		Input:          e.node.InputTypes(),
		Output:         e.node.ReturnTypes(),
		OutputName:     e.node.ReturnNames(),
		OutputTooltips: e.node.OutputTooltips(),
	}, true
}

func (r *Registry) Invoke(ctx context.Context, id string, args Args) ([]any, error) {
	n, ok := r.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNode, "%q", id)
	}
	return n.Invoke(ctx, args)
}
