package node

import (
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/classifier"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/loader"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/registry"
)

// RegisterBuiltins registers the checkpoint loader and the random choice node.
func RegisterBuiltins(r *Registry, cache *classifier.Cache, reg registry.FileRegistry, l loader.Loader) error {
	if err := r.Register(LoadCheckpointID, LoadCheckpointDisplayName, NewLoadCheckpoint(cache, reg, l)); err != nil {
		return err
	}
	return r.Register(RandomChoiceID, RandomChoiceDisplayName, NewRandomChoice())
}
