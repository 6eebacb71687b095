package node

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/classifier"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/config"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/loader"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/registry"
)

const (
	LoadCheckpointID          = "LoadCheckpoint12"
	LoadCheckpointDisplayName = "加载Checkpoint(简易)"
)

// LoadCheckpoint selects a checkpoint by category and display name and loads
// it into a model, text encoder and image codec.
type LoadCheckpoint struct {
	cache    *classifier.Cache
	registry registry.FileRegistry
	loader   loader.Loader
	log      *logrus.Entry
}

func NewLoadCheckpoint(cache *classifier.Cache, reg registry.FileRegistry, l loader.Loader) *LoadCheckpoint {
	return &LoadCheckpoint{
		cache:    cache,
		registry: reg,
		loader:   l,
		log:      logger.GetLogger(LoadCheckpointID),
	}
}

// InputTypes lists the names of the first category only; the editor does not
// refresh them when another category is picked.
func (n *LoadCheckpoint) InputTypes() InputTypes {
	typeChoices := []string{config.OtherModelType}
	names := []string{}

	types, err := n.cache.ModelTypes()
	if err == nil {
		typeChoices = types.Choices()
		var models *classifier.Classified
		if models, err = n.cache.Classified(); err == nil {
			names = models.Models(typeChoices[0]).Names()
		}
	}
	if err != nil {
		n.log.WithError(err).Warn("Failed declaring checkpoint inputs")
	}

	return InputTypes{
		Required: []InputSpec{
			{Name: "model_type", Choices: typeChoices},
			{
				Name:    "ckpt_name",
				Choices: names,
				Options: map[string]any{"tooltip": "选择要加载的模型文件"},
			},
		},
	}
}

func (n *LoadCheckpoint) ReturnTypes() []string { return []string{"MODEL", "CLIP", "VAE"} }
func (n *LoadCheckpoint) ReturnNames() []string { return []string{"MODEL", "CLIP", "VAE"} }

func (n *LoadCheckpoint) OutputTooltips() []string {
	return []string{
		"用于去噪的模型",
		"用于编码文本提示的CLIP模型",
		"用于编码和解码图像的VAE模型",
	}
}

func (n *LoadCheckpoint) Function() string { return "load_checkpoint" }
func (n *LoadCheckpoint) Category() string { return "loaders" }

func (n *LoadCheckpoint) Description() string {
	return "加载扩散模型检查点，用于对潜空间进行去噪。"
}

func (n *LoadCheckpoint) Invoke(ctx context.Context, args Args) ([]any, error) {
	outputs, err := n.load(ctx, args)
	if err != nil {
		n.log.WithError(err).Error("Failed loading checkpoint")
		return nil, &ValueError{Msg: "加载模型失败", Err: err}
	}
	return outputs, nil
}

func (n *LoadCheckpoint) load(ctx context.Context, args Args) ([]any, error) {
	modelType, err := args.String("model_type")
	if err != nil {
		return nil, err
	}
	name, err := args.String("ckpt_name")
	if err != nil {
		return nil, err
	}

	models, err := n.cache.Classified()
	if err != nil {
		return nil, err
	}

	path, ok := models.Lookup(modelType, name)
	if !ok {
		return nil, errors.Errorf("checkpoint %q not found in model type %q", name, modelType)
	}

	n.log.Infof("Loading checkpoint %q (%s): %s", name, modelType, path)

	outputs, err := n.loader.LoadCheckpointGuessConfig(ctx, path, loader.LoadOptions{
		OutputVAE:          true,
		OutputCLIP:         true,
		EmbeddingDirectory: n.registry.FolderPaths(config.FolderEmbeddings),
	})
	if err != nil {
		return nil, err
	}

	if len(outputs) < 3 {
		return nil, errors.Errorf("loader returned %d outputs, expected at least 3", len(outputs))
	}

	return outputs[:3], nil
}
