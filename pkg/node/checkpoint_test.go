package node

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/classifier"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/config"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/loader"
)

var checkpointsRoot = filepath.Join(string(filepath.Separator), "models", "checkpoints")

type fakeRegistry struct {
	files []string
}

func (f *fakeRegistry) FilenameList(folder string) []string {
	if folder != config.FolderCheckpoints {
		return nil
	}
	return f.files
}

func (f *fakeRegistry) FullPath(folder string, filename string) (string, bool) {
	if folder != config.FolderCheckpoints {
		return "", false
	}
	return filepath.Join(checkpointsRoot, filepath.FromSlash(filename)), true
}

func (f *fakeRegistry) FolderPaths(folder string) []string {
	if folder == config.FolderEmbeddings {
		return []string{"/models/embeddings"}
	}
	return nil
}

type fakeLoader struct {
	path    string
	opts    loader.LoadOptions
	outputs []any
	err     error
}

func (f *fakeLoader) LoadCheckpointGuessConfig(_ context.Context, path string, opts loader.LoadOptions) ([]any, error) {
	f.path = path
	f.opts = opts
	return f.outputs, f.err
}

func newCheckpointNode(t *testing.T, rawTypes string, l loader.Loader, files ...string) *LoadCheckpoint {
	t.Helper()
	reg := &fakeRegistry{files: files}
	cache := classifier.NewCache(func() (*config.ModelTypes, error) {
		return config.ParseModelTypes([]byte(rawTypes))
	}, reg)
	return NewLoadCheckpoint(cache, reg, l)
}

func TestLoadCheckpoint_InputTypes(t *testing.T) {
	n := newCheckpointNode(t, `{"sdxl":["sdxl"],"flux":["flux"]}`, &fakeLoader{},
		"sdxl/b.safetensors",
		"SDXL/sdxl_A.safetensors",
		"flux/c.safetensors",
	)

	in := n.InputTypes()
	require.Len(t, in.Required, 2)
	assert.Equal(t, "model_type", in.Required[0].Name)
	assert.Equal(t, []string{"sdxl", "flux", "other"}, in.Required[0].Choices)
	assert.Equal(t, "ckpt_name", in.Required[1].Name)
	// names of the first category only, the folder prefix is stripped once
	assert.Equal(t, []string{"b", "sdxl_A"}, in.Required[1].Choices)
}

func TestLoadCheckpoint_Outputs(t *testing.T) {
	n := newCheckpointNode(t, `{}`, &fakeLoader{})

	assert.Equal(t, []string{"MODEL", "CLIP", "VAE"}, n.ReturnTypes())
	assert.Equal(t, []string{
		"用于去噪的模型",
		"用于编码文本提示的CLIP模型",
		"用于编码和解码图像的VAE模型",
	}, n.OutputTooltips())
	assert.Equal(t, "load_checkpoint", n.Function())
	assert.Equal(t, "loaders", n.Category())
}

func TestLoadCheckpoint_InputTypesDegrade(t *testing.T) {
	n := newCheckpointNode(t, `not json`, &fakeLoader{}, "sdxl/a.safetensors")

	in := n.InputTypes()
	assert.Equal(t, []string{"other"}, in.Required[0].Choices)
	assert.Equal(t, []string{}, in.Required[1].Choices)
}

func TestLoadCheckpoint_Invoke(t *testing.T) {
	l := &fakeLoader{outputs: []any{"model", "clip", "vae", "clipvision"}}
	n := newCheckpointNode(t, `{"sdxl":["sdxl"]}`, l, "sdxl/model_a.safetensors")

	out, err := n.Invoke(context.Background(), Args{"model_type": "sdxl", "ckpt_name": "model_a"})
	require.NoError(t, err)

	assert.Equal(t, []any{"model", "clip", "vae"}, out)
	assert.Equal(t, filepath.Join(checkpointsRoot, "sdxl", "model_a.safetensors"), l.path)
	assert.True(t, l.opts.OutputVAE)
	assert.True(t, l.opts.OutputCLIP)
	assert.Equal(t, []string{"/models/embeddings"}, l.opts.EmbeddingDirectory)
}

func TestLoadCheckpoint_InvokeErrors(t *testing.T) {
	tests := []struct {
		name   string
		loader *fakeLoader
		args   Args
		cause  string
	}{
		{
			name:   "unknown_name",
			loader: &fakeLoader{outputs: []any{1, 2, 3}},
			args:   Args{"model_type": "sdxl", "ckpt_name": "missing"},
			cause:  `checkpoint "missing" not found`,
		},
		{
			name:   "unknown_type",
			loader: &fakeLoader{outputs: []any{1, 2, 3}},
			args:   Args{"model_type": "flux", "ckpt_name": "model_a"},
			cause:  `model type "flux"`,
		},
		{
			name:   "missing_input",
			loader: &fakeLoader{},
			args:   Args{"model_type": "sdxl"},
			cause:  `missing input "ckpt_name"`,
		},
		{
			name:   "loader_failure",
			loader: &fakeLoader{err: errors.New("unsupported checkpoint")},
			args:   Args{"model_type": "sdxl", "ckpt_name": "model_a"},
			cause:  "unsupported checkpoint",
		},
		{
			name:   "short_outputs",
			loader: &fakeLoader{outputs: []any{"model"}},
			args:   Args{"model_type": "sdxl", "ckpt_name": "model_a"},
			cause:  "expected at least 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newCheckpointNode(t, `{"sdxl":["sdxl"]}`, tt.loader, "sdxl/model_a.safetensors")

			_, err := n.Invoke(context.Background(), tt.args)
			require.Error(t, err)

			var ve *ValueError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, "加载模型失败", ve.Msg)
			assert.Contains(t, err.Error(), tt.cause)
		})
	}
}

func TestLoadCheckpoint_Unconfigured(t *testing.T) {
	n := newCheckpointNode(t, `{"sdxl":["sdxl"]}`, loader.New(loader.Config{}), "sdxl/model_a.safetensors")

	_, err := n.Invoke(context.Background(), Args{"model_type": "sdxl", "ckpt_name": "model_a"})
	assert.True(t, errors.Is(err, loader.ErrNotConfigured))
}
