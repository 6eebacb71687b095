// Package loader delegates checkpoint loading to an inference backend.
package loader

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/httputils"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
)

var ErrNotConfigured = errors.New("no checkpoint loader configured")

type LoadOptions struct {
	OutputVAE          bool     `json:"output_vae"`
	OutputCLIP         bool     `json:"output_clip"`
	EmbeddingDirectory []string `json:"embedding_directory"`
}

// Loader infers the model architecture of a checkpoint and loads it. The first
// three outputs are the denoising model, the text encoder and the image codec;
// any further outputs are backend specific.
type Loader interface {
	LoadCheckpointGuessConfig(ctx context.Context, path string, opts LoadOptions) ([]any, error)
}

type Config struct {
	URL     string
	Timeout time.Duration
	Retries int
	// Rate limits requests per second, 0 disables the limit.
	Rate int
}

// Remote loads checkpoints through the backend's HTTP API and returns the handles
// it reports for each output.
type Remote struct {
	url     string
	http    *http.Client
	headers map[string]string
	log     *logrus.Entry
}

// New returns a Remote loader, or Unconfigured when no URL is set.
func New(cfg Config) Loader {
	if cfg.URL == "" {
		return Unconfigured{}
	}
	return NewRemote(cfg)
}

func NewRemote(cfg Config) *Remote {
	l := logger.GetLogger("loader")

	var rl ratelimit.Limiter
	if cfg.Rate > 0 {
		rl = ratelimit.New(cfg.Rate, ratelimit.WithoutSlack)
	}

	return &Remote{
		url:  strings.TrimSuffix(cfg.URL, "/"),
		http: httputils.NewRetryableHttpClient(cfg.Timeout, cfg.Retries, rl, l),
		headers: map[string]string{
			"Accept": "application/json",
		},
		log: l,
	}
}

type loadRequest struct {
	CkptPath string `json:"ckpt_path"`
	LoadOptions
}

type loadResponse struct {
	Outputs []any  `json:"outputs"`
	Error   string `json:"error,omitempty"`
}

func (r *Remote) LoadCheckpointGuessConfig(ctx context.Context, path string, opts LoadOptions) ([]any, error) {
	r.log.Debugf("Loading checkpoint: %q", path)

	var resp loadResponse
	err := httputils.MakeAPIRequest(ctx, r.http, http.MethodPost, r.url+"/load_checkpoint",
		loadRequest{CkptPath: path, LoadOptions: opts}, r.headers, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "load checkpoint")
	}

	if resp.Error != "" {
		return nil, errors.Errorf("load checkpoint: %s", resp.Error)
	}

	r.log.Tracef("Loaded checkpoint %q with %d outputs", path, len(resp.Outputs))
	return resp.Outputs, nil
}

// Unconfigured fails every load.
type Unconfigured struct{}

func (Unconfigured) LoadCheckpointGuessConfig(context.Context, string, LoadOptions) ([]any, error) {
	return nil, ErrNotConfigured
}
