package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"
)

const (
	// EnvPrefix prefixes environment overrides, e.g. CKPT_SERVER_LISTEN -> server.listen.
	EnvPrefix = "CKPT_"

	FolderCheckpoints = "checkpoints"
	FolderEmbeddings  = "embeddings"

	ModelTypesFile = "models_type.json"
)

type Configuration struct {
	Server   ServerConfig        `koanf:"server"`
	Types    TypesConfig         `koanf:"types"`
	Folders  map[string][]string `koanf:"folders" validate:"required,dive,keys,required,endkeys,dive,required"`
	Registry RegistryConfig      `koanf:"registry"`
	Loader   LoaderConfig        `koanf:"loader"`
}

type ServerConfig struct {
	Listen string `koanf:"listen" validate:"required,hostname_port"`
	Mode   string `koanf:"mode" validate:"omitempty,oneof=debug release test"`
}

type TypesConfig struct {
	// Path of the category pattern table, defaults to models_type.json beside the executable.
	Path string `koanf:"path"`
}

type RegistryConfig struct {
	Extensions []string `koanf:"extensions" validate:"dive,required,startswith=."`
	Ignore     []string `koanf:"ignore"`
}

type LoaderConfig struct {
	URL     string        `koanf:"url" validate:"omitempty,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	Retries int           `koanf:"retries" validate:"gte=0,lte=10"`
	// Rate is the maximum number of loader requests per second.
	Rate int `koanf:"rate" validate:"gte=0"`
}

var validate = validator.New()

// SupportedExtensions mirrors the checkpoint extensions recognised by the editor host.
var SupportedExtensions = []string{".ckpt", ".pt", ".pt2", ".bin", ".pth", ".safetensors", ".pkl", ".sft"}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.listen":       "127.0.0.1:8190",
		"server.mode":         "release",
		"folders.checkpoints": []string{filepath.Join("models", FolderCheckpoints)},
		"folders.embeddings":  []string{filepath.Join("models", FolderEmbeddings)},
		"registry.extensions": SupportedExtensions,
		"loader.timeout":      "5m",
		"loader.retries":      0,
		"loader.rate":         1,
	}
}

// Load builds the configuration from defaults, the optional YAML file at path and
// CKPT_ prefixed environment variables, in that order of precedence.
func Load(path string) (*Configuration, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "load config file %q", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat config file %q", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	cfg := &Configuration{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if cfg.Types.Path == "" {
		cfg.Types.Path = DefaultModelTypesPath()
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}

	if len(cfg.Folders[FolderCheckpoints]) == 0 {
		return nil, errors.Errorf("no search paths configured for folder %q", FolderCheckpoints)
	}

	return cfg, nil
}

// DefaultModelTypesPath returns models_type.json beside the running executable,
// falling back to the working directory.
func DefaultModelTypesPath() string {
	exe, err := os.Executable()
	if err != nil {
		return ModelTypesFile
	}

	return filepath.Join(filepath.Dir(exe), ModelTypesFile)
}

// GetDefaultConfigDirectory returns the per-user config folder for app,
// or the working directory when filename already exists there.
func GetDefaultConfigDirectory(app string, filename string) string {
	if _, err := os.Stat(filename); err == nil {
		return "."
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}

	return filepath.Join(dir, app)
}
