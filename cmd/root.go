package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/classifier"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/config"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/loader"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/logger"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/node"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/paths"
	"github.com/shiertier/ComfyUI-shiertiertools/pkg/registry"
)

var (
	// Global flags
	FlagLogLevel     = 0
	FlagConfigFile   = "config.yaml"
	FlagConfigFolder = config.GetDefaultConfigDirectory("shiertiertools", FlagConfigFile)
	FlagLogFile      = "activity.log"

	// Global vars
	log         *logrus.Entry
	initialized bool
	app         *core
)

// core holds the components shared by every command.
type core struct {
	cfg      *config.Configuration
	registry *registry.Disk
	cache    *classifier.Cache
	loader   loader.Loader
	nodes    *node.Registry
}

func configPath(folder string, file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(folder, file)
}

func initCore() *core {
	if initialized {
		return app
	}

	// init logging
	if err := logger.Init(logger.Config{
		Verbosity: FlagLogLevel,
		File:      configPath(FlagConfigFolder, FlagLogFile),
	}); err != nil {
		logrus.WithError(err).Fatal("Failed initializing logging")
	}
	log = logger.GetLogger("app")

	// init config
	cfgPath := configPath(FlagConfigFolder, FlagConfigFile)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.WithError(err).Fatalf("Failed loading configuration: %s", cfgPath)
	}
	log.Debugf("Using model types: %s", cfg.Types.Path)

	ignore, err := paths.CompileIgnore(cfg.Registry.Ignore)
	if err != nil {
		log.WithError(err).Fatal("Failed compiling ignore patterns")
	}

	reg := registry.NewDisk(cfg.Folders, cfg.Registry.Extensions, ignore)
	cache := classifier.NewFileCache(cfg.Types.Path, reg)
	l := loader.New(loader.Config{
		URL:     cfg.Loader.URL,
		Timeout: cfg.Loader.Timeout,
		Retries: cfg.Loader.Retries,
		Rate:    cfg.Loader.Rate,
	})

	nodes := node.NewRegistry()
	if err := node.RegisterBuiltins(nodes, cache, reg, l); err != nil {
		log.WithError(err).Fatal("Failed registering nodes")
	}

	app = &core{
		cfg:      cfg,
		registry: reg,
		cache:    cache,
		loader:   l,
		nodes:    nodes,
	}
	initialized = true
	return app
}
