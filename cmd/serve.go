package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/server"
)

func ServeCommand() *cobra.Command {
	var listen string

	command := &cobra.Command{
		Use:   "serve",
		Short: "Serve the checkpoint listing and nodes over HTTP",
		Long:  `Serve the checkpoint listing, node descriptors and node invocation over HTTP until interrupted.`,
		Example: `  shiertiertools serve
  shiertiertools serve --listen 0.0.0.0:8190`,
		Args: cobra.NoArgs,
	}

	command.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")

	command.Run = func(cmd *cobra.Command, args []string) {
		c := initCore()
		if listen == "" {
			listen = c.cfg.Server.Listen
		}

		if c.cfg.Server.Mode != "" {
			gin.SetMode(c.cfg.Server.Mode)
		}

		// warm the cache, a broken pattern table is reported but not fatal
		if models, err := c.cache.Classified(); err != nil {
			log.WithError(err).Warn("Failed classifying checkpoints")
		} else {
			log.Infof("Serving %d checkpoints", models.Total())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		router := server.NewRouter(server.NewHandlers(c.cache, c.nodes))
		if err := server.Serve(ctx, listen, router); err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	}

	return command
}
