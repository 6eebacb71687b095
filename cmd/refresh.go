package cmd

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func RefreshCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "refresh",
		Short: "Reload the pattern table and classify again",
		Long:  `Reload the pattern table, rescan the search paths and report the classification.`,
		Args:  cobra.NoArgs,
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		c := initCore()
		start := time.Now()

		c.cache.Invalidate()
		models, err := c.cache.Classified()
		if err != nil {
			log.WithError(err).Fatal("Failed classifying checkpoints")
		}

		for _, t := range models.Types() {
			log.Infof("%s: %d", t, len(models.Models(t)))
		}
		log.Infof("Classified %s checkpoints in %s", humanize.Comma(int64(models.Total())), time.Since(start))
	}

	return command
}
