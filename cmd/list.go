package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/classifier"
)

func ListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list [TYPE]",
		Short: "List classified checkpoints",
		Long:  `List the checkpoints of one model type, or of every type when none is given.`,
		Example: `  shiertiertools list
  shiertiertools list sdxl`,
		Args: cobra.MaximumNArgs(1),
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		c := initCore()

		models, err := c.cache.Classified()
		if err != nil {
			log.WithError(err).Fatal("Failed classifying checkpoints")
		}

		types := models.Types()
		if len(args) == 1 {
			types = []string{args[0]}
		}

		var totalSize uint64
		for _, t := range types {
			list := models.Models(t)
			fmt.Printf("%s (%d)\n", t, len(list))
			totalSize += printModels(list)
		}

		log.Infof("Listed %d checkpoints, %s", models.Total(), humanize.IBytes(totalSize))
	}

	return command
}

func printModels(list classifier.ModelList) uint64 {
	var total uint64
	for _, m := range list {
		size := "?"
		if fi, err := os.Stat(m.Path); err == nil {
			size = humanize.IBytes(uint64(fi.Size()))
			total += uint64(fi.Size())
		}
		fmt.Printf("  %-48s %10s  %s\n", m.Name, size, m.Path)
	}
	return total
}
