package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func TypesCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "types",
		Short: "List model types and their patterns",
		Long:  `List the model types of the pattern table in order, with their patterns and checkpoint counts.`,
		Args:  cobra.NoArgs,
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		c := initCore()

		types, err := c.cache.ModelTypes()
		if err != nil {
			log.WithError(err).Fatal("Failed loading model types")
		}

		models, err := c.cache.Classified()
		if err != nil {
			log.WithError(err).Fatal("Failed classifying checkpoints")
		}

		for _, t := range types.Choices() {
			fmt.Printf("%-16s %5d  [%s]\n", t, len(models.Models(t)), strings.Join(types.Patterns(t), ", "))
		}
	}

	return command
}
