package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/node"
)

func LoadCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "load TYPE NAME",
		Short:   "Load a checkpoint through the configured loader",
		Long:    `Resolve a checkpoint by model type and name and load it through loader.url.`,
		Example: `  shiertiertools load sdxl juggernautXL_v9`,
		Args:    cobra.ExactArgs(2),
	}

	command.Run = func(cmd *cobra.Command, args []string) {
		c := initCore()

		outputs, err := c.nodes.Invoke(cmd.Context(), node.LoadCheckpointID, node.Args{
			"model_type": args[0],
			"ckpt_name":  args[1],
		})
		if err != nil {
			log.WithError(err).Fatal("Failed loading checkpoint")
		}

		out, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			log.WithError(err).Fatal("Failed encoding outputs")
		}
		fmt.Println(string(out))
	}

	return command
}
