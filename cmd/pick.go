package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiertier/ComfyUI-shiertiertools/pkg/node"
)

func PickCommand() *cobra.Command {
	var seed uint64

	command := &cobra.Command{
		Use:   "pick [ITEM...]",
		Short: "Pick a random item",
		Long:  `Pick one item at random from the arguments, or from the lines of stdin when none are given.`,
		Example: `  shiertiertools pick a b c
  cat prompts.txt | shiertiertools pick`,
	}

	command.Flags().Uint64Var(&seed, "seed", 0, "Seed (accepted, selection is not seeded)")

	command.Run = func(cmd *cobra.Command, args []string) {
		c := initCore()

		var input any = args
		if len(args) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				log.WithError(err).Fatal("Failed reading stdin")
			}
			input = string(data)
		}

		outputs, err := c.nodes.Invoke(cmd.Context(), node.RandomChoiceID, node.Args{
			"input_list": input,
			"seed":       seed,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed picking item")
		}

		fmt.Println(outputs[0])
	}

	return command
}
