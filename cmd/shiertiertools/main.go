package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiertier/ComfyUI-shiertiertools/cmd"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "shiertiertools",
		Short: "Checkpoint classifier and pipeline nodes",
		Long: `A CLI application that classifies checkpoints into model types and serves them,
together with the loader and random choice nodes, over HTTP.
`,
	}

	// Parse persistent flags
	rootCmd.PersistentFlags().StringVar(&cmd.FlagConfigFolder, "config-dir", cmd.FlagConfigFolder, "Config folder")
	rootCmd.PersistentFlags().StringVarP(&cmd.FlagConfigFile, "config", "c", cmd.FlagConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVarP(&cmd.FlagLogFile, "log", "l", cmd.FlagLogFile, "Log file")
	rootCmd.PersistentFlags().CountVarP(&cmd.FlagLogLevel, "verbose", "v", "Verbose level")

	rootCmd.AddCommand(cmd.ServeCommand())
	rootCmd.AddCommand(cmd.TypesCommand())
	rootCmd.AddCommand(cmd.ListCommand())
	rootCmd.AddCommand(cmd.RefreshCommand())
	rootCmd.AddCommand(cmd.LoadCommand())
	rootCmd.AddCommand(cmd.PickCommand())
	rootCmd.AddCommand(cmd.VersionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
