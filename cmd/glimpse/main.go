package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/glimpsehq/glimpse/cmd/glimpse/libs"
	"github.com/glimpsehq/glimpse/cmd/glimpse/pull"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "glimpse",
	Short: "Tooling for the glimpse multimodal bridge",
	Long:  "Tooling for the glimpse multimodal bridge. Glimpse runs image conditioned generation on llama.cpp via yzma; this tool installs the native libraries and pulls model and projector files.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().BoolP("version", "v", false, "Show version information")
	rootCmd.SetVersionTemplate(version)

	rootCmd.AddCommand(libsCmd)
	rootCmd.AddCommand(pullCmd)
}

var libsCmd = &cobra.Command{
	Use:   "libs",
	Short: "Install or upgrade llama.cpp libraries",
	Long: `Install or upgrade llama.cpp libraries

Environment Variables:
      GLIMPSE_LIB_PATH   (default: $HOME/.glimpse/libraries)  The path to the libraries directory
      GLIMPSE_PROCESSOR  (default: cpu)                       Options: cpu, cuda, metal, vulkan`,
	Run: runLibs,
}

var pullCmd = &cobra.Command{
	Use:   "pull <MODEL_URL> <MMPROJ_URL>",
	Short: "Pull a model from a registry, the mmproj file is optional",
	Long: `Pull a model from a registry, the mmproj file is optional

Environment Variables:
      GLIMPSE_MODELS    (default: $HOME/.glimpse/models)  The path to the models directory
      GLIMPSE_HF_TOKEN  Token used for gated repositories`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runPull,
}

func runLibs(cmd *cobra.Command, args []string) {
	if err := libs.Run(args); err != nil {
		if errors.Is(err, libs.ErrInvalidArguments) {
			cmd.Help()
			os.Exit(1)
		}

		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
}

func runPull(cmd *cobra.Command, args []string) {
	if err := pull.Run(args); err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
}
