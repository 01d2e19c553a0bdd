package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(version)
			return
		}
		fmt.Printf("%s version: %s (%s %s/%s)\n", app, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "print the version number only")
	rootCmd.AddCommand(versionCmd)
}
