package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lgc202/chatkit/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(version.Get().String())
			return nil
		}
		fmt.Println(version.Get().Text())
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("short", false, "Print only the version number")
	rootCmd.AddCommand(versionCmd)
}
