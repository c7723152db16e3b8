package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Wolfe-Jam/faf-go/pkg/faf"
)

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find [dir]",
		Short: "Locate the nearest .faf file",
		Long: `find walks up from the given directory (default: the current one)
looking for project.faf or .faf and prints the first match.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := "."
			if len(args) > 0 {
				start = args[0]
			}
			path, err := faf.Discover(start)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}
