package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"quill/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the quill result cache",
	Long:  "Remove every cached check and lower result kept under the user cache directory.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(cmd *cobra.Command, _ []string) error {
	cache, err := driver.OpenDiskCache("quill")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	return cleanCache(cmd.OutOrStdout(), cache)
}

func cleanCache(out io.Writer, cache *driver.DiskCache) error {
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", cache.Dir(), err)
	}
	_, err := fmt.Fprintf(out, "removed %s\n", cache.Dir())
	return err
}
