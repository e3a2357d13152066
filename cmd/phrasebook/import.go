package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/LiableFish/English-Phrasebook-App/pkg/content"
)

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "Create or update content from a YAML seed file",
		Long: `Import upserts levels by code and categories, themes and words by name.
File paths inside the seed are resolved relative to the seed file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seedPath := args[0]
			seed, err := content.LoadSeed(a.fs, seedPath)
			if err != nil {
				return err
			}

			svc, conn, err := a.service()
			if err != nil {
				return err
			}
			defer conn.Close()

			files := afero.NewBasePathFs(a.fs, filepath.Dir(seedPath))
			stats, err := svc.Import(cmd.Context(), seed, files)
			if err != nil {
				return fmt.Errorf("import %s: %w", seedPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d levels, %d categories, %d themes, %d words (%d files)\n",
				stats.Levels, stats.Categories, stats.Themes, stats.Words, stats.Files)
			return nil
		},
	}
}
