package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LiableFish/English-Phrasebook-App/pkg/dictionary"
)

func newDictCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage the pronouncing dictionary",
	}

	var url string
	fetch := &cobra.Command{
		Use:   "fetch",
		Short: "Download the pronouncing dictionary if it is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := &dictionary.Downloader{URL: url, Log: a.log}
			if err := d.Ensure(cmd.Context(), a.cfg.DictPath); err != nil {
				return err
			}
			dict, err := dictionary.Load(a.cfg.DictPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dictionary %s has %d words\n", a.cfg.DictPath, dict.Len())
			return nil
		},
	}
	fetch.Flags().StringVar(&url, "url", dictionary.DefaultURL, "Dictionary source URL")

	cmd.AddCommand(fetch)
	return cmd
}
