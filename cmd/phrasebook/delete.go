package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LiableFish/English-Phrasebook-App/pkg/content"
)

func parseTarget(args []string) (content.Kind, int64, error) {
	kind, err := content.ParseKind(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, fmt.Errorf("invalid id %q", args[1])
	}
	return kind, id, nil
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category|level|theme|word> <id>",
		Short: "Delete a record, its dependents and their files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := parseTarget(args)
			if err != nil {
				return err
			}
			svc, conn, err := a.service()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := svc.Delete(cmd.Context(), kind, id); err != nil {
				return fmt.Errorf("delete %s %d: %w", kind, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", kind, id)
			return nil
		},
	}
}

func newClearFileCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-file <category|theme|word> <id>",
		Short: "Remove the icon, photo or sound of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, id, err := parseTarget(args)
			if err != nil {
				return err
			}
			svc, conn, err := a.service()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := svc.ClearFile(cmd.Context(), kind, id); err != nil {
				return fmt.Errorf("clear file of %s %d: %w", kind, id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared file of %s %d\n", kind, id)
			return nil
		},
	}
}
