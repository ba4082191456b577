package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"arheritage/internal/config"
	"arheritage/internal/contributions"
	"arheritage/internal/notifications"
	"arheritage/internal/records"
	"arheritage/internal/textutil"
)

func newContributeCommand(ctx *commandContext) *cobra.Command {
	var place, description string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "contribute <file>",
		Short: "Upload a photo or video of a heritage site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			draft := contributions.NewDraft()
			draft.SetDetails(place, description)
			if err := draft.SubmitDetails(); err != nil {
				return err
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer file.Close()

			return ctx.withRecords(func(store *records.Store, logger *slog.Logger) error {
				svc := contributions.NewService(store, cfg.Paths.MediaDir, logger,
					contributions.WithNotifier(notifications.NewService(cfg.Notifications)))
				item, err := svc.Submit(cmd.Context(), draft, filepath.Base(path), file)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, item)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Thank you! %q was submitted for review.\n", item.Title)
				fmt.Fprintf(out, "Stored as %s\n", filepath.Join(cfg.Paths.MediaDir, item.StoredName))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&place, "place", "", "Name of the place (required)")
	cmd.Flags().StringVar(&description, "description", "", "What the upload shows")
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func newContributionsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "contributions",
		Short: "List submitted contributions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withRecords(func(store *records.Store, logger *slog.Logger) error {
				items := contributions.NewService(store, cfg.Paths.MediaDir, logger).History(cmd.Context())
				if asJSON {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No contributions yet")
					return nil
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{
						item.Date,
						item.Title,
						textutil.Ternary(item.Description != "", item.Description, "-"),
						item.FileName,
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Date", "Place", "Description", "File"}, rows, nil, 2))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}
