package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"arheritage/internal/app"
	"arheritage/internal/config"
	"arheritage/internal/records"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the user profile",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				profile := settings.Profile()
				if asJSON {
					return writeJSON(cmd, profile)
				}
				printProfile(cmd, profile)
				return nil
			})
		},
	}
	addJSONFlag(showCmd, &asJSON)

	var name, email, bio string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				profile := settings.Profile()
				if cmd.Flags().Changed("name") {
					profile.Name = name
				}
				if cmd.Flags().Changed("email") {
					profile.Email = email
				}
				if cmd.Flags().Changed("bio") {
					profile.Bio = bio
				}
				if err := settings.SaveProfile(cmd.Context(), profile); err != nil {
					return err
				}
				printProfile(cmd, settings.Profile())
				return nil
			})
		},
	}
	setCmd.Flags().StringVar(&name, "name", "", "Display name")
	setCmd.Flags().StringVar(&email, "email", "", "Contact email")
	setCmd.Flags().StringVar(&bio, "bio", "", "Short biography")

	avatarCmd := &cobra.Command{
		Use:   "avatar <image>",
		Short: "Replace the profile picture with a local image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read avatar: %w", err)
			}
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				if err := settings.SetAvatar(cmd.Context(), http.DetectContentType(data), data); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Profile picture updated")
				return nil
			})
		},
	}

	profileCmd.AddCommand(showCmd, setCmd, avatarCmd)
	return profileCmd
}

// withSettings builds the app context over the record store.
func (c *commandContext) withSettings(cmd *cobra.Command, fn func(*app.Context) error) error {
	return c.withRecords(func(store *records.Store, logger *slog.Logger) error {
		return fn(app.NewContext(cmd.Context(), store, logger))
	})
}

func printProfile(cmd *cobra.Command, profile records.Profile) {
	avatar := profile.AvatarURL
	if len(avatar) > 60 {
		avatar = avatar[:57] + "..."
	}
	rows := [][]string{
		{"Name", profile.Name},
		{"Email", profile.Email},
		{"Bio", profile.Bio},
		{"Avatar", avatar},
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil, 1))
}
