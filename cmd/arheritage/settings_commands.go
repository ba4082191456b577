package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"arheritage/internal/app"
	"arheritage/internal/language"
	"arheritage/internal/records"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change theme and narration settings",
	}

	var asJSON bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				if asJSON {
					return writeJSON(cmd, map[string]any{
						"theme": settings.Theme(),
						"audio": settings.AudioSettings(),
					})
				}
				printSettings(cmd, settings)
				return nil
			})
		},
	}
	addJSONFlag(showCmd, &asJSON)

	themeCmd := &cobra.Command{
		Use:       "theme <light|dark|toggle>",
		Short:     "Switch the colour theme",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				if strings.EqualFold(strings.TrimSpace(args[0]), "toggle") {
					if _, err := settings.ToggleTheme(cmd.Context()); err != nil {
						return err
					}
				} else if err := settings.SetTheme(cmd.Context(), records.Theme(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Theme: %s\n", settings.Theme())
				return nil
			})
		},
	}

	voiceCmd := &cobra.Command{
		Use:       "voice <male|female>",
		Short:     "Choose the narration voice",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"male", "female"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				voice := records.Voice(strings.ToLower(strings.TrimSpace(args[0])))
				if err := settings.SetAudioVoice(cmd.Context(), voice); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Voice: %s\n", settings.AudioSettings().Voice)
				return nil
			})
		},
	}

	languageCmd := &cobra.Command{
		Use:   "language <tag>",
		Short: "Choose the narration and description language (BCP-47)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSettings(cmd, func(settings *app.Context) error {
				if err := settings.SetAudioLanguage(cmd.Context(), args[0]); err != nil {
					return err
				}
				tag := settings.AudioSettings().Language
				fmt.Fprintf(cmd.OutOrStdout(), "Language: %s (%s)\n", language.DisplayName(tag), tag)
				return nil
			})
		},
	}

	languagesCmd := &cobra.Command{
		Use:         "languages",
		Short:       "List supported languages",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			options := language.Options()
			rows := make([][]string, 0, len(options))
			for _, opt := range options {
				rows = append(rows, []string{opt.Tag, opt.Name})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Tag", "Language"}, rows, nil))
			return nil
		},
	}

	settingsCmd.AddCommand(showCmd, themeCmd, voiceCmd, languageCmd, languagesCmd)
	return settingsCmd
}

func printSettings(cmd *cobra.Command, settings *app.Context) {
	audio := settings.AudioSettings()
	rows := [][]string{
		{"Theme", string(settings.Theme())},
		{"Voice", string(audio.Voice)},
		{"Language", fmt.Sprintf("%s (%s)", language.DisplayName(audio.Language), audio.Language)},
	}
	fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Setting", "Value"}, rows, nil))
}
