package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"arheritage/internal/config"
	"arheritage/internal/device"
	"arheritage/internal/discovery"
	"arheritage/internal/gemini"
	"arheritage/internal/narration"
	"arheritage/internal/records"
)

type positionFlags struct {
	latitude  float64
	longitude float64
}

func (p *positionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.latitude, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&p.longitude, "lon", 0, "Longitude in decimal degrees")
}

// locator prefers coordinates given on the command line over the configured
// fixed position.
func (p *positionFlags) locator(cmd *cobra.Command, cfg *config.Config) (device.Locator, error) {
	latSet := cmd.Flags().Changed("lat")
	lonSet := cmd.Flags().Changed("lon")
	if latSet != lonSet {
		return nil, errors.New("--lat and --lon must be given together")
	}
	fixed := device.NewFixedLocator(cfg)
	if !latSet {
		return fixed, nil
	}
	pos := device.Position{Latitude: p.latitude, Longitude: p.longitude}
	return device.FirstAvailable(device.ClientLocator{Position: &pos}, fixed), nil
}

type viewOptions struct {
	position positionFlags
	speak    bool
	asJSON   bool
}

func newDiscoverCommand(ctx *commandContext) *cobra.Command {
	var opts viewOptions
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Describe the history of the current location",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, ctx, &opts, (*discovery.Service).Discover)
		},
	}
	opts.position.register(cmd)
	cmd.Flags().BoolVar(&opts.speak, "speak", false, "Read the narrative aloud")
	addJSONFlag(cmd, &opts.asJSON)
	return cmd
}

func newHomeCommand(ctx *commandContext) *cobra.Command {
	var opts viewOptions
	cmd := &cobra.Command{
		Use:   "home",
		Short: "Show nearby heritage sites and recent discoveries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd, ctx, &opts, (*discovery.Service).Home)
		},
	}
	opts.position.register(cmd)
	addJSONFlag(cmd, &opts.asJSON)
	return cmd
}

type mountFunc func(*discovery.Service, context.Context, device.Locator) *discovery.View

func runView(cmd *cobra.Command, ctx *commandContext, opts *viewOptions, mount mountFunc) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	locator, err := opts.position.locator(cmd, cfg)
	if err != nil {
		return err
	}
	return ctx.withRecords(func(store *records.Store, logger *slog.Logger) error {
		runCtx := cmd.Context()
		var svcOpts []discovery.Option
		if opts.speak {
			speech := device.NewSpeech(cfg, logger)
			if err := speech.LoadVoices(runCtx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
			}
			svcOpts = append(svcOpts, discovery.WithSpeaker(narration.Speaker(speech)))
		}
		svc := discovery.NewService(gemini.NewClientFromConfig(cfg.GetGateway()), store, logger, svcOpts...)

		view := mount(svc, runCtx, locator)
		defer view.Unmount()
		view.Wait()
		snap := view.Snapshot()

		if opts.asJSON {
			if err := writeJSON(cmd, snap); err != nil {
				return err
			}
		} else {
			printSnapshot(cmd.OutOrStdout(), snap)
		}

		if snap.Location != nil && snap.Location.Err != "" {
			return errors.New(snap.Location.Err)
		}
		if opts.speak && snap.Location != nil {
			if _, err := view.Speak(runCtx); err != nil {
				return err
			}
			waitWhile(runCtx, func() bool { return view.Snapshot().Speaking })
		}
		return nil
	})
}

func printSnapshot(out io.Writer, snap discovery.Snapshot) {
	if loc := snap.Location; loc != nil && loc.Err == "" {
		info := loc.Value
		fmt.Fprintln(out, info.Title)
		fmt.Fprintln(out, strings.Repeat("=", len(info.Title)))
		fmt.Fprintf(out, "%.5f, %.5f\n", info.Position.Latitude, info.Position.Longitude)
		for _, p := range bodyParagraphs(info.Paragraphs) {
			fmt.Fprintln(out)
			fmt.Fprintln(out, p)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Nearby heritage sites")
	switch {
	case snap.Nearby.Err != "":
		fmt.Fprintf(out, "  %s\n", snap.Nearby.Err)
	case len(snap.Nearby.Value) == 0:
		fmt.Fprintln(out, "  None found")
	default:
		rows := make([][]string, 0, len(snap.Nearby.Value))
		for _, place := range snap.Nearby.Value {
			rows = append(rows, []string{place.Name, place.Description})
		}
		fmt.Fprint(out, renderTable([]string{"Place", "Description"}, rows, nil, 1))
	}

	if snap.Location == nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Recent discoveries")
		printHistory(out, snap.Recent)
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List discovered locations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRecords(func(store *records.Store, _ *slog.Logger) error {
				items := store.DiscoverHistory(cmd.Context())
				if asJSON {
					return writeJSON(cmd, items)
				}
				printHistory(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}
	addJSONFlag(cmd, &asJSON)
	return cmd
}

func printHistory(out io.Writer, items []records.HistoryItem) {
	if len(items) == 0 {
		fmt.Fprintln(out, "  No discoveries yet")
		return
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Date, item.Title})
	}
	fmt.Fprint(out, renderTable([]string{"Date", "Title"}, rows, nil))
}
