package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"arheritage/internal/config"
	"arheritage/internal/device"
	"arheritage/internal/gemini"
	"arheritage/internal/narration"
	"arheritage/internal/records"
	"arheritage/internal/scan"
)

type scanOptions struct {
	camera  bool
	speak   bool
	rating  string
	comment string
	asJSON  bool
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan [image]",
		Short: "Identify a landmark from an image file or the camera",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !opts.camera {
				return errors.New("provide an image path or use --camera")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withRecords(func(store *records.Store, logger *slog.Logger) error {
				return runScan(cmd, cfg, store, logger, args, opts)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.camera, "camera", false, "Capture a frame from the configured camera")
	cmd.Flags().BoolVar(&opts.speak, "speak", false, "Read the description aloud")
	cmd.Flags().StringVar(&opts.rating, "rating", "", "Rate the result (good or bad)")
	cmd.Flags().StringVar(&opts.comment, "comment", "", "Comment sent with --rating")
	addJSONFlag(cmd, &opts.asJSON)
	return cmd
}

func runScan(cmd *cobra.Command, cfg *config.Config, store *records.Store, logger *slog.Logger, args []string, opts scanOptions) error {
	runCtx := cmd.Context()

	var capturer scan.Capturer
	if opts.camera {
		capturer = device.NewCameraFromConfig(cfg, logger)
	}
	sessionOpts := []scan.Option{scan.WithCloseDelay(0)}
	var narrator *narration.Narrator
	if opts.speak {
		speech := device.NewSpeech(cfg, logger)
		if err := speech.LoadVoices(runCtx); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
		}
		narrator = narration.New(runCtx, speech, store, logger)
		defer narrator.Close()
		sessionOpts = append(sessionOpts, scan.WithNarrator(narrator))
	}

	session := scan.NewSession(capturer, gemini.NewClientFromConfig(cfg.GetGateway()), logger, sessionOpts...)
	defer session.Close()

	if opts.camera {
		if err := session.Open(runCtx); err != nil {
			return err
		}
		if err := session.Capture(runCtx); err != nil {
			return err
		}
	} else {
		data, mimeType, err := readImage(args[0])
		if err != nil {
			return err
		}
		if err := session.CaptureImage(runCtx, data, mimeType); err != nil {
			return err
		}
	}
	session.Wait()

	result, ok := session.Snapshot().(scan.Result)
	if !ok {
		return fmt.Errorf("scan ended in %s", session.Snapshot().Name())
	}
	if result.Failed() {
		if opts.asJSON {
			_ = writeJSON(cmd, result)
		}
		return errors.New(result.Err)
	}

	if opts.rating != "" {
		if err := session.ProvideFeedback(); err != nil {
			return err
		}
		if err := session.SubmitFeedback(runCtx, opts.rating, opts.comment); err != nil {
			return err
		}
	}

	if opts.asJSON {
		if err := writeJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printScanResult(cmd.OutOrStdout(), result)
	}

	if narrator != nil {
		if _, err := narrator.Toggle(runCtx, result.Info); err != nil {
			return err
		}
		waitWhile(runCtx, narrator.Speaking)
	}
	return nil
}

func printScanResult(out io.Writer, result scan.Result) {
	fmt.Fprintln(out, result.Title)
	fmt.Fprintln(out, strings.Repeat("=", len(result.Title)))
	for _, p := range bodyParagraphs(result.Paragraphs) {
		fmt.Fprintln(out)
		fmt.Fprintln(out, p)
	}
	if result.VideoURL != "" {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Videos: %s\n", result.VideoURL)
	}
}

// bodyParagraphs drops the first paragraph, which is printed as the title.
func bodyParagraphs(paragraphs []string) []string {
	if len(paragraphs) == 0 {
		return nil
	}
	return paragraphs[1:]
}

// readImage loads an image file and determines its media type from the
// extension, falling back to content sniffing.
func readImage(path string) ([]byte, string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, "", fmt.Errorf("read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(expanded)))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("%s is not an image (%s)", path, mimeType)
	}
	return data, mimeType, nil
}
