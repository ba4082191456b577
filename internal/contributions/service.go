package contributions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"arheritage/internal/apperr"
	"arheritage/internal/config"
	"arheritage/internal/logging"
	"arheritage/internal/notifications"
	"arheritage/internal/records"
	"arheritage/internal/textutil"
)

// MsgFileRequired rejects the upload step without a file.
const MsgFileRequired = "Please choose a file to upload."

// Service stores submitted media and the contribution history.
type Service struct {
	store    *records.Store
	mediaDir string
	logger   *slog.Logger
	notifier notifications.Service
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier alerts curators after each accepted contribution.
func WithNotifier(n notifications.Service) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewService stores media under mediaDir.
func NewService(store *records.Store, mediaDir string, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		mediaDir: mediaDir,
		logger:   logging.NewComponentLogger(logger, "contributions"),
		notifier: notifications.NewService(config.Notifications{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MediaPath resolves a stored name inside the media directory. It rejects
// names that would escape the directory.
func (s *Service) MediaPath(storedName string) (string, error) {
	clean := filepath.Base(storedName)
	if clean != storedName || clean == "." || clean == ".." || strings.HasPrefix(clean, ".") {
		return "", apperr.Wrap(apperr.ErrNotFound, "media path", "Contribution file not found.", fmt.Errorf("invalid name %q", storedName))
	}
	return filepath.Join(s.mediaDir, clean), nil
}

// Submit copies the file into the media directory, records the history item
// and moves the draft to the submitted step.
func (s *Service) Submit(ctx context.Context, draft *Draft, fileName string, r io.Reader) (records.UploadHistoryItem, error) {
	if strings.TrimSpace(fileName) == "" || r == nil {
		return records.UploadHistoryItem{}, apperr.Validation("contribution upload", MsgFileRequired)
	}
	placeName, description, err := draft.snapshotForSubmit()
	if err != nil {
		return records.UploadHistoryItem{}, err
	}

	displayName := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	storedName := uuid.NewString() + "-" + textutil.SanitizeFileName(displayName)
	if err := s.copyMedia(storedName, r); err != nil {
		return records.UploadHistoryItem{}, err
	}

	now := s.now()
	item := records.UploadHistoryItem{
		ID:          records.NewID(now),
		Title:       placeName,
		Description: description,
		FileName:    displayName,
		StoredName:  storedName,
		Date:        records.FormatDate(now),
	}
	if err := s.store.AddUploadHistory(ctx, item); err != nil {
		_ = os.Remove(filepath.Join(s.mediaDir, storedName))
		return records.UploadHistoryItem{}, fmt.Errorf("record contribution: %w", err)
	}
	draft.markSubmitted()

	s.logger.InfoContext(ctx, "contribution submitted",
		logging.String(logging.FieldEventType, "contribution_submitted"),
		logging.String("title", placeName),
		logging.String("stored_name", storedName),
	)
	if err := s.notifier.Publish(ctx, notifications.EventContributionSubmitted, notifications.Payload{
		"place":       placeName,
		"file":        displayName,
		"description": description,
	}); err != nil {
		logging.WarnWithContext(s.logger, "curator notification failed", "contribution_notify_failed",
			logging.Error(err),
			logging.String("title", placeName),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "curators are not alerted about this upload"),
		)
	}
	return item, nil
}

func (s *Service) copyMedia(storedName string, r io.Reader) (err error) {
	if err := os.MkdirAll(s.mediaDir, 0o755); err != nil {
		return fmt.Errorf("create media directory: %w", err)
	}
	dest := filepath.Join(s.mediaDir, storedName)
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create media file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close media file: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(dest)
		}
	}()
	n, err := io.Copy(f, r)
	if err != nil {
		return fmt.Errorf("copy media: %w", err)
	}
	if n == 0 {
		return apperr.Validation("contribution upload", MsgFileRequired)
	}
	return nil
}

// History lists contributions, newest first.
func (s *Service) History(ctx context.Context) []records.UploadHistoryItem {
	return s.store.UploadHistory(ctx)
}

// Find returns the contribution with id.
func (s *Service) Find(ctx context.Context, id string) (records.UploadHistoryItem, error) {
	for _, item := range s.store.UploadHistory(ctx) {
		if item.ID == id {
			return item, nil
		}
	}
	return records.UploadHistoryItem{}, apperr.Wrap(apperr.ErrNotFound, "find contribution", "Contribution not found.", errors.New(id))
}
