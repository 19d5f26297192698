// Package backup exports the whole store to a single JSON document and
// restores it.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mmynk/debtledger/internal/storage"
)

// ErrImportParse matches every *ImportParseError.
var ErrImportParse = errors.New("malformed backup document")

// ImportParseError reports a backup document that was rejected before
// anything was written.
type ImportParseError struct {
	// Key is the offending key, empty when the document itself is malformed.
	Key string
	Err error
}

func (e *ImportParseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("malformed backup document: %v", e.Err)
	}
	return fmt.Sprintf("malformed backup value %q: %v", e.Key, e.Err)
}

func (e *ImportParseError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrImportParse) match.
func (e *ImportParseError) Is(target error) bool { return target == ErrImportParse }

// Document is a backup: a flat JSON object from store key to stored value.
type Document map[string]json.RawMessage

// Reloader refreshes an in-memory cache after the store changed underneath.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Options configures a Service.
type Options struct {
	// Keys are exported, in this order. Defaults to storage.KnownKeys.
	Keys []string
	// Preserve lists keys ClearAll keeps.
	Preserve []string
	// Validate checks the shape of known keys before an import writes.
	Validate bool
	Logger   *slog.Logger
}

// Service implements export, import and clear over a store.
type Service struct {
	store     storage.Store
	opts      Options
	reloaders []Reloader
}

// New creates a backup service. The reloaders run after every import and clear.
func New(store storage.Store, opts Options, reloaders ...Reloader) *Service {
	if len(opts.Keys) == 0 {
		opts.Keys = storage.KnownKeys
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{store: store, opts: opts, reloaders: reloaders}
}

// ExportAll reads every known key. Keys without a value are omitted. A value
// that is not valid JSON is exported as a JSON string of its text.
func (s *Service) ExportAll(ctx context.Context) (Document, error) {
	doc := Document{}
	for _, key := range s.opts.Keys {
		raw, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", key, err)
		}
		if !ok {
			continue
		}
		if !json.Valid(raw) {
			s.opts.Logger.Warn("Exporting non-JSON value as string", "key", key)
			raw, _ = json.Marshal(string(raw))
		}
		doc[key] = json.RawMessage(raw)
	}
	s.opts.Logger.Info("Backup exported", "keys", len(doc))
	return doc, nil
}

// ImportAll writes every key of the JSON document in raw back to the store,
// then reloads the caches. A malformed document, or with Validate a value of
// the wrong shape, fails with *ImportParseError and nothing is written. On a
// storage.Batcher the writes are atomic.
func (s *Service) ImportAll(ctx context.Context, raw []byte) error {
	doc, err := Parse(raw)
	if err != nil {
		return err
	}
	if s.opts.Validate {
		if err := validate(doc); err != nil {
			return err
		}
	}
	normalize(doc)

	keys := s.importOrder(doc)
	entries := make([]storage.Entry, 0, len(keys))
	for _, key := range keys {
		var buf bytes.Buffer
		if err := json.Compact(&buf, doc[key]); err != nil {
			return &ImportParseError{Key: key, Err: err}
		}
		entries = append(entries, storage.Entry{Key: key, Value: buf.Bytes()})
	}
	if err := storage.SetAll(ctx, s.store, entries); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	s.opts.Logger.Info("Backup imported", "keys", len(doc))
	return s.reload(ctx)
}

// ClearAll removes every key except the preserve list, then reloads.
func (s *Service) ClearAll(ctx context.Context) error {
	keys, err := s.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	removed := 0
	for _, key := range keys {
		if slices.Contains(s.opts.Preserve, key) {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear %q: %w", key, err)
		}
		removed++
	}

	s.opts.Logger.Warn("Store cleared", "removed", removed, "preserved", len(keys)-removed)
	return s.reload(ctx)
}

// Parse decodes a backup document. The top level must be a JSON object.
func Parse(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ImportParseError{Err: errors.New("expected a JSON object")}
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, &ImportParseError{Err: err}
	}
	return doc, nil
}

// Filename is the conventional backup file name for the day of t.
func Filename(t time.Time) string {
	return "debt_manager_backup_" + t.Format(time.DateOnly) + ".json"
}

// WriteFile exports the store to dir/Filename(now) and returns the path.
func (s *Service) WriteFile(ctx context.Context, dir string, now time.Time) (string, error) {
	doc, err := s.ExportAll(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	path := filepath.Join(dir, Filename(now))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}

// ReadFile imports the backup stored at path.
func (s *Service) ReadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	return s.ImportAll(ctx, data)
}

// importOrder writes the known keys first, in export order, then any other
// key of the document sorted by name.
func (s *Service) importOrder(doc Document) []string {
	order := make([]string, 0, len(doc))
	for _, key := range s.opts.Keys {
		if _, ok := doc[key]; ok {
			order = append(order, key)
		}
	}
	var extra []string
	for key := range doc {
		if !slices.Contains(s.opts.Keys, key) {
			extra = append(extra, key)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}

func (s *Service) reload(ctx context.Context) error {
	var errs []error
	for _, r := range s.reloaders {
		errs = append(errs, r.Reload(ctx))
	}
	return errors.Join(errs...)
}
