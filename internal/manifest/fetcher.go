package manifest

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"rekogexport/internal/logging"
	"rekogexport/internal/services"
)

// Page is one listing response.
type Page struct {
	Entries   []string
	NextToken string
}

// Lister issues a single labeled-entries listing request.
type Lister interface {
	ListLabeledEntries(ctx context.Context, handle, token string) (Page, error)
}

// Fetcher walks every page for a dataset handle.
type Fetcher struct {
	lister Lister
	logger *slog.Logger
}

// NewFetcher constructs a fetcher over the provided lister.
func NewFetcher(lister Lister, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		lister: lister,
		logger: logging.NewComponentLogger(logger, "manifest"),
	}
}

// Entries lazily yields raw entries in retrieval order. The sequence stops
// after the first error.
func (f *Fetcher) Entries(ctx context.Context, handle string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		handle = strings.TrimSpace(handle)
		if handle == "" {
			yield(nil, services.Wrap(services.ErrConfiguration, "", "list entries", "dataset handle is required", nil))
			return
		}
		if f.lister == nil {
			yield(nil, services.Wrap(services.ErrService, "", "list entries", "labeling service client unavailable", nil))
			return
		}

		token := ""
		for pageNum := 1; ; pageNum++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			page, err := f.lister.ListLabeledEntries(ctx, handle, token)
			if err != nil {
				yield(nil, services.Wrap(services.ErrService, "", "list entries", fmt.Sprintf("page %d of %s", pageNum, handle), err))
				return
			}
			f.logger.Debug("manifest page received",
				logging.Int("page", pageNum),
				logging.Int("entries", len(page.Entries)),
				logging.Bool("more", page.NextToken != ""),
			)
			for _, entry := range page.Entries {
				if !yield([]byte(entry), nil) {
					return
				}
			}
			if page.NextToken == "" {
				return
			}
			if page.NextToken == token {
				yield(nil, services.Wrap(services.ErrService, "", "list entries", fmt.Sprintf("continuation token repeated on page %d", pageNum), nil))
				return
			}
			token = page.NextToken
		}
	}
}

// Collect drains the full listing for handle. No entries are returned when
// any page fails.
func (f *Fetcher) Collect(ctx context.Context, handle string) ([][]byte, error) {
	var entries [][]byte
	for entry, err := range f.Entries(ctx, handle) {
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	f.logger.Info("manifest retrieved",
		logging.String("dataset", handle),
		logging.Int("entries", len(entries)),
	)
	return entries, nil
}
