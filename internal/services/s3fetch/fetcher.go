package s3fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"rekogexport/internal/logging"
	"rekogexport/internal/materialize"
	"rekogexport/internal/services/awsclient"
)

// Downloader is the subset of s3manager.Downloader used here.
type Downloader interface {
	DownloadWithContext(ctx aws.Context, w io.WriterAt, input *s3.GetObjectInput, options ...func(*s3manager.Downloader)) (int64, error)
}

// Fetcher downloads manifest images from S3 into local files.
type Fetcher struct {
	downloader Downloader
	logger     *slog.Logger
}

var _ materialize.Fetcher = (*Fetcher)(nil)

// New constructs a fetcher backed by an s3manager downloader. partConcurrency
// bounds the ranged GETs issued for a single large object.
func New(provider client.ConfigProvider, partConcurrency int, logger *slog.Logger) *Fetcher {
	downloader := s3manager.NewDownloader(provider, func(d *s3manager.Downloader) {
		if partConcurrency > 0 {
			d.Concurrency = partConcurrency
		}
	})
	return NewWithDownloader(downloader, logger)
}

// NewWithDownloader wraps an existing downloader implementation.
func NewWithDownloader(downloader Downloader, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		downloader: downloader,
		logger:     logging.NewComponentLogger(logger, "s3fetch"),
	}
}

// Fetch writes s3://bucket/key to dest, creating or truncating it. dest is
// removed when the download fails.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key, dest string) error {
	file, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := f.downloader.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(dest)
		if hint := awsclient.Hint(err); hint != "" {
			return fmt.Errorf("get s3://%s/%s: %w (%s)", bucket, key, err, hint)
		}
		return fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	if closeErr != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("close %s: %w", dest, closeErr)
	}
	f.logger.Debug("object downloaded",
		logging.String("bucket", bucket),
		logging.String("key", key),
		logging.Int64("bytes", n),
	)
	return nil
}
