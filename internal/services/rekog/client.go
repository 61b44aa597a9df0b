package rekog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"golang.org/x/time/rate"

	"rekogexport/internal/dataset"
	"rekogexport/internal/logging"
	"rekogexport/internal/manifest"
	"rekogexport/internal/services"
	"rekogexport/internal/services/awsclient"
)

// API is the subset of the Rekognition client used by the exporter.
type API interface {
	ListDatasetEntriesWithContext(ctx aws.Context, input *rekognition.ListDatasetEntriesInput, opts ...request.Option) (*rekognition.ListDatasetEntriesOutput, error)
	DescribeProjectsWithContext(ctx aws.Context, input *rekognition.DescribeProjectsInput, opts ...request.Option) (*rekognition.DescribeProjectsOutput, error)
}

// DatasetRef names one dataset of a project together with its split kind.
type DatasetRef struct {
	Split dataset.SplitKind
	ARN   string
}

// Client lists labeled dataset entries and resolves project datasets.
type Client struct {
	api      API
	pageSize int64
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithRequestRate paces every API call to perSecond with the given burst.
// A non-positive rate leaves calls unpaced.
func WithRequestRate(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

var _ manifest.Lister = (*Client)(nil)

// New constructs a client from an AWS session or any other config provider.
func New(provider client.ConfigProvider, pageSize int, logger *slog.Logger, opts ...Option) *Client {
	return NewWithAPI(rekognition.New(provider), pageSize, logger, opts...)
}

// NewWithAPI wraps an existing API implementation.
func NewWithAPI(api API, pageSize int, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		api:      api,
		pageSize: int64(pageSize),
		logger:   logging.NewComponentLogger(logger, "rekognition"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// ListLabeledEntries requests one page of labeled entries for the dataset ARN.
func (c *Client) ListLabeledEntries(ctx context.Context, handle, token string) (manifest.Page, error) {
	input := &rekognition.ListDatasetEntriesInput{
		DatasetArn: aws.String(handle),
		Labeled:    aws.Bool(true),
	}
	if c.pageSize > 0 {
		input.MaxResults = aws.Int64(c.pageSize)
	}
	if token != "" {
		input.NextToken = aws.String(token)
	}
	if err := c.wait(ctx); err != nil {
		return manifest.Page{}, err
	}
	out, err := c.api.ListDatasetEntriesWithContext(ctx, input)
	if err != nil {
		return manifest.Page{}, describe(err)
	}
	return manifest.Page{
		Entries:   aws.StringValueSlice(out.DatasetEntries),
		NextToken: aws.StringValue(out.NextToken),
	}, nil
}

// ResolveDatasets returns the TRAIN and TEST datasets of project, TRAIN
// first. Datasets of other types are skipped with a warning.
func (c *Client) ResolveDatasets(ctx context.Context, project string) ([]DatasetRef, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, services.Wrap(services.ErrConfiguration, "", "describe projects", "project name is required", nil)
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	out, err := c.api.DescribeProjectsWithContext(ctx, &rekognition.DescribeProjectsInput{
		ProjectNames: aws.StringSlice([]string{project}),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrService, "", "describe projects", project, describe(err))
	}
	if len(out.ProjectDescriptions) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "describe projects", fmt.Sprintf("project %q not found", project), nil)
	}

	desc := out.ProjectDescriptions[0]
	var refs []DatasetRef
	for _, ds := range desc.Datasets {
		arn := aws.StringValue(ds.DatasetArn)
		kind, err := dataset.ParseSplitKind(aws.StringValue(ds.DatasetType))
		if err != nil {
			logging.WarnWithContext(c.logger, "skipping dataset with unexpected type", "dataset_skipped",
				logging.String("project", project),
				logging.String("dataset_arn", arn),
				logging.String("dataset_type", aws.StringValue(ds.DatasetType)),
				logging.String(logging.FieldImpact, "dataset is not exported"),
			)
			continue
		}
		refs = append(refs, DatasetRef{Split: kind, ARN: arn})
	}
	if len(refs) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "", "describe projects", fmt.Sprintf("project %q has no TRAIN or TEST dataset", project), nil)
	}
	slices.SortStableFunc(refs, func(a, b DatasetRef) int {
		return splitRank(a.Split) - splitRank(b.Split)
	})
	c.logger.Info("resolved project datasets",
		logging.String("project", project),
		logging.String("project_arn", aws.StringValue(desc.ProjectArn)),
		logging.Int("datasets", len(refs)),
	)
	return refs, nil
}

func splitRank(kind dataset.SplitKind) int {
	if kind == dataset.SplitTrain {
		return 0
	}
	return 1
}

func describe(err error) error {
	if hint := awsclient.Hint(err); hint != "" {
		return fmt.Errorf("%w (%s)", err, hint)
	}
	return err
}
