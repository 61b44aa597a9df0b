package rekog_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/rekognition"

	"rekogexport/internal/dataset"
	"rekogexport/internal/manifest"
	"rekogexport/internal/services"
	"rekogexport/internal/services/rekog"
)

type fakeAPI struct {
	pages     map[string]*rekognition.ListDatasetEntriesOutput
	inputs    []*rekognition.ListDatasetEntriesInput
	listErr   error
	projects  *rekognition.DescribeProjectsOutput
	describeE error
}

func (f *fakeAPI) ListDatasetEntriesWithContext(_ aws.Context, input *rekognition.ListDatasetEntriesInput, _ ...request.Option) (*rekognition.ListDatasetEntriesOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pages[aws.StringValue(input.NextToken)], nil
}

func (f *fakeAPI) DescribeProjectsWithContext(_ aws.Context, _ *rekognition.DescribeProjectsInput, _ ...request.Option) (*rekognition.DescribeProjectsOutput, error) {
	if f.describeE != nil {
		return nil, f.describeE
	}
	return f.projects, nil
}

func TestListLabeledEntriesPagesThroughFetcher(t *testing.T) {
	api := &fakeAPI{pages: map[string]*rekognition.ListDatasetEntriesOutput{
		"":   {DatasetEntries: aws.StringSlice([]string{`{"a":1}`, `{"b":2}`}), NextToken: aws.String("t1")},
		"t1": {DatasetEntries: aws.StringSlice([]string{`{"c":3}`})},
	}}
	client := rekog.NewWithAPI(api, 2, nil)

	entries, err := manifest.NewFetcher(client, nil).Collect(context.Background(), "arn:aws:rekognition:eu-central-1:1:project/p/dataset/train/1")
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(entries) != 3 || string(entries[2]) != `{"c":3}` {
		t.Fatalf("unexpected entries %q", entries)
	}
	if len(api.inputs) != 2 {
		t.Fatalf("expected two requests, got %d", len(api.inputs))
	}
	first := api.inputs[0]
	if !aws.BoolValue(first.Labeled) || aws.Int64Value(first.MaxResults) != 2 || first.NextToken != nil {
		t.Fatalf("unexpected first request %+v", first)
	}
	if aws.StringValue(api.inputs[1].NextToken) != "t1" {
		t.Fatalf("expected continuation token on second request")
	}
}

func TestListLabeledEntriesAddsHint(t *testing.T) {
	api := &fakeAPI{listErr: awserr.New("AccessDeniedException", "not authorized", nil)}
	client := rekog.NewWithAPI(api, 0, nil)
	_, err := client.ListLabeledEntries(context.Background(), "arn:x", "")
	if err == nil || !strings.Contains(err.Error(), "IAM permissions") {
		t.Fatalf("expected hinted error, got %v", err)
	}
	if api.inputs[0].MaxResults != nil {
		t.Fatal("expected service default page size when unset")
	}
}

func TestResolveDatasetsOrdersTrainFirst(t *testing.T) {
	api := &fakeAPI{projects: &rekognition.DescribeProjectsOutput{
		ProjectDescriptions: []*rekognition.ProjectDescription{{
			ProjectArn: aws.String("arn:project"),
			Datasets: []*rekognition.DatasetMetadata{
				{DatasetArn: aws.String("arn:test"), DatasetType: aws.String("TEST")},
				{DatasetArn: aws.String("arn:other"), DatasetType: aws.String("HOLDOUT")},
				{DatasetArn: aws.String("arn:train"), DatasetType: aws.String("TRAIN")},
			},
		}},
	}}
	refs, err := rekog.NewWithAPI(api, 100, nil).ResolveDatasets(context.Background(), "Kaweco")
	if err != nil {
		t.Fatalf("ResolveDatasets: %v", err)
	}
	want := []rekog.DatasetRef{{Split: dataset.SplitTrain, ARN: "arn:train"}, {Split: dataset.SplitTest, ARN: "arn:test"}}
	if len(refs) != len(want) || refs[0] != want[0] || refs[1] != want[1] {
		t.Fatalf("unexpected refs %+v", refs)
	}
}

func TestResolveDatasetsErrors(t *testing.T) {
	tests := []struct {
		name    string
		project string
		api     *fakeAPI
		marker  error
	}{
		{"empty project", " ", &fakeAPI{}, services.ErrConfiguration},
		{"service failure", "p", &fakeAPI{describeE: errors.New("timeout")}, services.ErrService},
		{"unknown project", "p", &fakeAPI{projects: &rekognition.DescribeProjectsOutput{}}, services.ErrConfiguration},
		{"no usable datasets", "p", &fakeAPI{projects: &rekognition.DescribeProjectsOutput{
			ProjectDescriptions: []*rekognition.ProjectDescription{{}},
		}}, services.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rekog.NewWithAPI(tt.api, 100, nil).ResolveDatasets(context.Background(), tt.project)
			if !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestRequestRateLimitsCalls(t *testing.T) {
	api := &fakeAPI{pages: map[string]*rekognition.ListDatasetEntriesOutput{
		"": {DatasetEntries: aws.StringSlice([]string{`{"a":1}`})},
	}}
	client := rekog.NewWithAPI(api, 10, nil, rekog.WithRequestRate(0.001, 1))

	if _, err := client.ListLabeledEntries(context.Background(), "arn:ds", ""); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.ListLabeledEntries(ctx, "arn:ds", ""); err == nil {
		t.Fatal("expected the limiter to refuse a call it cannot admit before the deadline")
	}
	if len(api.inputs) != 1 {
		t.Fatalf("limited call must not reach the API, got %d requests", len(api.inputs))
	}
}

func TestZeroRequestRateIsUnlimited(t *testing.T) {
	api := &fakeAPI{pages: map[string]*rekognition.ListDatasetEntriesOutput{"": {}}}
	client := rekog.NewWithAPI(api, 10, nil, rekog.WithRequestRate(0, 0))
	for range 5 {
		if _, err := client.ListLabeledEntries(context.Background(), "arn:ds", ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
