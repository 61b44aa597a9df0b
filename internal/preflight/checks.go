package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"golang.org/x/sys/unix"

	"rekogexport/internal/config"
	"rekogexport/internal/services/awsclient"
	"rekogexport/internal/services/rekog"
)

const (
	datasetsCheck = "Datasets"
	remoteTimeout = 30 * time.Second
)

// CredentialSource resolves AWS credentials. *credentials.Credentials
// satisfies it.
type CredentialSource interface {
	GetWithContext(ctx credentials.Context) (credentials.Value, error)
}

// DatasetResolver maps a project to its datasets.
type DatasetResolver interface {
	ResolveDatasets(ctx context.Context, project string) ([]rekog.DatasetRef, error)
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRegion compares the configured region with the one the session
// resolved. An empty configured region may still come from AWS_REGION or the
// shared config profile.
func CheckRegion(configured, resolved string) Result {
	const name = "AWS region"
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return Result{Name: name, Detail: "not set; configure aws.region, AWS_REGION, or a profile region"}
	}
	if strings.TrimSpace(configured) == "" {
		return Result{Name: name, Passed: true, Detail: resolved + " (from environment or profile)"}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckCredentials resolves credentials through the SDK provider chain.
func CheckCredentials(ctx context.Context, source CredentialSource) Result {
	const name = "AWS credentials"
	if source == nil {
		return Result{Name: name, Detail: "no AWS session"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	value, err := source.GetWithContext(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeAWSError(err)}
	}
	detail := value.ProviderName
	if detail == "" {
		detail = "resolved"
	}
	if id := value.AccessKeyID; len(id) > 4 {
		detail += " (" + id[:4] + "...)"
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDatasets confirms explicit dataset ARNs are set or the project resolves
// to at least one TRAIN or TEST dataset.
func CheckDatasets(ctx context.Context, cfg *config.Config, resolver DatasetResolver) Result {
	if err := cfg.RequireDatasetSource(); err != nil {
		return Result{Name: datasetsCheck, Detail: "no project or dataset ARN configured"}
	}
	if cfg.HasExplicitDatasets() {
		var splits []string
		if cfg.Rekognition.TrainDatasetARN != "" {
			splits = append(splits, "TRAIN")
		}
		if cfg.Rekognition.TestDatasetARN != "" {
			splits = append(splits, "TEST")
		}
		return Result{Name: datasetsCheck, Passed: true, Detail: "explicit ARNs: " + strings.Join(splits, ", ")}
	}
	if resolver == nil {
		return Result{Name: datasetsCheck, Detail: "no dataset resolver"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	refs, err := resolver.ResolveDatasets(checkCtx, cfg.Rekognition.Project)
	if err != nil {
		return Result{Name: datasetsCheck, Detail: summarizeAWSError(err)}
	}
	splits := make([]string, 0, len(refs))
	for _, ref := range refs {
		splits = append(splits, string(ref.Split))
	}
	return Result{Name: datasetsCheck, Passed: true, Detail: fmt.Sprintf("project %s: %s", cfg.Rekognition.Project, strings.Join(splits, ", "))}
}

func summarizeAWSError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out contacting AWS"
	}
	if hint := awsclient.Hint(err); hint != "" {
		return err.Error() + " (" + hint + ")"
	}
	return err.Error()
}
