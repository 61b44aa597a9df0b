package awsclient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Options selects the region and shared-credentials profile. Empty values
// defer to the SDK's environment and shared config resolution.
type Options struct {
	Region     string
	Profile    string
	MaxRetries int
}

// NewSession builds a session with shared config enabled so profiles that
// only define a region or an assumed role resolve the same way the AWS CLI does.
func NewSession(opts Options) (*session.Session, error) {
	cfg := aws.Config{}
	if region := strings.TrimSpace(opts.Region); region != "" {
		cfg.Region = aws.String(region)
	}
	if opts.MaxRetries > 0 {
		cfg.MaxRetries = aws.Int(opts.MaxRetries)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            cfg,
		Profile:           strings.TrimSpace(opts.Profile),
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	if aws.StringValue(sess.Config.Region) == "" {
		return nil, errors.New("aws region is not set; configure aws.region, AWS_REGION, or a profile region")
	}
	return sess, nil
}

// ErrorCode returns the AWS error code carried by err, if any.
func ErrorCode(err error) string {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		return aerr.Code()
	}
	return ""
}

// Hint maps common AWS error codes to an operator-facing next step.
func Hint(err error) string {
	switch ErrorCode(err) {
	case "":
		return ""
	case "AccessDeniedException", "AccessDenied", "UnrecognizedClientException", "InvalidSignatureException":
		return "check the AWS credentials and IAM permissions for the configured profile"
	case "ExpiredToken", "ExpiredTokenException":
		return "refresh the AWS session credentials"
	case "ResourceNotFoundException":
		return "verify the project name or dataset ARN and the configured region"
	case "NoSuchKey", "NotFound":
		return "the manifest references an object that no longer exists"
	case "NoSuchBucket":
		return "the manifest references a bucket that does not exist in this account"
	case "ThrottlingException", "ProvisionedThroughputExceededException", "SlowDown":
		return "the service is throttling requests; retry later or lower export.workers"
	default:
		return "inspect the AWS error code " + ErrorCode(err)
	}
}
