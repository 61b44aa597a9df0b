package awsclient

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
)

func TestNewSessionUsesExplicitRegion(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")

	sess, err := NewSession(Options{Region: "eu-central-1", MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if got := aws.StringValue(sess.Config.Region); got != "eu-central-1" {
		t.Fatalf("region = %q", got)
	}
	if got := aws.IntValue(sess.Config.MaxRetries); got != 2 {
		t.Fatalf("max retries = %d", got)
	}
}

func TestNewSessionRequiresRegion(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")

	if _, err := NewSession(Options{}); err == nil {
		t.Fatal("expected error without any region")
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("plain"), ""},
		{awserr.New("AccessDeniedException", "denied", nil), "check the AWS credentials and IAM permissions for the configured profile"},
		{fmt.Errorf("wrapped: %w", awserr.New("NoSuchKey", "gone", nil)), "the manifest references an object that no longer exists"},
		{awserr.New("Weird", "x", nil), "inspect the AWS error code Weird"},
	}
	for _, tt := range tests {
		if got := Hint(tt.err); got != tt.want {
			t.Fatalf("Hint(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
