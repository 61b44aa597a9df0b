// Package awsclient builds the shared AWS SDK session used by the
// Rekognition and S3 adapters and translates AWS error codes into hints.
package awsclient
