// Package s3fetch downloads dataset images from S3 for the materializer.
package s3fetch
