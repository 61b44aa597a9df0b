// Package rekog adapts the Rekognition Custom Labels API to the manifest
// listing interface and resolves a project's TRAIN and TEST datasets.
package rekog
