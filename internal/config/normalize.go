package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAWS()
	c.normalizeRekognition()
	c.normalizeExport()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DestinationDir) == "" {
		c.Paths.DestinationDir = defaultDestinationDir
	}
	if c.Paths.DestinationDir, err = expandPath(strings.TrimSpace(c.Paths.DestinationDir)); err != nil {
		return fmt.Errorf("paths.destination_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAWS() {
	c.AWS.Region = strings.TrimSpace(c.AWS.Region)
	if c.AWS.Region == "" {
		c.AWS.Region = strings.TrimSpace(os.Getenv(envRegion))
	}
	c.AWS.Profile = strings.TrimSpace(c.AWS.Profile)
	if c.AWS.Profile == "" {
		c.AWS.Profile = strings.TrimSpace(os.Getenv(envProfile))
	}
}

func (c *Config) normalizeRekognition() {
	c.Rekognition.Project = strings.TrimSpace(c.Rekognition.Project)
	if c.Rekognition.Project == "" {
		c.Rekognition.Project = strings.TrimSpace(os.Getenv(envProject))
	}
	c.Rekognition.TrainDatasetARN = strings.TrimSpace(c.Rekognition.TrainDatasetARN)
	c.Rekognition.TestDatasetARN = strings.TrimSpace(c.Rekognition.TestDatasetARN)
	if c.Rekognition.PageSize == 0 {
		c.Rekognition.PageSize = defaultPageSize
	}
}

func (c *Config) normalizeExport() {
	if c.Export.Workers == 0 {
		c.Export.Workers = defaultWorkers
	}
	c.Export.LabelFormat = strings.ToLower(strings.TrimSpace(c.Export.LabelFormat))
	if c.Export.LabelFormat == "" {
		c.Export.LabelFormat = defaultLabelFormat
	}
	c.Export.RecordShape = strings.ToLower(strings.TrimSpace(c.Export.RecordShape))
	if c.Export.RecordShape == "" {
		c.Export.RecordShape = defaultRecordShape
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "text", "console":
		c.Logging.Format = defaultLogFormat
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	default:
		c.Logging.Level = level
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
}
