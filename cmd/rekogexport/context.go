package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/spf13/cobra"

	"rekogexport/internal/config"
	"rekogexport/internal/exportrun"
	"rekogexport/internal/manifest"
	"rekogexport/internal/materialize"
	"rekogexport/internal/preflight"
	"rekogexport/internal/services"
	"rekogexport/internal/services/awsclient"
	"rekogexport/internal/services/rekog"
	"rekogexport/internal/services/s3fetch"
)

// remoteDeps are the collaborators that talk to AWS.
type remoteDeps struct {
	region      string
	credentials preflight.CredentialSource
	lister      manifest.Lister
	resolver    exportrun.DatasetResolver
	fetcher     materialize.Fetcher
}

type depsFactory func(cfg *config.Config, logger *slog.Logger) (remoteDeps, error)

type commandContext struct {
	configFlag *string
	newDeps    depsFactory

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, factory depsFactory) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		newDeps:    factory,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// newAWSDeps builds the Rekognition lister and S3 fetcher from one shared session.
func newAWSDeps(cfg *config.Config, logger *slog.Logger) (remoteDeps, error) {
	sess, err := awsclient.NewSession(awsclient.Options{
		Region:  cfg.AWS.Region,
		Profile: cfg.AWS.Profile,
	})
	if err != nil {
		return remoteDeps{}, services.Wrap(services.ErrConfiguration, "", "aws session", "", err)
	}
	client := rekog.New(sess, cfg.Rekognition.PageSize, logger,
		rekog.WithRequestRate(cfg.Rekognition.RequestsPerSecond, 1))
	return remoteDeps{
		region:      aws.StringValue(sess.Config.Region),
		credentials: sess.Config.Credentials,
		lister:      client,
		resolver:    client,
		fetcher:     s3fetch.New(sess, cfg.Export.Workers, logger),
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
