// Package main provides the CLI entry point for framereader.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/ideamans/go-l10n"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/user/framereader/pkg/adapters/ffmpegdecoder"
	"github.com/user/framereader/pkg/adapters/logger"
	"github.com/user/framereader/pkg/adapters/mp4source"
	"github.com/user/framereader/pkg/adapters/osfilesystem"
	"github.com/user/framereader/pkg/config"
	"github.com/user/framereader/pkg/ports"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "framereader",
		Usage:   l10n.T("Decode, seek and import video frames"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   l10n.T("Configuration file (YAML)"),
			},
			&cli.StringFlag{
				Name:  "ffmpeg",
				Usage: l10n.T("Path to ffmpeg executable"),
			},
			&cli.StringFlag{
				Name:     "log-level",
				Aliases:  []string{"l"},
				Usage:    l10n.T("Log level (debug, info, warn, error)"),
				Category: l10n.T("Logging"),
			},
			&cli.BoolFlag{
				Name:     "quiet",
				Aliases:  []string{"q"},
				Usage:    l10n.T("Suppress all log output"),
				Category: l10n.T("Logging"),
			},
			&cli.StringFlag{
				Name:     "metrics-file",
				Usage:    l10n.T("Write Prometheus metrics to file on exit"),
				Category: l10n.T("Logging"),
			},
		},
		Commands: []*cli.Command{
			probeCommand(),
			stepCommand(),
			importCommand(),
			summaryCommand(),
		},
		After: func(c *cli.Context) error {
			if path := c.String("metrics-file"); path != "" {
				if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
					return fmt.Errorf("%s: %w", l10n.T("Failed to write metrics"), err)
				}
			}
			return nil
		},
	}
}

// env holds the collaborators shared by every command.
type env struct {
	cfg    config.Config
	log    ports.Logger
	fs     *osfilesystem.FileSystem
	opener *mp4source.Opener
}

func setup(c *cli.Context) (*env, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l10n.F("Failed to load config %s", path), err)
		}
		cfg = loaded
	}
	if v := c.String("ffmpeg"); v != "" {
		cfg.FFmpegPath = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	var log ports.Logger
	if c.Bool("quiet") {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cfg.LogLevel))
	}

	return &env{
		cfg:    cfg,
		log:    log,
		fs:     osfilesystem.New(),
		opener: mp4source.NewOpener(ffmpegdecoder.NewFactory(cfg.FFmpegPath)),
	}, nil
}
