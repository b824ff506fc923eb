package command

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/siege-leviathan/internal/infra/buildinfo"
	"github.com/yndnr/siege-leviathan/internal/infra/confloader"
	"github.com/yndnr/siege-leviathan/internal/server/config"
	"github.com/yndnr/siege-leviathan/internal/telemetry/logger"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    buildinfo.Name,
		Usage:   "Serve requests with a hot-reloaded client mTLS identity",
		Version: buildinfo.Version,
		Flags:   configFlags(),
		Action:  serveAction,
		Commands: []*cli.Command{
			ServeCommand(),
			CheckCommand(),
			VersionCommand(),
		},
	}
}

// flagKeys maps config flags to the config keys they override.
var flagKeys = map[string]string{
	"bundle":     "bundle.path",
	"target":     "target.url",
	"addr":       "server.addr",
	"log-level":  "log.level",
	"log-format": "log.format",
}

// configFlags returns the flags shared by the root and by commands that
// load configuration.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"LEVIATHAN_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "bundle",
			Usage: "Combined PEM certificate and key bundle",
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "HTTPS URL of the remote peer",
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Inbound HTTP listen address",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: json, text",
		},
	}
}

// loadConfig merges defaults, the config file, the environment and any
// flags the user set.
func loadConfig(c *cli.Context) (*config.ServiceConfig, error) {
	cfg := config.Default()

	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	opts := []confloader.Option{confloader.WithOverrides(overrides)}
	if path := c.String("config"); path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogger installs the process logger and returns its slog form for
// components that take one directly.
func initLogger(cfg *config.ServiceConfig, w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = os.Stdout
	}
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: w,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	return logger.Slog(log), nil
}
