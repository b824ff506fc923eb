package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/siege-leviathan/internal/cli/output"
	"github.com/yndnr/siege-leviathan/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print build information",
		Flags: []cli.Flag{outputFlag()},
		Action: func(c *cli.Context) error {
			format, err := output.ParseFormat(c.String("output"))
			if err != nil {
				return err
			}
			return output.NewFormatter(format).Format(c.App.Writer, versionInfo(buildinfo.Get()))
		},
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format: text, json, yaml",
		Value:   "text",
	}
}

type versionInfo buildinfo.Info

func (v versionInfo) Fields() []output.Field {
	return []output.Field{
		{Label: "Name", Value: v.Name},
		{Label: "Version", Value: v.Version},
		{Label: "Commit", Value: v.Commit},
		{Label: "Built", Value: v.BuildTime},
		{Label: "Go", Value: v.GoVersion},
	}
}
