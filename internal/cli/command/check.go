package command

import (
	"errors"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/siege-leviathan/internal/cli/output"
	"github.com/yndnr/siege-leviathan/internal/identity"
)

// CheckCommand returns the check command. It builds the bundle exactly the
// way the service does and fails if the bundle is not usable.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Validate the certificate bundle and print its leaf certificate",
		ArgsUsage: "[bundle]",
		Flags:     append(configFlags(), outputFlag()),
		Action:    checkAction,
	}
}

func checkAction(c *cli.Context) error {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		path = cfg.Bundle.Path
	}
	if path == "" {
		return errors.New("no bundle given (argument, --bundle, LEVIATHAN_BUNDLE_PATH or CERT_BUNDLE)")
	}

	now := time.Now()
	ctx, err := identity.NewBuilder(identity.WithClock(func() time.Time { return now })).Build(path)
	if err != nil {
		return err
	}

	return output.NewFormatter(format).Format(c.App.Writer, newBundleReport(path, ctx, now))
}

type bundleReport struct {
	Path      string    `json:"path" yaml:"path"`
	Subject   string    `json:"subject" yaml:"subject"`
	Issuer    string    `json:"issuer" yaml:"issuer"`
	Serial    string    `json:"serial" yaml:"serial"`
	DNSNames  []string  `json:"dns_names,omitempty" yaml:"dns_names,omitempty"`
	NotBefore time.Time `json:"not_before" yaml:"not_before"`
	NotAfter  time.Time `json:"not_after" yaml:"not_after"`
	ExpiresIn string    `json:"expires_in" yaml:"expires_in"`
}

func newBundleReport(path string, ctx *identity.Context, now time.Time) bundleReport {
	leaf := ctx.Leaf
	return bundleReport{
		Path:      path,
		Subject:   ctx.Subject(),
		Issuer:    leaf.Issuer.String(),
		Serial:    leaf.SerialNumber.Text(16),
		DNSNames:  leaf.DNSNames,
		NotBefore: leaf.NotBefore.UTC(),
		NotAfter:  leaf.NotAfter.UTC(),
		ExpiresIn: leaf.NotAfter.Sub(now).Truncate(time.Second).String(),
	}
}

func (r bundleReport) Fields() []output.Field {
	return []output.Field{
		{Label: "Bundle", Value: r.Path},
		{Label: "Subject", Value: r.Subject},
		{Label: "Issuer", Value: r.Issuer},
		{Label: "Serial", Value: r.Serial},
		{Label: "DNS names", Value: strings.Join(r.DNSNames, ", ")},
		{Label: "Not before", Value: r.NotBefore.Format(time.RFC3339)},
		{Label: "Not after", Value: r.NotAfter.Format(time.RFC3339)},
		{Label: "Expires in", Value: r.ExpiresIn},
	}
}
