// Package command provides CLI command definitions for jobrunner-cli.
package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/jobrunner-go/internal/cli/connection"
	"github.com/yndnr/jobrunner-go/internal/cli/output"
	"github.com/yndnr/jobrunner-go/internal/infra/buildinfo"
	"github.com/yndnr/jobrunner-go/internal/infra/tlsroots"
)

// DefaultTimeout bounds a single command's RPC.
const DefaultTimeout = 10 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "jobrunner-cli",
		Usage:   "jobrunner command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			HealthCommand(),
			JobCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "jobrunner RPC address (e.g., 127.0.0.1:50051)",
			EnvVars: []string{"JOBRUNNER_SERVER"},
			Value:   connection.DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: text, json, yaml",
			Value:   string(output.FormatText),
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM file or directory of CAs trusted for https servers",
			EnvVars: []string{"JOBRUNNER_CA_FILE"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: DefaultTimeout,
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Output  string
	CAFile  string
	Timeout time.Duration
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:  c.String("server"),
		Output:  c.String("output"),
		CAFile:  c.String("ca-file"),
		Timeout: c.Duration("timeout"),
	}
}

// newClient builds a client and a request context from the global flags.
func newClient(c *cli.Context) (*connection.Client, context.Context, context.CancelFunc, error) {
	flags := ParseGlobalFlags(c)

	var opts []connection.Option
	if flags.CAFile != "" {
		tlsConfig, err := tlsroots.ClientConfig(flags.CAFile)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = append(opts, connection.WithTLSConfig(tlsConfig))
	}
	client := connection.NewClient(flags.Server, flags.Timeout, opts...)

	parent := c.Context
	if parent == nil {
		parent = context.Background()
	}
	if flags.Timeout <= 0 {
		ctx, cancel := context.WithCancel(parent)
		return client, ctx, cancel, nil
	}
	ctx, cancel := context.WithTimeout(parent, flags.Timeout)
	return client, ctx, cancel, nil
}

// render writes data in the selected output format. text is used for the
// text format, data for the structured ones.
func render(c *cli.Context, text output.Fields, data any) error {
	format, err := output.ParseFormat(ParseGlobalFlags(c).Output)
	if err != nil {
		return err
	}
	if format == output.FormatText {
		return output.NewFormatter(format).Format(writer(c), text)
	}
	return output.NewFormatter(format).Format(writer(c), data)
}

func writer(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
