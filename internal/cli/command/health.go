// Package command provides CLI command definitions for jobrunner-cli.
package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/jobrunner-go/internal/cli/output"
)

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check server health",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "service",
				Usage: "Service name; empty checks the whole server",
			},
		},
		Action: health,
	}
}

// healthResult is the structured form of a health answer.
type healthResult struct {
	Server  string `json:"server"`
	Service string `json:"service,omitempty"`
	Status  string `json:"status"`
}

func health(c *cli.Context) error {
	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	service := c.String("service")
	status, err := client.Health(ctx, service)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	result := healthResult{Server: client.BaseURL(), Service: service, Status: status}
	text := output.Fields{{Label: "Server", Value: result.Server}}
	if service != "" {
		text = append(text, output.Field{Label: "Service", Value: service})
	}
	text = append(text, output.Field{Label: "Status", Value: status})

	if err := render(c, text, result); err != nil {
		return err
	}
	if status != "SERVING" {
		return cli.Exit("", 2)
	}
	return nil
}
