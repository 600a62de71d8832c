// Package command provides CLI command definitions for jobrunner-cli.
package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	jobrunnerv1 "github.com/yndnr/jobrunner-go/api/jobrunner/v1"
	"github.com/yndnr/jobrunner-go/internal/cli/output"
)

// JobCommand returns the job subcommand group.
func JobCommand() *cli.Command {
	return &cli.Command{
		Name:  "job",
		Usage: "Job management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Queue a job",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Job name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "payload",
						Aliases: []string{"p"},
						Usage:   "Job payload; @FILE reads it from a file",
					},
				},
				Action: jobSubmit,
			},
			{
				Name:      "get",
				Usage:     "Show a job",
				ArgsUsage: "<job-id>",
				Action:    jobGet,
			},
		},
	}
}

func jobSubmit(c *cli.Context) error {
	payload, err := readPayload(c.String("payload"))
	if err != nil {
		return err
	}

	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	job, err := client.SubmitJob(ctx, c.String("name"), payload)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return renderJob(c, job)
}

func jobGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("job get requires exactly one job ID", 1)
	}

	client, ctx, cancel, err := newClient(c)
	if err != nil {
		return err
	}
	defer cancel()

	job, err := client.GetJob(ctx, c.Args().First())
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	return renderJob(c, job)
}

// readPayload returns the payload flag value, reading @FILE references.
func readPayload(value string) ([]byte, error) {
	if len(value) > 1 && value[0] == '@' {
		data, err := os.ReadFile(value[1:])
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return data, nil
	}
	if value == "" {
		return nil, nil
	}
	return []byte(value), nil
}

func renderJob(c *cli.Context, job *jobrunnerv1.Job) error {
	if job == nil {
		return cli.Exit("server returned no job", 1)
	}
	text := output.Fields{
		{Label: "ID", Value: job.ID},
		{Label: "Name", Value: job.Name},
		{Label: "State", Value: job.State},
		{Label: "Created", Value: job.CreatedAt.Format(time.RFC3339)},
		{Label: "Payload", Value: fmt.Sprintf("%d bytes", len(job.Payload))},
	}
	return render(c, text, job)
}
