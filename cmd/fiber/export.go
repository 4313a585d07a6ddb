package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/internal/export"
)

func exportCmd(flags *globalFlags) *cobra.Command {
	var (
		bucket   string
		name     string
		endpoint string
		timeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Upload the rendered demo to S3",
		Long: `Render the whole demo script and upload the final host tree HTML and
the per-step op log to S3.

Objects are written to <prefix><name>/index.html and
<prefix><name>/ops.json. Credentials are read from AWS_ACCESS_KEY_ID and
AWS_SECRET_ACCESS_KEY.

Examples:
  fiber export --bucket=ui-snapshots
  fiber export --bucket=ui --endpoint=http://localhost:9000 --name=nightly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if bucket != "" {
				cfg.Export.Bucket = bucket
			}
			if endpoint != "" {
				cfg.Export.Endpoint = endpoint
			}
			if cfg.Export.Bucket == "" {
				return errors.New("F040")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			exp, err := export.New(export.NewClient(cfg.Export), cfg.Export.Bucket, cfg.Export.Prefix)
			if err != nil {
				return err
			}
			res, err := exportScript(ctx, cfg, exp, name)
			if err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Uploaded s3://%s/%s", res.Bucket, res.HTMLKey)
			success(cmd.OutOrStdout(), "Uploaded s3://%s/%s", res.Bucket, res.OpsKey)
			return nil
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Destination bucket (default from fiber.json)")
	cmd.Flags().StringVar(&name, "name", "", "Snapshot name (default: UTC timestamp)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Upload timeout")

	return cmd
}

// exportScript renders the full script and uploads the result. The HTML
// is captured before the session unmounts.
func exportScript(ctx context.Context, cfg *config.Config, exp *export.Exporter, name string) (*export.Result, error) {
	s, err := newSession(cfg, newLogger(cfg, os.Stderr), config.DriverManual)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	for i := 1; i < len(s.script); i++ {
		if _, err := s.step(); err != nil {
			return nil, err
		}
	}
	return exp.Export(ctx, export.Snapshot{
		Name:  name,
		HTML:  s.mem.HTML(),
		Steps: s.steps(),
	})
}
