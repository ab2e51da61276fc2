package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
	"github.com/alexandresoro/ouca-sub007/internal/report"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
)

type jobGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ImportJob, error)
}

func newReportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report <job-id>",
		Short: "Export the rejected rows of a finished import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("invalid job id: %w", err))
			}
			f, err := report.ParseFormat(format)
			if err != nil {
				return withCode(exitUsage, err)
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.done()

			jobs := postgresql.NewJobRepository(e.pool)
			if output == "" {
				return exportErrors(cmd.Context(), jobs, id, f, cmd.OutOrStdout())
			}
			return writeFile(output, func(w io.Writer) error {
				return exportErrors(cmd.Context(), jobs, id, f, w)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Report format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func exportErrors(ctx context.Context, jobs jobGetter, id uuid.UUID, f report.Format, w io.Writer) error {
	job, err := jobs.GetByID(ctx, id)
	if errors.Is(err, postgresql.ErrNotFound) {
		return withCode(exitUsage, fmt.Errorf("import %s not found", id))
	}
	if err != nil {
		return withCode(exitDB, err)
	}
	if len(job.FinalStatus) == 0 {
		return withCode(exitUsage, fmt.Errorf("import %s has not finished", id))
	}

	var status entity.ImportStatus
	if err := json.Unmarshal(job.FinalStatus, &status); err != nil {
		return fmt.Errorf("decode final status: %w", err)
	}
	if status.State != entity.StateCompleted {
		return withCode(exitFailed, fmt.Errorf("import %s failed: %s", id, status.Reason))
	}
	return report.Write(w, f, importer.ColumnsOf(job.EntityType), status.Errors)
}
