package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
	"github.com/alexandresoro/ouca-sub007/internal/importer"
	"github.com/alexandresoro/ouca-sub007/internal/report"
	"github.com/alexandresoro/ouca-sub007/internal/repository/postgresql"
)

type runOptions struct {
	entityType string
	file       string
	requester  string
	dryRun     bool
	errorsOut  string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <entity-type> <file>",
		Short: "Validate a local import file and insert its rows",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.entityType, opts.file = args[0], args[1]

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.done()

			_, err = runImport(cmd.Context(), opts, postgresql.ImporterDeps(e.pool), cmd.OutOrStdout(), cmd.ErrOrStderr(), e.log)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.requester, "requester", "", "Id of the user the rows are created for (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate every row but write nothing")
	cmd.Flags().StringVar(&opts.errorsOut, "errors", "", "Write the rejected rows to this .csv or .xlsx file")
	_ = cmd.MarkFlagRequired("requester")

	return cmd
}

type runSummary struct {
	EntityType       entity.EntityType  `json:"entity_type"`
	DryRun           bool               `json:"dry_run"`
	State            entity.ImportState `json:"state"`
	Reason           string             `json:"reason,omitempty"`
	TotalLinesInFile int                `json:"totalLinesInFile"`
	ValidatedEntries int                `json:"validatedEntries"`
	Rejected         int                `json:"rejected"`
}

// fileUpload serves the local file as the stored upload of the run.
type fileUpload struct {
	jobID string
	data  []byte
}

func (f fileUpload) Get(_ context.Context, jobID string) ([]byte, error) {
	if jobID != f.jobID {
		return nil, nil
	}
	return f.data, nil
}

// stepPrinter writes one line per pipeline step rather than one per row.
func stepPrinter(w io.Writer) importer.Reporter {
	var last entity.ImportStatus
	return importer.ReporterFunc(func(_ context.Context, s entity.ImportStatus) {
		if s.State == last.State && s.Step == last.Step {
			return
		}
		last = s
		if s.Step != "" {
			fmt.Fprintf(w, "%s: %s\n", s.State, s.Step)
			return
		}
		fmt.Fprintln(w, s.State)
	})
}

func runImport(ctx context.Context, opts runOptions, deps importer.Deps, stdout, stderr io.Writer, log *zap.Logger) (entity.ImportStatus, error) {
	t := entity.EntityType(opts.entityType)
	v, err := importer.New(t, deps)
	if err != nil {
		return entity.ImportStatus{}, withCode(exitUsage, err)
	}
	if opts.dryRun {
		v = importer.DryRun(v)
	}

	var format report.Format
	if opts.errorsOut != "" {
		if format, err = report.ParseFormat(strings.TrimPrefix(filepath.Ext(opts.errorsOut), ".")); err != nil {
			return entity.ImportStatus{}, withCode(exitUsage, err)
		}
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return entity.ImportStatus{}, withCode(exitUsage, err)
	}

	job := entity.ImportJob{ID: uuid.New(), EntityType: t, RequesterID: opts.requester}
	pipeline := importer.NewPipeline(fileUpload{jobID: job.ID.String(), data: data}, log, nil)

	status, err := pipeline.Run(ctx, job, v, stepPrinter(stderr))
	if err != nil {
		return entity.Failed(importer.ReasonPersistenceFailed), withCode(exitDBWrite, err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(runSummary{
		EntityType:       t,
		DryRun:           opts.dryRun,
		State:            status.State,
		Reason:           status.Reason,
		TotalLinesInFile: status.TotalLinesInFile,
		ValidatedEntries: status.ValidatedEntries,
		Rejected:         len(status.Errors),
	}); err != nil {
		return status, err
	}

	if status.State == entity.StateFailed {
		return status, withCode(exitFailed, errors.New(status.Reason))
	}
	if opts.errorsOut != "" && len(status.Errors) > 0 {
		err := writeFile(opts.errorsOut, func(w io.Writer) error {
			return report.Write(w, format, importer.ColumnsOf(t), status.Errors)
		})
		if err != nil {
			return status, err
		}
	}
	if n := len(status.Errors); n > 0 {
		return status, withCode(exitValidation, fmt.Errorf("%d of %d rows rejected", n, status.TotalLinesInFile))
	}
	return status, nil
}
