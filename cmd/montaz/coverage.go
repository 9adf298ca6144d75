package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"montaz-workers/internal/common/config"
	"montaz-workers/internal/common/database"
	"montaz-workers/internal/common/logger"
	"montaz-workers/internal/coverage"
	"montaz-workers/internal/models"
	"montaz-workers/internal/staffing"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// staffingFile is the input of "coverage compute". JSON files parse as well.
type staffingFile struct {
	ProjectName     string                    `yaml:"projectName"`
	Requirements    []coverage.Requirement    `yaml:"requirements"`
	AssignedWorkers []coverage.AssignedWorker `yaml:"assignedWorkers"`
}

type coverageReport struct {
	ProjectID   string `json:"projectId,omitempty"`
	ProjectName string `json:"projectName,omitempty"`
	// Requirements are merged: one entry per tier, in tier order.
	Requirements []coverage.Requirement `json:"requirements"`
	Coverage     coverage.Result        `json:"coverage"`
}

type staffingLoader interface {
	LoadProjectStaffing(ctx context.Context, projectID string) (*models.ProjectStaffing, error)
}

func newCoverageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coverage",
		Short: "Evaluate staffing coverage",
	}
	cmd.AddCommand(newCoverageComputeCmd(), newCoverageProjectCmd())
	return cmd
}

func newCoverageComputeCmd() *cobra.Command {
	var file, output string

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Evaluate coverage of a staffing file",
		Long: `Evaluate coverage from a YAML or JSON file:

  projectName: Rekonstrukce mostu
  requirements:
    - {seniority: senior, count: 2}
    - {seniority: junior, count: 3}
  assignedWorkers:
    - {id: w-1, seniority: specialista}
    - {id: w-2, seniority: junior}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read staffing file: %w", err)
			}
			report, err := computeFromFile(data)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, output)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "staffing file (YAML or JSON)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newCoverageProjectCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "project <project-id>",
		Short: "Evaluate coverage of a project from the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			log := logger.NewStructured("warn", "console")
			store := staffing.NewStore(pg.DB, rdb.Client, time.Duration(cfg.Staffing.CacheTTL)*time.Second, log)

			return runProject(cmd.Context(), cmd.OutOrStdout(), store, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")
	return cmd
}

func runProject(ctx context.Context, out io.Writer, loader staffingLoader, projectID, output string) error {
	ps, err := loader.LoadProjectStaffing(ctx, projectID)
	if err != nil {
		return err
	}
	return writeReport(out, &coverageReport{
		ProjectID:    ps.ProjectID,
		ProjectName:  ps.ProjectName,
		Requirements: coverage.MergeRequirements(ps.Requirements),
		Coverage:     coverage.Compute(ps.Requirements, ps.Assigned),
	}, output)
}

func computeFromFile(data []byte) (*coverageReport, error) {
	var in staffingFile
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse staffing file: %w", err)
	}
	for _, r := range in.Requirements {
		if _, ok := coverage.ParseTier(string(r.Seniority)); !ok {
			return nil, fmt.Errorf("unknown seniority %q in requirements", r.Seniority)
		}
	}
	return &coverageReport{
		ProjectName:  in.ProjectName,
		Requirements: coverage.MergeRequirements(in.Requirements),
		Coverage:     coverage.Compute(in.Requirements, in.AssignedWorkers),
	}, nil
}

func checkOutput(output string) error {
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("unsupported output %q (want %s or %s)", output, outputTable, outputJSON)
	}
	return nil
}

func writeReport(out io.Writer, report *coverageReport, output string) error {
	if output == outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := fmt.Fprintln(out, renderReport(report))
	return err
}
