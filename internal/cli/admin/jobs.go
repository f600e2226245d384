package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brandforge-ai/brandforge/internal/repository"
	"github.com/spf13/cobra"
)

func JobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect pipeline jobs",
		Long:  "Inspect pipeline jobs and their retry state",
	}

	cmd.AddCommand(JobsShowCmd())

	return cmd
}

func JobsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show a pipeline job",
		Long:  "Show a pipeline job with its attempts, last error and children",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runJobsShow(args[0], outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runJobsShow(jobID, outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	jobRepo := repository.NewPipelineJobRepository(pool)

	job, err := jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("job not found: %s", jobID)
	}

	children, err := jobRepo.ListChildren(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to list child jobs: %w", err)
	}

	if outputFormat == "json" {
		childData := make([]map[string]interface{}, len(children))
		for i, c := range children {
			childData[i] = map[string]interface{}{
				"id":         c.ID,
				"queue":      c.Queue,
				"status":     c.Status,
				"attempts":   c.Attempts,
				"last_error": c.LastError,
			}
		}
		data := map[string]interface{}{
			"id":           job.ID,
			"queue":        job.Queue,
			"status":       job.Status,
			"attempts":     job.Attempts,
			"max_attempts": job.MaxAttempts,
			"last_error":   job.LastError,
			"available_at": job.AvailableAt,
			"created_at":   job.CreatedAt,
			"processed_at": job.ProcessedAt,
			"children":     childData,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Job: %s\n", job.ID)
		fmt.Printf("  Queue:    %s\n", job.Queue)
		fmt.Printf("  Status:   %s\n", job.Status)
		fmt.Printf("  Attempts: %d/%d\n", job.Attempts, job.MaxAttempts)
		if job.LastError != "" {
			fmt.Printf("  Error:    %s\n", job.LastError)
		}
		if len(children) > 0 {
			fmt.Println("  Children:")
			for _, c := range children {
				fmt.Printf("    %s  %s  %s\n", c.ID, c.Queue, c.Status)
			}
		}
	}

	return nil
}
