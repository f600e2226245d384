package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brandforge-ai/brandforge/internal/repository"
	"github.com/spf13/cobra"
)

func KnowledgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Manage agent brand knowledge",
		Long:  "Inspect and reset an agent's distilled knowledge points",
	}

	cmd.AddCommand(KnowledgeResetCmd())

	return cmd
}

func KnowledgeResetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset <agent-id>",
		Short: "Delete all knowledge points for an agent",
		Long:  "Delete all distilled knowledge points for an agent so its knowledge base can be rebuilt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runKnowledgeReset(args[0], yes, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func runKnowledgeReset(agentID string, yes bool, outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agent, err := repository.NewAgentRepository(pool).GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("agent not found: %s", agentID)
	}

	pointsRepo := repository.NewKnowledgePointRepository(pool)

	if !yes {
		count, err := pointsRepo.CountByAgent(ctx, agentID)
		if err != nil {
			return fmt.Errorf("failed to count knowledge points: %w", err)
		}
		fmt.Printf("This deletes %d knowledge points for agent '%s'. Continue? [y/N]: ", count, agent.Name)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	deleted, err := pointsRepo.DeleteByAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to reset knowledge: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"agent_id": agentID,
			"deleted":  deleted,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Deleted %d knowledge points for agent %s\n", deleted, agentID)
	}

	return nil
}
