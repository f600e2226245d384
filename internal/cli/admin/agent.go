package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brandforge-ai/brandforge/internal/config"
	"github.com/brandforge-ai/brandforge/internal/database"
	"github.com/brandforge-ai/brandforge/internal/domain"
	"github.com/brandforge-ai/brandforge/internal/repository"
	"github.com/brandforge-ai/brandforge/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func AgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage brand agents",
		Long:  "Create and inspect brand agents",
	}

	cmd.AddCommand(AgentCreateCmd())
	cmd.AddCommand(AgentShowCmd())

	return cmd
}

func AgentCreateCmd() *cobra.Command {
	var (
		purpose      string
		systemPrompt string
		websiteURL   string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new brand agent",
		Long:  "Create a new brand agent with the specified name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAgentCreate(args[0], purpose, systemPrompt, websiteURL, outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().StringVar(&purpose, "purpose", "blog_post", "Content purpose (blog_post, linkedin_post, twitter_thread, instagram_post, email_newsletter, reddit_post, technical_documentation)")
	cmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "Custom writer system prompt")
	cmd.Flags().StringVar(&websiteURL, "website-url", "", "Brand website URL for auto knowledge building")

	return cmd
}

func runAgentCreate(name, purpose, systemPrompt, websiteURL, outputFormat string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	agentSvc := service.NewAgentService(repository.NewAgentRepository(pool))

	agent, err := agentSvc.Create(ctx, service.CreateAgentInput{
		Name:         name,
		Purpose:      domain.ContentPurpose(purpose),
		SystemPrompt: systemPrompt,
		WebsiteURL:   websiteURL,
	})
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":          agent.ID,
			"name":        agent.Name,
			"purpose":     agent.Purpose,
			"website_url": agent.WebsiteURL,
			"created_at":  agent.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Agent created: %s (%s)\n", agent.Name, agent.ID)
	}

	return nil
}

func AgentShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <agent-id>",
		Short: "Show a brand agent",
		Long:  "Show a brand agent and its knowledge point count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runAgentShow(args[0], outputFormat)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runAgentShow(agentID, outputFormat string) error {
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

	points, err := repository.NewKnowledgePointRepository(pool).CountByAgent(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to count knowledge points: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":               agent.ID,
			"name":             agent.Name,
			"purpose":          agent.Purpose,
			"system_prompt":    agent.SystemPrompt,
			"website_url":      agent.WebsiteURL,
			"knowledge_points": points,
			"created_at":       agent.CreatedAt,
			"updated_at":       agent.UpdatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Agent: %s (%s)\n", agent.Name, agent.ID)
		fmt.Printf("  Purpose:          %s\n", agent.Purpose)
		fmt.Printf("  Website:          %s\n", agent.WebsiteURL)
		fmt.Printf("  Knowledge points: %d\n", points)
		fmt.Printf("  Created:          %s\n", agent.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}
