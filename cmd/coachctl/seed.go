package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/johnquangdev/sales-mentor/internal/adapter/repository"
	"github.com/johnquangdev/sales-mentor/internal/domain/entities"
	"github.com/johnquangdev/sales-mentor/internal/infrastructure/database"
	"github.com/johnquangdev/sales-mentor/pkg/config"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

type seedOptions struct {
	company string
	agent   string
	email   string
	title   string
}

func newSeedCmd() *cobra.Command {
	opts := seedOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo company, agent and running call",
		Long:  "Creates a company, an agent and a RUNNING call, then prints a session token for the extension.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			db, err := database.NewPostgresDB(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			tokens := jwt.NewManager(cfg.JWT.SessionSecret, cfg.JWT.SessionExpiry)
			return runSeed(cmd, db, tokens, cfg.Server.PublicWSURL, opts)
		},
	}

	cmd.Flags().StringVar(&opts.company, "company", "Demo Company", "company name")
	cmd.Flags().StringVar(&opts.agent, "agent", "Demo Agent", "agent name")
	cmd.Flags().StringVar(&opts.email, "email", "agent@demo.local", "agent email")
	cmd.Flags().StringVar(&opts.title, "title", "Demo call", "call title")
	return cmd
}

func runSeed(cmd *cobra.Command, db *gorm.DB, tokens *jwt.Manager, wsURL string, opts seedOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	company := &entities.Company{Name: opts.company}
	if err := db.WithContext(ctx).Create(company).Error; err != nil {
		return fmt.Errorf("create company: %w", err)
	}

	agent := &entities.Agent{CompanyID: company.ID, Name: opts.agent, Email: opts.email}
	if err := db.WithContext(ctx).Create(agent).Error; err != nil {
		return fmt.Errorf("create agent: %w", err)
	}

	call := entities.NewCall(company.ID, agent.ID, opts.title, nil)
	if err := repository.NewCallRepository(db).Create(ctx, call); err != nil {
		return fmt.Errorf("create call: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "company_id: %s\n", company.ID)
	fmt.Fprintf(out, "agent_id:   %s\n", agent.ID)
	fmt.Fprintf(out, "call_id:    %s\n", call.ID)

	return runTokenMint(cmd, tokens, wsURL, mintOptions{
		callID:    call.ID.String(),
		companyID: company.ID.String(),
		agentID:   agent.ID.String(),
	})
}
