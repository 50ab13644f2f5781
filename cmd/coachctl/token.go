package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/sales-mentor/pkg/config"
	"github.com/johnquangdev/sales-mentor/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Session token utilities",
	}

	cmd.AddCommand(newTokenMintCmd())
	return cmd
}

type mintOptions struct {
	callID    string
	companyID string
	agentID   string
}

func newTokenMintCmd() *cobra.Command {
	var opts mintOptions

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a session token for an existing call",
		Long: `Signs a session token with JWT_SESSION_SECRET for the given call, company
and agent. The call is not looked up; use it against a call created through
POST /v1/calls or 'coachctl seed'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runTokenMint(cmd, jwt.NewManager(cfg.JWT.SessionSecret, cfg.JWT.SessionExpiry), cfg.Server.PublicWSURL, opts)
		},
	}

	cmd.Flags().StringVar(&opts.callID, "call", "", "call ID (UUID)")
	cmd.Flags().StringVar(&opts.companyID, "company", "", "company ID (UUID)")
	cmd.Flags().StringVar(&opts.agentID, "agent", "", "agent ID (UUID)")
	_ = cmd.MarkFlagRequired("call")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func runTokenMint(cmd *cobra.Command, tokens *jwt.Manager, wsURL string, opts mintOptions) error {
	for name, value := range map[string]string{"call": opts.callID, "company": opts.companyID, "agent": opts.agentID} {
		if _, err := uuid.Parse(value); err != nil {
			return fmt.Errorf("--%s must be a UUID: %w", name, err)
		}
	}

	token, expiresAt, err := tokens.GenerateSessionToken(opts.callID, opts.companyID, opts.agentID)
	if err != nil {
		return fmt.Errorf("mint token: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "token:      %s\n", token)
	fmt.Fprintf(out, "expires_at: %s\n", expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
	fmt.Fprintf(out, "ws_url:     %s?call_id=%s&token=%s\n", wsURL, opts.callID, token)
	return nil
}
