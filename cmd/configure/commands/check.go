package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/postcraft/internal/config"
	"github.com/benvon/postcraft/internal/logger"
	"github.com/benvon/postcraft/internal/services/auth"
	"github.com/spf13/cobra"
)

const checkTimeout = 60 * time.Second

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check connectivity to external providers",
	}
	cmd.AddCommand(newCheckAICmd())
	cmd.AddCommand(newCheckAuthCmd())
	return cmd
}

func newCheckAICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ai",
		Short: "Make one embedding call and one generation call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.NewDevelopmentLogger(false)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			clients, err := aiClients(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to create AI clients: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			fmt.Printf("Testing embeddings (%s)\n", cfg.EmbeddingModel)
			vec, err := clients.Embedder.Embed(ctx, "connectivity check")
			if err != nil {
				return fmt.Errorf("embedding call failed: %w", err)
			}
			fmt.Printf("✓ Embedding returned %d dimensions\n", len(vec))

			fmt.Printf("\nTesting generation (%s/%s)\n", cfg.AIProvider, cfg.AIModel)
			out, err := clients.Generator.Generate(ctx, "Reply with the single word: ok")
			if err != nil {
				return fmt.Errorf("generation call failed: %w", err)
			}
			fmt.Printf("✓ Generation returned %d characters\n", len(out))

			fmt.Println("\n✓ AI provider check passed")
			return nil
		},
	}
}

func newCheckAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Fetch the identity provider's JWKS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.AuthJWKSURL == "" {
				return fmt.Errorf("AUTH_JWKS_URL is not configured")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			fmt.Printf("Issuer: %s\n", cfg.AuthIssuer)
			fmt.Printf("Testing JWKS endpoint: %s\n", cfg.AuthJWKSURL)
			keys, err := auth.NewJWKSManager(nil).GetJWKS(ctx, cfg.AuthJWKSURL)
			if err != nil {
				return err
			}
			if keys.Len() == 0 {
				return fmt.Errorf("JWKS endpoint returned no keys")
			}
			fmt.Printf("✓ JWKS endpoint returned %d keys\n", keys.Len())
			return nil
		},
	}
}
