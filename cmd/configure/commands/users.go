package commands

import (
	"fmt"

	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/spf13/cobra"
)

// NewUsageCmd creates the usage command
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Manage monthly generation usage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset every user's monthly generation count",
		Long:  "Reset every user's monthly generation count. Run at the start of each billing month.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			n, err := database.NewUserRepository(e.db).ResetMonthlyUsage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Reset usage for %d users\n", n)
			return nil
		},
	})
	return cmd
}

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}
	cmd.AddCommand(newUsersPlanCmd())
	return cmd
}

func newUsersPlanCmd() *cobra.Command {
	var email, tier string
	var limit int

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Set a user's subscription tier and monthly post limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			t := models.SubscriptionTier(tier)
			if t != models.SubscriptionTierFree && t != models.SubscriptionTierPro {
				return fmt.Errorf("--tier must be %q or %q", models.SubscriptionTierFree, models.SubscriptionTierPro)
			}

			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			if limit <= 0 {
				limit = e.cfg.FreePostsLimit
				if t == models.SubscriptionTierPro {
					limit = e.cfg.ProPostsLimit
				}
			}

			user, err := database.NewUserRepository(e.db).SetPlan(cmd.Context(), email, t, limit)
			if err != nil {
				return err
			}
			fmt.Printf("User %s is now on %s (%d posts/month)\n", user.Email, user.SubscriptionTier, user.PostsLimit)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email (required)")
	cmd.Flags().StringVar(&tier, "tier", string(models.SubscriptionTierPro), "Subscription tier: free or pro")
	cmd.Flags().IntVar(&limit, "limit", 0, "Monthly post limit (defaults to the tier's configured limit)")

	return cmd
}
