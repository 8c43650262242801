package commands

import (
	"fmt"
	"os"

	"github.com/benvon/postcraft/internal/database"
	"github.com/benvon/postcraft/internal/models"
	"github.com/benvon/postcraft/internal/seed"
	"github.com/spf13/cobra"
)

// NewSeedCmd creates the seed command
func NewSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data",
	}
	cmd.AddCommand(newSeedTemplatesCmd())
	return cmd
}

func newSeedTemplatesCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Embed and upsert viral templates",
		Long:  "Embed and upsert the built-in viral templates, or the templates in --file. Existing templates are matched by name.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := loadSeedTemplates(file)
			if err != nil {
				return err
			}

			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.close()

			clients, err := aiClients(e.cfg, e.logger)
			if err != nil {
				return fmt.Errorf("failed to create AI clients: %w", err)
			}

			n, err := seed.Templates(cmd.Context(), database.NewTemplateRepository(e.db), clients.Embedder, templates, e.logger)
			if err != nil {
				return fmt.Errorf("seeded %d of %d templates: %w", n, len(templates), err)
			}
			fmt.Printf("Seeded %d templates\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML file of templates (defaults to the built-in set)")

	return cmd
}

func loadSeedTemplates(file string) ([]*models.Template, error) {
	if file == "" {
		return seed.BuiltinTemplates()
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", file, err)
		}
	}()
	return seed.LoadTemplates(f)
}
