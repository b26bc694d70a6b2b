package cli

import (
	"context"
	"fmt"
	"log"

	"ffquiz-service/internal/catalog"
	"ffquiz-service/internal/config"
	"ffquiz-service/internal/infra/postgres"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewCatalogCmd groups the catalog maintenance commands.
func NewCatalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and import the quiz catalog",
	}
	cmd.AddCommand(newCatalogCheckCmd(configPath), newCatalogImportCmd(configPath))
	return cmd
}

func newCatalogCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load the configured catalog and report decoding issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			var pool *pgxpool.Pool
			if cfg.Catalog.Source == "postgres" {
				if pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL); err != nil {
					return errors.Wrap(err, "connect postgres")
				}
				defer pool.Close()
			}
			cat, err := loadCatalog(ctx, cfg, pool)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d quizzes loaded from %s source\n", cat.Len(), cfg.Catalog.Source)
			if merr, ok := cat.Issues().(*multierror.Error); ok && merr != nil {
				for _, issue := range merr.Errors {
					fmt.Fprintf(out, "  issue: %v\n", issue)
				}
			}
			return nil
		},
	}
}

func newCatalogImportCmd(configPath *string) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert catalog source documents into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}

			doc, err := catalog.EmbeddedDocument()
			if from != "" {
				doc, err = catalog.FileDocument(from)
			}
			if err != nil {
				return err
			}
			// Refuse to import what the server could not serve.
			if _, err := catalog.Build(doc.Quizzes); err != nil {
				return err
			}

			db := openBun(cfg.Postgres.URL)
			defer db.Close()
			if err := migrateDB(ctx, db); err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return errors.Wrap(err, "connect postgres")
			}
			defer pool.Close()

			if err := postgres.NewCatalogSource(pool).Store(ctx, doc.Quizzes); err != nil {
				return err
			}
			log.Printf("imported %d quizzes", len(doc.Quizzes))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "YAML catalog file to import (defaults to the embedded catalog)")
	return cmd
}

// loadCatalog builds the catalog from the configured source. Non-fatal
// decoding issues are logged and the affected answers default to option A.
func loadCatalog(ctx context.Context, cfg config.Config, pool *pgxpool.Pool) (*catalog.Catalog, error) {
	var (
		doc catalog.Document
		err error
	)
	switch cfg.Catalog.Source {
	case "", "embedded":
		doc, err = catalog.EmbeddedDocument()
	case "file":
		doc, err = catalog.FileDocument(cfg.Catalog.Path)
	case "postgres":
		if pool == nil {
			return nil, errors.New("catalog source postgres needs postgres.url")
		}
		doc.Quizzes, err = postgres.NewCatalogSource(pool).LoadAll(ctx)
	default:
		return nil, errors.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load catalog")
	}

	cat, err := catalog.Build(doc.Quizzes)
	if err != nil {
		return nil, err
	}
	if issues := cat.Issues(); issues != nil {
		log.Printf("catalog loaded with issues: %v", issues)
	}
	return cat, nil
}
