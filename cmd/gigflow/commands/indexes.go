package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gigflow/marketplace/internal/infrastructure/config"
	mongostore "github.com/gigflow/marketplace/internal/infrastructure/db/mongo"
)

func newIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}

			client, db, err := mongostore.Connect(ctx, mongostore.Config{
				URI:      cfg.Mongo.URI,
				Database: cfg.Mongo.Database,
				Timeout:  cfg.Mongo.Timeout,
			})
			if err != nil {
				return err
			}
			defer func() { _ = client.Disconnect(ctx) }()

			if err := mongostore.NewStore(client, db).EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexes ensured on %s\n", cfg.Mongo.Database)
			return nil
		},
	}
}
