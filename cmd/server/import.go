package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/wardrobe/pkg/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the SQLite product catalog",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "import <products.yaml|products.json>",
			Short: "Insert or replace products from a file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				products, err := catalog.LoadProductsFile(args[0])
				if err != nil {
					return err
				}
				n, err := store.Upsert(cmd.Context(), products)
				if err != nil {
					return err
				}
				total, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				a.logger.Info("catalog imported", "file", args[0], "upserted", n, "total", total)
				fmt.Fprintf(cmd.OutOrStdout(), "%d products imported, %d in catalog\n", n, total)
				return nil
			},
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of products in the catalog",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				defer store.Close()

				n, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) openStore() (*catalog.Store, error) {
	if a.cfg.Catalog.DB == "" {
		return nil, fmt.Errorf("catalog.db is not set")
	}
	return catalog.OpenStore(a.cfg.Catalog.DB, a.cfg.Catalog.Limit)
}
