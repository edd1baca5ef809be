package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/wardrobe/pkg/api"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the wardrobe tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.newProvider()
			if err != nil {
				return err
			}
			conn, err := a.openCatalog(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer conn.Close()

			srv := server.NewMCPServer("wardrobe", version, server.WithToolCapabilities(false))
			api.RegisterMCPTools(srv, api.NewEndpoints(p, conn.fetcher, a.logger))

			a.logger.Info("MCP server on stdio")
			return server.ServeStdio(srv)
		},
	}
}
