package main

import (
	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		sse  bool
		port int
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve essays to MCP clients",
		Long:  `Runs a Model Context Protocol server on stdio, or over SSE with --sse.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, engine := cli.NewService(a.cfg, a.backend, a.logger, a.hooks())
			opts := []mcp.Option{
				mcp.WithLogger(a.logger),
				mcp.WithVersion(quill.Version),
			}
			if g := cli.NewGateway(a.cfg.Suggest); g != nil {
				opts = append(opts, mcp.WithGateway(g))
			}
			srv := mcp.NewServer(repo, engine, opts...)

			if !sse {
				return srv.ServeStdio()
			}
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.MCPPort
			}
			return srv.ServeSSE(cmd.Context(), port)
		},
	}
	cmd.Flags().BoolVar(&sse, "sse", false, "serve over SSE instead of stdio")
	cmd.Flags().IntVarP(&port, "port", "p", 8081, "SSE port")
	return cmd
}
