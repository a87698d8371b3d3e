package cli

import (
	"github.com/alexanderramin/coursechat/internal/httpapi"
	"github.com/alexanderramin/coursechat/internal/intelligence"
	"github.com/alexanderramin/coursechat/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat and catalog HTTP API",
		Long: `Serves the JSON API used by the web chat widget. Admin routes under
/api/admin are mounted only when server.admin_token is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = app.Config.Server.Addr()
			}
			srv := httpapi.New(httpapi.Deps{
				Chat:      app.Chat,
				Courses:   app.Courses,
				Analytics: app.Analytics,
			}, httpapi.Options{
				Mode:       app.Config.Server.Mode,
				AdminToken: app.Config.Server.AdminToken,
				Greeting:   intelligence.Greeting(app.Config.Chat.CompanyName),
			}, app.logger())
			return srv.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from server.host and server.port)")
	return cmd
}

func newMCPCmd(app *App) *cobra.Command {
	var (
		useHTTP bool
		addr    string
		noChat  bool
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Expose catalog tools over the Model Context Protocol",
		Long: `Runs an MCP server on stdio, or on the streamable HTTP transport with
--http. Tools: search_courses, course_details and, unless --no-chat is set,
ask.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports := &mcpserver.Ports{Courses: app.Courses}
			if !noChat {
				ports.Chat = app.Chat
			}
			srv, err := mcpserver.NewServer(ports)
			if err != nil {
				return err
			}
			if !useHTTP {
				return srv.Run(cmd.Context())
			}
			if addr == "" {
				addr = app.Config.MCP.Addr
			}
			app.logger().Info("mcp server listening", "addr", addr)
			return srv.RunHTTP(cmd.Context(), addr)
		},
	}
	cmd.Flags().BoolVar(&useHTTP, "http", false, "serve streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default mcp.addr)")
	cmd.Flags().BoolVar(&noChat, "no-chat", false, "do not register the ask tool")
	return cmd
}
