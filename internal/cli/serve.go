package cli

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/zkloci/internal/pipeline"
	"github.com/ppiankov/zkloci/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP analytics API",
	Long: `Serve exposes the question flow over HTTP:

  GET  /                 health message
  POST /analytics/query  {"question": "..."} -> {"answer", "route", "raw_stats"}

Example:
  zkloci serve
  zkloci serve --addr :9000 --store memory`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8000)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := currentConfig()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	rt, err := pipeline.NewFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer rt.Close()

	return server.New(ctx, rt, cfg.Server).Run(ctx)
}
