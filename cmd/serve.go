package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/scholarpath/internal/api"
	"github.com/spigell/scholarpath/internal/history"
	"github.com/spigell/scholarpath/internal/scholarship"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis operations over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8080)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := setup(ctx)
	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := history.Open(ctx, e.config.History, e.logger)
	if err != nil {
		e.logger.Fatal("opening history", zap.Error(err))
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// The catalog is read per request so file edits and API updates are picked up.
	source := func(ctx context.Context) (*scholarship.Catalog, error) {
		c, _, err := loadCatalog(ctx, e.config, e.logger)
		return c, err
	}

	srv, err := api.New(api.Options{
		Logger:            e.logger,
		Service:           e.service,
		Catalog:           source,
		History:           store,
		AllowedOrigins:    e.config.Server.AllowedOrigins,
		RequestsPerMinute: e.config.Server.RequestsPerMinute,
		Registry:          registry,
	})
	if err != nil {
		e.logger.Fatal("creating http server", zap.Error(err))
	}

	if err := srv.Run(ctx, e.config.Server.Address); err != nil {
		e.logger.Fatal("http server failed", zap.Error(err))
	}
}
