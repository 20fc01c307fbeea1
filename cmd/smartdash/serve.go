package main

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"net/http"

	"smartdash/internal/api"
	"smartdash/internal/schema"
	"smartdash/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		inf, err := newInferencer()
		if err != nil {
			return err
		}
		store := session.NewStore(cfg.SessionTTL)
		handler := api.NewHandler(store, inf, cfg, log)

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(middleware.RealIP)
		r.Use(api.RequestLogger(log))
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		handler.RegisterRoutes(r)

		log.Info("listening", zap.String("addr", cfg.ListenAddr))
		return http.ListenAndServe(cfg.ListenAddr, r)
	},
}

func newInferencer() (*schema.Inferencer, error) {
	if cfg.KeywordsFile == "" {
		return schema.NewInferencer(), nil
	}
	return schema.NewInferencerFromFile(cfg.KeywordsFile)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
