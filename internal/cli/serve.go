package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/generator"
	"github.com/koustreak/catalogts/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalFlags) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generated modules over HTTP",
		Long: `Starts a read-only preview server. Each request regenerates from the live
catalog.

  GET /healthz          database reachability
  GET /modules          generated module names
  GET /modules/{name}   one module as application/typescript`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if err := cfg.ValidateConnection(); err != nil {
				return err
			}

			log := newRunLogger(cfg)
			ctx := cmd.Context()

			db, reader, mapper, err := openCatalog(ctx, cfg, log)
			if err != nil {
				log.ErrorWith("serve failed", err, map[string]interface{}{"kind": errs.KindOf(err).String()})
				return loggedError{err}
			}
			defer db.Close()

			gen := generator.New(reader, mapper, log, generator.Options{Schemas: cfg.Schemas})
			srv := server.New(gen, db, log).HTTPServer(cfg.Server.Listen)

			errCh := make(chan error, 1)
			go func() {
				log.InfoWith("listening", map[string]interface{}{"addr": srv.Addr})
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					log.ErrorWith("server stopped", err, nil)
					return loggedError{err}
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.ErrorWith("shutdown failed", err, nil)
				return loggedError{err}
			}
			log.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8080", "listen address (env: CATALOGTS_LISTEN)")
	return cmd
}
