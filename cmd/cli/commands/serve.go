package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/pkg/api"
	"github.com/mitheta/moneyclub/pkg/core/services"
)

// RefreshCmd creates the refresh command
func RefreshCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload every dataset from the spreadsheet, ignoring cache age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := app.RefreshState()
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Loaded %d members (load %s)\n\n", len(state.Members), state.LoadID)
			printAvailability("Fund progress", state.Funds != nil)
			printAvailability("Scholarships", state.Scholarships != nil)
			printAvailability("Decades", state.Decades != nil)
			printAvailability("Monthly donors", state.Monthly != nil)
			fmt.Println()
			return nil
		},
	}
}

func printAvailability(name string, ok bool) {
	if ok {
		fmt.Printf("  ✓ %s\n", name)
		return
	}
	fmt.Printf("  ✗ %s (unavailable)\n", name)
}

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve donor data as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Cfg.Server.Addr
			}
			interval, _ := cmd.Flags().GetDuration("reload-interval")

			var holder services.Holder
			opts := app.SearchOptions()
			var loader services.DatasetLoader = app.Gateway
			server := api.New(&holder, func(ctx context.Context) error {
				_, err := holder.Reload(ctx, loader, opts, app.Logger)
				return err
			}, app.Levels, excludedDecades(app.Cfg), app.Registry, app.Logger)

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			// A failed first load still serves; /api/status carries the remediation
			if err := server.Reload(ctx); err == nil {
				app.Logger.Info("Initial load complete", zap.Int("members", len(holder.Current().Members)))
			}
			// Later reloads (POST /api/reload, --reload-interval) go to the spreadsheet
			loader = app.Gateway.Forced()
			if interval > 0 {
				go reloadEvery(ctx, server, interval)
			}

			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- httpServer.ListenAndServe()
			}()
			app.Logger.Info("Serving API", zap.String("addr", addr))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (defaults to server.addr in config)")
	cmd.Flags().Duration("reload-interval", 0, "Reload datasets on this interval, 0 to disable")
	return cmd
}

func reloadEvery(ctx context.Context, server *api.Server, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			server.Reload(ctx)
		}
	}
}
