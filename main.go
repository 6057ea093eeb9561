package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"roadmapper/internal/config"
	"roadmapper/internal/database"
	"roadmapper/internal/orchestrator"
	"roadmapper/internal/services"
	"roadmapper/internal/utils"
)

var (
	envFile   string
	dbPath    string
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "roadmapper",
	Short: "Roadmap orchestration engine for the Jules coding agent",
	Long: `Roadmapper drives product backlogs through Jules sessions: it launches
ideation sessions, turns their answers into backlog items, dispatches triaged
items for implementation and follows them until a pull request appears.

Cadences are triggered externally, either with 'roadmapper run <cadence>' from
a scheduler or through POST /cadences/{cadence} on the HTTP server.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var runCmd = &cobra.Command{
	Use:   "run <frequent|hourly|daily>",
	Short: "Run one cadence and print its report",
	Long: `Run executes the steps bound to a cadence once:

  frequent - poll pending idea sessions
  hourly   - monitor in-flight builds and clean up archived sessions
  daily    - launch idea sessions and dispatch triaged features`,
	Args: cobra.ExactArgs(1),
	RunE: runCadence,
}

var discoverCmd = &cobra.Command{
	Use:   "discover <roadmap-id>",
	Short: "Ask Jules to describe a roadmap's repository",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiscover,
}

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage prompt templates",
}

var templatesSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Install the stock templates when none exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
			n, err := app.svc.Templates.SeedDefaults(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d templates\n", n)
			return nil
		})
	},
}

var templatesLoadCmd = &cobra.Command{
	Use:   "load <dir>",
	Short: "Upsert templates from YAML files below dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
			n, err := app.svc.Templates.LoadDir(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d templates\n", n)
			return nil
		})
	},
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage Jules API keys in the keyring",
	Long: `Keys are looked up per roadmap as "roadmap-<id>", then "default".
A key stored on the roadmap itself wins over both, and JULES_API_KEY is the
last fallback.`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a key read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ring, err := openKeyring()
		if err != nil {
			return err
		}
		secret, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 4096))
		if err != nil {
			return err
		}
		return ring.StoreCredential(credentialName(args[0]), []byte(strings.TrimSpace(string(secret))))
	},
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a stored key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ring, err := openKeyring()
		if err != nil {
			return err
		}
		return ring.DeleteCredential(credentialName(args[0]))
	},
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored key names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ring, err := openKeyring()
		if err != nil {
			return err
		}
		names, err := ring.ListCredentials()
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of the project .env")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides ROADMAPPER_DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "json or text (overrides LOG_FORMAT)")

	serveCmd.Flags().String("addr", "", "Listen address (overrides HTTP_ADDR)")
	discoverCmd.Flags().Bool("force", false, "Run even when the roadmap already has a description and classifications")

	templatesCmd.AddCommand(templatesSeedCmd, templatesLoadCmd)
	credentialsCmd.AddCommand(credentialsSetCmd, credentialsDeleteCmd, credentialsListCmd)
	rootCmd.AddCommand(serveCmd, runCmd, discoverCmd, templatesCmd, credentialsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the environment and the persistent flags, in
// increasing precedence.
func loadConfig() (*config.Config, error) {
	var paths []string
	if envFile != "" {
		paths = append(paths, envFile)
	}
	if err := utils.LoadEnv(paths...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.Load(database.GetDefaultDBPath())
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}
	return cfg, nil
}

func withApp(ctx context.Context, fn func(ctx context.Context, app *App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app := NewApp(cfg, newLogger(cfg.LogFormat, cfg.LogLevel))
	defer app.shutdown()
	if err := app.startup(ctx); err != nil {
		return err
	}
	return fn(ctx, app)
}

func openKeyring() (*services.KeyringService, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app := NewApp(cfg, newLogger(cfg.LogFormat, cfg.LogLevel))
	if err := app.openKeyring(); err != nil {
		return nil, err
	}
	return app.keyring, nil
}

// credentialName accepts a bare roadmap id as shorthand for its entry.
func credentialName(name string) string {
	if id, err := strconv.ParseUint(name, 10, 64); err == nil && id > 0 {
		return services.RoadmapCredentialKey(uint(id))
	}
	return name
}

func runServe(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
		addr := app.cfg.HTTPAddr
		if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
			addr = flag
		}
		// Discovery and cadence runs answer synchronously, hence the long
		// write timeout.
		srv := &http.Server{
			Addr:         addr,
			Handler:      app.router(),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			app.log.Info("roadmapper server starting", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		app.log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.log.Error("shutdown error", "error", err)
		}
		app.log.Info("server stopped")
		return nil
	})
}

func runCadence(cmd *cobra.Command, args []string) error {
	cadence, err := orchestrator.ParseCadence(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
		report, err := app.engine.Run(ctx, cadence)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	})
}

func runDiscover(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid roadmap id %q", args[0])
	}
	force, _ := cmd.Flags().GetBool("force")
	return withApp(cmd.Context(), func(ctx context.Context, app *App) error {
		if !force {
			roadmap, err := app.svc.Roadmaps.Get(ctx, uint(id))
			if err != nil {
				return err
			}
			if !roadmap.NeedsDiscovery() {
				fmt.Fprintf(cmd.OutOrStdout(), "roadmap %d already has a description and classifications; use --force to run discovery\n", id)
				return nil
			}
		}
		result, err := app.engine.Discover(ctx, uint(id))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
