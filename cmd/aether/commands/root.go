package commands

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aethershop/aether/internal/api"
	"github.com/aethershop/aether/internal/auth"
	"github.com/aethershop/aether/internal/cartstore"
	"github.com/aethershop/aether/internal/cartsync"
	"github.com/aethershop/aether/internal/config"
	"github.com/aethershop/aether/internal/printer"
	"github.com/aethershop/aether/pkg/storefront"
)

var (
	version string
	commit  string
	date    string

	configPath  string
	profileFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aether",
	Short: "ÆTHER - terminal storefront client",
	Long: `ÆTHER is a terminal client for the ÆTHER storefront API.

Browse the catalog, build a cart as a guest or signed in, and check out
from the command line. Guest cart and session state live in Redis,
namespaced per profile, so several profiles can share one machine.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "aether.yml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Profile name (overrides configuration)")
}

// app bundles the wired-up services every command needs: configuration, the
// Redis-backed local store, the API client, and the stores built on top.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	local  *storefront.Client
	api    *api.Client
	auth   *auth.Manager
	cart   *cartstore.Store
	syncer *cartsync.Orchestrator
}

// newApp loads configuration, connects the services, and restores any
// persisted session for the active profile.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if profileFlag != "" {
		cfg.Profile = profileFlag
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	local, err := storefront.NewClient(&redis.Options{Addr: cfg.RedisAddr}, cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	apiClient, err := api.NewClient(cfg.APIBaseURL, log)
	if err != nil {
		local.Close()
		return nil, err
	}

	authMgr := auth.NewManager(apiClient, local, log)
	cart := cartstore.New(apiClient, log)
	syncer := cartsync.New(local, cart, log)

	// Auth transitions drive the cart: merge-and-load on login, reset on
	// logout. A failed sync is logged, not fatal - the orchestrator stays
	// unsynced and the next syncCart call retries.
	authMgr.OnChange(func(authenticated bool) {
		if err := syncer.HandleAuthChange(ctx, authenticated); err != nil {
			log.WithError(err).Warn("cart sync after auth change failed")
		}
	})

	if err := authMgr.Restore(ctx); err != nil {
		local.Close()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		log:    log,
		local:  local,
		api:    apiClient,
		auth:   authMgr,
		cart:   cart,
		syncer: syncer,
	}, nil
}

func (a *app) Close() {
	a.local.Close()
}

// syncCart brings the authenticated cart store in line with the current
// session: merge-and-load after a login, plain load on later runs, reset on
// logout. No-op for guests.
func (a *app) syncCart(ctx context.Context) error {
	return a.syncer.HandleAuthChange(ctx, a.auth.Authenticated())
}

// requireAuth returns a user-facing error when no session is active.
func (a *app) requireAuth() error {
	if a.auth.Authenticated() {
		return nil
	}
	return printer.Error(
		"not signed in",
		"This command needs an authenticated session.",
		[]string{"Sign in first:\n  aether login --email you@example.com --password <password>"},
	)
}
