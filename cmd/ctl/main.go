// Package main is the operator CLI: list, soft-delete, restore, purge and
// inspect the history of projects and portfolios.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"portfolio/internal/app"
	"portfolio/internal/config"
	appctx "portfolio/internal/core/context"
	"portfolio/internal/core/security"
	"portfolio/internal/infrastructure/notify"
	"portfolio/pkg/logger"
)

func main() {
	cobra.OnInitialize(initConfig)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Flags are bound to the global viper
// instance each time, so a fresh tree starts from default flag values.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolioctl",
		Short: "Portfolio lifecycle CLI",
		Long: `portfolioctl manages the soft-delete lifecycle of projects and portfolios.
- delete moves a record to the trash and opens its restoration window.
- restore brings it back while the window is open.
- purge removes it for good; purge-expired sweeps everything past its window.
Every action is written to the audit log, see 'history'.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addPersistentFlags(root)
	registerCommands(root)
	return root
}

func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags(root *cobra.Command) {
	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default: ./config.yaml if present)")
	flags.Bool("json", false, "output JSON")
	flags.String("actor-id", "operator", "acting user id recorded in the audit log")
	flags.String("storage", "", "override lifecycle.storage (postgres or memory)")
	for _, name := range []string{"config", "json", "actor-id", "storage"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands(root *cobra.Command) {
	root.AddCommand(
		listCmd(),
		getCmd(),
		createCmd(),
		deleteCmd(),
		restoreCmd(),
		purgeCmd(),
		purgeExpiredCmd(),
		historyCmd(),
		tokenCmd(),
	)
}

// loadConfig reads configuration the same way the server does, then applies
// CLI overrides.
func loadConfig() (*config.Config, error) {
	v := viper.New()
	if storage := viper.GetString("storage"); storage != "" {
		v.Set("lifecycle.storage", storage)
	}
	return config.LoadWith(v, viper.GetString("config"))
}

// withApp wires the application and runs fn with a context carrying the
// actor, a quiet logger and a toast collector. Toasts go to the command's
// stderr.
func withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: "warn", OutputPaths: []string{"stderr"}})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	actor := viper.GetString("actor-id")
	ctx = appctx.WithTrace(ctx, appctx.NewTrace(appctx.OriginCLI))
	ctx = appctx.WithUser(ctx, &appctx.UserContext{UserID: actor, IsAdmin: true})
	ctx = security.WithUserID(ctx, actor)
	ctx = logger.WithLogger(ctx, log)

	toasts := notify.NewCollector()
	ctx = notify.WithCollector(ctx, toasts)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	printToasts(cmd.ErrOrStderr(), toasts.Messages())
	return err
}
