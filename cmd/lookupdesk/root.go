package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lookupdesk/internal/config"
	"lookupdesk/internal/core"
	"lookupdesk/internal/logging"
	"lookupdesk/plugins/estates"
	"lookupdesk/plugins/lodging"
	"lookupdesk/plugins/tourism"
	"lookupdesk/plugins/travel"
)

// app carries state shared by every subcommand once the root pre-run hook
// has loaded configuration.
type app struct {
	configPath string
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	cmd := &cobra.Command{
		Use:           "lookupdesk",
		Short:         "Lookup datasets and estate ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file (default $"+config.EnvPath+")")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newTemplatesCmd(a))
	cmd.AddCommand(newRunCmd(a))
	cmd.AddCommand(newLedgerCmd(a))
	return cmd
}

func bundledPlugins() []core.Plugin {
	return []core.Plugin{tourism.New(), travel.New(), lodging.New(), estates.New()}
}

// openService opens the configured ledger store and installs the bundled
// plugins. The returned close func releases the store.
func (a *app) openService(ctx context.Context, opts ...core.ServiceOption) (*core.Service, func(), error) {
	engine := core.NewDefaultRulesEngine()
	store, err := core.OpenPersistentStore(ctx, a.cfg.Storage.Core(), engine)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", a.cfg.Storage.Driver, err)
	}
	closeStore := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				a.logger.Warn("close store", zap.Error(err))
			}
		}
	}
	opts = append([]core.ServiceOption{core.WithRulesEngine(engine), core.WithLogger(a.logger)}, opts...)
	svc := core.NewService(store, opts...)
	for _, plugin := range bundledPlugins() {
		meta, err := svc.InstallPlugin(plugin)
		if err != nil {
			closeStore()
			return nil, nil, fmt.Errorf("install plugin %s: %w", plugin.Name(), err)
		}
		a.logger.Debug("plugin installed", zap.String("plugin", meta.Name), zap.Int("datasets", len(meta.Datasets)))
	}
	return svc, closeStore, nil
}
