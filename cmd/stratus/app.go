// File: cmd/stratus/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"stratus/internal/config"
	"stratus/internal/flags"
	"stratus/internal/provider/factory"
	"stratus/internal/service"
	"stratus/internal/ui/prompt"
	"stratus/pkg/formatter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// appContainer holds the shared dependencies for a single command run
type appContainer struct {
	ConfigManager *config.ConfigManager
	Logger        *zap.Logger
	Prompter      prompt.Prompter

	// Set when the config loaded cleanly; config subcommands work without them
	Config          *config.Config
	ProviderFactory *factory.Factory
	StorageService  *service.StorageService
	configErr       error
}

type appContextKey struct{}

// Creates and initializes a new application container
func newApp(logger *zap.Logger, envFile string, in io.Reader, out io.Writer) (*appContainer, error) {
	cfgManager, err := config.NewConfigManager()
	if err != nil {
		return nil, err
	}
	if envFile != "" {
		if err := cfgManager.LoadEnvFile(envFile); err != nil {
			return nil, err
		}
	}

	app := &appContainer{
		ConfigManager: cfgManager,
		Logger:        logger,
		Prompter:      prompt.NewPrompter(in, out),
	}

	cfg, err := cfgManager.LoadConfig()
	if err != nil {
		// Leave the config commands usable so the offending value can be fixed
		logger.Debug("Configuration did not load", zap.Error(err))
		app.configErr = err
		return app, nil
	}

	app.Config = cfg
	app.ProviderFactory = factory.NewFactory(cfg, logger)
	app.StorageService = service.NewStorageService(app.ProviderFactory, logger)
	return app, nil
}

// storage returns the service, or the error that kept the config from loading
func (a *appContainer) storage() (*service.StorageService, error) {
	if a.configErr != nil {
		return nil, fmt.Errorf("%w (config file: %s)", a.configErr, a.ConfigManager.Path())
	}
	return a.StorageService, nil
}

func withApp(ctx context.Context, app *appContainer) context.Context {
	return context.WithValue(ctx, appContextKey{}, app)
}

func appFromContext(ctx context.Context) (*appContainer, error) {
	app, ok := ctx.Value(appContextKey{}).(*appContainer)
	if !ok || app == nil {
		return nil, errors.New("application not initialized")
	}
	return app, nil
}

// formatterFor builds a formatter from the --output flag
func formatterFor(cmd *cobra.Command) (*formatter.StorageFormatter, error) {
	value, err := cmd.Flags().GetString(flags.Output)
	if err != nil {
		return nil, err
	}
	output, err := formatter.ParseOutput(value)
	if err != nil {
		return nil, err
	}
	return formatter.NewStorageFormatter(output), nil
}
