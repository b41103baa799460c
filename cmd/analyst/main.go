package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"statement_analyst/pkg/core/agent"
	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/config"
	"statement_analyst/pkg/core/conversation"
	"statement_analyst/pkg/core/ingest"
	"statement_analyst/pkg/core/logger"
	"statement_analyst/pkg/core/prompt"
)

// app carries the flags and collaborators shared by every subcommand.
type app struct {
	configPath string
	provider   string

	// providers builds the provider source from the loaded config.
	providers func(cfg config.Config) (conversation.ProviderSource, error)
}

func main() {
	godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(&app{providers: managerSource}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "analyst",
		Short:        "Analyse a two-year balance sheet and discuss it with an LLM",
		Long:         "Derives growth, asset composition and the current ratio from a three-column statement (.xlsx or .csv), then asks the configured LLM for commentary and follow-up answers.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "path to the YAML config file")
	cmd.PersistentFlags().StringVar(&a.provider, "provider", "", "LLM provider to use (gemini, claude, deepseek)")

	cmd.AddCommand(newAnalyzeCommand(a))
	cmd.AddCommand(newChatCommand(a))
	return cmd
}

func managerSource(cfg config.Config) (conversation.ProviderSource, error) {
	return agent.NewManager(cfg), nil
}

// open loads config, derives the statement at path and returns a session.
func (a *app) open(path string) (*conversation.Session, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.provider != "" {
		cfg.LLM.ActiveProvider = a.provider
	}

	source, err := a.providers(cfg)
	if err != nil {
		return nil, err
	}
	if mgr, ok := source.(*agent.Manager); ok && a.provider != "" {
		if err := mgr.SetGlobalProvider(a.provider); err != nil {
			return nil, err
		}
	}

	prompts := prompt.Get()
	if cfg.Prompts.Dir != "" {
		if err := prompt.LoadFromDirectory(prompts, cfg.Prompts.Dir); err != nil {
			return nil, fmt.Errorf("failed to load prompts: %w", err)
		}
	}
	if err := prompts.CheckAnalysis(); err != nil {
		return nil, err
	}

	stmt, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	analysis, err := calc.Analyze(stmt.Rows, cfg.Markers)
	if err != nil {
		return nil, err
	}

	log := logger.Nop()
	if cfg.Log.File != "" {
		log = logger.New(cfg.Log.File, cfg.Log.Production)
	}
	return conversation.NewSession("cli", stmt.FileName, analysis, conversation.Options{
		Providers: source,
		Prompts:   prompts,
		Logger:    log,
	}), nil
}
