package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"mentat/internal/agent"
	"mentat/internal/bus"
	"mentat/internal/channel"
	"mentat/internal/config"
	"mentat/internal/domain"
	"mentat/internal/memory"
	"mentat/internal/persona"
	"mentat/internal/provider"
	"mentat/internal/tool"

	"github.com/spf13/cobra"
)

var (
	version     = "0.1.0"
	logger      *slog.Logger
	configPath  string // overridable via --config flag
	showResults bool
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "mentat",
		Short: "Mentat: a tool-calling conversational assistant",
		Long:  "Mentat is a personal assistant whose model drives shell, file, web, and memory tools through an agentic response loop.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.mentat/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(runCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(toolsCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(doctorCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() *config.Config {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}
	applyLogLevel(cfg.General.LogLevel)
	return cfg
}

func applyLogLevel(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config and workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir := config.DefaultConfigDir()
			cfgPath := config.DefaultConfigPath()
			if err := os.MkdirAll(cfgDir, 0o755); err != nil {
				return err
			}
			cfg := config.Defaults()
			if err := config.Save(cfgPath, cfg); err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.General.Workspace, 0o755); err != nil {
				return err
			}
			if err := os.MkdirAll(config.ExpandPath(cfg.Persona.Dir), 0o755); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath, "workspace", cfg.General.Workspace)
			return nil
		},
	}
}

// runtime bundles everything a running assistant needs. close releases the
// store and bus.
type runtime struct {
	cfg          *config.Config
	bus          *bus.Bus
	store        *memory.SQLiteStore
	memory       *memory.Memory
	registry     *tool.Registry
	orchestrator *agent.Orchestrator
	service      *agent.Service
	provider     domain.Provider
}

func (rt *runtime) close() {
	rt.bus.Close()
	if err := rt.store.Close(); err != nil {
		logger.Warn("closing store", "err", err)
	}
}

func buildRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	if err := os.MkdirAll(cfg.General.Workspace, 0o755); err != nil {
		return nil, err
	}

	store, err := memory.NewSQLiteStore(cfg.Memory.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("memory store: %w", err)
	}

	mem := memory.New(memory.Config{
		Store:        store,
		ContextLimit: cfg.Memory.ContextLimit,
		Logger:       logger,
	})
	if cfg.General.ProjectPath != "" {
		mem.SetProjectContext(cfg.General.ProjectPath)
	}

	provFactory := provider.NewFactory(cfg, logger)
	prov, err := provFactory.DefaultProvider()
	if err != nil || prov == nil {
		logger.Warn("no default provider, falling back to ollama", "err", err)
		prov = provider.NewOllama(provider.OllamaConfig{Logger: logger})
	}
	if err := prov.Healthy(ctx); err != nil {
		logger.Warn("provider unhealthy at startup", "provider", prov.Name(), "err", err)
	}

	profile := activePersona(cfg)
	registry := registerTools(cfg, profile)

	settings := domain.Settings{
		Provider:    prov.Name(),
		Model:       cfg.General.Model,
		Temperature: cfg.General.Temperature,
		MaxTokens:   cfg.General.MaxTokens,
	}

	builder := agent.NewContextBuilder(agent.ContextBuilderConfig{
		WorkingDir:  cfg.General.Workspace,
		ProjectPath: cfg.General.ProjectPath,
		Settings:    settings,
		Memory:      mem,
	})

	var extra string
	if profile != nil {
		extra = profile.SystemPrompt
	}
	prompt := agent.NewPromptBuilder(agent.PromptConfig{
		Workspace: cfg.General.Workspace,
		Memory:    mem,
		Catalog:   registry,
		Extra:     extra,
	})

	orchestrator := agent.NewOrchestrator(registry, builder, logger)
	engine := agent.NewEngine(agent.EngineConfig{
		Provider:         prov,
		Orchestrator:     orchestrator,
		Builder:          builder,
		Prompt:           prompt,
		Logger:           logger,
		Settings:         settings,
		MaxContinuations: cfg.General.MaxContinuations,
	})

	messageBus := bus.New(100, logger)
	sessions := agent.NewSessionManager(store, logger)
	service := agent.NewService(agent.ServiceConfig{
		Engine:       engine,
		Sessions:     sessions,
		Bus:          messageBus,
		Logger:       logger,
		Provider:     prov.Name(),
		HistoryLimit: cfg.General.HistoryLimit,
	})

	return &runtime{
		cfg:          cfg,
		bus:          messageBus,
		store:        store,
		memory:       mem,
		registry:     registry,
		orchestrator: orchestrator,
		service:      service,
		provider:     prov,
	}, nil
}

// activePersona loads the configured persona profile, or nil when none is set.
func activePersona(cfg *config.Config) *persona.Profile {
	if cfg.Persona.Active == "" {
		return nil
	}
	profiles, err := persona.LoadFromDirectory(config.ExpandPath(cfg.Persona.Dir), logger)
	if err != nil {
		logger.Warn("cannot load personas", "err", err)
		return nil
	}
	p := persona.Select(profiles, cfg.Persona.Active)
	if p == nil {
		logger.Warn("active persona not found", "name", cfg.Persona.Active)
	}
	return p
}

// registerTools builds the registry. A persona with an allowlist restricts
// which tools get registered at all.
func registerTools(cfg *config.Config, profile *persona.Profile) *tool.Registry {
	registry := tool.NewRegistry(logger)

	candidates := []domain.Tool{
		tool.NewShellTool(tool.ShellConfig{
			WorkingDir:     cfg.General.Workspace,
			TimeoutSeconds: cfg.Tools.Shell.Timeout,
			MaxOutputBytes: cfg.Tools.Shell.MaxOutputBytes,
		}),
		tool.NewReadFileTool(cfg.General.Workspace),
		tool.NewWriteFileTool(cfg.General.Workspace),
		tool.NewListDirTool(cfg.General.Workspace),
		tool.NewRememberTool(),
		tool.NewRecallTool(),
	}
	if cfg.Tools.WebPage.Enabled {
		candidates = append(candidates, tool.NewWebPageTool(tool.WebPageConfig{
			TimeoutSeconds: cfg.Tools.WebPage.Timeout,
		}))
	}

	for _, t := range candidates {
		if profile != nil && !profile.Allows(t.Name()) {
			logger.Debug("persona excludes tool", "tool", t.Name(), "persona", profile.Name)
			continue
		}
		registry.Register(t)
	}
	return registry
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start interactive chat (CLI)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			go rt.service.Run(ctx)

			cli := channel.NewCLI(channel.CLIConfig{
				Logger:      logger,
				ShowResults: showResults || cfg.Channels.CLI.ShowResults,
			})
			return cli.Start(ctx, rt.bus)
		},
	}
	cmd.Flags().BoolVar(&showResults, "show-results", false, "print tool execution results instead of folding them")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [message]",
		Short: "Process a single message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			reply, err := rt.service.ProcessDirect(ctx, strings.Join(args, " "), "cli", "oneshot")
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start all enabled channels (Telegram, WebSocket) and the agent service",
		Long:  "Starts the agent service plus every enabled channel. Press Ctrl+C to stop.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	go rt.service.Run(ctx)

	started := 0

	if cfg.Channels.Telegram.Enabled && cfg.Channels.Telegram.Token != "" {
		tg := channel.NewTelegram(channel.TelegramConfig{
			Token:     cfg.Channels.Telegram.Token,
			AllowFrom: cfg.Channels.Telegram.AllowFrom,
			ParseMode: cfg.Channels.Telegram.ParseMode,
			Logger:    logger,
		})
		go func() {
			if err := tg.Start(ctx, rt.bus); err != nil {
				logger.Error("telegram channel error", "err", err)
			}
		}()
		logger.Info("telegram channel enabled")
		started++
	}

	if cfg.Channels.WebSocket.Enabled {
		ws := channel.NewWebSocketChannel(channel.WSConfig{
			Host:   cfg.Channels.WebSocket.Host,
			Port:   cfg.Channels.WebSocket.Port,
			Logger: logger,
		})
		go func() {
			if err := ws.Start(ctx, rt.bus); err != nil {
				logger.Error("websocket channel error", "err", err)
			}
		}()
		logger.Info("websocket channel enabled", "port", cfg.Channels.WebSocket.Port)
		started++
	}

	if started == 0 {
		return fmt.Errorf("no channels enabled; enable telegram or websocket in config, or use 'mentat chat'")
	}

	logger.Info("serving. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			registry := registerTools(cfg, activePersona(cfg))

			for _, def := range registry.GetAllTools() {
				fmt.Printf("%-12s %s\n", def.Name, def.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "recent",
		Short: "Show recent tool executions from this process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			registry := registerTools(cfg, activePersona(cfg))
			recent := registry.GetRecentExecutions(20)
			if len(recent) == 0 {
				fmt.Println("no executions recorded")
				return nil
			}
			for _, s := range recent {
				status := "ok"
				if !s.Success {
					status = "failed"
				}
				fmt.Printf("%s  %-12s %s\n", s.At.Format(time.RFC3339), s.Tool, status)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "exec <tool> [key=value ...]",
		Short: "Invoke a single tool directly and print its result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			toolArgs, err := parseExecArgs(args[1:])
			if err != nil {
				return err
			}

			result := rt.orchestrator.ExecuteDirect(ctx, args[0], toolArgs, nil)
			fmt.Println(result.Serialize())
			if !result.Success {
				return fmt.Errorf("tool %s failed", args[0])
			}
			return nil
		},
	})

	return cmd
}

// parseExecArgs turns key=value pairs into a tool argument map. Bare
// true/false and numbers are coerced; everything else stays a string.
func parseExecArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		switch {
		case value == "true":
			args[key] = true
		case value == "false":
			args[key] = false
		default:
			if n, err := strconv.ParseFloat(value, 64); err == nil {
				args[key] = n
			} else {
				args[key] = value
			}
		}
	}
	return args, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show system status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				logger.Info("config", "path", cfgPath, "loaded", false)
				cfg = config.Defaults()
			} else {
				logger.Info("config", "path", cfgPath, "loaded", true)
			}
			logger.Info("version", "version", version)

			ctx := context.Background()
			factory := provider.NewFactory(cfg, logger)
			prov := factory.HealthyProvider(ctx)
			if prov != nil {
				logger.Info("provider", "name", prov.Name(), "healthy", true)
			} else {
				logger.Info("provider", "healthy", false)
			}
			return nil
		},
	}
}
