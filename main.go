package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"aether/internal/agent"
	"aether/internal/backend"
	"aether/internal/browser"
	"aether/internal/config"
	"aether/internal/db"
	"aether/internal/llm"
	"aether/internal/logger"
	"aether/internal/styles"
	"aether/internal/ui"
)

var (
	opts    config.Options
	askOpts askOptions
	version = "0.1.0"
)

// askOptions tune a single `aether ask` exchange. Empty fields fall back to
// the stored settings.
type askOptions struct {
	Conversation string
	Provider     string
	Model        string
	Raw          bool
}

var rootCmd = &cobra.Command{
	Use:   "aether",
	Short: "Aether - a terminal browser shell with an agent panel",
	Long: `Aether is a keyboard-driven browser shell for the terminal: tabs, an
address bar with suggestions, bookmarks, history and an AI agent that can
drive the browser for you.`,
	SilenceUsage: true,
	RunE:         runShell,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("Aether v%s\n", version)
	},
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print the resolved data, database and log locations",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(opts)
		if err != nil {
			return err
		}
		fmt.Printf("data dir:  %s\n", cfg.DataDir)
		fmt.Printf("database:  %s\n", cfg.DBPath)
		fmt.Printf("log file:  %s\n", cfg.LogFile)
		fmt.Printf("engine:    %s\n", cfg.Engine)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Send one message to the agent and print the reply",
	Long: `Send a message to the agent without starting the interface. The reply is
printed as markdown followed by the conversation id, which --conversation
accepts to continue the exchange here or from the conversations list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "Config file (default <data-dir>/config.yaml)")
	flags.StringVar(&opts.DataDir, "data-dir", "", "Directory holding the database, logs and config")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.StringVar(&opts.LogFile, "log-file", "", "Write logs to this file [default: <data-dir>/aether.log]")
	flags.StringVar(&opts.Engine, "engine", "", "Tab engine (memory|chrome) [default: memory]")

	askCmd.Flags().StringVarP(&askOpts.Conversation, "conversation", "c", "", "Continue a stored conversation")
	askCmd.Flags().StringVar(&askOpts.Provider, "provider", "", "Provider to ask (default from settings)")
	askCmd.Flags().StringVar(&askOpts.Model, "model", "", "Model to use (default from settings or the provider's first model)")
	askCmd.Flags().BoolVar(&askOpts.Raw, "raw", false, "Print the reply without markdown rendering")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(askCmd)
}

func runShell(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	logCloser, err := logger.Configure(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer logCloser.Close()

	logger.Info("Starting Aether", "version", version, "engine", cfg.Engine, "data_dir", cfg.DataDir)

	ctx := context.Background()

	b, err := buildBackend(ctx, cfg)
	if err != nil {
		logger.Error("Startup failed", "error", err)
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("Shutdown failed", "error", err)
		}
	}()

	if _, err := ui.NewProgram(b).Run(); err != nil {
		logger.Error("UI exited with error", "error", err)
		return err
	}
	logger.Info("Aether stopped")
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}
	logCloser, err := logger.Configure(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	defer logCloser.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	return ask(ctx, b, askOpts, strings.Join(args, " "), cmd.OutOrStdout())
}

// ask runs one exchange through a fresh agent session and writes the reply
// and the conversation id to out.
func ask(ctx context.Context, b backend.Backend, o askOptions, text string, out io.Writer) error {
	s, err := b.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("get settings: %w", err)
	}
	provider, model := s.AIProvider, s.AIModel
	if o.Provider != "" && o.Provider != provider {
		provider, model = o.Provider, ""
		if list := llm.ModelsFor(provider); len(list) > 0 {
			model = list[0].ID
		}
	}
	if o.Model != "" {
		model = o.Model
	}

	session := agent.NewSession(b, provider, model)
	if o.Conversation != "" {
		if err := session.Load(ctx, o.Conversation); err != nil {
			return err
		}
		if session.Snapshot().ID != o.Conversation {
			return fmt.Errorf("conversation %s not found", o.Conversation)
		}
	}
	if err := session.Send(ctx, text, ""); err != nil {
		return err
	}

	conv := session.Snapshot()
	reply := conv.Messages[len(conv.Messages)-1].Content
	if !o.Raw {
		rendered, err := glamour.Render(reply, styles.GlamourStyle(styles.ThemeFor(s.Theme)))
		if err != nil {
			logger.Warn("Markdown rendering failed", "error", err)
		} else {
			reply = rendered
		}
	}
	fmt.Fprintln(out, strings.TrimRight(reply, "\n"))
	fmt.Fprintf(out, "\nconversation: %s\n", conv.ID)
	return nil
}

// buildBackend opens the store, starts the tab engine and registers the
// configured providers.
func buildBackend(ctx context.Context, cfg config.Config) (*backend.Local, error) {
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var mopts []browser.Option
	if cfg.FetchTitles {
		mopts = append(mopts, browser.WithResolver(browser.NewFetchResolver(cfg.FetchTimeout)))
	}
	if cfg.Engine == config.EngineChrome {
		driver, err := browser.StartRod(ctx, browser.RodConfig{
			ControlURL:        cfg.Chrome.ControlURL,
			Bin:               cfg.Chrome.Bin,
			Headless:          cfg.Chrome.Headless,
			NavigationTimeout: cfg.FetchTimeout,
		})
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("start chrome: %w", err)
		}
		mopts = append(mopts, browser.WithDriver(driver))
	}
	manager := browser.NewManager(mopts...)

	registry, err := llm.NewDefaultRegistry(ctx, llm.Keys{
		OpenAI:        cfg.OpenAI.APIKey,
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
		Anthropic:     cfg.Anthropic.APIKey,
		Gemini:        cfg.Gemini.APIKey,
	})
	if err != nil {
		_ = manager.Shutdown()
		_ = conn.Close()
		return nil, fmt.Errorf("register providers: %w", err)
	}
	logger.Debug("Providers registered", "names", registry.Names())

	return backend.NewLocal(manager, conn, registry), nil
}
