package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lgc202/chatkit/config"
	"github.com/lgc202/chatkit/llm"
	"github.com/lgc202/chatkit/llm/providers/deepseek"
	"github.com/lgc202/chatkit/llm/providers/openai_compat"
	"github.com/lgc202/chatkit/session"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long:  "Start an interactive multi-turn chat session. Type a message and press enter; /exit or Ctrl-D ends the session.",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().String("system", "", "System prompt for the session")
	chatCmd.Flags().Bool("stream", false, "Stream the reply as it is generated")
	chatCmd.Flags().Bool("tools", false, "Enable the built-in tools (get_date)")
	chatCmd.Flags().Float64("temperature", 0, "Sampling temperature (0 leaves the provider default)")

	rootCmd.AddCommand(chatCmd)
}

// chatSettings is the file-backed part of the configuration. Flags and
// CHATKIT_* environment variables override it.
type chatSettings struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	System      string  `mapstructure:"system"`
	Temperature float64 `mapstructure:"temperature"`
}

func loadSettings(cmd *cobra.Command) (chatSettings, error) {
	var s chatSettings

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load[chatSettings](path, config.WithEnv[chatSettings]("CHATKIT"))
		if err != nil {
			return s, fmt.Errorf("loading config: %w", err)
		}
		s = cfg.Get()
	}

	if v := viper.GetString("base_url"); v != "" {
		s.BaseURL = v
	}
	if v := viper.GetString("api_key"); v != "" {
		s.APIKey = v
	}
	if v := viper.GetString("model"); v != "" {
		s.Model = v
	}
	if v, _ := cmd.Flags().GetString("system"); v != "" {
		s.System = v
	}
	if v, _ := cmd.Flags().GetFloat64("temperature"); v != 0 {
		s.Temperature = v
	}
	return s, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if settings.APIKey == "" {
		return fmt.Errorf("no API key: pass --api-key, set CHATKIT_API_KEY, or put api_key in the config file")
	}

	verbose := viper.GetBool("verbose")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	provider, model, err := buildProvider(settings, logger)
	if err != nil {
		return err
	}

	var defaults []llm.RequestOption
	if settings.Temperature != 0 {
		defaults = append(defaults, llm.WithTemperature(settings.Temperature))
	}

	client := session.NewClient(provider,
		session.WithModel(model),
		session.WithLogger(logger),
		session.WithDefaultRequestOptions(defaults...),
	)
	sess := client.StartSession(settings.System)

	stream, _ := cmd.Flags().GetBool("stream")
	tools, _ := cmd.Flags().GetBool("tools")

	var reg *session.ToolRegistry
	if tools {
		reg = builtinTools()
	}

	fmt.Fprintf(os.Stderr, "chatkit: model %s, session %s\n", model, sess.ID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			break
		}

		if err := oneExchange(cmd.Context(), sess, line, reg, stream); err != nil {
			printLLMError(err)
		}
	}
	return scanner.Err()
}

func oneExchange(ctx context.Context, sess *session.Session, line string, reg *session.ToolRegistry, stream bool) error {
	switch {
	case reg != nil:
		answer, err := sess.AskWithTools(ctx, line, reg)
		if err != nil {
			return err
		}
		fmt.Println(answer)
	case stream:
		ts, err := sess.StreamAsk(ctx, line)
		if err != nil {
			return err
		}
		defer ts.Close()
		for {
			fragment, err := ts.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				fmt.Println()
				return err
			}
			fmt.Print(fragment)
		}
		fmt.Println()
	default:
		answer, err := sess.Ask(ctx, line)
		if err != nil {
			return err
		}
		fmt.Println(answer)
	}
	return nil
}

func buildProvider(settings chatSettings, logger *slog.Logger) (llm.Provider, string, error) {
	// Without a base URL, default to the DeepSeek endpoint.
	if settings.BaseURL == "" {
		model := settings.Model
		if model == "" {
			model = "deepseek-chat"
		}
		p, err := deepseek.New(settings.APIKey, deepseek.WithLogger(logger))
		return p, model, err
	}

	if settings.Model == "" {
		return nil, "", fmt.Errorf("no model: pass --model or put model in the config file")
	}
	p, err := openai_compat.New(settings.APIKey,
		openai_compat.WithBaseURL(settings.BaseURL),
		openai_compat.WithLogger(logger),
	)
	return p, settings.Model, err
}

func builtinTools() *session.ToolRegistry {
	reg := session.NewToolRegistry()
	reg.Register(llm.ToolDefinition{
		Name:        "get_date",
		Description: "Get today's date in YYYY-MM-DD format.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
	}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return time.Now().Format("2006-01-02"), nil
	})
	return reg
}

func printLLMError(err error) {
	var le *llm.LLMError
	if errors.As(err, &le) {
		fmt.Fprintf(os.Stderr, "error (%s/%s): %s\n", le.Provider, le.Kind, le.Message)
		if le.Retryable {
			fmt.Fprintln(os.Stderr, "the request can be retried")
		}
		return
	}
	fmt.Fprintln(os.Stderr, "error:", err)
}
