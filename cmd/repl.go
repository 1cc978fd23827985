package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/manifoldco/promptui"
	"github.com/spf13/viper"

	"github.com/legate-ai/legate/internal/agent"
	"github.com/legate-ai/legate/internal/config"
	"github.com/legate-ai/legate/internal/llm"
	"github.com/legate-ai/legate/internal/prompt"
	"github.com/legate-ai/legate/internal/tools"
	"github.com/legate-ai/legate/internal/ui"
)

func startREPL() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Streaming is enabled by default (--no-stream to disable)
	streaming := !viper.GetBool("no_stream")

	// Spinner is enabled by default (--no-spinner to disable)
	enableSpinner := !viper.GetBool("no_spinner")

	renderer := ui.NewRenderer()
	ctx := context.Background()

	provider, hub, sess, err := buildAgent(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// sess may be swapped by /clear and /template; close whichever is live.
	defer func() { sess.Close() }()

	fmt.Print(renderer.WelcomeMessage(provider.Model(), sess.ToolCount()))
	if hub != nil {
		fmt.Print(renderer.ConnectedMessage(sess.ToolCount()))
	}
	fmt.Println()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[34m❯\033[0m ",
		HistoryFile:     os.Getenv("HOME") + "/.legate/history",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Main REPL loop
	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or Ctrl+C
			fmt.Println("\nGoodbye!")
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Handle built-in commands
		if strings.HasPrefix(line, "/") {
			handleCommand(line, &sess, provider, hub, cfg, renderer)
			continue
		}

		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			break
		}

		processInput(ctx, sess, renderer, streaming, enableSpinner, line)
		fmt.Println()
	}
}

// processInput runs one user input through the session and renders the
// yielded items as they arrive. With streaming off, content is buffered
// per response and rendered through Glamour at the end instead.
func processInput(ctx context.Context, sess *agent.Session, renderer *ui.Renderer, streaming, enableSpinner bool, line string) {
	sp := ui.NewSpinner()
	if enableSpinner {
		sp.Start("Thinking...")
	}

	ch, err := sess.Run(ctx, line)
	if err != nil {
		sp.Stop()
		fmt.Fprintln(os.Stderr, renderer.ErrorMessage(err))
		return
	}

	spinning := enableSpinner
	var buffered strings.Builder
	flushBuffered := func() {
		if buffered.Len() == 0 {
			return
		}
		fmt.Println(ui.RenderMarkdown(buffered.String()))
		buffered.Reset()
	}

	streamingContent := false
	for item := range ch {
		if spinning && item.Kind != agent.ItemContent {
			sp.Stop()
			spinning = false
		}

		if item.Kind == agent.ItemContent {
			if streaming {
				if spinning {
					sp.Stop()
					spinning = false
				}
				fmt.Print(item.Content)
				streamingContent = true
			} else {
				buffered.WriteString(item.Content)
			}
			continue
		}

		// Tool and status lines need their own row; finish a partially
		// streamed content line first.
		if streamingContent {
			fmt.Println()
			streamingContent = false
		}
		flushBuffered()
		fmt.Print(renderer.RenderItem(item))

		// Tool dispatch can be slow; show progress between events.
		if enableSpinner && item.Kind == agent.ItemToolStart {
			sp.Start("Running " + item.Tool + "...")
			spinning = true
		}
	}
	if spinning {
		sp.Stop()
	}
	if streamingContent {
		fmt.Println()
	}
	flushBuffered()
}

func handleCommand(cmd string, sess **agent.Session, provider *llm.OpenAIProvider, hub *tools.Hub, cfg *config.Config, renderer *ui.Renderer) {
	parts := strings.Fields(cmd)
	baseCmd := parts[0]

	switch baseCmd {
	case "/help":
		fmt.Println("Available commands:")
		fmt.Println()
		fmt.Println("  /tools     - List available tools")
		fmt.Println("  /template  - Switch the system prompt template (starts a new conversation)")
		fmt.Println("  /clear     - Clear current conversation")
		fmt.Println("  /usage     - Show token usage statistics")
		fmt.Println("  /help      - Show this help message")
		fmt.Println("  exit       - Exit Legate")
		fmt.Println()

	case "/usage":
		fmt.Println(renderer.FormatUsage((*sess).Usage()))

	case "/tools":
		fmt.Println(renderer.FormatToolList((*sess).Tools()))

	case "/template":
		handleTemplatePick(sess, provider, hub, cfg, renderer)

	case "/clear":
		*sess = reconnectSession(provider, hub, cfg, renderer)
		fmt.Println("Conversation cleared. Started new session.")
		fmt.Println()

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		fmt.Println("Type '/help' for available commands.")
		fmt.Println()
	}
}

// handleTemplatePick lets the user choose a prompt template interactively
// and restarts the conversation with it.
func handleTemplatePick(sess **agent.Session, provider *llm.OpenAIProvider, hub *tools.Hub, cfg *config.Config, renderer *ui.Renderer) {
	names := prompt.Names()
	items := make([]string, 0, len(names))
	for _, name := range names {
		tmpl, err := prompt.Lookup(name)
		if err != nil {
			continue
		}
		items = append(items, fmt.Sprintf("%s - %s", tmpl.Name, tmpl.Description))
	}

	picker := promptui.Select{
		Label: "System prompt template",
		Items: items,
	}
	idx, _, err := picker.Run()
	if err != nil {
		// Ctrl+C in the picker just keeps the current template.
		return
	}

	if cfg.SystemPrompt == nil {
		cfg.SystemPrompt = &config.SystemPromptConfig{}
	}
	cfg.SystemPrompt.Type = names[idx]
	cfg.SystemPrompt.Custom = ""

	*sess = reconnectSession(provider, hub, cfg, renderer)
	fmt.Println(renderer.SuccessMessage(fmt.Sprintf("Switched to %q template. Started new session.", names[idx])))
	fmt.Println()
}

// reconnectSession builds a fresh session over the existing hub. Connect on
// an already-connected hub is a no-op, so the tool connections survive.
func reconnectSession(provider *llm.OpenAIProvider, hub *tools.Hub, cfg *config.Config, renderer *ui.Renderer) *agent.Session {
	next := newSession(provider, hub, cfg)
	if err := next.Connect(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, renderer.ErrorMessage(err))
	}
	return next
}
