// Package main is the entry point for the Curio CLI application.
// Curio finds the most credible expert persona for any learning topic and
// then teaches the topic in that persona's voice, with local-first session
// history, cross-session memory, and an agent-to-agent surface.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/curiolabs/curio/internal/a2a"
	"github.com/curiolabs/curio/internal/agent"
	"github.com/curiolabs/curio/internal/config"
	"github.com/curiolabs/curio/internal/data"
	"github.com/curiolabs/curio/internal/intent"
	"github.com/curiolabs/curio/internal/knowledge"
	"github.com/curiolabs/curio/internal/llm"
	"github.com/curiolabs/curio/internal/logging"
	"github.com/curiolabs/curio/internal/memory"
	"github.com/curiolabs/curio/internal/persona"
	"github.com/curiolabs/curio/internal/server"
	"github.com/curiolabs/curio/internal/tutor"
	"github.com/curiolabs/curio/internal/wiki"
)

var (
	version = "0.1.0"
	cfgPath string
	verbose bool
	log     *logging.Logger
	appCfg  *config.Config
)

// chatWrapWidth is the word-wrap column for glamour-rendered replies.
const chatWrapWidth = 100

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	nameStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	stepStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	factStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("179"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "curio",
		Short: "Curio - learn anything from the expert who knows it best",
		Long: `Curio is an expert-discovery tutoring engine:
  • Agentic persona discovery with strict regional filtering
  • In-character tutoring grounded in real biographies
  • Cross-session memory and local-first SQLite history
  • HTTP/WebSocket API plus an A2A agent surface

Find an expert:     curio discover "quantum physics" --region India
Start learning:     curio chat "Richard Feynman" --topic "quantum mechanics"
Run the API:        curio serve`,
		PersistentPreRunE: initLogging,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.curio/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Curio v%s\n", version)
		},
	})

	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(a2aCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// LOGGING INITIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════

func initLogging(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		// config init must stay usable even with a broken config file
		if cmd.Name() == "init" {
			cfg = config.Default()
		} else {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	appCfg = cfg

	if err := appCfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create data directories: %v\n", err)
	}

	logDir := filepath.Join(appCfg.GetDataDir(), "logs")
	if dir := filepath.Dir(appCfg.Logging.File); dir != "" && dir != "." {
		logDir = dir
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create log directory: %v\n", err)
	}

	// Create timestamped log file for this session
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFile := filepath.Join(logDir, fmt.Sprintf("curio_%s.log", timestamp))

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(appCfg.Logging.Level)
	if verbose {
		logCfg.Level = logging.LevelDebug
		logCfg.ShowCaller = true
	}
	logCfg.FilePath = logFile

	log = logging.New(logCfg)
	logging.SetGlobal(log)
	redirectZerolog(logDir, timestamp)

	log.Info("Curio session started - logging to %s", logFile)
	if verbose {
		log.Debug("Verbose logging enabled")
		log.Debug("Config path: %s", configFilePath())
	}

	// Interactive commands keep stdout clean; everything still lands in
	// the log file. Servers keep console logging for operators.
	switch cmd.Name() {
	case "serve", "a2a":
	default:
		if !verbose {
			logging.DisableConsoleOutput()
		}
	}

	lipgloss.SetColorProfile(termenv.ColorProfile())
	return nil
}

// redirectZerolog points the global zerolog logger (used by the memory
// store) at a session file so library logs never hit the terminal.
func redirectZerolog(logDir, timestamp string) {
	path := filepath.Join(logDir, fmt.Sprintf("curio_zerolog_%s.log", timestamp))
	zerologFile, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return
	}

	zerologWriter := zerolog.ConsoleWriter{Out: zerologFile, NoColor: true}
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	fileLogger := zerolog.New(zerologWriter).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &fileLogger
	zlog.Logger = fileLogger
}

// ═══════════════════════════════════════════════════════════════════════════════
// SHARED INITIALIZATION
// ═══════════════════════════════════════════════════════════════════════════════

func loadConfig() (*config.Config, error) {
	if cfgPath != "" {
		return config.LoadFromPath(cfgPath)
	}
	return config.Load()
}

func configFilePath() string {
	if cfgPath != "" {
		return cfgPath
	}
	return appCfg.GetConfigPath()
}

func initializeStore() (*data.Store, func(), error) {
	dataDir := filepath.Dir(appCfg.Data.DBPath)
	log.Debug("Opening SQLite database in %s", dataDir)

	store, err := data.Open(dataDir)
	if err != nil {
		log.Error("Failed to open database: %v", err)
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		log.Debug("Closing database connection...")
		store.Close()
	}
	return store, cleanup, nil
}

// discoveryStack bundles the collaborators every discovery surface needs.
// wikiCli and validator stay nil when disabled in config; callers must
// only assign them into interface fields when non-nil.
type discoveryStack struct {
	provider  llm.Provider
	catalog   *knowledge.Catalog
	wikiCli   *wiki.Client
	validator *persona.Validator
}

func initializeStack() (*discoveryStack, error) {
	provider, err := llm.NewProvider(appCfg)
	if err != nil {
		log.Error("Failed to create LLM provider: %v", err)
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}
	log.Info("LLM provider ready: %s", provider.Name())

	st := &discoveryStack{provider: provider, catalog: knowledge.Default()}

	if appCfg.Discovery.WikiLookup {
		var opts []wiki.Option
		if sec := appCfg.Discovery.WikiTimeoutSec; sec > 0 {
			opts = append(opts, wiki.WithHTTPClient(&http.Client{
				Timeout: time.Duration(sec) * time.Second,
			}))
		}
		st.wikiCli = wiki.NewClient(opts...)
	}
	if appCfg.Discovery.ValidateExpertise {
		st.validator = persona.NewValidator(provider)
	}
	return st, nil
}

// bioFetcher returns the wiki client as an untyped-nil-safe interface.
func (st *discoveryStack) bioFetcher() agent.BioFetcher {
	if st.wikiCli == nil {
		return nil
	}
	return st.wikiCli
}

func (st *discoveryStack) expertiseValidator() agent.ExpertiseValidator {
	if st.validator == nil {
		return nil
	}
	return st.validator
}

// localUserID derives a stable identity for this machine's user so repeat
// CLI sessions accumulate history under one profile.
func localUserID(username string) string {
	return "cli:" + strings.ToLower(strings.TrimSpace(username))
}

func defaultUsername(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("USER"); env != "" {
		return env
	}
	return "learner"
}

func separatorLine() string {
	return dimStyle.Render(strings.Repeat("─", 60))
}

func truncateRunes(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// ═══════════════════════════════════════════════════════════════════════════════
// DISCOVER COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func discoverCmd() *cobra.Command {
	var region string
	var useAgent bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "discover [topic]",
		Short: "Find the three most credible expert personas for a topic",
		Long: `Run expert persona discovery for a learning topic.

The agentic path lets the model plan tool calls (regional expert search,
Wikipedia biographies, expertise scoring) and explain its ranking.
--agent=false skips the reasoning loop and asks the model for a direct
pick; regional filtering stays strict either way.

Examples:
  curio discover "quantum physics"
  curio discover "spin bowling" --region India
  curio discover "startup fundraising" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(strings.Join(args, " "), region, useAgent, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "region to filter experts by (default from config)")
	cmd.Flags().BoolVar(&useAgent, "agent", true, "use the agentic reasoning loop")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the raw search result as JSON")
	return cmd
}

func runDiscover(topic, region string, useAgent, jsonOut bool) error {
	if region == "" {
		region = appCfg.Discovery.DefaultRegion
	}

	st, err := initializeStack()
	if err != nil {
		return err
	}

	// Analytics are incidental here: discovery still works without the db.
	store, cleanup, err := initializeStore()
	if err != nil {
		log.Warn("search analytics disabled: %v", err)
		store = nil
	} else {
		defer cleanup()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var onStep agent.StepCallback
	if !jsonOut {
		fmt.Println(titleStyle.Render(fmt.Sprintf("⬡ Discovering %s experts in %s", topic, region)))
		onStep = printStep
	}

	var result *agent.SearchResult
	if useAgent {
		ag := agent.New(st.provider, st.catalog, st.bioFetcher(), st.expertiseValidator(), &agent.Config{
			MaxIterations: appCfg.Discovery.MaxIterations,
			OnStep:        onStep,
		})
		result = ag.Search(ctx, topic, region)
		if result.Status != agent.StatusSuccess {
			log.Warn("agent search failed (%s), using direct search", result.Error)
			if !jsonOut {
				fmt.Println(dimStyle.Render("  agent path failed, asking for a direct pick..."))
			}
			result = directResult(ctx, st, topic, region)
		}
	} else {
		result = directResult(ctx, st, topic, region)
	}

	if store != nil {
		if err := store.LogEvent(ctx, "search_performed", map[string]any{
			"topic":  result.Topic,
			"region": result.Region,
			"status": result.Status,
		}); err != nil {
			log.Warn("search analytics failed: %v", err)
		}
	}

	if jsonOut {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	if len(result.Personas) == 0 {
		fmt.Printf("❌ No experts found for %q in %s\n", topic, region)
		return fmt.Errorf("no experts found")
	}

	renderPersonas(result)
	return nil
}

// directResult wraps the tool-free model search in the same result shape
// the agent produces.
func directResult(ctx context.Context, st *discoveryStack, topic, region string) *agent.SearchResult {
	if region == "" {
		region = knowledge.GlobalRegion
	}
	return &agent.SearchResult{
		Status:   agent.StatusSuccess,
		Topic:    topic,
		Region:   region,
		Personas: agent.SimpleSearch(ctx, st.provider, st.catalog, topic, region),
	}
}

// printStep renders one live agent step. Tool results are skipped; the
// final ranking renders right after and repeats them with more context.
func printStep(ev *agent.StepEvent) {
	switch ev.Type {
	case agent.EventThinking:
		fmt.Println(stepStyle.Render("  · " + ev.Message))
	case agent.EventToolCall:
		fmt.Println(stepStyle.Render(fmt.Sprintf("  ⚙ %s %s", ev.ToolName, truncateRunes(ev.ToolInput, 80))))
	case agent.EventComplete:
		if ev.Message != "" {
			fmt.Println(stepStyle.Render("  ✓ " + ev.Message))
		}
	case agent.EventError:
		fmt.Println(errorStyle.Render("  ✗ " + ev.Message))
	}
}

func renderPersonas(result *agent.SearchResult) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Top experts for %q in %s", result.Topic, result.Region)))
	fmt.Println(separatorLine())

	for i, p := range result.Personas {
		fmt.Printf("%d. %s\n", i+1, nameStyle.Render(p.Name))
		if p.Description != "" {
			fmt.Printf("   %s\n", p.Description)
		}
		meta := p.Category
		if p.Region != "" && p.Region != knowledge.GlobalRegion {
			if meta != "" {
				meta += " · "
			}
			meta += p.Region
		}
		if meta != "" {
			fmt.Printf("   %s\n", dimStyle.Render(meta))
		}
	}

	if result.Reasoning != "" {
		fmt.Println()
		fmt.Println(dimStyle.Render("Why: " + result.Reasoning))
	}
	if result.Iterations > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("(%d reasoning iterations, %d tool calls)",
			result.Iterations, len(result.Steps))))
	}

	fmt.Println()
	fmt.Printf("Start a session:  curio chat %q --topic %q\n", result.Personas[0].Name, result.Topic)
}

// ═══════════════════════════════════════════════════════════════════════════════
// CHAT COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func chatCmd() *cobra.Command {
	var topic, region, level, username string
	var custom bool
	var resume int64

	cmd := &cobra.Command{
		Use:   "chat [persona]",
		Short: "Learn from an expert persona, in character",
		Long: `Start an interactive tutoring session with an expert persona.

The persona greets you, teaches in their own voice, and remembers your
progress across sessions. Inside the session:
  /fact      share a lesser-known fact about your tutor
  /history   show the conversation so far
  /exit      end and save the session

Examples:
  curio chat "Richard Feynman" --topic "quantum mechanics"
  curio chat "M.S. Subbulakshmi" --topic "Carnatic music" --region India
  curio chat "Coach Dana" --topic "tennis footwork" --custom
  curio chat --resume 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if resume == 0 {
				if name == "" {
					return fmt.Errorf("persona name required (or --resume <session-id>)")
				}
				if topic == "" {
					return fmt.Errorf("--topic is required for a new session")
				}
			}
			return runChat(name, topic, region, level, defaultUsername(username), custom, resume)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic to learn")
	cmd.Flags().StringVarP(&region, "region", "r", "", "persona's region")
	cmd.Flags().StringVar(&level, "level", "beginner", "student level (beginner, intermediate, advanced)")
	cmd.Flags().StringVarP(&username, "user", "u", "", "your name (default $USER)")
	cmd.Flags().BoolVar(&custom, "custom", false, "treat the persona as your own custom guide")
	cmd.Flags().Int64Var(&resume, "resume", 0, "resume a previous session by id")
	return cmd
}

func runChat(name, topic, region, level, username string, custom bool, resume int64) error {
	store, cleanup, err := initializeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := initializeStack()
	if err != nil {
		return err
	}

	tutCfg := &tutor.Config{
		MaxHistory: appCfg.Tutor.HistoryLimit,
		Intent:     intent.NewParser(st.provider),
	}
	if st.wikiCli != nil {
		tutCfg.Bios = st.wikiCli
	}
	if appCfg.Memory.Enabled {
		mem, err := memory.NewStore(store.DB())
		if err != nil {
			log.Warn("memory store unavailable: %v", err)
		} else {
			if emb, ok := llm.AsEmbedder(st.provider); ok {
				mem.SetEmbedder(emb, appCfg.Memory.EmbeddingModel)
			}
			tutCfg.Memory = mem
		}
	}
	tut := tutor.New(st.provider, store, tutCfg)

	ctx := context.Background()
	userID := localUserID(username)
	if _, err := store.GetOrCreateUser(ctx, data.UserParams{UserID: userID, Username: username}); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	var sess *tutor.Session
	if resume != 0 {
		sess, err = tut.Resume(ctx, resume)
		if err != nil {
			return fmt.Errorf("failed to resume session %d: %w", resume, err)
		}
	} else {
		startCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		sess, err = tut.StartSession(startCtx, tutor.SessionParams{
			UserID:   userID,
			Username: username,
			Topic:    topic,
			Persona:  persona.Persona{Name: name, Region: region, Custom: custom},
			Region:   region,
			Level:    parseLevel(level),
		})
		cancel()
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	fmt.Println()
	fmt.Println(titleStyle.Render("⬡ " + sess.Persona.Name))
	fmt.Println(dimStyle.Render(fmt.Sprintf("Topic: %s · Session #%d · /exit to finish", sess.Topic, sess.ID)))
	fmt.Println(separatorLine())

	if !sess.Persona.Custom {
		if fact := tut.FunFact(ctx, sess.Persona.Name); fact != "" {
			fmt.Println(factStyle.Render("💡 " + fact))
			fmt.Println()
		}
	}

	if resume != 0 {
		if h := sess.History(); len(h) > 0 {
			last := h[len(h)-1]
			if last.Role == llm.RoleAssistant {
				fmt.Println(renderMarkdown(last.Content))
			}
			fmt.Println(dimStyle.Render(fmt.Sprintf("(resumed with %d prior messages)", len(h))))
		}
	} else if sess.Greeting != "" {
		fmt.Println(renderMarkdown(sess.Greeting))
	}
	fmt.Println()

	endSession := func() {
		if err := sess.End(ctx); err != nil {
			log.Warn("failed to save session: %v", err)
		}
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("Session #%d saved. Resume with: curio chat --resume %d", sess.ID, sess.ID)))
		if mp := llm.GetMetricsProvider(st.provider.Name()); mp != nil {
			fmt.Println(dimStyle.Render(mp.GetCostSummary()))
		}
	}

	// Ctrl+C leaves the session open on purpose: End is not safe to run
	// while a Send is mid-flight, and an open session stays resumable.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println()
		fmt.Println(dimStyle.Render(fmt.Sprintf("Interrupted. Resume with: curio chat --resume %d", sess.ID)))
		os.Exit(130)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you ❯") + " ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/exit", "/quit", "exit", "quit":
			endSession()
			return nil
		case "/history":
			printHistory(sess)
			continue
		case "/fact":
			if fact := tut.FunFact(ctx, sess.Persona.Name); fact != "" {
				fmt.Println(factStyle.Render("💡 " + fact))
			} else {
				fmt.Println(dimStyle.Render("No fun fact available."))
			}
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		reply, err := sess.Send(sendCtx, line)
		cancel()
		if err != nil {
			fmt.Println(errorStyle.Render("❌ " + err.Error()))
			continue
		}

		fmt.Println()
		fmt.Println(nameStyle.Render(sess.Persona.Name + ":"))
		fmt.Println(renderMarkdown(reply))
		fmt.Println()
	}

	// EOF (Ctrl+D) ends cleanly too
	endSession()
	return nil
}

func printHistory(sess *tutor.Session) {
	history := sess.History()
	if len(history) == 0 {
		fmt.Println(dimStyle.Render("No messages yet."))
		return
	}
	fmt.Println(separatorLine())
	for _, m := range history {
		label := "you"
		if m.Role == llm.RoleAssistant {
			label = sess.Persona.Name
		}
		fmt.Printf("%s %s\n", promptStyle.Render(label+":"), m.Content)
	}
	fmt.Println(separatorLine())
}

// renderMarkdown renders model output through glamour, falling back to the
// plain text on any renderer error.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(chatWrapWidth),
	)
	if err != nil {
		return content
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

func parseLevel(s string) persona.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "intermediate":
		return persona.LevelIntermediate
	case "advanced":
		return persona.LevelAdvanced
	default:
		return persona.LevelBeginner
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// SERVE COMMAND (HTTP + WEBSOCKET API)
// ═══════════════════════════════════════════════════════════════════════════════

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket API server",
		Long: `Run the Curio API server.

Endpoints:
  • REST discovery, chat sessions, history, and analytics under /api/v1
  • Live discovery streaming over /ws/search
  • Health and readiness at /api/v1/health

Examples:
  curio serve
  curio serve --addr 0.0.0.0:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func runServe(addr string) error {
	store, cleanup, err := initializeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := initializeStack()
	if err != nil {
		return err
	}

	if addr == "" {
		addr = appCfg.ServerAddr()
	}

	deps := server.Deps{Provider: st.provider, Catalog: st.catalog, Store: store}
	if st.wikiCli != nil {
		deps.Bios = st.wikiCli
	}
	if st.validator != nil {
		deps.Validator = st.validator
	}

	srv := server.New(deps, &server.Config{Addr: addr, Version: version})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("\n⬡ Curio API\n")
	fmt.Printf("  REST: http://%s/api/v1\n", displayAddr(addr))
	fmt.Printf("  WS:   ws://%s/ws/search\n", displayAddr(addr))
	fmt.Printf("\nPress Ctrl+C to stop...\n")

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error: %v", err)
			return fmt.Errorf("server failed: %w", err)
		}
	case <-sigChan:
	}
	fmt.Println("\nShutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error: %v", err)
		return err
	}

	fmt.Println(llm.GetCostSummaryFormatted())
	log.Info("Server stopped gracefully")
	return nil
}

// displayAddr turns a bare ":port" listen address into something clickable.
func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "127.0.0.1" + addr
	}
	return addr
}

// ═══════════════════════════════════════════════════════════════════════════════
// A2A COMMAND (AGENT-TO-AGENT SERVER)
// ═══════════════════════════════════════════════════════════════════════════════

func a2aCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "a2a",
		Short: "Run the A2A agent server",
		Long: `Expose Curio's discovery and validation skills to other agents over
the Agent2Agent protocol (JSON-RPC).

Peer agents send the learning topic as a plain text message and get the
ranked personas back as a structured artifact; the agent card is served
at /.well-known/agent-card.json.

Examples:
  curio a2a
  curio a2a --port 9999`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runA2A(port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from config)")
	return cmd
}

func runA2A(port int) error {
	store, cleanup, err := initializeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := initializeStack()
	if err != nil {
		return err
	}

	a2aCfg := &a2a.Config{
		AgentName:    "Curio",
		AgentVersion: version,
		Host:         appCfg.A2A.Host,
		Port:         appCfg.A2A.Port,
		AgentURL:     appCfg.A2A.AgentURL,
	}
	if port != 0 {
		a2aCfg.Port = port
	}

	deps := a2a.Deps{Provider: st.provider, Catalog: st.catalog, Store: store}
	if st.wikiCli != nil {
		deps.Bios = st.wikiCli
	}
	if st.validator != nil {
		deps.Validator = st.validator
	}

	srv := a2a.NewServer(deps, a2aCfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	card := srv.Card()
	skills := make([]string, 0, len(card.Skills))
	for _, skill := range card.Skills {
		skills = append(skills, skill.ID)
	}
	fmt.Printf("\n⬡ Curio A2A Agent\n")
	fmt.Printf("  Endpoint: %s\n", card.URL)
	fmt.Printf("  Skills:   %s\n", strings.Join(skills, ", "))
	fmt.Printf("\nPress Ctrl+C to stop...\n")

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("A2A server error: %v", err)
			return fmt.Errorf("a2a server failed: %w", err)
		}
	case <-sigChan:
	}
	fmt.Println("\nShutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Stop(shutdownCtx)
}

// ═══════════════════════════════════════════════════════════════════════════════
// STATS COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func statsCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show your learning statistics",
		Long: `Summarize your local learning history: session counts, favorite
topics and tutors, and what everyone studies most.

Examples:
  curio stats
  curio stats --user priya`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(defaultUsername(username))
		},
	}

	cmd.Flags().StringVarP(&username, "user", "u", "", "username to report on (default $USER)")
	return cmd
}

func runStats(username string) error {
	store, cleanup, err := initializeStore()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := store.UserStats(ctx, localUserID(username))
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}

	fmt.Printf("Learning stats for %s\n", username)
	fmt.Println("──────────────────────")
	fmt.Printf("Sessions: %d\n", stats.TotalSessions)
	fmt.Printf("Messages: %d\n", stats.TotalMessages)

	if stats.TotalSessions == 0 {
		fmt.Println("\nNo sessions yet. Try: curio discover \"quantum physics\"")
		return nil
	}

	if len(stats.FavoriteTopics) > 0 {
		fmt.Println("\nFavorite topics:")
		for _, t := range stats.FavoriteTopics {
			fmt.Printf("  %-32s %d sessions\n", t.Topic, t.Count)
		}
	}
	if len(stats.FavoritePersonas) > 0 {
		fmt.Println("\nFavorite tutors:")
		for _, p := range stats.FavoritePersonas {
			fmt.Printf("  %-32s %d sessions\n", p.Persona, p.Count)
		}
	}
	if len(stats.RecentSessions) > 0 {
		fmt.Println("\nRecent sessions:")
		for _, s := range stats.RecentSessions {
			fmt.Printf("  #%-4d %s with %s  (%s, %d messages)\n",
				s.ID, s.Topic, s.Persona, s.StartedAt.Format("2006-01-02"), s.MessageCount)
		}
		fmt.Println(dimStyle.Render("\nResume one: curio chat --resume <id>"))
	}

	if topics, err := store.PopularTopics(ctx, 5); err == nil && len(topics) > 0 {
		fmt.Println("\nEveryone is learning:")
		for _, t := range topics {
			fmt.Printf("  %-32s %d sessions\n", t.Topic, t.Count)
		}
	}
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// MODELS COMMAND
// ═══════════════════════════════════════════════════════════════════════════════

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show configured model providers and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels()
		},
	}
}

func runModels() error {
	fmt.Println("Model providers")
	fmt.Println("───────────────")

	names := make([]string, 0, len(appCfg.LLM.Providers))
	for name := range appCfg.LLM.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pc := appCfg.LLM.Providers[name]
		marker := "  "
		if name == appCfg.LLM.DefaultProvider {
			marker = "* "
		}

		var status string
		switch name {
		case "gemini":
			p := llm.NewGeminiProvider(&llm.ProviderConfig{
				Endpoint: pc.Endpoint, APIKey: pc.APIKey, Model: pc.Model,
			})
			if p.Available() {
				status = "✅ ready"
			} else {
				status = "❌ no API key (export GEMINI_API_KEY)"
			}
		case "ollama":
			p := llm.NewOllamaProvider(&llm.ProviderConfig{Endpoint: pc.Endpoint, Model: pc.Model})
			if p.Available() {
				status = "✅ running"
			} else {
				status = "❌ not running"
			}
		default:
			status = "❓ unknown provider"
		}

		fmt.Printf("%s%s  %s\n", marker, nameStyle.Render(name), status)
		if pc.Model != "" {
			fmt.Printf("    model:     %s\n", pc.Model)
		}
		if len(pc.FallbackModels) > 0 {
			fmt.Printf("    fallbacks: %s\n", strings.Join(pc.FallbackModels, ", "))
		}
		if name == "ollama" {
			if models, err := llm.FetchOllamaModels(pc.Endpoint); err == nil && len(models) > 0 {
				installed := make([]string, 0, len(models))
				for _, m := range models {
					installed = append(installed, m.Name)
				}
				fmt.Printf("    installed: %s\n", strings.Join(installed, ", "))
			}
		}
	}

	fmt.Println("\n* default provider (set llm.default_provider in config.yaml)")
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// CONFIG COMMANDS
// ═══════════════════════════════════════════════════════════════════════════════

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	// Show command
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ""
			if pc, ok := appCfg.LLM.Providers[appCfg.LLM.DefaultProvider]; ok {
				model = pc.Model
			}
			keyStatus := "❌ not set (export GEMINI_API_KEY)"
			if gem, ok := appCfg.LLM.Providers["gemini"]; (ok && gem.APIKey != "") || os.Getenv("GEMINI_API_KEY") != "" {
				keyStatus = "✅ configured"
			}

			fmt.Println("Curio Configuration:")
			fmt.Println("────────────────────")
			fmt.Printf("Provider:       %s (%s)\n", appCfg.LLM.DefaultProvider, model)
			fmt.Printf("Gemini Key:     %s\n", keyStatus)
			fmt.Printf("Default Region: %s\n", appCfg.Discovery.DefaultRegion)
			fmt.Printf("Validation:     %t\n", appCfg.Discovery.ValidateExpertise)
			fmt.Printf("Wiki Lookup:    %t\n", appCfg.Discovery.WikiLookup)
			fmt.Printf("Memory:         %t\n", appCfg.Memory.Enabled)
			fmt.Printf("Database:       %s\n", appCfg.Data.DBPath)
			fmt.Printf("API Server:     %s\n", appCfg.ServerAddr())
			fmt.Printf("A2A Server:     %s\n", appCfg.A2AAddr())
			fmt.Printf("Log Level:      %s\n", appCfg.Logging.Level)
			fmt.Printf("Config File:    %s\n", configFilePath())
			return nil
		},
	})

	// Init command
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fresh default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			path := cfg.GetConfigPath()
			if cfgPath != "" {
				path = cfgPath
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
			}
			if err := cfg.SaveToPath(path); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("✅ Wrote default configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	// Path command
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(configFilePath())
		},
	})

	return cmd
}
