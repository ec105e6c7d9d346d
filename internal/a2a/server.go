package a2a

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"

	"github.com/curiolabs/curio/internal/logging"
)

// Config holds the A2A server configuration.
type Config struct {
	// AgentName is the card's display name (default "Curio").
	AgentName string

	// AgentVersion is advertised on the card (default "dev").
	AgentVersion string

	// Host is the listen address (default 127.0.0.1).
	Host string

	// Port is the listen port (default 8081).
	Port int

	// AgentURL overrides the URL advertised on the card. Derived from
	// host and port when empty.
	AgentURL string
}

// DefaultConfig returns sensible defaults for the A2A server.
func DefaultConfig() *Config {
	return &Config{
		AgentName:    "Curio",
		AgentVersion: "dev",
		Host:         "127.0.0.1",
		Port:         8081,
	}
}

// Server serves the discovery agent over A2A: JSON-RPC at the root, the
// agent card at the well-known paths.
type Server struct {
	cfg      *Config
	executor *Executor
	card     *a2a.AgentCard
	mux      *http.ServeMux
	httpSrv  *http.Server
	log      *logging.Logger
}

// NewServer creates an A2A server over the discovery stack.
func NewServer(deps Deps, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.AgentName == "" {
		cfg.AgentName = "Curio"
	}
	if cfg.AgentVersion == "" {
		cfg.AgentVersion = "dev"
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8081
	}

	executor := NewExecutor(deps)
	card := newCard(cfg)

	handler := a2asrv.NewHandler(executor)
	mux := http.NewServeMux()
	mux.Handle("/", a2asrv.NewJSONRPCHandler(handler))
	mux.Handle(a2asrv.WellKnownAgentCardPath, a2asrv.NewStaticAgentCardHandler(card))
	// Older clients still look for the pre-0.3 card path.
	mux.Handle("/.well-known/agent.json", a2asrv.NewStaticAgentCardHandler(card))

	return &Server{
		cfg:      cfg,
		executor: executor,
		card:     card,
		mux:      mux,
		log:      logging.Global().WithComponent("a2a"),
	}
}

// newCard describes the agent and its two skills.
func newCard(cfg *Config) *a2a.AgentCard {
	url := cfg.AgentURL
	if url == "" {
		url = fmt.Sprintf("http://%s:%d/", cfg.Host, cfg.Port)
	}
	return &a2a.AgentCard{
		Name:               cfg.AgentName,
		Description:        "Expert persona discovery for learning: finds and validates the most credible teachers for any topic, with optional regional filtering.",
		Version:            cfg.AgentVersion,
		ProtocolVersion:    "0.3",
		URL:                url,
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		Capabilities: a2a.AgentCapabilities{
			Streaming: true,
		},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text", "application/json"},
		Skills: []a2a.AgentSkill{
			{
				ID:          "persona-discovery",
				Name:        "Expert Persona Discovery",
				Description: "Finds the three most credible expert personas for a learning topic. Send the topic as message text; set a \"region\" metadata key to filter by region.",
				Tags:        []string{"education", "discovery", "experts", "personas"},
				Examples:    []string{"quantum physics", "the helicopter shot in cricket", "startup fundraising"},
				InputModes:  []string{"text"},
				OutputModes: []string{"text", "application/json"},
			},
			{
				ID:          "expertise-validation",
				Name:        "Expertise Validation",
				Description: "Scores how credible a named persona is as a teacher for a topic (0-100 with reasoning). Set \"skill\" to \"expertise-validation\" and \"persona\" to the name in message metadata; the topic is the message text.",
				Tags:        []string{"education", "validation", "scoring"},
				Examples:    []string{"relativity (persona: Albert Einstein)"},
				InputModes:  []string{"text"},
				OutputModes: []string{"application/json"},
			},
		},
	}
}

// Card returns the advertised agent card.
func (s *Server) Card() *a2a.AgentCard { return s.card }

// ServeHTTP implements http.Handler with permissive CORS.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// Start serves until Stop is called or the listener fails.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpSrv = &http.Server{Addr: addr, Handler: s}

	s.log.Info("a2a server: %s v%s on %s", s.card.Name, s.card.Version, addr)
	s.log.Info("agent card: %s%s", strings.TrimSuffix(s.card.URL, "/"), a2asrv.WellKnownAgentCardPath)
	for _, skill := range s.card.Skills {
		s.log.Info("skill: %s (%s)", skill.ID, skill.Name)
	}

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	s.log.Info("a2a server shutting down")
	return s.httpSrv.Shutdown(ctx)
}
