package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"statement_analyst/pkg/api/analysis"
	apiconfig "statement_analyst/pkg/api/config"
	"statement_analyst/pkg/core/agent"
	"statement_analyst/pkg/core/calc"
	"statement_analyst/pkg/core/config"
	"statement_analyst/pkg/core/conversation"
	"statement_analyst/pkg/core/logger"
	"statement_analyst/pkg/core/prompt"
	"statement_analyst/pkg/core/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfgPath := config.DefaultPath
	if v := os.Getenv("ANALYST_CONFIG"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.File, cfg.Log.Production)
	defer log.Sync()

	// Initialize Prompt Library
	prompts := prompt.Get()
	if cfg.Prompts.Dir != "" {
		if err := prompt.LoadFromDirectory(prompts, cfg.Prompts.Dir); err != nil {
			log.Warn("main", "failed to load prompt overrides, using embedded prompts", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := prompts.CheckAnalysis(); err != nil {
		log.Error("main", "prompt library is unusable", map[string]interface{}{"error": err})
		log.Sync()
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	log.Info("main", "prompt library ready", map[string]interface{}{"count": prompts.Count(), "prompts": prompts.ListPrompts()})

	agentMgr := agent.NewManager(cfg)
	for _, st := range agentMgr.Status() {
		if st.Active && !st.Configured {
			log.Warn("main", "active provider has no API key; summary and chat will fail until it is set", map[string]interface{}{"provider": st.Name})
		}
	}

	sessions := store.NewSessionStore(cfg.Session.TTL, conversation.Options{
		Providers: agentMgr,
		Prompts:   prompts,
		Logger:    log,
	})
	analyses := calc.NewCache(cfg.Session.CacheTTL)

	// Config endpoints
	apiconfig.NewHandler(agentMgr, log).Register(http.DefaultServeMux)

	// Analysis endpoints
	analysis.NewHandler(sessions, analyses, cfg.Markers, cfg.Server.MaxUploadSize, log).Register(http.DefaultServeMux)

	fmt.Printf("API server starting on %s...\n", cfg.Server.Addr)
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")
	fmt.Println("  - POST /api/analysis/upload  (multipart field \"file\": .xlsx or .csv)")
	fmt.Println("  - GET  /api/analysis/table?session=")
	fmt.Println("  - POST /api/analysis/summary?session=")
	fmt.Println("  - POST /api/analysis/chat")
	fmt.Println("  - GET  /api/analysis/chat-stream?session=&q=  (SSE streaming)")
	fmt.Println("  - GET  /api/analysis/transcript?session=")
	fmt.Println("  - POST /api/analysis/clear?session=")

	if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
		log.Error("main", "server failed", map[string]interface{}{"error": err})
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
