// Command researcher answers company research questions from the command
// line. It runs a single question, or fills a companies-by-metrics grid and
// writes the result as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	openaisdk "github.com/openai/openai-go/v3"

	"github.com/sweetpotato0/company-researcher/agents"
	"github.com/sweetpotato0/company-researcher/batch"
	"github.com/sweetpotato0/company-researcher/chunking"
	"github.com/sweetpotato0/company-researcher/collector"
	"github.com/sweetpotato0/company-researcher/config"
	embedderopenai "github.com/sweetpotato0/company-researcher/contrib/embedder/openai"
	"github.com/sweetpotato0/company-researcher/contrib/provider/claude"
	"github.com/sweetpotato0/company-researcher/contrib/provider/gemini"
	provideropenai "github.com/sweetpotato0/company-researcher/contrib/provider/openai"
	sessioninmemory "github.com/sweetpotato0/company-researcher/contrib/session/inmemory"
	sessionredis "github.com/sweetpotato0/company-researcher/contrib/session/redis"
	"github.com/sweetpotato0/company-researcher/contrib/tokenizer/tiktoken"
	vectorinmemory "github.com/sweetpotato0/company-researcher/contrib/vector/inmemory"
	vectorpg "github.com/sweetpotato0/company-researcher/contrib/vector/pg"
	"github.com/sweetpotato0/company-researcher/fetch"
	"github.com/sweetpotato0/company-researcher/llm"
	"github.com/sweetpotato0/company-researcher/pkg/logging"
	"github.com/sweetpotato0/company-researcher/pkg/telemetry"
	"github.com/sweetpotato0/company-researcher/session"
	"github.com/sweetpotato0/company-researcher/vector"
	"github.com/sweetpotato0/company-researcher/websearch"
	"github.com/sweetpotato0/company-researcher/workflow"
)

const embeddingDimension = 1536

// listSeparator splits multi-value flags; company names routinely contain
// commas.
const listSeparator = "++"

func main() {
	question := flag.String("question", "", "single research question to answer")
	companies := flag.String("companies", "", "company names separated by '"+listSeparator+"'")
	metrics := flag.String("metrics", "", "metric names separated by '"+listSeparator+"'")
	output := flag.String("o", "research.csv", "CSV output path for batch mode")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.Logger()

	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Init(ctx, telemetry.Config{ServiceName: "company-researcher"})
	if err != nil {
		logger.Warn("telemetry disabled", "error", err)
	} else {
		defer shutdown(context.Background())
	}

	client, closeClient, err := newLLMClient(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeClient != nil {
		defer closeClient()
	}

	wfConfig, err := buildWorkflowConfig(ctx, cfg, client)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	switch {
	case *question != "":
		runQuestion(ctx, wfConfig, client, *question)
	case *companies != "" && *metrics != "":
		runBatch(ctx, wfConfig, client, cfg,
			splitList(*companies), splitList(*metrics), *output)
	default:
		fmt.Fprintln(os.Stderr, "usage: researcher -question <q> | -companies <a++b> -metrics <x++y> [-o out.csv]")
		os.Exit(2)
	}
}

func runQuestion(ctx context.Context, wfConfig workflow.Config, client llm.Client, question string) {
	wfConfig.Generator = agents.NewAnswerGenerator(client)
	engine, err := workflow.New(wfConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	state, err := engine.Run(ctx, uuid.NewString(), question)
	if err != nil || state == nil || state.Generation == "" {
		if err != nil {
			logging.Logger().Error("research run failed", "error", err)
		}
		fmt.Println("no information found")
		os.Exit(1)
	}
	fmt.Println(state.Generation)
}

func runBatch(ctx context.Context, wfConfig workflow.Config, client llm.Client, cfg *config.Config, companies, metrics []string, output string) {
	engine, err := workflow.NewMetric(wfConfig, agents.NewMetricExtractor(client))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	driver := batch.NewDriver(engine, cfg.BatchConcurrency)
	results := driver.Fill(ctx, companies, metrics)
	table := batch.Pivot(results, companies, metrics)

	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	if err := table.WriteCSV(f); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d rows to %s\n", len(table.Rows), output)
}

func buildWorkflowConfig(ctx context.Context, cfg *config.Config, client llm.Client) (workflow.Config, error) {
	tokenizer, err := tiktoken.New("gpt-4o-mini")
	if err != nil {
		return workflow.Config{}, fmt.Errorf("init tokenizer: %w", err)
	}

	fetchCfg := fetch.DefaultConfig()
	fetchCfg.ScraperAPIKey = cfg.ScraperKey

	newStore, err := storeFactory(ctx, cfg)
	if err != nil {
		return workflow.Config{}, err
	}

	col, err := collector.New(collector.Config{
		Search:     websearch.NewExaProvider(cfg.ExaKey),
		Retry:      websearch.DefaultRetryConfig(),
		Fetcher:    fetch.NewHTTPFetcher(fetchCfg),
		Grader:     agents.NewCredibilityGrader(client, tokenizer),
		Embedder:   embedderopenai.New(cfg.OpenAIKey, "", openaisdk.EmbeddingModelTextEmbedding3Small, embeddingDimension),
		Chunker:    chunking.NewWindowChunker(),
		NewStore:   newStore,
		NumResults: cfg.SearchResults,
	})
	if err != nil {
		return workflow.Config{}, err
	}

	var store session.Store
	if cfg.RedisAddr != "" {
		redisCfg := sessionredis.DefaultConfig()
		redisCfg.Addr = cfg.RedisAddr
		store = sessionredis.New(redisCfg)
	} else {
		store = sessioninmemory.New()
	}

	return workflow.Config{
		Collector:  col,
		Grader:     agents.NewCompletenessGrader(client),
		Rewriter:   agents.NewQuestionRewriter(client),
		Store:      store,
		MaxRetries: cfg.MaxRetries,
	}, nil
}

// storeFactory picks the evidence index backend. Every factory call must
// yield an isolated index: concurrent batch sessions each build and query
// their own. The pgvector table is shared but session-scoped, wiped once at
// startup; the in-memory store is rebuilt from scratch each time.
func storeFactory(ctx context.Context, cfg *config.Config) (collector.StoreFactory, error) {
	if cfg.PGHost == "" {
		return func() vector.Store { return vectorinmemory.New() }, nil
	}

	pgCfg := vectorpg.DefaultConfig()
	pgCfg.Host = cfg.PGHost
	pgCfg.Port = cfg.PGPort
	pgCfg.User = cfg.PGUser
	pgCfg.Password = cfg.PGPassword
	pgCfg.DBName = cfg.PGDBName
	pgCfg.Dimension = embeddingDimension

	store, err := vectorpg.New(pgCfg)
	if err != nil {
		return nil, fmt.Errorf("init pgvector store: %w", err)
	}
	if err := store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("reset pgvector store: %w", err)
	}
	return func() vector.Store { return store.Session(uuid.NewString()) }, nil
}

func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, func(), error) {
	switch cfg.LLMProvider {
	case config.ProviderClaude:
		return claude.New(claude.DefaultConfig(cfg.ClaudeKey)), nil, nil
	case config.ProviderGemini:
		p, err := gemini.New(ctx, gemini.DefaultConfig(cfg.GeminiKey))
		if err != nil {
			return nil, nil, fmt.Errorf("init gemini: %w", err)
		}
		return p, func() { _ = p.Close() }, nil
	default:
		c := provideropenai.DefaultConfig()
		c.APIKey = cfg.OpenAIKey
		return provideropenai.New(c), nil, nil
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, listSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
