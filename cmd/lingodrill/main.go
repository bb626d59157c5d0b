package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lingodrill/internal/api"
	"lingodrill/internal/backends"
	"lingodrill/internal/flow"
	"lingodrill/internal/llm"
	"lingodrill/internal/ports"
	"lingodrill/internal/pub"
	"lingodrill/internal/taskcache"
	"lingodrill/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	err := godotenv.Load(envFile)
	if err != nil {
		log.Info("The .env file not found.")
	}
	if lvl, err := log.ParseLevel(getenv("LOG_LEVEL", "info")); err == nil {
		log.SetLevel(lvl)
	}

	cfg := loadSessionConfig()

	profiles, err := backends.ProfileBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize profile store: %v", err)
	}
	attempts, answers, err := backends.AttemptBackendFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize attempt store: %v", err)
	}
	exercises, err := backends.ExerciseSourceFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize exercise source: %v", err)
	}
	resultStore, err := backends.ResultStoreFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize result cache backing: %v", err)
	}

	llmClient := llm.NewClient(
		getenv("LLM_BASE_URL", "https://api.openai.com"),
		os.Getenv("LLM_API_KEY"),
		getenv("LLM_MODEL", "gpt-4o-mini"),
	)

	orchestrator := flow.NewOrchestrator(profiles, exercises, cfg)
	if topic := os.Getenv("SESSION_EVENT_TOPIC_ARN"); topic != "" {
		orchestrator = orchestrator.WithNotifier(pub.NewSNS(snsClientFromEnv()), topic)
	}

	validator := flow.NewValidator(
		attempts, answers, llmClient, llmClient,
		attemptCache(cfg, resultStore),
		answerCache(cfg, resultStore),
	)

	port, err := strconv.Atoi(getenv("PORT", "8080"))
	if err != nil {
		log.Fatalf("Invalid PORT: %v", err)
	}

	stop, done := api.RunServerInterruptible(port, orchestrator, validator, profiles, exercises)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Infof("Received %s, shutting down", s)
		stop <- struct{}{}
		if err := <-done; err != nil {
			log.Fatalf("Server exited with error: %v", err)
		}
	case err := <-done:
		if err != nil {
			log.Fatalf("Server exited with error: %v", err)
		}
	}
}

func loadSessionConfig() types.SessionConfig {
	path := os.Getenv("SESSION_CONFIG")
	if path == "" {
		return types.DefaultSessionConfig()
	}
	cfg, err := types.LoadSessionConfig(path)
	if err != nil {
		log.Fatalf("Failed to load session config %s: %v", path, err)
	}
	return cfg
}

func attemptCache(cfg types.SessionConfig, store ports.ResultStore) *taskcache.Cache[types.Attempt] {
	if store == nil {
		return taskcache.New[types.Attempt](cfg.CacheTTL, 0)
	}
	return taskcache.NewBacked(cfg.CacheTTL, 0, store, taskcache.JSONCodec[types.Attempt]())
}

func answerCache(cfg types.SessionConfig, store ports.ResultStore) *taskcache.Cache[types.StoredAnswer] {
	if store == nil {
		return taskcache.New[types.StoredAnswer](cfg.CacheTTL, 0)
	}
	return taskcache.NewBacked(cfg.CacheTTL, 0, store, taskcache.JSONCodec[types.StoredAnswer]())
}

func snsClientFromEnv() *sns.Client {
	var snsEndpoint *string
	se := os.Getenv("SNS_ENDPOINT")
	if se != "" {
		snsEndpoint = aws.String(se)
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if snsEndpoint != nil {
			o.BaseEndpoint = snsEndpoint
			if o.Region == "" {
				o.Region = "us-east-1"
			}
			credProvider := credentials.NewStaticCredentialsProvider("test", "test", "")
			o.Credentials = credProvider
		}
	})
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
