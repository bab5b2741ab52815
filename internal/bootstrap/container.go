package bootstrap

import (
	"context"
	"log"

	"spectra-chat/internal/config"
	"spectra-chat/internal/controller"
	"spectra-chat/internal/pkg/logger"
	"spectra-chat/internal/repository/unitofwork"
	"spectra-chat/internal/service"
	"spectra-chat/pkg/llm/factory"
	"spectra-chat/pkg/search"
	"spectra-chat/pkg/synthesis"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	UserController      controller.IUserController
	OAuthController     controller.IOAuthController
	ChatController      controller.IChatController
	SynthesisController controller.ISynthesisController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.OpenAI,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	searcher := search.NewTavilyClient(cfg.Keys.Tavily, cfg.Ai.SearchMaxResults)

	// Answer cache: redis when configured and reachable, in-process otherwise
	var answerCache synthesis.AnswerCache
	if cfg.Ai.AnswerCache == "redis" {
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Invalid REDIS_URL, falling back to memory cache: %v", err)
			answerCache = synthesis.NewMemoryCache()
		} else {
			client := redis.NewClient(opts)
			if err := client.Ping(context.Background()).Err(); err != nil {
				log.Printf("[WARN] Redis unreachable, falling back to memory cache: %v", err)
				answerCache = synthesis.NewMemoryCache()
			} else {
				log.Printf("[INFO] Using Redis answer cache")
				answerCache = synthesis.NewRedisCache(client)
			}
		}
	} else {
		answerCache = synthesis.NewMemoryCache()
	}

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Keys.TitleTopic)
	consumerService := service.NewConsumerService(pubSub, cfg.Keys.TitleTopic, uowFactory, llmProvider)

	userService := service.NewUserService(uowFactory)
	chatService := service.NewChatService(uowFactory, userService, publisherService, sysLogger)
	synthesisService := service.NewSynthesisService(searcher, llmProvider, answerCache)
	oauthService := service.NewOAuthService(uowFactory)

	// 5. Controllers
	userController := controller.NewUserController(userService)
	oauthController := controller.NewOAuthController(oauthService)
	chatController := controller.NewChatController(chatService)
	synthesisController := controller.NewSynthesisController(synthesisService)

	return &Container{
		UserController:      userController,
		OAuthController:     oauthController,
		ChatController:      chatController,
		SynthesisController: synthesisController,
		ConsumerService:     consumerService,
		Logger:              sysLogger,
	}
}
