package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"foodshare/internal/adapter/api"
	"foodshare/internal/adapter/api/handler"
	apimiddleware "foodshare/internal/adapter/api/middleware"
	"foodshare/internal/adapter/api/router"
	"foodshare/internal/adapter/repository"
	"foodshare/internal/infrastructure/docstore"
	"foodshare/internal/infrastructure/firebase"
	"foodshare/internal/infrastructure/ratelimit"
	"foodshare/internal/infrastructure/websocket"
	"foodshare/internal/usecase"
	"foodshare/pkg/config"
	"foodshare/pkg/logger"
	"foodshare/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		logger.Warn("%v; keeping info", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, verifier := openStore(ctx, cfg)
	defer store.Close()

	var devTokens *firebase.DevTokenManager
	if cfg.IsDevelopment() || store.Driver() != docstore.DriverFirestore {
		devTokens = firebase.NewDevTokenManager(cfg.JWTSecret, time.Duration(cfg.JWTExpiry)*time.Second)
		if verifier == nil {
			verifier = devTokens
		}
	}
	if store.Driver() == docstore.DriverMemory {
		if err := seedDevelopmentData(ctx, store); err != nil {
			log.Fatalf("Failed to seed development data: %v", err)
		}
	}

	chatRepo := repository.NewDocstoreChatRepository(store)
	typingRepo := repository.NewDocstoreTypingRepository(store)
	userRepo := repository.NewDocstoreUserRepository(store)
	prefsRepo := repository.NewDocstorePreferencesRepository(store)
	listingRepo := repository.NewDocstoreListingRepository(store)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()
	defer rateLimiter.Stop()

	listingUseCase := usecase.NewListingUseCase(listingRepo, repository.NewMockListingRepository(), cfg.RequestTimeout)
	chatUseCase := usecase.NewChatUseCase(chatRepo, typingRepo, userRepo, listingUseCase, rateLimiter, cfg.RequestTimeout)
	typingUseCase := usecase.NewTypingUseCase(typingRepo, chatRepo, rateLimiter, cfg.RequestTimeout)
	preferencesUseCase := usecase.NewPreferencesUseCase(prefsRepo, cfg.RequestTimeout)
	unreadAggregator := usecase.NewUnreadAggregator(chatRepo)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	handler.Setup(chatUseCase, typingUseCase, preferencesUseCase, listingUseCase)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(rateLimiter))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	wsHandler := handler.NewWebSocketHandler(
		wsManager,
		authMiddleware,
		chatUseCase,
		typingUseCase,
		unreadAggregator,
		preferencesUseCase,
		cfg.TypingTimeout,
	)

	var devTokenHandler *handler.DevTokenHandler
	if devTokens != nil {
		devTokenHandler = handler.NewDevTokenHandler(devTokens, userRepo)
	}

	e.GET("/v1/debug/me", func(c echo.Context) error {
		return response.Success(c, map[string]interface{}{
			"uid":            c.Get("uid"),
			"token_verified": true,
		})
	}, authMiddleware.Authenticate)

	router.Setup(e, authMiddleware)
	router.SetupHealthRouter(e, handler.NewHealthHandler(store))
	router.SetupAdminRouter(e, handler.NewAdminHandler(store.Driver(), cfg.Environment, wsManager), authMiddleware, adminMiddleware)
	router.SetupDevRouter(e, cfg.Environment, devTokenHandler)
	router.SetupWebSocketRouter(e, wsHandler)

	go func() {
		logger.Info("Starting server on port %s (store: %s)...", cfg.ServerPort, store.Driver())
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}

// openStore connects the configured document store. With Firestore the
// Firebase Auth client is returned as the token verifier.
func openStore(ctx context.Context, cfg *config.Config) (docstore.Store, apimiddleware.TokenVerifier) {
	switch cfg.DocstoreDriver {
	case config.DriverFirestore:
		var opts []option.ClientOption
		if cfg.FirebaseServiceAccount != "" {
			logger.Info("Using Firebase service account from environment variable")
			opts = append(opts, option.WithCredentialsJSON([]byte(cfg.FirebaseServiceAccount)))
		} else if cfg.FirebaseCredentialFile != "" {
			logger.Info("Using Firebase service account from file: %s", cfg.FirebaseCredentialFile)
			opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialFile))
		}

		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}

		firestoreClient, err := firebaseApp.Firestore(ctx)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}

		return docstore.NewFirestoreStore(firestoreClient), firebase.NewFirebaseAuthClient(authClient)

	case config.DriverMongo:
		mongoStore, err := docstore.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			log.Fatalf("Failed to create MongoDB indexes: %v", err)
		}
		return mongoStore, nil

	default:
		logger.Warn("Using in-memory document store; data is lost on restart")
		return docstore.NewMemoryStore(), nil
	}
}

// seedDevelopmentData creates the users the development token endpoint
// can sign for.
func seedDevelopmentData(ctx context.Context, store docstore.Store) error {
	users := []struct {
		id, name, role string
	}{
		{"demo-producer", "Dana Producer", "user"},
		{"demo-consumer", "Casey Consumer", "user"},
		{"demo-admin", "Avery Admin", "admin"},
	}

	for _, u := range users {
		err := store.Set(ctx, docstore.DocPath("users", u.id), map[string]interface{}{
			"displayName": u.name,
			"email":       u.id + "@foodshare.local",
			"role":        u.role,
			"createdAt":   time.Now().UTC(),
		})
		if err != nil {
			return err
		}
	}
	return nil
}
