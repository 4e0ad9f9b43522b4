package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"kindred/internal/auth"
	"kindred/internal/graph"
	"kindred/internal/sentiment"
	"kindred/pkg/apperr"
	"kindred/pkg/config"
	"kindred/pkg/logger"
)

func main() {
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to ensure graph schema", zap.Error(err))
	}

	store := graph.NewLoggedStore(repo, repo)
	analyzer := sentiment.NewLLMAnalyzer(cfg.LiteLLMURL, cfg.OpenRouterAPIKey, cfg.ModelID)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	registerRoutes(api, store, analyzer, log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
	}
	log.Info("Server exited")
}

func registerRoutes(api *gin.RouterGroup, store graph.Store, analyzer sentiment.Analyzer, log *zap.Logger) {
	api.POST("/register", func(c *gin.Context) {
		var req struct {
			Username    string `json:"username" binding:"required"`
			Password    string `json:"password" binding:"required"`
			ContactInfo string `json:"contact_info"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		existing, err := store.GetUserByUsername(ctx, req.Username)
		if err != nil {
			serverError(c, log, "register", err)
			return
		}
		if existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}

		salt := auth.NewSalt()
		hash, err := auth.HashPassword(req.Password, salt)
		if err != nil {
			serverError(c, log, "register", err)
			return
		}

		ok, err := store.CreateUser(ctx, graph.User{
			Username:     req.Username,
			PasswordHash: hash,
			Salt:         salt,
			ContactInfo:  req.ContactInfo,
		})
		if err != nil || !ok {
			serverError(c, log, "register", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "registered"})
	})

	api.POST("/login", func(c *gin.Context) {
		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		user, err := store.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			serverError(c, log, "login", err)
			return
		}
		if user == nil || !auth.VerifyPassword(user.PasswordHash, req.Password, user.Salt) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username, "contact_info": user.ContactInfo})
	})

	api.POST("/users/:username/entries", func(c *gin.Context) {
		var req struct {
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		extracted, err := analyzer.AnalyzeText(ctx, req.Content)
		if err != nil {
			serverError(c, log, "analyze", err)
			return
		}

		topics := make([]graph.Topic, 0, len(extracted))
		for _, ts := range extracted {
			topics = append(topics, graph.Topic{Keyword: ts.Keyword, Sentiment: ts.Sentiment})
		}

		entry := graph.JournalEntry{
			Date:    time.Now().UTC(),
			Content: req.Content,
			Topics:  topics,
		}
		ok, err := store.AddJournalEntry(ctx, entry, c.Param("username"))
		if err != nil || !ok {
			serverError(c, log, "add entry", err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	})

	api.GET("/users/:username/entries", func(c *gin.Context) {
		date := time.Now().UTC()
		if raw := c.Query("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
				return
			}
			date = parsed
		}

		collection, err := store.GetJournalEntries(c.Request.Context(), date, c.Param("username"))
		if err != nil {
			serverError(c, log, "get entries", err)
			return
		}
		c.JSON(http.StatusOK, collection)
	})

	api.DELETE("/users/:username/entries", func(c *gin.Context) {
		var req struct {
			Date time.Time `json:"date" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ok, err := store.DeleteJournalEntry(c.Request.Context(),
			graph.JournalEntry{Date: req.Date}, c.Param("username"))
		if err != nil {
			serverError(c, log, "delete entry", err)
			return
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no entry at that timestamp"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})

	api.GET("/users/:username/matches", func(c *gin.Context) {
		polarity, ok := sentiment.Parse(c.Query("sentiment"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sentiment must be positive, negative or neutral"})
			return
		}

		matches, err := store.GetSameSentimentList(c.Request.Context(), c.Param("username"), polarity)
		if err != nil {
			serverError(c, log, "matches", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"matches": matches})
	})

	api.POST("/users/:username/connections", func(c *gin.Context) {
		var req struct {
			Username  string `json:"username" binding:"required"`
			Keyword   string `json:"keyword" binding:"required"`
			Sentiment string `json:"sentiment" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		polarity, ok := sentiment.Parse(req.Sentiment)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sentiment must be positive, negative or neutral"})
			return
		}

		guid, err := store.CreateNewUserContact(c.Request.Context(), c.Param("username"), graph.UserContact{
			Username: req.Username,
			Topic:    graph.Topic{Keyword: req.Keyword, Sentiment: polarity},
		})
		if err != nil {
			serverError(c, log, "connect", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"guid": guid})
	})

	api.GET("/users/:username/connections", func(c *gin.Context) {
		connections, err := store.GetUserContactRelationships(c.Request.Context(), c.Param("username"))
		if err != nil {
			serverError(c, log, "connections", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"connections": connections})
	})
}

func serverError(c *gin.Context, log *zap.Logger, operation string, err error) {
	log.Error("Request failed", zap.String("operation", operation), zap.Error(err))
	if apperr.IsErrorType(err, apperr.ErrorTypeConnection) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "datastore unreachable"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
