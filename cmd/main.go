package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"alacritas/backend/internal/api/handler"
	"alacritas/backend/internal/assistant"
	"alacritas/backend/internal/cache"
	"alacritas/backend/internal/chats"
	"alacritas/backend/internal/history"
	"alacritas/backend/internal/push"
	"alacritas/backend/internal/reconcile"
	"alacritas/backend/internal/store"
	"alacritas/backend/internal/telegram"
	"alacritas/backend/internal/uploads"
)

// setupStore connects the realtime store. When Redis is unreachable the
// service still starts, backed by a store that rejects every write, so users
// see the empty state instead of a dead endpoint.
func setupStore() store.Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("Failed to connect Redis: %v. Starting read-only, data will not persist.", err)
		return store.Unavailable{}
	}
	return store.NewRedisStore(rdb)
}

// setupArchive connects the optional PostgreSQL chat archive.
func setupArchive() *history.Archiver {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Println("POSTGRES_DSN not set, chat archive disabled")
		return nil
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("Failed to connect PostgreSQL, chat archive disabled: %v", err)
		return nil
	}
	archiver := history.NewArchiver(db)
	if err := archiver.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run archive migrations: %v", err)
	}
	return archiver
}

func main() {
	log.Println("Starting Alacritas Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	// 1. Store, cache and coordinator
	st := setupStore()
	c := cache.New()
	unbind, err := c.Bind(st)
	if err != nil {
		log.Fatalf("Failed to subscribe to store collections: %v", err)
	}
	defer unbind()
	coordinator := reconcile.NewCoordinator(c, st)

	// 2. Chat materializer, fed by every cache change
	materializer := chats.NewMaterializer(st)
	go materializer.Run()
	c.Subscribe(func(snap cache.Collections) {
		materializer.Offer(chats.Trigger{
			Offers:   snap.Offers,
			Requests: snap.Requests,
			Profiles: snap.Profiles,
		})
	})

	// 3. View-push hub
	hub := push.NewHub()
	go hub.Run()
	c.Subscribe(hub.OfferSnapshot)

	// 4. Optional collaborators
	archiver := setupArchive()
	if archiver != nil {
		archiver.Watch(c)
	}

	tgChatID, _ := strconv.ParseInt(os.Getenv("TELEGRAM_CHAT_ID"), 10, 64)
	notifier, err := telegram.NewNotifier(os.Getenv("TELEGRAM_BOT_TOKEN"), tgChatID)
	if err != nil {
		log.Printf("Telegram notifier disabled: %v", err)
	}

	// 5. Gin and routing
	h := handler.NewHandler(c, coordinator)
	h.Assistant = assistant.NewFromEnv()
	h.Uploader = uploads.NewFromEnv()
	h.Notifier = notifier
	h.Archiver = archiver

	r := gin.Default()
	r.POST("/login", h.Login)
	r.GET("/ws", h.ServeWS(hub))

	api := r.Group("/api", h.RequireActor)
	{
		api.GET("/requests", h.ListRequests)
		api.POST("/requests", h.SaveRequest)
		api.DELETE("/requests/:id", h.DeleteRequest)

		api.GET("/offers", h.ListOffers)
		api.POST("/offers", h.CreateOffer)
		api.POST("/offers/:id/accept", h.AcceptOffer)
		api.POST("/offers/:id/decline", h.DeclineOffer)
		api.POST("/offers/:id/counter", h.CounterOffer)
		api.POST("/offers/:id/cancel", h.CancelOffer)
		api.PATCH("/offers/:id", h.EditOffer)

		api.GET("/chats", h.ListChats)
		api.GET("/chats/:id", h.GetChat)
		api.POST("/chats/:id/messages", h.SendMessage)
		api.GET("/chats/:id/history", h.ChatHistory)

		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.SaveProfile)

		api.POST("/assistant", h.AskAssistant)
		api.POST("/uploads", h.UploadImage)
	}

	server := &http.Server{
		Addr:           ":" + envOr("PORT", "8080"),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
