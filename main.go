package main

import (
	"context"
	"log"
	"os"

	"ChatHub/config"
	"ChatHub/logger"
	mid "ChatHub/middleware"
	msgstore "ChatHub/module/message/store"
	roomstore "ChatHub/module/room/store"
	"ChatHub/module/user"
	userstore "ChatHub/module/user/store"
	"ChatHub/service/chat"
	"ChatHub/service/mgo"
	"ChatHub/service/presence"
	"ChatHub/service/relay"
	"ChatHub/service/storage"
	"ChatHub/tools/ids"
	sec "ChatHub/tools/security"

	"github.com/gin-gonic/gin"
)

// gatewayStore satisfies chat.Store by composing the entity repos.
type (
	roomRepo = roomstore.Repo
	msgRepo  = msgstore.Repo
	userRepo = userstore.Repo
)

type gatewayStore struct {
	*roomRepo
	*msgRepo
	*userRepo
}

func main() {
	cfg, err := config.Load(os.Getenv("CHATHUB_CONFIG_DIR"))
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	ids.SetNodeID(cfg.Server.NodeID)

	ctx := context.Background()

	// storage collaborators
	db, err := mgo.Connect(ctx, mgo.Config{
		Uri:         cfg.Mongo.Uri,
		Database:    cfg.Mongo.Database,
		MaxPoolSize: cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		log.Fatalf("mongo connect failed: %v", err)
	}
	defer func() { _ = mgo.Disconnect(context.Background(), db) }()

	redisStore, err := storage.New(storage.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis connect failed: %v", err)
	}
	defer func() { _ = redisStore.Close() }()

	var eventRelay *relay.Relay
	if cfg.Nats.Enabled {
		eventRelay, err = relay.New(relay.Config{
			URL:     cfg.Nats.URL,
			Name:    "chathub-gateway",
			Subject: cfg.Nats.Subject,
		})
		if err != nil {
			log.Fatalf("nats connect failed: %v", err)
		}
		defer eventRelay.Close()
	}

	// auth collaborator
	authOpts := sec.DefaultOptions([]byte(cfg.Auth.Secret))
	authOpts.TTL = cfg.Auth.TTL
	verifier := sec.NewTokenVerifier(authOpts)

	// presence core + gateway
	registry := presence.NewRegistry()
	coord := presence.NewCoordinator(registry, redisStore)

	store := &gatewayStore{
		roomRepo: &roomstore.Repo{DB: db},
		msgRepo:  &msgstore.Repo{DB: db},
		userRepo: &userstore.Repo{DB: db},
	}

	gw := chat.NewServer(chat.Config{
		PingInterval:  cfg.Server.PingInterval,
		PongWait:      cfg.Server.PongWait,
		WriteWait:     cfg.Server.WriteWait,
		SendQueueSize: cfg.Server.SendQueueSize,
	}, coord, store, redisStore, verifier, eventRelay)

	users := &user.Handler{
		Users: &userstore.Repo{DB: db},
		Auth:  authOpts,
	}

	// HTTP + WebSocket
	r := gin.New()
	r.Use(gin.Recovery())

	router := mid.NewRouter(verifier)
	r.GET("/ws", gw.HandleWS)
	router.POST(r, "/api/login", users.HandleLogin, mid.RouteOpt{IsAuth: false})
	router.POST(r, "/api/check", users.HandleCheck, mid.RouteOpt{IsAuth: true})
	router.GET(r, "/api/rooms", gw.HandleListRooms, mid.RouteOpt{IsAuth: true})

	logger.Infof("[HTTP] listening on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
