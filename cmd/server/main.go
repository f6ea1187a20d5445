package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/spyplus/server/internal/api"
	"github.com/spyplus/server/internal/config"
	"github.com/spyplus/server/internal/game"
	"github.com/spyplus/server/internal/ws"
)

const version = "v1.0.0"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`SpyPlus - hidden-role party game server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT               Port to listen on (default: 8080)
  ALLOWED_ORIGINS    CORS origin for the REST API (default: *)
  MAX_PLAYERS        Player cap per room (default: 10)
  MAX_ROUNDS         Rounds per game (default: 3)
  ROOM_TTL           Max room age before cleanup (default: 2h)
  DISCONNECT_GRACE   Reconnection window after a drop (default: 2m)
  DISCUSSION_TIME    Discussion phase length (default: 3m)
  VOTING_TIME        Voting phase length (default: 1m)
  SWEEP_INTERVAL     Timer/cleanup sweep period (default: 15s)
`, os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("SpyPlus %s\n", version)
		return
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()

	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /ws noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/ws") {
			return
		}
		zerologlog.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	})
	r.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	store := game.NewStore(game.Options{
		MaxPlayers:      cfg.MaxPlayers,
		MaxRounds:       cfg.MaxRounds,
		RoomTTL:         cfg.RoomTTL,
		DisconnectGrace: cfg.DisconnectGrace,
		DiscussionTime:  cfg.DiscussionTime,
		VotingTime:      cfg.VotingTime,
	})
	hub := ws.NewHub(store)
	handler := ws.NewHandler(store, hub)
	r.GET("/ws", handler.Serve)

	api.New(store, hub).Register(r)

	// Timer expiry and idle-room cleanup share one sweeper.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			hub.Sweep(now.UTC())
		}
	}()

	zerologlog.Info().Str("port", port).Str("version", version).Msg("listening")
	if err := r.Run(":" + port); err != nil {
		zerologlog.Fatal().Err(err).Msg("server exited")
	}
}
