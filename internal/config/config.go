package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port           string
	AllowedOrigins []string

	MaxPlayers int
	MaxRounds  int

	RoomTTL         time.Duration
	DisconnectGrace time.Duration
	DiscussionTime  time.Duration
	VotingTime      time.Duration

	SweepInterval time.Duration
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.AllowedOrigins = []string{getenv("ALLOWED_ORIGINS", "*")}
	c.MaxPlayers = getint("MAX_PLAYERS", 10)
	c.MaxRounds = getint("MAX_ROUNDS", 3)
	c.RoomTTL = getdur("ROOM_TTL", 2*time.Hour)
	c.DisconnectGrace = getdur("DISCONNECT_GRACE", 2*time.Minute)
	c.DiscussionTime = getdur("DISCUSSION_TIME", 3*time.Minute)
	c.VotingTime = getdur("VOTING_TIME", time.Minute)
	c.SweepInterval = getdur("SWEEP_INTERVAL", 15*time.Second)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
