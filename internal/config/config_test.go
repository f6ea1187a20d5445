package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "MAX_PLAYERS", "MAX_ROUNDS", "ROOM_TTL", "SWEEP_INTERVAL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Port != "8080" {
		t.Fatalf("default port: %s", c.Port)
	}
	if c.MaxPlayers != 10 || c.MaxRounds != 3 {
		t.Fatalf("default limits: %d players, %d rounds", c.MaxPlayers, c.MaxRounds)
	}
	if c.RoomTTL != 2*time.Hour || c.SweepInterval != 15*time.Second {
		t.Fatalf("default durations: ttl=%s sweep=%s", c.RoomTTL, c.SweepInterval)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_PLAYERS", "6")
	t.Setenv("ROOM_TTL", "45m")
	t.Setenv("VOTING_TIME", "not-a-duration")

	c := FromEnv()
	if c.Port != "9000" {
		t.Fatalf("port override: %s", c.Port)
	}
	if c.MaxPlayers != 6 {
		t.Fatalf("max players override: %d", c.MaxPlayers)
	}
	if c.RoomTTL != 45*time.Minute {
		t.Fatalf("ttl override: %s", c.RoomTTL)
	}
	if c.VotingTime != time.Minute {
		t.Fatalf("garbage durations fall back to the default, got %s", c.VotingTime)
	}
}
