package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOST_ALLOWLIST", "h1, h2")
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "production", cfg.Env)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, float64(3), cfg.TimerExtendCapMultiple)
	require.Equal(t, 600, cfg.TimerExtendMinCapSec)
	require.Equal(t, 25*time.Second, cfg.LongPollMaxWait)
	require.Equal(t, 2*time.Hour, cfg.RoomIdleTTL)
	require.Equal(t, "UTC", cfg.MinutesTimezone)
	require.Equal(t, []string{"h1", " h2"}, cfg.HostAllowlist)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("TIMER_EXTEND_CAP_MULTIPLE", "0")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_RejectsMalformed(t *testing.T) {
	t.Setenv("ROOM_IDLE_TTL", "soon")
	_, err := Load()
	require.Error(t, err)
}
