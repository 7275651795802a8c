package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig configures the terminal dashboard.
type ClientConfig struct {
	APIURL       string        // base URL every API call is resolved against
	TokenFile    string        // durable copy of the bearer token
	PollInterval time.Duration // background resync period
	TimelineDays int           // initial timeline lookback (7, 14 or 30)
	ScanDelay    time.Duration // simulated biometric analysis time
	CameraDevice string        // video device node acquired on consent
	LogFile      string        // where the dashboard reports errors
	Subject      string        // initial subject; defaults to the user's own
	Stream       bool          // subscribe to the alert websocket
}

// LoadClient reads ASTRA_* variables, loading .env first when present.
func LoadClient() ClientConfig {
	_ = godotenv.Load()

	base, err := os.UserConfigDir()
	if err != nil {
		log.Printf("config: no user config dir (%v), using working directory", err)
		base = "."
	}
	dir := filepath.Join(base, "astra-care")

	days := envInt("ASTRA_TIMELINE_DAYS", 7)
	if days != 7 && days != 14 && days != 30 {
		days = 7
	}
	return ClientConfig{
		APIURL:       envStr("ASTRA_API_URL", "http://localhost:8001/api"),
		TokenFile:    envStr("ASTRA_TOKEN_FILE", filepath.Join(dir, "token")),
		PollInterval: envDur("ASTRA_POLL_INTERVAL", 30*time.Second),
		TimelineDays: days,
		ScanDelay:    envDur("ASTRA_SCAN_DELAY", 3200*time.Millisecond),
		CameraDevice: envStr("ASTRA_CAMERA_DEVICE", "/dev/video0"),
		LogFile:      envStr("ASTRA_LOG_FILE", filepath.Join(dir, "dashboard.log")),
		Subject:      envStr("ASTRA_SUBJECT", ""),
		Stream:       envBool("ASTRA_STREAM", true),
	}
}
