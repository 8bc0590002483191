// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for arena, match and host settings.
//
// Defaults live here; every XFromEnv applies environment overrides on top.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// ARENA CONFIGURATION
// =============================================================================

// ArenaConfig holds the playfield dimensions in world units (1 unit = 1 pixel).
type ArenaConfig struct {
	Width      int // Arena width
	Height     int // Arena height
	TopPadding int // Vertical shift of the spawn line, leaves room for HP bars
}

// DefaultArena returns the classic 800x600 arena.
func DefaultArena() ArenaConfig {
	return ArenaConfig{
		Width:      800,
		Height:     600,
		TopPadding: 70,
	}
}

// ArenaFromEnv returns arena configuration with environment variable overrides.
func ArenaFromEnv() ArenaConfig {
	cfg := DefaultArena()

	if w := getEnvInt("ARENA_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("ARENA_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}

	return cfg
}

// =============================================================================
// MATCH CONFIGURATION
// =============================================================================

// MatchConfig holds the simulation cadence and skill settings.
type MatchConfig struct {
	TickRate           int // Fixed logical steps per second
	MaxStepsPerFrame   int // Catch-up cap per runner wake-up
	SkillQueueSize     int // Pending skill requests before rejecting
	SkillDurationTicks int // How long a skill lasts
}

// DefaultMatch returns the default match configuration.
func DefaultMatch() MatchConfig {
	return MatchConfig{
		TickRate:           60, // physics constants are tuned per tick at 60 TPS
		MaxStepsPerFrame:   5,
		SkillQueueSize:     32,
		SkillDurationTicks: 300, // 5 seconds at 60 TPS
	}
}

// MatchFromEnv returns match configuration with environment variable overrides.
func MatchFromEnv() MatchConfig {
	cfg := DefaultMatch()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if d := getEnvInt("SKILL_DURATION_TICKS", 0); d > 0 {
		cfg.SkillDurationTicks = d
	}

	return cfg
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds the theme music settings.
type AudioConfig struct {
	SampleRate int     // Output sample rate in Hz
	Volume     float64 // Track volume (0.0 to 1.0)
	Enabled    bool    // Whether theme music is played
	TrackA     string  // Theme for combatant A (ogg vorbis)
	TrackB     string  // Theme for combatant B (ogg vorbis)
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate: 44100,
		Volume:     0.5,
		Enabled:    true,
		TrackA:     "assets/music/blue.ogg",
		TrackB:     "assets/music/red.ogg",
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("MUSIC_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("MUSIC_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if p := os.Getenv("MUSIC_TRACK_A"); p != "" {
		cfg.TrackA = p
	}
	if p := os.Getenv("MUSIC_TRACK_B"); p != "" {
		cfg.TrackB = p
	}

	return cfg
}

// Tracks maps combatant ids to their theme files.
func (c AudioConfig) Tracks() map[string]string {
	return map[string]string{
		"A": c.TrackA,
		"B": c.TrackB,
	}
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int
	RequestsPerSecond float64  // Per-IP HTTP rate
	Burst             int      // Per-IP HTTP burst
	MaxWSPerIP        int      // Concurrent websocket connections per IP
	AllowedOrigins    []string // CORS and websocket origins
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:              3000,
		RequestsPerSecond: 20,
		Burst:             40,
		MaxWSPerIP:        5,
		AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if n := getEnvInt("WS_MAX_PER_IP", 0); n > 0 {
		cfg.MaxWSPerIP = n
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	return cfg
}

// =============================================================================
// DEBUG CONFIGURATION
// =============================================================================

// DebugConfig holds the pprof/metrics listener settings.
type DebugConfig struct {
	Enabled    bool
	ListenAddr string // Always bind to localhost
}

// DefaultDebug returns the default debug configuration.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if os.Getenv("DEBUG_SERVER") == "false" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	return cfg
}

// =============================================================================
// RECORDER CONFIGURATION
// =============================================================================

// RecorderConfig holds the headless recorder settings.
type RecorderConfig struct {
	OutDir     string // Where frames, soundtrack and events are written
	FrameEvery int    // Ticks between PNG frames
	MaxTicks   int    // Stop after this many ticks even without a winner
}

// DefaultRecorder returns the default recorder configuration.
func DefaultRecorder() RecorderConfig {
	return RecorderConfig{
		OutDir:     "frames",
		FrameEvery: 6,    // 10 frames per simulated second
		MaxTicks:   3600, // one simulated minute
	}
}

// RecorderFromEnv returns recorder configuration with environment variable overrides.
func RecorderFromEnv() RecorderConfig {
	cfg := DefaultRecorder()

	if dir := os.Getenv("RECORD_DIR"); dir != "" {
		cfg.OutDir = dir
	}
	if n := getEnvInt("RECORD_FRAME_EVERY", 0); n > 0 {
		cfg.FrameEvery = n
	}
	if n := getEnvInt("RECORD_MAX_TICKS", 0); n > 0 {
		cfg.MaxTicks = n
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Arena        ArenaConfig
	Match        MatchConfig
	Audio        AudioConfig
	Server       ServerConfig
	Debug        DebugConfig
	Recorder     RecorderConfig
	EventLogPath string // JSONL event log, empty disables file output
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	eventLog, ok := os.LookupEnv("EVENT_LOG_PATH")
	if !ok {
		eventLog = "events.jsonl"
	}

	return AppConfig{
		Arena:        ArenaFromEnv(),
		Match:        MatchFromEnv(),
		Audio:        AudioFromEnv(),
		Server:       ServerFromEnv(),
		Debug:        DebugFromEnv(),
		Recorder:     RecorderFromEnv(),
		EventLogPath: eventLog,
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
