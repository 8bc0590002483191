package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"arena-duel/internal/api"
	"arena-duel/internal/audio"
	"arena-duel/internal/config"
	"arena-duel/internal/game"
	"arena-duel/internal/render"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  ARENA DUEL")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	arenaCfg := appConfig.Arena
	matchCfg := appConfig.Match
	audioCfg := appConfig.Audio

	log.Printf("🎮 Config: %dx%d arena, %d TPS, skills last %d ticks",
		arenaCfg.Width, arenaCfg.Height, matchCfg.TickRate, matchCfg.SkillDurationTicks)

	match := game.NewMatch(buildMatchConfig(appConfig))

	// Theme music follows the weapon
	jukebox := audio.NewJukebox(audioCfg.SampleRate)
	if audioCfg.Enabled {
		jukebox.LoadTracks(audioCfg.Tracks(), audioCfg.Volume)
		match.SetNotifier(jukebox)
	} else {
		log.Println("🔇 Theme music disabled")
	}
	defer jukebox.Close()

	// Event log
	eventLog := game.NewEventLog()
	if err := eventLog.Start(appConfig.EventLogPath); err != nil {
		log.Printf("⚠️ Event log disabled: %v", err)
	} else {
		if appConfig.EventLogPath != "" {
			log.Printf("📝 Event log: %s", appConfig.EventLogPath)
		}
		match.SetEventLog(eventLog)
	}

	// Metrics and debug server
	api.RegisterMatchMetrics(match)
	if appConfig.Debug.Enabled {
		debugCfg := api.DefaultObservabilityConfig()
		debugCfg.ListenAddr = appConfig.Debug.ListenAddr
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	runner := game.NewRunner(match, matchCfg.TickRate, matchCfg.MaxStepsPerFrame)
	runner.OnTick(api.TickRecorder(match.Roster()))
	runner.OnTick(resetHint())

	renderer := render.NewRenderer(arenaCfg.Width, arenaCfg.Height)
	server := api.NewServer(match, jukebox, renderer, appConfig.Server)

	runner.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(fmt.Sprintf(":%d", appConfig.Server.Port))
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	select {
	case <-quit:
	case err := <-serverErr:
		if err != nil {
			log.Printf("❌ API server failed: %v", err)
		}
	}

	log.Println("🛑 Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.Printf("⚠️ API shutdown: %v", err)
	}
	runner.Stop()
	eventLog.Stop()
	log.Println("👋 Goodbye!")
}

func buildMatchConfig(app config.AppConfig) game.MatchConfig {
	cfg := game.NewMatchConfig(float64(app.Arena.Width), float64(app.Arena.Height), float64(app.Arena.TopPadding))
	cfg.SkillQueueSize = app.Match.SkillQueueSize
	cfg.SkillDurationTicks = app.Match.SkillDurationTicks
	return cfg
}

// resetHint tells the operator how to restart, once per finished match.
func resetHint() game.TickFunc {
	hinted := false
	return func(snap game.Snapshot, _ time.Duration) {
		if !snap.Finished {
			hinted = false
			return
		}
		if !hinted {
			hinted = true
			log.Println("💡 POST /api/match/reset to start a new match")
		}
	}
}
