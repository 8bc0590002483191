// =============================================================================
// ARENA DUEL - RECORDER
// =============================================================================
// Headless driver: plays one match on a synthetic clock as fast as the CPU
// allows and writes
//   - frame_NNNNN.png every RECORD_FRAME_EVERY ticks
//   - soundtrack.wav with the weapon holder's theme, in sync with the ticks
//   - events.jsonl
//
// USAGE:
//   go run ./cmd/recorder
//   ffmpeg -framerate 10 -i frames/frame_%05d.png -i frames/soundtrack.wav out.mp4
// =============================================================================
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/joho/godotenv"

	"arena-duel/internal/audio"
	"arena-duel/internal/config"
	"arena-duel/internal/game"
	"arena-duel/internal/render"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	}

	log.Println("🎬 ================================")
	log.Println("🎬  ARENA DUEL - RECORDER")
	log.Println("🎬 ================================")

	if err := run(config.Load()); err != nil {
		log.Fatalf("❌ Recording failed: %v", err)
	}
}

func run(app config.AppConfig) error {
	rec := app.Recorder
	if err := os.MkdirAll(rec.OutDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	cfg := game.NewMatchConfig(float64(app.Arena.Width), float64(app.Arena.Height), float64(app.Arena.TopPadding))
	cfg.SkillQueueSize = app.Match.SkillQueueSize
	cfg.SkillDurationTicks = app.Match.SkillDurationTicks

	clock := game.NewStepClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	match := game.NewMatch(cfg)
	match.SetClock(clock)

	jukebox := audio.NewJukebox(app.Audio.SampleRate)
	defer jukebox.Close()
	if app.Audio.Enabled {
		jukebox.LoadTracks(app.Audio.Tracks(), app.Audio.Volume)
		match.SetNotifier(jukebox)
	}

	eventLog := game.NewEventLog()
	eventsPath := filepath.Join(rec.OutDir, "events.jsonl")
	if err := eventLog.Start(eventsPath); err != nil {
		return err
	}
	defer eventLog.Stop()
	match.SetEventLog(eventLog)

	renderer := render.NewRenderer(app.Arena.Width, app.Arena.Height)
	soundtrack := beep.NewBuffer(jukebox.Format())

	tickRate := app.Match.TickRate
	step := time.Second / time.Duration(tickRate)
	sampleRate := int(jukebox.Format().SampleRate)

	// One extra second after the result so the banner is visible
	outro := tickRate
	frames := 0
	start := time.Now()

	for tick := 1; tick <= rec.MaxTicks; tick++ {
		clock.Advance(step)
		snap := match.Tick()

		// Samples owed for this tick, without drift for uneven rates
		n := tick*sampleRate/tickRate - (tick-1)*sampleRate/tickRate
		soundtrack.Append(beep.Take(n, jukebox))

		if tick%rec.FrameEvery == 0 {
			if err := writeFrame(renderer, match.View(), rec.OutDir, frames); err != nil {
				return err
			}
			frames++
		}

		if snap.Finished {
			if outro == 0 {
				break
			}
			outro--
		}
	}

	if err := writeSoundtrack(filepath.Join(rec.OutDir, "soundtrack.wav"), soundtrack); err != nil {
		return err
	}

	last := match.LastSnapshot()
	result := "no winner"
	if last.Winner != "" {
		result = last.Winner + " wins"
	} else if !last.Finished {
		result = "time limit reached"
	}
	log.Printf("✅ Recorded %d ticks, %d frames, %.1fs of audio in %v (%s)",
		last.Tick, frames, float64(soundtrack.Len())/float64(sampleRate), time.Since(start).Round(time.Millisecond), result)
	log.Printf("📁 Output: %s", rec.OutDir)
	return nil
}

func writeFrame(r *render.Renderer, v game.View, dir string, index int) error {
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("frame_%05d.png", index)))
	if err != nil {
		return fmt.Errorf("create frame: %w", err)
	}
	defer f.Close()

	if err := r.EncodePNG(f, v); err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	return nil
}

func writeSoundtrack(path string, buf *beep.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create soundtrack: %w", err)
	}
	defer f.Close()

	if err := wav.Encode(f, buf.Streamer(0, buf.Len()), buf.Format()); err != nil {
		return fmt.Errorf("encode soundtrack: %w", err)
	}
	return nil
}
