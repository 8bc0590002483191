package game

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// INTEGRATION TESTS: SIMULATE REAL SERVER CONDITIONS
// The runner ticks on its own goroutine while spectators read views and
// skills arrive from outside, the way cmd/server wires them.
// =============================================================================

// TestIntegration_RunnerWithViewPressure runs the real-time loop against a
// view consumer and a skill feeder.
func TestIntegration_RunnerWithViewPressure(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	m := NewMatch(DefaultMatchConfig())
	logPath := filepath.Join(t.TempDir(), "events.jsonl")
	el := NewEventLog()
	if err := el.Start(logPath); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	m.SetEventLog(el)

	runner := NewRunner(m, 60, 4)
	var (
		ticks    atomic.Int64
		maxTick  atomic.Int64
		resetReq atomic.Bool
	)
	runner.OnTick(func(snap Snapshot, took time.Duration) {
		ticks.Add(1)
		for {
			cur := maxTick.Load()
			if int64(took) <= cur || maxTick.CompareAndSwap(cur, int64(took)) {
				break
			}
		}
		if snap.Finished {
			resetReq.Store(true)
		}
	})

	var (
		views, stale, accepted atomic.Int64
		wg                     sync.WaitGroup
	)
	stop := make(chan struct{})

	// Spectator at 24 FPS
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(time.Second / 24)
		defer ticker.Stop()
		var lastSeq uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				v := m.View()
				views.Add(1)
				if v.Sequence == lastSeq {
					stale.Add(1)
				}
				lastSeq = v.Sequence
			}
		}
	}()

	// Skills at 20/s, resets when a match ends
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		ids := m.Roster()
		i := 0
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if resetReq.Swap(false) {
					m.Reset()
				}
				kind := SkillSpeedUp
				if i%2 == 1 {
					kind = SkillSupersize
				}
				if m.ApplySkill(ids[i%len(ids)], kind) == nil {
					accepted.Add(1)
				}
				i++
			}
		}
	}()

	runner.Start()
	time.Sleep(1500 * time.Millisecond)
	runner.Stop()
	close(stop)
	wg.Wait()
	el.Stop()

	t.Logf("Integration Results:")
	t.Logf("  Ticks: %d, max tick: %v", ticks.Load(), time.Duration(maxTick.Load()))
	t.Logf("  Views: %d (%d unchanged), skills accepted: %d", views.Load(), stale.Load(), accepted.Load())

	// 90 ticks expected; leave room for a loaded CI box
	if n := ticks.Load(); n < 45 || n > 100 {
		t.Errorf("Expected about 90 ticks in 1.5s, got %d", n)
	}
	if views.Load() == 0 {
		t.Error("Expected the spectator to read views")
	}
	if stale.Load() > views.Load()/2 {
		t.Errorf("Expected mostly fresh views, %d of %d unchanged", stale.Load(), views.Load())
	}
	if accepted.Load() == 0 {
		t.Error("Expected skills to be accepted")
	}
	if err := m.CheckInvariants(); err != nil {
		t.Errorf("Invariant broken after run: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	events := readEvents(t, bytes.NewBuffer(data))
	if len(events) == 0 || events[0]["type"] != "match_start" {
		t.Fatalf("Expected the log to open with match_start, got %d events", len(events))
	}
	skills := 0
	for _, ev := range events {
		if ev["type"] == "skill" {
			skills++
		}
	}
	if skills == 0 {
		t.Error("Expected skill events in the log")
	}
}

// TestIntegration_MemoryStability tests for leaks across many short matches
func TestIntegration_MemoryStability(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping memory stability test in short mode")
	}

	m, clock, _ := newTestMatch(DefaultMatchConfig())

	runtime.GC()
	var baselineStats runtime.MemStats
	runtime.ReadMemStats(&baselineStats)

	iterations := 1000
	for i := 0; i < iterations; i++ {
		for k := 0; k < 20; k++ {
			clock.Advance(time.Second / 60)
			m.Tick()
			m.View()
		}
		m.ApplySkill("A", SkillSupersize)
		m.Reset()

		if i%100 == 0 {
			runtime.GC()
		}
	}

	runtime.GC()
	var finalStats runtime.MemStats
	runtime.ReadMemStats(&finalStats)

	heapGrowthMB := (float64(finalStats.HeapAlloc) - float64(baselineStats.HeapAlloc)) / (1024 * 1024)

	t.Logf("Memory Stability Results:")
	t.Logf("  Iterations: %d", iterations)
	t.Logf("  Baseline Heap: %.2f MB", float64(baselineStats.HeapAlloc)/(1024*1024))
	t.Logf("  Final Heap: %.2f MB", float64(finalStats.HeapAlloc)/(1024*1024))
	t.Logf("  Heap Growth: %.2f MB", heapGrowthMB)
	t.Logf("  Total Allocations: %d", finalStats.Mallocs-baselineStats.Mallocs)

	if heapGrowthMB > 10 {
		t.Errorf("Significant memory growth: %.2f MB", heapGrowthMB)
	}
}
