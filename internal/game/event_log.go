package game

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize       = 1024                   // Circular buffer size
	MaxEventsPerSec       = 2000                   // Global rate limit
	MaxEventsPerCombatant = 200                    // Per-combatant rate limit per second
	BatchFlushSize        = 64                     // Events per batch write
	BatchFlushInterval    = 100 * time.Millisecond // How often to flush
	TickEventInterval     = 60                     // Ticks between tick markers
)

// EventLog provides bounded, rate-limited event logging with backpressure.
// Events land in a ring buffer and a background writer appends them to a
// JSONL sink in batches. A nil *EventLog is valid and drops everything.
type EventLog struct {
	mu        sync.Mutex
	buffer    [EventBufferSize]Event
	writeHead uint64
	readHead  uint64
	sequence  uint64

	globalLimiter     *rate.Limiter
	combatantLimiters sync.Map // map[string]*rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	sinkMu sync.Mutex
	buf    *bufio.Writer
	closer io.Closer

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
	writtenCount uint64 // atomic
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start opens filePath for append and begins the async writer. An empty
// path keeps events in memory only.
func (el *EventLog) Start(filePath string) error {
	if filePath == "" {
		return el.StartWriter(nil)
	}
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if err := el.StartWriter(file); err != nil {
		file.Close()
		return err
	}
	el.closer = file
	return nil
}

// StartWriter begins the async writer on an arbitrary sink.
func (el *EventLog) StartWriter(w io.Writer) error {
	if el.running.Load() {
		return nil
	}

	if w != nil {
		el.buf = bufio.NewWriter(w)
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()
	return nil
}

// Stop flushes pending events and shuts down the writer
func (el *EventLog) Stop() {
	if el == nil {
		return
	}
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.sinkMu.Lock()
		if el.buf != nil {
			el.buf.Flush()
		}
		if el.closer != nil {
			el.closer.Close()
		}
		el.sinkMu.Unlock()
	})
}

// Emit adds an event with rate limiting.
// Returns false if rate limited or the log is not running.
func (el *EventLog) Emit(event Event) bool {
	if el == nil || !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	if event.CombatantID != "" && !el.combatantLimiter(event.CombatantID).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.mu.Lock()
	el.sequence++
	event.Sequence = el.sequence
	if el.writeHead-el.readHead >= EventBufferSize {
		// Ring full, oldest event is overwritten
		el.readHead++
		atomic.AddUint64(&el.droppedCount, 1)
	}
	el.buffer[el.writeHead%EventBufferSize] = event
	el.writeHead++
	el.mu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, at time.Time, tickNum uint64, combatantID string, payload interface{}) bool {
	if el == nil {
		return false
	}
	return el.Emit(NewEvent(eventType, at, tickNum, combatantID, payload))
}

func (el *EventLog) combatantLimiter(id string) *rate.Limiter {
	if l, ok := el.combatantLimiters.Load(id); ok {
		return l.(*rate.Limiter)
	}
	actual, _ := el.combatantLimiters.LoadOrStore(id, rate.NewLimiter(MaxEventsPerCombatant, MaxEventsPerCombatant/10))
	return actual.(*rate.Limiter)
}

// writerLoop batches and writes events asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

// collectBatch reads available events from the ring
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
		el.readHead++
	}
	return batch
}

// flushBatch writes events as newline-delimited JSON
func (el *EventLog) flushBatch(batch []Event) {
	el.sinkMu.Lock()
	defer el.sinkMu.Unlock()

	if el.buf == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.buf.Write(data)
		el.buf.WriteByte('\n')
		atomic.AddUint64(&el.writtenCount, 1)
	}
	el.buf.Flush()
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	if el == nil {
		return map[string]interface{}{"running": false}
	}
	el.mu.Lock()
	pending := el.writeHead - el.readHead
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"written": atomic.LoadUint64(&el.writtenCount),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
