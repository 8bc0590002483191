package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"arena-duel/internal/game"
)

// Handler methods for routerHandlers. Shared by the standalone router (for
// testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.match.LastSnapshot())
}

func (h *routerHandlers) handleGetView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.match.View())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.match.Stats()
	writeJSON(w, map[string]interface{}{
		"ticks":       stats.Ticks,
		"pickups":     stats.Pickups,
		"drops":       stats.Drops,
		"hits":        stats.Hits,
		"collisions":  stats.Collisions,
		"finished":    stats.Finished,
		"skills":      stats.Skills,
		"rateLimiter": h.rateLimiter.GetStats(),
	})
}

func (h *routerHandlers) handleSkill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Combatant string `json:"combatant"`
		Skill     string `json:"skill"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Combatant == "" {
		writeError(w, "Combatant is required", http.StatusBadRequest)
		return
	}

	code, err := applySkill(h.match, req.Combatant, req.Skill)
	if err != nil {
		writeError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"queued":    true,
		"combatant": req.Combatant,
		"skill":     req.Skill,
	})
}

func (h *routerHandlers) handleReset(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Match reset requested via API")
	h.match.Reset()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Rendering disabled", http.StatusNotFound)
		return
	}

	start := time.Now()
	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.match.View()); err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}
	RecordRender(time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleMusic(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{"enabled": h.music != nil, "playing": ""}
	if h.music != nil {
		status["playing"] = h.music.Playing()
	}
	writeJSON(w, status)
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"tick":   h.match.LastSnapshot().Tick,
	})
}

// applySkill parses and queues a skill, returning the HTTP status for the
// outcome. Shared by the REST handler and websocket commands.
func applySkill(m MatchInterface, combatant, skill string) (int, error) {
	kind, err := game.ParseSkill(skill)
	if err != nil {
		return http.StatusBadRequest, err
	}

	err = m.ApplySkill(combatant, kind)
	switch {
	case err == nil:
		return http.StatusAccepted, nil
	case errors.Is(err, game.ErrUnknownSkill):
		return http.StatusBadRequest, err
	case errors.Is(err, game.ErrUnknownCombatant):
		return http.StatusNotFound, err
	case errors.Is(err, game.ErrSkillQueueFull):
		return http.StatusServiceUnavailable, err
	default:
		return http.StatusInternalServerError, err
	}
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
