package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BonChain/saga-sub000/cascade"
	"github.com/BonChain/saga-sub000/engine"
	"github.com/BonChain/saga-sub000/logger"
	"github.com/BonChain/saga-sub000/narrative"
	"github.com/BonChain/saga-sub000/store"
)

// API glues the pipeline to HTTP: action submission in, stored history and
// networks out. Authentication and throttling are deliberately absent; they
// belong in front of this service.
type API struct {
	Hub       *Hub
	Generator *narrative.Generator
	Assembler *engine.Assembler
	Store     *store.Store
	Defaults  cascade.Options
}

// actionRequest is the POST /api/action body. Options, when present,
// override the defaults for this one invocation.
type actionRequest struct {
	ActorID     string           `json:"actor_id"`
	Description string           `json:"description"`
	Options     *cascade.Options `json:"options,omitempty"`
}

func (a *API) HandleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		http.Error(w, "description is required", http.StatusBadRequest)
		return
	}

	opts := a.Defaults
	if req.Options != nil {
		opts = *req.Options
	}

	action := engine.Action{
		ID:          uuid.NewString(),
		ActorID:     req.ActorID,
		Description: req.Description,
		Roots:       a.Generator.RootConsequences(req.Description),
	}

	logger.Info(logger.StatusAct, "actor %s: %s", action.ActorID, action.Description)
	result := a.Assembler.Build(action, opts, nil)

	rec := store.ActionRecord{
		ID:          action.ID,
		ActorID:     action.ActorID,
		Description: action.Description,
		Effects:     result.Metadata.TotalEffects,
		MaxDepth:    result.Metadata.MaxDepth,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.Store.SaveAction(rec, result); err != nil {
		logger.Error(logger.StatusErr, "save action %s: %v", action.ID, err)
	}

	a.Hub.Broadcast("cascade_update", result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := a.Store.History(limit)
	if err != nil {
		logger.Error(logger.StatusErr, "history: %v", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}

func (a *API) HandleNetwork(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	actionID := strings.TrimPrefix(r.URL.Path, "/api/network/")
	if actionID == "" {
		http.Error(w, "action id is required", http.StatusBadRequest)
		return
	}

	result, err := a.Store.Network(actionID)
	if err != nil {
		http.Error(w, "network not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// StartServer registers routes and serves in the background; the TUI command
// loop owns the process lifetime.
func StartServer(api *API, port string) {
	http.HandleFunc("/ws", api.Hub.HandleWebSocket)
	http.HandleFunc("/api/action", api.HandleAction)
	http.HandleFunc("/api/history", api.HandleHistory)
	http.HandleFunc("/api/network/", api.HandleNetwork)
	http.Handle("/", http.FileServer(http.Dir("./public")))

	logger.Info(logger.StatusNet, "WebSocket stream on ws://localhost%s/ws", port)
	logger.Info(logger.StatusNet, "Web dashboard on http://localhost%s", port)

	go func() {
		if err := http.ListenAndServe(port, nil); err != nil {
			logger.Error(logger.StatusErr, "ListenAndServe: %v", err)
		}
	}()
}
