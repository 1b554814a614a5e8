package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv: %v", err)
	}

	store, err := newConfiguredStore()
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	hub := newHub()
	store.hub = hub
	go hub.Run()

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	if addr == "" {
		addr = ":8080"
	}
	mux := newMux(store)
	log.Printf("listening on http://localhost%s", addr)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func newMux(store *Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/games", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyName string `json:"company_name"`
			ShipName    string `json:"ship_name"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		if strings.TrimSpace(req.CompanyName) == "" {
			httpError(w, errors.New("company_name is required"))
			return
		}

		// Concurrency model: lock for full handler to keep all
		// reads/writes consistent and race-free.
		store.mu.Lock()
		defer store.mu.Unlock()
		g := store.createGameLocked(strings.TrimSpace(req.CompanyName), strings.TrimSpace(req.ShipName))
		store.persistLocked(g)
		writeJSON(w, http.StatusCreated, g)
	})

	mux.HandleFunc("GET /api/games", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		out := []gameSummary{}
		for _, g := range store.Games {
			out = append(out, summarize(g))
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET /api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gameView{Game: g, NextEvent: g.peekNextEvent()})
	})

	mux.HandleFunc("DELETE /api/games/{id}", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		delete(store.Games, g.ID)
		if store.repo != nil {
			if err := store.repo.DeleteGame(r.Context(), g.ID); err != nil {
				log.Printf("delete game %s: %v", g.ID, err)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/games/{id}/setup", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Difficulty string     `json:"difficulty"`
			Planet     PlanetInfo `json:"planet"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := store.completeSetupLocked(g, req.Difficulty, req.Planet); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gameView{Game: g, NextEvent: g.peekNextEvent()})
	})

	mux.HandleFunc("POST /api/games/{id}/advance", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ManualDice string `json:"manual_dice"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		report, err := store.advanceTimeLocked(g, strings.TrimSpace(req.ManualDice))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	mux.HandleFunc("GET /api/games/{id}/events", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g.Events)
	})

	mux.HandleFunc("GET /api/games/{id}/positions", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if g.CurrentPlanet == nil {
			httpError(w, ErrInvalidLocation)
			return
		}
		writeJSON(w, http.StatusOK, availablePositions(store.reference.Positions, *g.CurrentPlanet))
	})

	mux.HandleFunc("POST /api/games/{id}/hire/start", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Position   string `json:"position"`
			Experience string `json:"experience"`
			ManualDice string `json:"manual_dice"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		exp, err := parseExperience(req.Experience)
		if err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		task, err := store.startHireSearchLocked(g, req.Position, exp, strings.TrimSpace(req.ManualDice))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, task)
	})

	mux.HandleFunc("GET /api/games/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g.taskBoard())
	})

	mux.HandleFunc("POST /api/games/{id}/tasks/{taskID}/reorder", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Position int `json:"position"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		taskID, err := parseID(r.PathValue("taskID"))
		if err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := store.reorderPendingTaskLocked(g, taskID, req.Position); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g.pendingTasks())
	})

	mux.HandleFunc("DELETE /api/games/{id}/tasks/{taskID}", func(w http.ResponseWriter, r *http.Request) {
		taskID, err := parseID(r.PathValue("taskID"))
		if err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := store.deletePendingTaskLocked(g, taskID); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/games/{id}/personnel", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		total := 0
		for _, emp := range g.activeEmployees() {
			total += emp.MonthlySalary
		}
		writeJSON(w, http.StatusOK, struct {
			Employees            []*Employee `json:"employees"`
			TotalMonthlySalaries int         `json:"total_monthly_salaries"`
		}{g.Employees, total})
	})

	mux.HandleFunc("POST /api/games/{id}/personnel", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Position      string `json:"position"`
			Name          string `json:"name"`
			MonthlySalary int    `json:"monthly_salary"`
			Experience    string `json:"experience"`
			Morale        string `json:"morale"`
			Notes         string `json:"notes"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		if strings.TrimSpace(req.Position) == "" || req.MonthlySalary < 0 {
			httpError(w, errors.New("position and a non-negative salary are required"))
			return
		}
		exp := ExperienceStandard
		if req.Experience != "" {
			var err error
			if exp, err = parseExperience(req.Experience); err != nil {
				httpError(w, err)
				return
			}
		}
		morale := MoraleMedium
		if req.Morale != "" {
			if err := morale.UnmarshalText([]byte(req.Morale)); err != nil {
				httpError(w, err)
				return
			}
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		emp, err := store.directHireLocked(g, strings.TrimSpace(req.Position),
			strings.TrimSpace(req.Name), req.MonthlySalary, exp, morale, req.Notes)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, emp)
	})

	mux.HandleFunc("PUT /api/games/{id}/personnel/{empID}", func(w http.ResponseWriter, r *http.Request) {
		var upd EmployeeUpdate
		if err := decodeJSON(r, &upd); err != nil {
			httpError(w, err)
			return
		}
		empID, err := parseID(r.PathValue("empID"))
		if err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		emp, err := store.updateEmployeeLocked(g, empID, upd)
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, emp)
	})

	mux.HandleFunc("DELETE /api/games/{id}/personnel/{empID}", func(w http.ResponseWriter, r *http.Request) {
		empID, err := parseID(r.PathValue("empID"))
		if err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := store.fireEmployeeLocked(g, empID); err != nil {
			httpError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/games/{id}/missions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Kind      string `json:"kind"`
			Objective string `json:"objective"`
			Notes     string `json:"notes"`
			Deadline  string `json:"deadline"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		if strings.TrimSpace(req.Objective) == "" {
			httpError(w, errors.New("objective is required"))
			return
		}
		var deadline GameDate
		if strings.TrimSpace(req.Deadline) != "" {
			var err error
			deadline, err = ParseGameDate(req.Deadline)
			if err != nil {
				httpError(w, err)
				return
			}
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if !deadline.IsZero() && deadline.Compare(g.Date) <= 0 {
			httpError(w, errors.New("deadline must be in the future"))
			return
		}
		mission := store.addMissionLocked(g, req.Kind, strings.TrimSpace(req.Objective), req.Notes, deadline)
		writeJSON(w, http.StatusCreated, mission)
	})

	mux.HandleFunc("GET /api/games/{id}/missions", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g.Missions)
	})

	mux.HandleFunc("POST /api/games/{id}/missions/{missionID}/resolve", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Success bool `json:"success"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		missionID, err := parseID(r.PathValue("missionID"))
		if err != nil {
			httpError(w, err)
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if err := store.resolveMissionLocked(g, missionID, req.Success); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g.missionByID(missionID))
	})

	mux.HandleFunc("POST /api/games/{id}/income", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount      int    `json:"amount"`
			Category    string `json:"category"`
			Description string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httpError(w, err)
			return
		}
		if req.Amount <= 0 {
			httpError(w, errors.New("amount must be positive"))
			return
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		if g.Bankrupt {
			httpError(w, ErrGameOver)
			return
		}
		if req.Category == "" {
			req.Category = "other"
		}
		store.recordIncomeLocked(g, req.Amount, req.Category, req.Description)
		writeJSON(w, http.StatusOK, map[string]int{"treasury": g.Treasury})
	})

	mux.HandleFunc("GET /api/games/{id}/transactions", func(w http.ResponseWriter, r *http.Request) {
		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, g.Transactions)
	})

	mux.HandleFunc("GET /api/games/{id}/logs", func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				httpError(w, errors.New("invalid limit"))
				return
			}
			limit = n
		}
		severity := Severity(r.URL.Query().Get("severity"))

		store.mu.Lock()
		defer store.mu.Unlock()
		g, err := store.gameLocked(r.PathValue("id"))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gameLogs(g, limit, severity))
	})

	mux.HandleFunc("GET /api/games/{id}/ws", func(w http.ResponseWriter, r *http.Request) {
		gameID := r.PathValue("id")
		store.mu.Lock()
		_, err := store.gameLocked(gameID)
		store.mu.Unlock()
		if err != nil {
			httpError(w, err)
			return
		}
		store.hub.serveWs(w, r, gameID)
	})

	mux.HandleFunc("GET /api/names", func(w http.ResponseWriter, r *http.Request) {
		count := 5
		if raw := r.URL.Query().Get("count"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				httpError(w, errors.New("invalid count"))
				return
			}
			count = n
		}
		store.mu.Lock()
		defer store.mu.Unlock()
		writeJSON(w, http.StatusOK, store.suggestCrewNames(count))
	})

	return mux
}

// gameSummary is the list-view projection of a game.
type gameSummary struct {
	ID          string   `json:"id"`
	CompanyName string   `json:"company_name"`
	ShipName    string   `json:"ship_name"`
	Date        GameDate `json:"date"`
	Treasury    int      `json:"treasury"`
	Reputation  int      `json:"reputation"`
	Bankrupt    bool     `json:"bankrupt"`
	Crew        int      `json:"crew"`
}

func summarize(g *Game) gameSummary {
	return gameSummary{
		ID:          g.ID,
		CompanyName: g.CompanyName,
		ShipName:    g.ShipName,
		Date:        g.Date,
		Treasury:    g.Treasury,
		Reputation:  g.Reputation,
		Bankrupt:    g.Bankrupt,
		Crew:        len(g.activeEmployees()),
	}
}

// gameView adds derived read-only fields to the full game payload.
type gameView struct {
	*Game
	NextEvent *ScheduledEvent `json:"next_event"`
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// httpError maps domain errors onto HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrGameNotFound),
		errors.Is(err, ErrEmployeeNotFound),
		errors.Is(err, ErrMissionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrGameOver),
		errors.Is(err, ErrTaskNotPending),
		errors.Is(err, ErrNoPendingEvents),
		errors.Is(err, ErrPositionUnavailable),
		errors.Is(err, ErrNoRecruiter),
		errors.Is(err, ErrInvalidLocation):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
