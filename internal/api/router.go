package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/boothworks/eventdesk/internal/config"
	"github.com/boothworks/eventdesk/internal/geo"
	"github.com/boothworks/eventdesk/internal/middleware"
	"github.com/boothworks/eventdesk/internal/store"
	"github.com/boothworks/eventdesk/internal/ws"
)

var startTime = time.Now()

type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// NewRouter wires the full HTTP surface: public health endpoints, the
// websocket hub, and the org-scoped API.
func NewRouter(db *sql.DB, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	hub := ws.NewHub()
	go hub.Run()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Org-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Use(chimiddleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", handleHealth)
	r.Get("/", handleRoot)
	r.Handle("/ws", &ws.Handler{Hub: hub})

	var maps *geo.Client
	if cfg.Maps.Enabled {
		maps = geo.NewClient(cfg.Maps.BaseURL, cfg.Maps.APIKey, cfg.Maps.RequestTimeout)
	}

	events := &EventHandler{
		Events: store.NewEventStore(db),
		Tasks:  store.NewTaskStore(db),
		Hub:    hub,
	}
	tasks := &TaskHandler{
		Tasks:  store.NewTaskStore(db),
		Events: store.NewEventStore(db),
		Hub:    hub,
	}
	accounts := &AccountHandler{Accounts: store.NewAccountStore(db)}
	staff := &StaffHandler{
		Staff:  store.NewStaffStore(db),
		Events: store.NewEventStore(db),
		Unit:   cfg.DistanceUnit,
	}
	distance := &DistanceHandler{Maps: maps}
	markers := &MarkerHandler{Markers: store.NewReadMarkerStore(db)}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireOrg)

		r.Get("/events", events.ListEvents)
		r.Post("/events", events.CreateEvent)
		r.Get("/events/readiness", events.BulkReadiness)
		r.Get("/events/{id}", events.GetEvent)
		r.Patch("/events/{id}", events.UpdateEvent)
		r.Delete("/events/{id}", events.DeleteEvent)
		r.Get("/events/{id}/readiness", events.GetEventReadiness)
		r.Get("/events/{id}/nearby-staff", staff.NearbyStaff)

		r.Get("/tasks", tasks.ListTasks)
		r.Post("/tasks", tasks.CreateTask)
		r.Get("/tasks/{id}", tasks.GetTask)
		r.Patch("/tasks/{id}", tasks.UpdateTask)
		r.Patch("/tasks/{id}/status", tasks.UpdateTaskStatus)
		r.Delete("/tasks/{id}", tasks.DeleteTask)

		r.Get("/accounts", accounts.ListAccounts)
		r.Post("/accounts", accounts.CreateAccount)
		r.Get("/accounts/{id}", accounts.GetAccount)

		r.Get("/staff", staff.ListStaff)
		r.Post("/staff", staff.CreateStaff)

		r.Get("/distance/driving", distance.DrivingDistance)

		r.Get("/read-markers", markers.ListMarkers)
		r.Get("/read-markers/value", markers.GetMarker)
		r.Put("/read-markers", markers.SetMarker)
		r.Delete("/read-markers", markers.ClearMarker)
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(startTime).Round(time.Second).String(),
		Version:   getVersion(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"name":    "EventDesk",
		"tagline": "Event and booth-rental operations for exhibitors",
		"health":  "/health",
	})
}

func getVersion() string {
	if v := os.Getenv("VERSION"); v != "" {
		return v
	}
	return "dev"
}
