// Seeds a demo organization with accounts, events, tasks, and staff so the
// API has data to serve out of the box.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/boothworks/eventdesk/internal/store"
)

// demoOrgID is resolved from the orgs table; helpers below read it.
var demoOrgID string

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	orgs := store.NewOrgStore(db)

	org, err := orgs.GetBySlug(ctx, "demo")
	if errors.Is(err, store.ErrNotFound) {
		org, err = orgs.Create(ctx, "Booth Works Demo", "demo", "pro")
	}
	if err != nil {
		log.Fatal("Failed to create organization: ", err)
	}
	demoOrgID = org.ID
	fmt.Printf("✅ Organization 'demo' ready (org_id %s)\n", org.ID)

	if _, err := db.Exec(`SELECT set_config('app.org_id', $1, false)`, demoOrgID); err != nil {
		log.Fatal("Failed to set org context: ", err)
	}

	accountID := seedAccount(db, "Sunrise Coffee Roasters", "events@sunrisecoffee.example", "+1-555-0142")
	seedAccount(db, "Peak Outdoor Gear", "booths@peakoutdoor.example", "+1-555-0177")

	now := time.Now()
	upcoming := seedEvent(db, accountID, "Northwest Food Expo", "Seattle Convention Center",
		47.6114, -122.3331, now.AddDate(0, 0, 21), "confirmed", "jordan")
	seedEvent(db, accountID, "Cascade Trade Days", "Portland Expo Center",
		45.6053, -122.6865, now.AddDate(0, 0, 45), "planned", "")
	seedEvent(db, accountID, "Spring Market", "Tacoma Dome",
		47.2366, -122.4270, now.AddDate(0, 0, -30), "completed", "riley")

	seedTask(db, upcoming, "Reserve booth space", "completed", now.AddDate(0, 0, -7), "jordan")
	seedTask(db, upcoming, "Ship display materials", "in_progress", now.AddDate(0, 0, 14), "jordan")
	seedTask(db, upcoming, "Confirm staffing schedule", "new", now.AddDate(0, 0, 18), "")
	seedTask(db, upcoming, "Post-event survey", "new", now.AddDate(0, 0, 28), "")

	seedStaff(db, "Jordan Avery", "jordan@boothworks.example", 47.6062, -122.3321)
	seedStaff(db, "Riley Chen", "riley@boothworks.example", 45.5152, -122.6784)
	seedStaff(db, "Sam Okafor", "sam@boothworks.example", 0, 0)

	var events, tasks int
	if err := db.QueryRow("SELECT COUNT(*) FROM events WHERE org_id = $1", demoOrgID).Scan(&events); err != nil {
		log.Fatal("Failed to verify: ", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM tasks WHERE org_id = $1", demoOrgID).Scan(&tasks); err != nil {
		log.Fatal("Failed to verify: ", err)
	}
	fmt.Printf("✅ Seeded demo org: %d events, %d tasks\n", events, tasks)
}

func seedAccount(db *sql.DB, name, email, phone string) string {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO accounts (id, org_id, name, contact_email, contact_phone)
		VALUES ($1, $2, $3, $4, $5)
	`, id, demoOrgID, name, email, phone)
	if err != nil {
		log.Fatalf("Failed to seed account %q: %v", name, err)
	}
	return id
}

func seedEvent(db *sql.DB, accountID, title, location string, lat, lng float64, start time.Time, status, assignedTo string) string {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO events (id, org_id, account_id, title, location, venue_lat, venue_lng, start_date, status, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''))
	`, id, demoOrgID, accountID, title, location, lat, lng, start.Format("2006-01-02"), status, assignedTo)
	if err != nil {
		log.Fatalf("Failed to seed event %q: %v", title, err)
	}
	return id
}

func seedTask(db *sql.DB, eventID, title, status string, due time.Time, assignedTo string) {
	_, err := db.Exec(`
		INSERT INTO tasks (org_id, entity_type, entity_id, title, status, due_date, assigned_to)
		VALUES ($1, 'event', $2, $3, $4, $5, NULLIF($6, ''))
	`, demoOrgID, eventID, title, status, due.Format("2006-01-02"), assignedTo)
	if err != nil {
		log.Fatalf("Failed to seed task %q: %v", title, err)
	}
}

func seedStaff(db *sql.DB, name, email string, lat, lng float64) {
	var latArg, lngArg any
	if lat != 0 || lng != 0 {
		latArg, lngArg = lat, lng
	}
	_, err := db.Exec(`
		INSERT INTO staff (org_id, name, email, home_lat, home_lng)
		VALUES ($1, $2, $3, $4, $5)
	`, demoOrgID, name, email, latArg, lngArg)
	if err != nil {
		log.Fatalf("Failed to seed staff %q: %v", name, err)
	}
}
