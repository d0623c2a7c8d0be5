package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/adapter/postgres"
	"github.com/pscheid92/veritas/internal/domain"
	"github.com/pscheid92/veritas/internal/platform/logging"
)

// Fixed IDs so a demo client can hardcode its X-User-ID.
var (
	freshmanID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("veritas:user-freshman"))
	seniorID   = uuid.NewSHA1(uuid.NameSpaceOID, []byte("veritas:user-senior"))
)

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL URL (or set DATABASE_URL env)")
		reset       = flag.Bool("reset", false, "Delete all users, rumors and votes first")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Database URL required (--database or DATABASE_URL env)")
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logging.InitLogger(level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, *databaseURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store := postgres.NewStore(pool, clockwork.NewRealClock())
	if *reset {
		if err := store.Reset(ctx); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		slog.Info("Tables reset")
	}

	if err := seed(ctx, store, domain.DefaultRules(), time.Now()); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	slog.Info("Seeding complete", "freshman_id", freshmanID, "senior_id", seniorID)
}

// seed writes one rumor per visibility stage: public, under senior review and
// still hidden behind its reveal delay.
func seed(ctx context.Context, store *postgres.Store, rules domain.Rules, now time.Time) error {
	users := []domain.User{
		{ID: freshmanID, Reputation: rules.InitialReputation, CreatedAt: now},
		{ID: seniorID, Reputation: rules.SeniorThreshold + 5, CreatedAt: now},
	}
	for _, u := range users {
		if err := store.UpsertUser(ctx, u); err != nil {
			return err
		}
	}

	settles := now.Add(rules.SettlementWindow)
	rumors := []domain.Rumor{
		{
			AuthorID:   seniorID,
			Content:    "The dining hall is switching to a cashless system next month",
			Status:     domain.StatusPublic,
			TrustScore: 10,
			VisibleAt:  now.Add(-rules.ReviewDuration - time.Hour),
		},
		{
			AuthorID:  freshmanID,
			Content:   "Tuition is increasing by 50% next semester",
			Status:    domain.StatusInitialReview,
			VisibleAt: now.Add(-30 * time.Minute),
		},
		{
			AuthorID:  freshmanID,
			Content:   "There is a secret tunnel under the library",
			Status:    domain.StatusInitialReview,
			VisibleAt: now.Add(10 * time.Minute),
		},
	}

	return store.WithinTx(ctx, func(tx domain.Tx) error {
		for i := range rumors {
			r := &rumors[i]
			r.ID = uuid.New()
			r.SettlesAt = settles
			r.CreatedAt = now
			r.UpdatedAt = now
			if err := tx.CreateRumor(ctx, r); err != nil {
				return fmt.Errorf("rumor %d: %w", i, err)
			}
			slog.Debug("Seeded rumor", "rumor_id", r.ID, "status", r.Status, "visible_at", r.VisibleAt.Format(time.RFC3339))
		}
		return nil
	})
}
