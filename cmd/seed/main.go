// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev management account already exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	accountdomain "construct-authz/core/internal/account/domain"
	accountrepo "construct-authz/core/internal/account/repository"
	assignmentdomain "construct-authz/core/internal/assignment/domain"
	assignmentrepo "construct-authz/core/internal/assignment/repository"
	"construct-authz/core/internal/authz"
	"construct-authz/core/internal/config"
	"construct-authz/core/internal/db"
	"construct-authz/core/internal/events/producer"
	"construct-authz/core/internal/role"
)

const devManagementEmail = "management@example.com"

type seedAccount struct {
	email string
	name  string
	role  role.Role
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	accounts := accountrepo.NewPostgresRepository(database)

	existing, err := accounts.GetByEmail(ctx, devManagementEmail)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if existing != nil {
		log.Println("seed: dev data already present, nothing to do")
		return
	}

	if err := seed(ctx, cfg, database, accounts); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Println("seed: dev data inserted")
}

func seed(ctx context.Context, cfg *config.Config, database *sql.DB, accounts *accountrepo.PostgresRepository) error {
	now := time.Now().UTC()
	assignments := assignmentrepo.NewPostgresRepository(database)

	// When brokers are configured, project-wide rebuilds triggered by the
	// converge calls below go over the queue instead of in-process.
	opts := authz.Options{}
	kp, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.ChangeEventsTopic)
	if err != nil {
		return fmt.Errorf("change event producer: %w", err)
	}
	if kp != nil {
		defer kp.Close()
		opts.Producer = kp
	}
	engine := authz.New(ctx, database, opts)

	seeds := []seedAccount{
		{devManagementEmail, "Dev Management", role.Management},
		{"pm@example.com", "Dev Project Manager", role.ProjectManager},
		{"purchase@example.com", "Dev Purchase Manager", role.PurchaseManager},
		{"client@example.com", "Dev Client", role.Client},
	}
	ids := map[string]string{}
	for _, s := range seeds {
		a := &accountdomain.Account{
			ID:        uuid.New().String(),
			Email:     s.email,
			Name:      s.name,
			Role:      s.role,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := accounts.Create(ctx, a); err != nil {
			return fmt.Errorf("create account %s: %w", s.email, err)
		}
		ids[s.email] = a.ID
	}

	clientID := uuid.New().String()
	if _, err := database.ExecContext(ctx,
		`INSERT INTO clients (id, name, owner_account_id, created_at) VALUES ($1, $2, $3, $4)`,
		clientID, "Dev Client Corp", ids["client@example.com"], now); err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	projectID := uuid.New().String()
	if _, err := database.ExecContext(ctx,
		`INSERT INTO projects (id, name, client_id, active, created_at) VALUES ($1, $2, $3, $4, $5)`,
		projectID, "Dev Office Tower", clientID, true, now); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	if err := assignments.Create(ctx, &assignmentdomain.Assignment{
		ID:        uuid.New().String(),
		AccountID: ids["pm@example.com"],
		ProjectID: projectID,
		Capacity:  assignmentdomain.CapacityProjectManager,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}

	// Converge claims and cache for the seeded accounts.
	for _, s := range seeds {
		if err := engine.OnRoleChanged(ctx, ids[s.email], "", s.role); err != nil {
			return fmt.Errorf("converge account %s: %w", s.email, err)
		}
	}
	return nil
}
