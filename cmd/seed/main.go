// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev buyer admin (farm@example.com) already exists.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"agrimarket/backend/internal/config"
	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/security"
)

const devPassword = "Dev-Password-123!"

// Dev logins (all use devPassword):
//
//	farm@example.com     admin of Sunrise Farms (buyer)
//	vendor@example.com   admin of AgriParts Supply (vendor)
//	sales@example.com    vendor sales at AgriParts Supply
//	ops@example.com      admin of SkyCrop Services (operator)
//	pilot@example.com    operator (pilot) at SkyCrop Services
//	dispatch@example.com dispatcher at SkyCrop Services
type seedUser struct {
	id    string
	email string
	name  string
	phone string
	orgID string
	role  string
}

const (
	buyerOrgID    = "org-sunrise-farms"
	vendorOrgID   = "org-agriparts"
	operatorOrgID = "org-skycrop"
)

var seedUsers = []seedUser{
	{"usr-farm-admin", "farm@example.com", "Fatima Rahim", "+15550100001", buyerOrgID, "admin"},
	{"usr-vendor-admin", "vendor@example.com", "Viktor Osei", "+15550100002", vendorOrgID, "admin"},
	{"usr-vendor-sales", "sales@example.com", "Sana Kapoor", "+15550100003", vendorOrgID, "vendor"},
	{"usr-ops-admin", "ops@example.com", "Owen Mbeki", "+15550100004", operatorOrgID, "admin"},
	{"usr-pilot", "pilot@example.com", "Priya Nair", "+15550100005", operatorOrgID, "operator"},
	{"usr-dispatch", "dispatch@example.com", "Diego Fuentes", "+15550100006", operatorOrgID, "dispatcher"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set")
		os.Exit(1)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var exists bool
	err = conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, seedUsers[0].email).Scan(&exists)
	if err != nil {
		log.Fatalf("seed: check existing: %v", err)
	}
	if exists {
		log.Println("seed: dev data already present, nothing to do")
		return
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	hash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("seed: begin: %v", err)
	}
	defer tx.Rollback()

	if err := seedAll(ctx, tx, hash); err != nil {
		log.Fatalf("seed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("seed: commit: %v", err)
	}
	log.Printf("seed: done. Log in with e.g. farm@example.com / %s", devPassword)
}

func seedAll(ctx context.Context, tx *sql.Tx, passwordHash string) error {
	orgRows := [][]any{
		{buyerOrgID, "Sunrise Farms", "buyer"},
		{vendorOrgID, "AgriParts Supply", "vendor"},
		{operatorOrgID, "SkyCrop Services", "operator"},
	}
	for _, row := range orgRows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO organizations (id, legal_name, org_type) VALUES ($1, $2, $3)`,
			row...); err != nil {
			return fmt.Errorf("org %v: %w", row[0], err)
		}
	}

	for _, u := range seedUsers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, name, phone, email_verified) VALUES ($1, $2, $3, $4, TRUE)`,
			u.id, u.email, u.name, u.phone); err != nil {
			return fmt.Errorf("user %s: %w", u.email, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO identities (id, user_id, provider, provider_id, password_hash) VALUES ($1, $2, 'local', $3, $4)`,
			uuid.New().String(), u.id, u.email, passwordHash); err != nil {
			return fmt.Errorf("identity %s: %w", u.email, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (id, org_id, user_id, role) VALUES ($1, $2, $3, $4)`,
			uuid.New().String(), u.orgID, u.id, u.role); err != nil {
			return fmt.Errorf("membership %s: %w", u.email, err)
		}
	}

	productRows := [][]any{
		{"prd-sprayer-t40", vendorOrgID, "T40-SPRAY", "Agras T40 spray drone", "40L tank, RTK positioning", int64(2_150_000), 8},
		{"prd-battery-t40", vendorOrgID, "T40-BATT", "T40 flight battery", "30000mAh intelligent battery", int64(89_900), 120},
		{"prd-nozzle-kit", vendorOrgID, "NOZ-KIT", "Sprayer nozzle kit", "Set of 8 atomizing nozzles", int64(4_500), 300},
	}
	for _, row := range productRows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO products (id, org_id, sku, name, description, price_cents) VALUES ($1, $2, $3, $4, $5, $6)`,
			row[:6]...); err != nil {
			return fmt.Errorf("product %v: %w", row[0], err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO inventory (product_id, qty_on_hand) VALUES ($1, $2)`,
			row[0], row[6]); err != nil {
			return fmt.Errorf("inventory %v: %w", row[0], err)
		}
	}

	// Vendor policy: auto-approve small orders only, matching the built-in default.
	vendorPolicy := `package agrimarket.order_approval

default auto_approve = false

auto_approve if {
	input.order.quantity <= 10
}
`
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO policies (id, org_id, rules, enabled) VALUES ($1, $2, $3, TRUE)`,
		uuid.New().String(), vendorOrgID, vendorPolicy); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	return nil
}
