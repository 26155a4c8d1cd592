// Package seed prepares a fresh database: an administrator account and a
// starter catalog. Every step is idempotent.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/cocktail-api/internal/config"
	"github.com/flicky/cocktail-api/internal/model"
	"github.com/flicky/cocktail-api/internal/repository"
)

//go:embed default_catalog.json
var defaultCatalog []byte

type CatalogEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl"`
	Available   *bool           `json:"available"`
}

type Seeder struct {
	users    repository.UserRepository
	products repository.ProductRepository
	cfg      config.SeedConfig
	log      *slog.Logger
}

func New(users repository.UserRepository, products repository.ProductRepository, cfg config.SeedConfig, log *slog.Logger) *Seeder {
	return &Seeder{users: users, products: products, cfg: cfg, log: log}
}

func (s *Seeder) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("seeding disabled")
		return nil
	}
	if err := s.ensureAdmin(ctx); err != nil {
		return err
	}
	return s.ensureCatalog(ctx)
}

// ensureAdmin creates the configured admin when no account uses that email.
// An existing account is never modified.
func (s *Seeder) ensureAdmin(ctx context.Context) error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		s.log.Warn("admin seed skipped: SEED_ADMIN_EMAIL or SEED_ADMIN_PASSWORD not set")
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, s.cfg.AdminEmail)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &model.User{
		Name:     s.cfg.AdminName,
		Email:    s.cfg.AdminEmail,
		Password: string(hashed),
		RoleID:   model.RoleIDAdmin,
		Role:     model.RoleAdmin,
		Active:   true,
		ImageURL: s.cfg.AdminImageURL,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("admin account seeded", "user_id", admin.ID, "email", admin.Email)
	return nil
}

func (s *Seeder) ensureCatalog(ctx context.Context) error {
	n, err := s.products.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return nil
	}

	entries, err := s.loadCatalog()
	if err != nil {
		return err
	}
	for _, e := range entries {
		available := true
		if e.Available != nil {
			available = *e.Available
		}
		p := &model.Product{
			Name:        e.Name,
			Description: e.Description,
			Price:       e.Price.Round(2),
			ImageURL:    e.ImageURL,
			Available:   available,
		}
		if err := s.products.Create(ctx, p); err != nil {
			return fmt.Errorf("seed product %q: %w", e.Name, err)
		}
	}
	s.log.Info("catalog seeded", "products", len(entries))
	return nil
}

func (s *Seeder) loadCatalog() ([]CatalogEntry, error) {
	data := defaultCatalog
	if s.cfg.CatalogFile != "" {
		var err error
		data, err = os.ReadFile(s.cfg.CatalogFile)
		if err != nil {
			return nil, fmt.Errorf("read catalog file: %w", err)
		}
	}
	var entries []CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return entries, nil
}
