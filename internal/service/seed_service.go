package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/colisselect-api/internal/models"
	"github.com/noah-isme/colisselect-api/internal/repository"
	"github.com/noah-isme/colisselect-api/pkg/config"
)

const demoPassword = "password123"

var seedLocations = []models.Location{
	{Name: "Paris", Slug: "paris", Country: "France"},
	{Name: "Lyon", Slug: "lyon", Country: "France"},
	{Name: "Marseille", Slug: "marseille", Country: "France"},
	{Name: "Toulouse", Slug: "toulouse", Country: "France"},
	{Name: "Nice", Slug: "nice", Country: "France"},
	{Name: "Nantes", Slug: "nantes", Country: "France"},
	{Name: "Strasbourg", Slug: "strasbourg", Country: "France"},
	{Name: "Montpellier", Slug: "montpellier", Country: "France"},
	{Name: "Bordeaux", Slug: "bordeaux", Country: "France"},
	{Name: "Lille", Slug: "lille", Country: "France"},
}

var seedZones = []models.Zone{
	{Name: "France North", Slug: "france-north", Locations: "Paris, Lille, Strasbourg", Description: "Northern regions of France"},
	{Name: "France South", Slug: "france-south", Locations: "Marseille, Nice, Toulouse, Montpellier", Description: "Southern regions of France"},
	{Name: "France West", Slug: "france-west", Locations: "Nantes, Bordeaux, Rennes", Description: "Western regions of France"},
	{Name: "France Central", Slug: "france-central", Locations: "Lyon, Clermont-Ferrand", Description: "Central regions of France"},
}

var seedShippingRates = []models.ShippingRate{
	{Name: "Standard Shipping", Type: models.RateTypeWeight, MinWeight: 0, MaxWeight: 5, Rate: 12.5, Insurance: 2.0, Description: "Standard shipping for small packages"},
	{Name: "Express Air", Type: models.RateTypeWeight, MinWeight: 0, MaxWeight: 10, Rate: 25.0, Insurance: 5.0, Description: "Fast air shipping for urgent deliveries"},
	{Name: "Sea Shipping", Type: models.RateTypeWeight, MinWeight: 5, MaxWeight: 100, Rate: 8.75, Insurance: 1.5, Description: "Economic sea shipping for heavy items"},
	{Name: "Door to Door", Type: models.RateTypeFlat, MinWeight: 0, MaxWeight: 20, Rate: 35.0, Insurance: 7.5, Description: "Premium door to door delivery service"},
}

var seedPickupRates = []models.PickupRate{
	{Zone: "France North", MinWeight: 0, MaxWeight: 5, Rate: 8.5, Description: "Standard pickup for small packages in Northern France"},
	{Zone: "France South", MinWeight: 0, MaxWeight: 5, Rate: 9.5, Description: "Standard pickup for small packages in Southern France"},
	{Zone: "France North", MinWeight: 5, MaxWeight: 20, Rate: 15.75, Description: "Medium package pickup in Northern France"},
	{Zone: "France South", MinWeight: 5, MaxWeight: 20, Rate: 17.25, Description: "Medium package pickup in Southern France"},
	{Zone: "France West", MinWeight: 0, MaxWeight: 10, Rate: 12.0, Description: "Standard pickup in Western France"},
}

var seedUsers = []models.User{
	{Name: "Jean Dupont", Email: "jean.dupont@colisselect.com", Role: models.RoleAdmin, Branch: "Paris HQ", Status: models.UserStatusActive},
	{Name: "Marie Laurent", Email: "marie.laurent@colisselect.com", Role: models.RoleManager, Branch: "Lyon Branch", Status: models.UserStatusActive},
	{Name: "Pierre Martin", Email: "pierre.martin@colisselect.com", Role: models.RoleAgent, Branch: "Marseille Branch", Status: models.UserStatusActive},
	{Name: "Sophie Bernard", Email: "sophie.bernard@colisselect.com", Role: models.RoleAgent, Branch: "Paris HQ", Status: models.UserStatusInactive},
	{Name: "Thomas Petit", Email: "thomas.petit@colisselect.com", Role: models.RoleManager, Branch: "Toulouse Branch", Status: models.UserStatusActive},
}

// Seeder loads reference data and accounts on startup through the repository ports.
type Seeder struct {
	repos  *repository.Repositories
	cfg    config.SeedConfig
	logger *zap.Logger
}

// NewSeeder constructs a Seeder.
func NewSeeder(repos *repository.Repositories, cfg config.SeedConfig, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{repos: repos, cfg: cfg, logger: logger}
}

// Run seeds each empty reference table, the demo staff and the configured admin. It is safe to call on every start.
func (s *Seeder) Run(ctx context.Context) error {
	if s.cfg.ReferenceData {
		if err := s.seedReference(ctx); err != nil {
			return err
		}
	}
	if s.cfg.DemoUsers {
		for _, u := range seedUsers {
			if err := s.ensureUser(ctx, u, demoPassword); err != nil {
				return err
			}
		}
	}
	if email := strings.TrimSpace(s.cfg.AdminEmail); email != "" && s.cfg.AdminPassword != "" {
		admin := models.User{Name: "Administrator", Email: email, Role: models.RoleAdmin, Branch: "Paris HQ", Status: models.UserStatusActive}
		if err := s.ensureUser(ctx, admin, s.cfg.AdminPassword); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedReference(ctx context.Context) error {
	steps := []struct {
		name  string
		count func(context.Context) (int, error)
		fill  func(context.Context) error
	}{
		{"locations", s.repos.Locations.Count, func(ctx context.Context) error {
			for _, l := range seedLocations {
				l := l
				if err := s.repos.Locations.Create(ctx, &l); err != nil {
					return err
				}
			}
			return nil
		}},
		{"zones", s.repos.Zones.Count, func(ctx context.Context) error {
			for _, z := range seedZones {
				z := z
				if err := s.repos.Zones.Create(ctx, &z); err != nil {
					return err
				}
			}
			return nil
		}},
		{"shipping_rates", s.repos.ShippingRates.Count, func(ctx context.Context) error {
			for _, r := range seedShippingRates {
				r := r
				if err := s.repos.ShippingRates.Create(ctx, &r); err != nil {
					return err
				}
			}
			return nil
		}},
		{"pickup_rates", s.repos.PickupRates.Count, func(ctx context.Context) error {
			for _, r := range seedPickupRates {
				r := r
				if err := s.repos.PickupRates.Create(ctx, &r); err != nil {
					return err
				}
			}
			return nil
		}},
	}

	for _, step := range steps {
		n, err := step.count(ctx)
		if err != nil {
			return fmt.Errorf("count %s: %w", step.name, err)
		}
		if n > 0 {
			continue
		}
		if err := step.fill(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
		s.logger.Info("seeded reference table", zap.String("table", step.name))
	}
	return nil
}

func (s *Seeder) ensureUser(ctx context.Context, user models.User, password string) error {
	_, err := s.repos.Users.FindByEmail(ctx, user.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("find seed user %s: %w", user.Email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}
	user.PasswordHash = string(hash)
	user.Email = strings.ToLower(user.Email)
	user.CreatedAt = time.Now().UTC()
	if err := s.repos.Users.Create(ctx, &user); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		return fmt.Errorf("create seed user %s: %w", user.Email, err)
	}
	s.logger.Info("seeded user", zap.String("email", user.Email), zap.String("role", string(user.Role)))
	return nil
}
