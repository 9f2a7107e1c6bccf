package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"vacation-rental-backend/internal/config"
	"vacation-rental-backend/internal/domain"
	"vacation-rental-backend/internal/logger"
	"vacation-rental-backend/internal/repository"
	"vacation-rental-backend/internal/repository/postgres"
	"vacation-rental-backend/internal/service"
)

type seedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type seedApartment struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
}

type SeedData struct {
	Users      []seedUser      `yaml:"users"`
	Apartments []seedApartment `yaml:"apartments"`
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	seedPath := flag.String("data", "config/seed.yaml", "Path to seed data file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	data, err := readSeedFile(*seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := postgres.NewStore(db)
	ctx := context.Background()

	if err := seedUsers(ctx, store.UserRepository, data.Users); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	if err := seedApartments(ctx, store.ApartmentRepository, data.Apartments); err != nil {
		log.Fatalf("Failed to seed apartments: %v", err)
	}

	log.Println("Seed data successfully populated")
}

func readSeedFile(filename string) (*SeedData, error) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// seedUsers creates missing users; existing usernames are left untouched.
func seedUsers(ctx context.Context, users repository.UserRepository, in []seedUser) error {
	for _, u := range in {
		_, err := users.GetByUsername(ctx, u.Username)
		if err == nil {
			log.Printf("User %s already exists, skipping", u.Username)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("look up user %s: %w", u.Username, err)
		}

		hash, err := service.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		user := &domain.User{Username: u.Username, Email: u.Email, PasswordHash: hash}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user %s: %w", u.Username, err)
		}
		log.Printf("Created user %s (id %d)", user.Username, user.ID)
	}
	return nil
}

// seedApartments creates apartments whose name is not present yet.
func seedApartments(ctx context.Context, apartments repository.ApartmentRepository, in []seedApartment) error {
	existing, err := apartments.List(ctx)
	if err != nil {
		return fmt.Errorf("list apartments: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, a := range existing {
		names[a.Name] = true
	}

	for _, a := range in {
		if names[a.Name] {
			log.Printf("Apartment %s already exists, skipping", a.Name)
			continue
		}
		apt := &domain.Apartment{Name: a.Name, Type: domain.ApartmentType(a.Type), Address: a.Address}
		if !apt.Type.Valid() {
			return fmt.Errorf("apartment %s: unknown type %q", a.Name, a.Type)
		}
		if err := apartments.Create(ctx, apt); err != nil {
			return fmt.Errorf("create apartment %s: %w", a.Name, err)
		}
		log.Printf("Created apartment %s (id %d)", apt.Name, apt.ID)
	}
	return nil
}
