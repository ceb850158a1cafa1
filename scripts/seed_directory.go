package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"meetmed/internal/auth"
	"meetmed/internal/config"
	"meetmed/internal/database"
	"meetmed/internal/models"
	"meetmed/internal/repository"
	"meetmed/internal/service"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type seedDay struct {
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
}

type seedDoctor struct {
	Name            string    `yaml:"name"`
	Email           string    `yaml:"email"`
	Password        string    `yaml:"password"`
	Phone           string    `yaml:"phone"`
	Specialty       string    `yaml:"specialty"`
	LicenseNumber   string    `yaml:"license_number"`
	Address         string    `yaml:"address"`
	City            string    `yaml:"city"`
	Bio             string    `yaml:"bio"`
	ConsultationFee float64   `yaml:"consultation_fee"`
	YearsExperience int       `yaml:"years_experience"`
	WorkingHours    []seedDay `yaml:"working_hours"`
}

type seedClinic struct {
	Name     string   `yaml:"name"`
	Email    string   `yaml:"email"`
	Password string   `yaml:"password"`
	Phone    string   `yaml:"phone"`
	Address  string   `yaml:"address"`
	City     string   `yaml:"city"`
	Type     string   `yaml:"type"`
	Services []string `yaml:"services"`
	Doctors  []string `yaml:"doctors"` // doctor emails
}

type seedFile struct {
	Doctors []seedDoctor `yaml:"doctors"`
	Clinics []seedClinic `yaml:"clinics"`
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath   = flag.String("seed", "configs/seed.yaml", "path to seed.yaml")
		configPath = flag.String("config", "configs/config.yaml", "path to config.yaml")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rules, err := cfg.Booking.Rules()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed seedFile
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if len(seed.Doctors) == 0 && len(seed.Clinics) == 0 {
		return fmt.Errorf("nothing to seed")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger,
		database.WithBusyTimeout(cfg.Database.BusyTimeoutMS),
		database.WithMigrationsTable(cfg.Database.MigrationsTable),
	)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	accounts := service.NewAccountService(db, repository.NewMemorySessionStore(),
		auth.NewTokenManager(cfg.API.Auth, nil), auth.NewHasher(bcrypt.DefaultCost),
		service.LoginLimits{}, nil, &logger)
	doctors := service.NewDoctorService(db, rules, 0, nil, &logger)
	clinics := service.NewClinicService(db, &logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	created, skipped := 0, 0
	doctorIDs := make(map[string]int64, len(seed.Doctors))
	for _, d := range seed.Doctors {
		hours, err := workingHours(d.WorkingHours)
		if err != nil {
			return fmt.Errorf("doctor %s: %w", d.Email, err)
		}
		result, err := accounts.RegisterDoctor(ctx, &models.Doctor{
			Name:            d.Name,
			Email:           d.Email,
			Phone:           d.Phone,
			Specialty:       d.Specialty,
			LicenseNumber:   d.LicenseNumber,
			Address:         d.Address,
			City:            d.City,
			Bio:             d.Bio,
			ConsultationFee: d.ConsultationFee,
			YearsExperience: d.YearsExperience,
		}, d.Password)
		if errors.Is(err, service.ErrEmailTaken) {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("create doctor %s: %w", d.Email, err)
		}
		doctorIDs[d.Email] = result.Account.ID
		if len(hours) > 0 {
			if _, err = doctors.SetWorkingHours(ctx, result.Account.ID, hours); err != nil {
				return fmt.Errorf("working hours %s: %w", d.Email, err)
			}
		}
		created++
	}

	for _, c := range seed.Clinics {
		result, err := accounts.RegisterClinic(ctx, &models.Clinic{
			Name:     c.Name,
			Email:    c.Email,
			Phone:    c.Phone,
			Address:  c.Address,
			City:     c.City,
			Type:     c.Type,
			Services: c.Services,
		}, c.Password)
		if errors.Is(err, service.ErrEmailTaken) {
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("create clinic %s: %w", c.Email, err)
		}
		created++
		for _, email := range c.Doctors {
			id, ok := doctorIDs[email]
			if !ok {
				logger.Warn().Str("clinic", c.Email).Str("doctor", email).Msg("doctor not created in this run, skipping attach")
				continue
			}
			if err = clinics.Attach(ctx, result.Account.ID, id, ""); err != nil {
				return fmt.Errorf("attach %s to %s: %w", email, c.Email, err)
			}
		}
	}

	fmt.Printf("done: created=%d skipped=%d\n", created, skipped)
	return nil
}

func workingHours(days []seedDay) (models.WorkingHours, error) {
	hours := make(models.WorkingHours, 0, len(days))
	for _, d := range days {
		wd, ok := weekdays[d.Weekday]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", d.Weekday)
		}
		hours = append(hours, models.WorkingDay{Weekday: wd, Start: d.Start, End: d.End})
	}
	return hours, nil
}
