package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/xtrntr/ihome/internal/auth"
	"github.com/xtrntr/ihome/internal/booking"
	"github.com/xtrntr/ihome/internal/config"
	"github.com/xtrntr/ihome/internal/db"
	"github.com/xtrntr/ihome/internal/listing"
	"github.com/xtrntr/ihome/internal/logging"
	"github.com/xtrntr/ihome/internal/storage"
)

var areas = []string{"Dongcheng", "Xicheng", "Chaoyang", "Haidian", "Fengtai", "Shijingshan", "Tongzhou", "Changping"}

var facilities = []string{"Wifi", "Hot water", "Air conditioning", "Heating", "Kitchen", "Washing machine", "Parking", "Elevator"}

const demoPassword = "ihome123"

// Seed the database with areas, facilities and a few demo listings
func main() {
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	// Connect to database
	database, err := db.NewDB(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(ctx)

	areaIDs := make([]int, 0, len(areas))
	for _, name := range areas {
		a, err := database.CreateArea(ctx, name)
		if err != nil {
			log.Fatalf("Failed to create area %s: %v", name, err)
		}
		areaIDs = append(areaIDs, a.ID)
	}
	facilityIDs := make([]int, 0, len(facilities))
	for _, name := range facilities {
		f, err := database.CreateFacility(ctx, name)
		if err != nil {
			log.Fatalf("Failed to create facility %s: %v", name, err)
		}
		facilityIDs = append(facilityIDs, f.ID)
	}
	fmt.Printf("Seeded %d areas and %d facilities\n", len(areaIDs), len(facilityIDs))

	images, err := storage.NewLocalStore(cfg.Storage.Dir, cfg.Storage.URLPrefix, cfg.Storage.MaxBytes)
	if err != nil {
		log.Fatalf("Failed to prepare image storage: %v", err)
	}
	authService := auth.NewAuthService(database, images, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// An existing landlord means a previous run already seeded listings
	landlord, err := authService.Register(ctx, "13800000001", demoPassword)
	if errors.Is(err, booking.ErrConflict) {
		fmt.Println("Demo users already exist. No need to seed listings.")
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Failed to create landlord: %v", err)
	}
	if _, err := authService.Register(ctx, "13800000002", demoPassword); err != nil {
		log.Fatalf("Failed to create guest: %v", err)
	}

	listingService := listing.NewService(database, nil, images, logger)
	for i := 0; i < 6; i++ {
		nh := listing.NewHouse{
			Title:      fmt.Sprintf("Demo house %d", i+1),
			Price:      (i + 2) * 10000,
			AreaID:     areaIDs[i%len(areaIDs)],
			Address:    fmt.Sprintf("%d Demo Street", i+1),
			RoomCount:  1 + i%3,
			Acreage:    40 + 15*i,
			Unit:       "flat",
			Capacity:   2 + i%3,
			Beds:       "double",
			Deposit:    50000,
			MinDays:    1,
			MaxDays:    30,
			Facilities: facilityIDs[:2+i],
		}
		if _, err := listingService.CreateHouse(ctx, landlord.ID, nh); err != nil {
			log.Fatalf("Failed to create house: %v", err)
		}
	}

	fmt.Printf("Seeded demo users (password %q) and 6 houses\n", demoPassword)
}
