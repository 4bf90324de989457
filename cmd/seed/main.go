package main

import (
	"fmt"
	"log"
	"os"

	"github.com/wastebill/wastebill-backend/config"
	"github.com/wastebill/wastebill-backend/internal/app/repository"
	"github.com/wastebill/wastebill-backend/internal/db"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Connect to the database
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Migrate also installs the default price table and the bootstrap admin
	if err := db.Migrate(&cfg.Bootstrap); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("Schema, price table and bootstrap admin are in place.")

	if len(os.Args) < 2 {
		fmt.Println("No resident file given. Usage: go run cmd/seed/main.go [residents.xlsx]")
		return
	}
	filePath := os.Args[1]

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	residents, err := readResidentsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	addresses := 0
	for _, r := range residents {
		addresses += len(r.Addresses)
	}
	fmt.Printf("Residents to import: %d (addresses: %d)\n", len(residents), addresses)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	importer := &residentImporter{
		db:          db.GetDB(),
		userRepo:    repository.NewUserRepository(db.GetDB()),
		addressRepo: repository.NewAddressRepository(db.GetDB()),
	}
	created, skipped, err := importer.Import(residents)
	if err != nil {
		log.Fatal("Import failed:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("  Residents created: %d\n", created)
	fmt.Printf("  Residents already present: %d\n", skipped)
}
