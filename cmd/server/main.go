package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/api"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/config"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/gateway"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/ledger"
	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/repository"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARNING: could not load .env: %v", err)
	}
	cfg := config.Load()

	log.Printf("Initializing database at %s", cfg.DBPath)
	store, err := repository.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Create repositories.
	candidateRepo := repository.NewCandidateRepo(store)
	paymentRepo := repository.NewPaymentRepo(store)
	gatewayTxnRepo := repository.NewGatewayTxnRepo(store)

	// Create services.
	recorder := ledger.NewRecorder(store, candidateRepo, paymentRepo)
	client := gateway.NewClient(gateway.ClientConfig{
		StoreID:       cfg.Gateway.StoreID,
		StorePassword: cfg.Gateway.StorePassword,
		EndpointURL:   cfg.Gateway.EndpointURL,
		Timeout:       cfg.Gateway.Timeout,
	})
	sessions := gateway.NewSessionManager(candidateRepo, gatewayTxnRepo, client)
	reconciler := gateway.NewReconciler(store, gatewayTxnRepo, recorder)

	// Seed candidates if the DB is empty.
	count, err := candidateRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count candidates: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding candidates from testdata...")
		if err := seedCandidates(candidateRepo, cfg.SeedPath); err != nil {
			log.Printf("WARNING: Failed to seed candidates: %v", err)
		}
	} else {
		log.Printf("Database already has %d candidates, skipping seed", count)
	}

	// Create router.
	router := api.NewRouter(recorder, sessions, reconciler, cfg.AppURL, cfg.JWTSecret)

	log.Printf("Manpower Recruitment Management System — ledger service")
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("API base: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/payments")
	log.Printf("  GET    /api/v1/payments/candidate/{id}")
	log.Printf("  GET    /api/v1/payments/transaction/{tranID}")
	log.Printf("  POST   /api/v1/gateway/init")
	log.Printf("  POST   /api/v1/gateway/success")
	log.Printf("  POST   /api/v1/gateway/fail")
	log.Printf("  POST   /api/v1/gateway/cancel")
	log.Printf("  POST   /api/v1/gateway/ipn")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedCandidates(repo *repository.CandidateRepo, seedPath string) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		seedPath,
		filepath.Join(".", seedPath),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, seedPath),
			filepath.Join(dir, "..", "..", seedPath),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded candidates from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find candidate seed in any candidate path: %w", loadErr)
	}

	var rows []domain.Candidate
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("unmarshal candidates: %w", err)
	}

	inserted := 0
	for i := range rows {
		c := &rows[i]
		// Intake supplies package_amount; the ledger fields start at zero paid.
		c.TotalPaid = c.TotalPaid.Truncate(2)
		c.DueAmount = c.PackageAmount.Sub(c.TotalPaid)
		if _, err := repo.Insert(c); err != nil {
			log.Printf("WARNING: seed row %d (%s): %v", i, c.PassportNumber, err)
			continue
		}
		inserted++
	}

	log.Printf("Seeded %d candidates (out of %d in file)", inserted, len(rows))
	return nil
}
