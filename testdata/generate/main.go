// Command generate produces the deterministic candidate seed file used when
// the server starts against an empty database.
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/akashlil/Manpower-Recruitment-Management-System/internal/domain"
)

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	firstNames := []string{
		"Rafiqul", "Abdul", "Shahida", "Jahangir", "Nasrin",
		"Kamrul", "Farida", "Mizanur", "Rokeya", "Habibur",
	}
	lastNames := []string{
		"Islam", "Karim", "Begum", "Alam", "Akter",
		"Hasan", "Rahman", "Hossain", "Khatun", "Uddin",
	}
	statuses := []domain.CandidateStatus{
		domain.CandidatePending, domain.CandidateProcessing, domain.CandidateCompleted,
	}

	const count = 25
	candidates := make([]domain.Candidate, 0, count)

	for i := 0; i < count; i++ {
		// Package amounts between 250,000 and 600,000 BDT, in 5,000 steps.
		pkg := decimal.NewFromInt(int64(250000 + rng.Intn(71)*5000))

		c := domain.Candidate{
			AgentID:        int64(3 + rng.Intn(3)),
			Name:           fmt.Sprintf("%s %s", firstNames[rng.Intn(len(firstNames))], lastNames[rng.Intn(len(lastNames))]),
			PassportNumber: fmt.Sprintf("BD%07d", 912345+i),
			Phone:          fmt.Sprintf("017%08d", 11000001+i),
			Email:          fmt.Sprintf("candidate%02d@example.com", i+1),
			PackageAmount:  pkg,
			TotalPaid:      decimal.Zero,
			DueAmount:      pkg,
			Status:         statuses[rng.Intn(len(statuses))],
		}
		candidates = append(candidates, c)
	}

	writeJSONFile(filepath.Join(baseDir, "candidates.json"), candidates)
	fmt.Printf("Generated %d candidates -> candidates.json\n", len(candidates))
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	// Look for the testdata directory relative to common locations.
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	// Fallback.
	return "testdata"
}
