package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerline/statements/internal/domain"
)

// Generates deterministic seed data: two accounts with six months of charges,
// refunds, and month-end payouts, plus a raw CSV export of the first
// account's final month for exercising the importer.
func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	accounts := []domain.Account{
		{ID: "acct_hk_retail", Name: "HK Retail Store", Active: true,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "acct_online_shop", Name: "Online Shop", Active: true,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	type accountPlan struct {
		id           string
		currency     string
		monthlyCount int
		prefix       string
	}

	plans := []accountPlan{
		{id: "acct_hk_retail", currency: "hkd", monthlyCount: 40, prefix: "HKR"},
		{id: "acct_online_shop", currency: "usd", monthlyCount: 25, prefix: "OLS"},
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	months := 6

	var allTxns []domain.Transaction

	for _, plan := range plans {
		seq := 0
		for m := 0; m < months; m++ {
			monthStart := start.AddDate(0, m, 0)
			daysInMonth := int(monthStart.AddDate(0, 1, 0).Sub(monthStart).Hours() / 24)

			var monthNet int64

			for i := 0; i < plan.monthlyCount; i++ {
				seq++
				day := rng.Intn(daysInMonth)
				occurred := monthStart.AddDate(0, 0, day).Add(
					time.Duration(rng.Intn(24))*time.Hour + time.Duration(rng.Intn(60))*time.Minute,
				)

				// Charge between 5.00 and 500.00 with a ~2.9% fee.
				amount := int64(500 + rng.Intn(49500))
				fee := amount * 29 / 1000

				txn := domain.Transaction{
					ExternalID: fmt.Sprintf("ch_%s_%05d", plan.prefix, seq),
					AccountID:  plan.id,
					Amount:     amount,
					Fee:        fee,
					Currency:   plan.currency,
					Status:     domain.StatusSucceeded,
					Type:       domain.TypeCharge,
					OccurredAt: occurred,
					ImportedAt: occurred,
				}
				monthNet += amount - fee
				allTxns = append(allTxns, txn)

				// ~8% of charges get refunded a few days later, in-month.
				if rng.Float64() < 0.08 && day < daysInMonth-4 {
					seq++
					refund := domain.Transaction{
						ExternalID: fmt.Sprintf("re_%s_%05d", plan.prefix, seq),
						AccountID:  plan.id,
						Amount:     -amount,
						Fee:        0,
						Currency:   plan.currency,
						Status:     domain.StatusSucceeded,
						Type:       domain.TypeRefund,
						OccurredAt: occurred.AddDate(0, 0, 3),
						ImportedAt: occurred.AddDate(0, 0, 3),
					}
					monthNet -= amount
					allTxns = append(allTxns, refund)
				}
			}

			// Month-end payout of roughly the month's net activity.
			seq++
			payout := monthNet * int64(80+rng.Intn(15)) / 100
			if payout > 0 {
				allTxns = append(allTxns, domain.Transaction{
					ExternalID: fmt.Sprintf("po_%s_%05d", plan.prefix, seq),
					AccountID:  plan.id,
					Amount:     -payout,
					Fee:        0,
					Currency:   plan.currency,
					Status:     domain.StatusSucceeded,
					Type:       domain.TypePayout,
					OccurredAt: monthStart.AddDate(0, 1, -1).Add(18 * time.Hour),
					ImportedAt: monthStart.AddDate(0, 1, -1).Add(18 * time.Hour),
				})
			}
		}
	}

	seed := map[string]any{
		"accounts":     accounts,
		"transactions": allTxns,
	}
	writeJSONFile(filepath.Join(baseDir, "transactions.json"), seed)
	fmt.Printf("Generated %d transactions -> transactions.json\n", len(allTxns))

	generateExportCSV(allTxns, baseDir)

	fmt.Println("Test data generation complete.")
}

// generateExportCSV writes the first account's June activity as a raw
// processor-style export, using header names the importer must map.
func generateExportCSV(txns []domain.Transaction, baseDir string) {
	filePath := filepath.Join(baseDir, "export_sample.csv")
	f, err := os.Create(filePath)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{
		"transaction_id", "created", "gross_amount", "fee_amount",
		"currency_code", "state", "transaction_type", "customer_email",
	})

	count := 0
	for _, t := range txns {
		if t.AccountID != "acct_hk_retail" || t.OccurredAt.Month() != time.June {
			continue
		}
		w.Write([]string{
			t.ExternalID,
			t.OccurredAt.Format(time.RFC3339),
			formatAmount(t.Amount),
			formatAmount(t.Fee),
			t.Currency,
			string(t.Status),
			string(t.Type),
			"",
		})
		count++
	}

	fmt.Printf("Generated %d CSV rows -> export_sample.csv\n", count)
}

func formatAmount(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
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
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
