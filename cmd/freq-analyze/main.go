package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hydrostats/hydrofreq/internal/frequency"
)

func main() {
	// Command line flags
	var (
		dbHost        = flag.String("db-host", "localhost", "Database host")
		dbPort        = flag.Int("db-port", 5432, "Database port")
		dbUser        = flag.String("db-user", "postgres", "Database user")
		dbPass        = flag.String("db-pass", "", "Database password")
		dbName        = flag.String("db-name", "hydrofreq", "Database name")
		station       = flag.String("station", "", "Station code to analyze")
		aggregation   = flag.String("aggregation", "max", "Aggregation function: min, max, mean, or sum")
		distributions = flag.String("distributions", "all", "Comma-separated distribution families, or 'all'")
		returnPeriods = flag.String("return-periods", "", "Comma-separated return periods in years (default standard set)")
		csvOutput     = flag.String("csv", "", "Optional CSV output file path for the frequency curve")
	)
	flag.Parse()

	if *station == "" {
		fmt.Fprintf(os.Stderr, "Error: -station is required\n")
		os.Exit(1)
	}

	agg := frequency.AggregationFunc(*aggregation)

	// Connect to database
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		*dbHost, *dbPort, *dbUser, *dbPass, *dbName)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// Test connection
	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "Error pinging database: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Hydrological Frequency Analysis\n")
	fmt.Printf("===============================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Station: %s\n", *station)
	fmt.Printf("  Aggregation: %s\n", agg)
	fmt.Printf("  Distributions: %s\n\n", *distributions)

	samples := fetchSamples(db, *station)
	if len(samples) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no samples found for station %s\n", *station)
		os.Exit(1)
	}

	fmt.Printf("Collected %d observation(s)\n\n", len(samples))

	series, err := frequency.Aggregate(samples, agg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error aggregating samples: %v\n", err)
		os.Exit(1)
	}

	cfg := frequency.Config{}
	if *distributions != "" && *distributions != "all" {
		cfg.Families = strings.Split(*distributions, ",")
	}
	if *returnPeriods != "" {
		cfg.ReturnPeriods, err = parseFloats(*returnPeriods)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing return periods: %v\n", err)
			os.Exit(1)
		}
	}

	analyzer := frequency.NewAnalyzer(zap.NewNop().Sugar())
	result, err := analyzer.Analyze(context.Background(), series, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running analysis: %v\n", err)
		os.Exit(1)
	}

	displayQuality(result)
	displayRanking(result)
	displayReturnPeriods(result)

	// Optionally export to CSV
	if *csvOutput != "" {
		if err := exportCSV(*csvOutput, result); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		} else {
			fmt.Printf("\nFrequency curve exported to: %s\n", *csvOutput)
		}
	}
}

func fetchSamples(db *sql.DB, stationCode string) []frequency.Sample {
	query := `
		SELECT s.observed_at, s.value
		FROM samples s
		INNER JOIN stations st ON st.id = s.station_id
		WHERE st.code = $1
		ORDER BY s.observed_at
	`

	rows, err := db.Query(query, stationCode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying samples: %v\n", err)
		os.Exit(1)
	}
	defer rows.Close()

	var samples []frequency.Sample
	for rows.Next() {
		var s frequency.Sample
		if err := rows.Scan(&s.Timestamp, &s.Value); err != nil {
			fmt.Fprintf(os.Stderr, "Error scanning row: %v\n", err)
			continue
		}
		s.SeriesID = stationCode
		samples = append(samples, s)
	}

	return samples
}

func parseFloats(csvList string) ([]float64, error) {
	parts := strings.Split(csvList, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func displayQuality(result *frequency.AnalysisResult) {
	fmt.Printf("Record Quality\n")
	fmt.Printf("==============\n\n")
	fmt.Printf("  Aggregated periods: %d\n", result.Quality.SampleCount)
	fmt.Printf("  Grade: %s\n", result.Quality.Grade)
	fmt.Printf("  Uncertainty: %s\n", result.Quality.UncertaintyLevel)
	for _, w := range result.Quality.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	fmt.Println()
}

func displayRanking(result *frequency.AnalysisResult) {
	fmt.Printf("Distribution Ranking\n")
	fmt.Printf("====================\n\n")

	fmt.Printf("%-25s | %6s | %10s | %10s | %8s | %8s\n",
		"Family", "Rank", "AIC", "LogL", "KS p", "Chi2 p")
	fmt.Printf("--------------------------+--------+------------+------------+----------+----------\n")

	for _, fit := range result.Fits {
		if !fit.FitSucceeded {
			fmt.Printf("%-25s | %6s | %10s | %10s | %8s | %8s  (failed: %s)\n",
				fit.DisplayName, "-", "-", "-", "-", "-", fit.FailureReason)
			continue
		}
		marker := ""
		if fit.IsBestFit {
			marker = " <- BEST"
		}
		chiP := "n/a"
		if fit.ChiSquareAvailable {
			chiP = fmt.Sprintf("%.4f", fit.PValue)
		}
		fmt.Printf("%-25s | %6d | %10.2f | %10.2f | %8.4f | %8s%s\n",
			fit.DisplayName, fit.Rank, fit.AIC, fit.LogLikelihood, fit.KSPValue, chiP, marker)
	}
	fmt.Println()
}

func displayReturnPeriods(result *frequency.AnalysisResult) {
	if result.BestFitFamily == "" {
		fmt.Printf("No distribution fit succeeded; return-period quantiles are unavailable.\n")
		return
	}

	curves, ok := result.Curves[result.BestFitFamily]
	if !ok {
		return
	}

	fmt.Printf("Return Period Quantiles (%s)\n", result.BestFitFamily)
	fmt.Printf("========================\n\n")
	fmt.Printf("%10s | %12s | %12s\n", "T (years)", "P", "Quantile")
	fmt.Printf("-----------+--------------+-------------\n")
	for _, e := range curves.ReturnPeriods {
		fmt.Printf("%10.0f | %12.6f | %12.3f\n", e.ReturnPeriodYears, e.ExceedanceProbability, e.Quantile)
	}
}

func exportCSV(filename string, result *frequency.AnalysisResult) error {
	if result.BestFitFamily == "" {
		return fmt.Errorf("no successful fit to export")
	}
	curves := result.Curves[result.BestFitFamily]

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{"Type", "Probability_pct", "Quantile", "Rank", "Period"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range curves.EmpiricalPoints {
		record := []string{
			"empirical",
			fmt.Sprintf("%.4f", p.ProbabilityPercent),
			fmt.Sprintf("%.4f", p.Quantile),
			strconv.Itoa(p.Rank),
			strconv.Itoa(p.Period),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	for _, p := range curves.TheoreticalCurve {
		record := []string{
			"theoretical",
			fmt.Sprintf("%.4f", p.ProbabilityPercent),
			fmt.Sprintf("%.4f", p.Quantile),
			"",
			"",
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}
