package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"growthcheck/cmd/samplegen/engine"
)

func main() {
	scenario := flag.String("scenario", "clean", "Scenario to generate: clean, noisy")
	out := flag.String("out", "./sample/posyandu.xlsx", "Output workbook path")
	count := flag.Int("children", 30, "Number of children to generate")
	year := flag.Int("year", time.Now().Year(), "Calendar year of the field sheet")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Children: *count,
		Year:     *year,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (Children: %d, Year: %d) to %s...\n", cfg.Scenario, cfg.Children, cfg.Year, *out)

	if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
		fmt.Printf("Failed to create output directory: %v\n", err)
		os.Exit(1)
	}
	if err := engine.Save(*out, cfg.Year, engine.Generate(cfg)); err != nil {
		fmt.Printf("Failed to save sample workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
