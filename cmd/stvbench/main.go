// Copyright (C) 2025, The auspol/stv Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package main provides the stvbench CLI tool for benchmarking the count
// engine and the margin outcome-change search against synthetic ballot
// data.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/auspol/stv/ballot"
	"github.com/auspol/stv/count"
	"github.com/auspol/stv/margin"
	"github.com/auspol/stv/metrics"
	"github.com/auspol/stv/rules"
	"github.com/auspol/stv/tie"
)

func main() {
	var (
		mode       = flag.String("mode", "count", "Benchmark mode (count, margin, all)")
		profile    = flag.String("profile", "WA2008", "Rules profile to benchmark (see rules.ByName)")
		candidates = flag.Int("candidates", 8, "Number of candidates in the synthetic election")
		vacancies  = flag.Int("vacancies", 3, "Number of vacancies")
		ballots    = flag.Int("ballots", 20000, "Number of synthetic ballot papers")
		iterations = flag.Int("iterations", 10, "Number of times to repeat the benchmark")
		parallel   = flag.Int("parallel", 1, "Number of parallel margin-search workers")
		verbose    = flag.Bool("verbose", false, "Verbose output")
		help       = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printHelp()
		os.Exit(0)
	}

	rulesProfile, ok := rules.ByName(*profile)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown rules profile: %s\n", *profile)
		os.Exit(1)
	}

	data := syntheticElection(*candidates, *vacancies, *ballots)
	fmt.Printf("Benchmarking %s mode with %s rules profile\n", *mode, *profile)
	fmt.Printf("Candidates: %d, Vacancies: %d, Ballots: %d, Iterations: %d, Parallel: %d\n\n",
		*candidates, *vacancies, *ballots, *iterations, *parallel)

	switch *mode {
	case "count":
		benchmarkCount(data, rulesProfile, *iterations, *verbose)
	case "margin":
		benchmarkMargin(data, rulesProfile, *iterations, *parallel, *verbose)
	case "all":
		benchmarkCount(data, rulesProfile, *iterations, *verbose)
		fmt.Println()
		benchmarkMargin(data, rulesProfile, *iterations, *parallel, *verbose)
	default:
		fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", *mode)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("STV Count/Margin Benchmark Tool")
	fmt.Println("\nUsage: stvbench [options]")
	fmt.Println("\nOptions:")
	fmt.Println("  -mode string        Benchmark mode (default: count)")
	fmt.Println("                      Options: count, margin, all")
	fmt.Println("  -profile string     Rules profile (default: WA2008)")
	fmt.Println("  -candidates int     Number of candidates (default: 8)")
	fmt.Println("  -vacancies int      Number of vacancies (default: 3)")
	fmt.Println("  -ballots int        Number of synthetic ballot papers (default: 20000)")
	fmt.Println("  -iterations int     Number of repetitions (default: 10)")
	fmt.Println("  -parallel int       Margin-search worker count (default: 1)")
	fmt.Println("  -verbose            Verbose output")
	fmt.Println("  -help               Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  stvbench                                   # Benchmark counting with defaults")
	fmt.Println("  stvbench -mode margin -parallel 4           # Benchmark the outcome-change search")
	fmt.Println("  stvbench -profile FederalPost2021 -ballots 100000")
}

// syntheticElection generates a random but validly-formed BTL-only
// election: each ballot ranks every candidate in a random order. This is
// a worst case for the count engine (no informal or truncated ballots),
// useful for stressing the exclusion path.
func syntheticElection(numCandidates, vacancies, numBallots int) *ballot.ElectionData {
	data := &ballot.ElectionData{
		Vacancies: vacancies,
	}
	for i := 0; i < numCandidates; i++ {
		data.Candidates = append(data.Candidates, ballot.Candidate{Index: i, Name: fmt.Sprintf("C%d", i)})
	}

	prefs := make([]int, numCandidates)
	for i := range prefs {
		prefs[i] = i
	}
	for i := 0; i < numBallots; i++ {
		shuffled := append([]int{}, prefs...)
		rand.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		data.BTL = append(data.BTL, ballot.BTLVote{Candidates: shuffled, N: 1})
	}
	return data
}

func benchmarkCount(data *ballot.ElectionData, profile rules.Profile, iterations int, verbose bool) {
	fmt.Println("=== Count Engine Benchmark ===")
	start := time.Now()
	var counts int
	for i := 0; i < iterations; i++ {
		tr, err := count.Run(data, profile, tie.DeterministicOracle{})
		if err != nil {
			fmt.Printf("Count %d failed: %v\n", i, err)
			continue
		}
		counts += len(tr.Counts)
		if verbose {
			fmt.Printf("Run %d: %d counts, elected %v\n", i, len(tr.Counts), tr.Elected)
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("Results:\n")
	fmt.Printf("  Runs:       %d\n", iterations)
	fmt.Printf("  Avg counts: %.1f\n", float64(counts)/float64(iterations))
	fmt.Printf("  Time:       %s\n", elapsed)
	fmt.Printf("  Per run:    %s\n", elapsed/time.Duration(iterations))
}

func benchmarkMargin(data *ballot.ElectionData, profile rules.Profile, iterations, parallel int, verbose bool) {
	fmt.Println("=== Margin Search Benchmark ===")
	reg := metrics.NewRegistry()
	trialsRun := reg.NewCounter("stvbench_margin_trials_run")
	opts := margin.SearchOptions{
		ChooseVotes: margin.Options{AllowATL: true, AllowFirstPreference: true},
		Workers:     parallel,
		NewOracle:   func() tie.Oracle { return tie.DeterministicOracle{} },
		TrialsRun:   trialsRun,
	}

	start := time.Now()
	var totalFound int
	for i := 0; i < iterations; i++ {
		changes, err := margin.FindOutcomeChanges(data, profile, opts)
		if err != nil {
			fmt.Printf("Search %d failed: %v\n", i, err)
			continue
		}
		totalFound += len(changes.Found)
		if verbose {
			fmt.Printf("Run %d: %d outcome changes found\n", i, len(changes.Found))
		}
	}
	elapsed := time.Since(start)
	fmt.Printf("Results:\n")
	fmt.Printf("  Runs:        %d\n", iterations)
	fmt.Printf("  Avg changes: %.1f\n", float64(totalFound)/float64(iterations))
	fmt.Printf("  Time:        %s\n", elapsed)
	fmt.Printf("  Per run:     %s\n", elapsed/time.Duration(iterations))
	fmt.Printf("  Trials run:  %d\n", trialsRun.Read())
}
