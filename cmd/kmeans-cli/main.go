package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/hamerlykmeans/vector/pkg/kmeans"
	"github.com/hamerlykmeans/vector/pkg/observability"
)

const version = "1.0.0"

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "cluster":
		handleCluster(os.Args[2:])
	case "seed":
		handleSeed(os.Args[2:])
	case "version":
		fmt.Printf("kmeans-cli version %s\n", version)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showUsage()
		os.Exit(1)
	}
}

type pointsFile struct {
	Points [][]float32 `json:"points"`
}

func handleCluster(args []string) {
	fs := flag.NewFlagSet("cluster", flag.ExitOnError)
	var (
		input      = fs.String("input", "", "path to a JSON file of the form {\"points\": [[...], ...]} (required)")
		k          = fs.Int("k", 0, "number of clusters (required)")
		distance   = fs.String("distance", "L2", "distance kind: L2 or L1")
		assignment = fs.String("assignment", "linear", "assignment strategy: linear, kd_exact, kd_approx")
		seeding    = fs.String("seeding", "kmeans_plus_plus", "seeding mode: kmeans_plus_plus or random")
		alpha      = fs.Float64("alpha", 1.0, "approximation slack for kd_approx")
		accuracy   = fs.Float64("accuracy", 1e-4, "convergence threshold")
		iterations = fs.Int("iterations", 100, "maximum outer iterations")
		threads    = fs.Int("threads", 1, "number of worker goroutines")
		verbose    = fs.Bool("verbose", false, "print per-iteration diagnostics to stderr")
	)
	fs.Parse(args)

	if *input == "" || *k <= 0 {
		fmt.Println("Error: -input and -k are required")
		fs.Usage()
		os.Exit(1)
	}

	points, err := loadPoints(*input)
	if err != nil {
		fmt.Printf("Error loading input: %v\n", err)
		os.Exit(1)
	}

	dataset, err := kmeans.NewDataset(points)
	if err != nil {
		fmt.Printf("Error building dataset: %v\n", err)
		os.Exit(1)
	}

	opts := kmeans.Options{
		K:            *k,
		DistanceKind: parseDistance(*distance),
		Seeding:      parseSeeding(*seeding),
		Assignment:   parseAssignment(*assignment),
		Criteria: kmeans.Criteria{
			Alpha:      float32(*alpha),
			Accuracy:   float32(*accuracy),
			Iterations: *iterations,
		},
		NThreads: *threads,
		Verbose:  *verbose,
	}
	if *verbose {
		opts.Logger = observability.NewLogger(observability.DEBUG, os.Stderr)
	}

	result, err := kmeans.SimpleKMeans(dataset, opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	out := struct {
		Centers [][]float32     `json:"centers"`
		Labels  []int           `json:"labels"`
		Stats   kmeans.RunStats `json:"stats"`
	}{
		Centers: result.Centers,
		Labels:  result.Labels,
		Stats:   result.Stats,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Printf("Error encoding output: %v\n", err)
		os.Exit(1)
	}
}

func handleSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	var (
		input    = fs.String("input", "", "path to a JSON file of the form {\"points\": [[...], ...]} (required)")
		k        = fs.Int("k", 0, "number of seeds (required)")
		distance = fs.String("distance", "L2", "distance kind: L2 or L1")
		seeding  = fs.String("seeding", "kmeans_plus_plus", "seeding mode: kmeans_plus_plus or random")
	)
	fs.Parse(args)

	if *input == "" || *k <= 0 {
		fmt.Println("Error: -input and -k are required")
		fs.Usage()
		os.Exit(1)
	}

	points, err := loadPoints(*input)
	if err != nil {
		fmt.Printf("Error loading input: %v\n", err)
		os.Exit(1)
	}

	dataset, err := kmeans.NewDataset(points)
	if err != nil {
		fmt.Printf("Error building dataset: %v\n", err)
		os.Exit(1)
	}

	var seeds [][]float32
	if *seeding == "random" {
		seeds, err = kmeans.RandomSeeds(dataset, *k, nil)
	} else {
		seeds, err = kmeans.KMeansPlusPlusSeeds(dataset, *k, parseDistance(*distance), nil)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(struct {
		Seeds [][]float32 `json:"seeds"`
	}{Seeds: seeds})
}

func loadPoints(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pf pointsFile
	if err := json.NewDecoder(f).Decode(&pf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pf.Points, nil
}

func parseDistance(s string) kmeans.DistanceKind {
	if s == "L1" {
		return kmeans.L1
	}
	return kmeans.L2
}

func parseSeeding(s string) kmeans.SeedingMode {
	if s == "random" {
		return kmeans.RandomSeeding
	}
	return kmeans.KMeansPlusPlusSeeding
}

func parseAssignment(s string) kmeans.AssignmentStrategy {
	switch s {
	case "kd_exact":
		return kmeans.KDExact
	case "kd_approx":
		return kmeans.KDApprox
	default:
		return kmeans.LinearBound
	}
}

func showUsage() {
	fmt.Println(`kmeans-cli - accelerated k-means clustering

Usage:
  kmeans-cli <command> [flags]

Commands:
  cluster   Run k-means clustering over a JSON point set
  seed      Print the initial seeds chosen for a JSON point set
  version   Print the CLI version
  help      Show this message

Run 'kmeans-cli <command> -h' for flag details.`)
}
