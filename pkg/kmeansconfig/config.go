// Package kmeansconfig holds tuning configuration for the kmeans engine,
// in the same grouped-struct-plus-env-overrides shape the rest of this
// module uses for configuration.
package kmeansconfig

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hamerlykmeans/vector/pkg/kmeans"
)

// Config holds every knob a clustering run needs.
type Config struct {
	K            int
	DistanceKind kmeans.DistanceKind
	Seeding      kmeans.SeedingMode
	Assignment   kmeans.AssignmentStrategy
	Criteria     kmeans.Criteria
	NThreads     int
	Verbose      bool
}

// Default returns the engine's default configuration: k-means++ seeding,
// the bound-accelerated assignment path, a generous iteration cap, and a
// single worker.
func Default() *Config {
	return &Config{
		K:            8,
		DistanceKind: kmeans.L2,
		Seeding:      kmeans.KMeansPlusPlusSeeding,
		Assignment:   kmeans.LinearBound,
		Criteria: kmeans.Criteria{
			Alpha:      1.0,
			Accuracy:   1e-4,
			Iterations: 100,
		},
		NThreads: 1,
		Verbose:  false,
	}
}

// LoadFromEnv overlays environment variables onto Default().
func LoadFromEnv() *Config {
	cfg := Default()

	if k := os.Getenv("VECTOR_KMEANS_K"); k != "" {
		if v, err := strconv.Atoi(k); err == nil {
			cfg.K = v
		}
	}
	if dk := os.Getenv("VECTOR_KMEANS_DISTANCE"); dk == "L1" {
		cfg.DistanceKind = kmeans.L1
	}
	if iters := os.Getenv("VECTOR_KMEANS_ITERATIONS"); iters != "" {
		if v, err := strconv.Atoi(iters); err == nil {
			cfg.Criteria.Iterations = v
		}
	}
	if acc := os.Getenv("VECTOR_KMEANS_ACCURACY"); acc != "" {
		if v, err := strconv.ParseFloat(acc, 32); err == nil {
			cfg.Criteria.Accuracy = float32(v)
		}
	}
	if alpha := os.Getenv("VECTOR_KMEANS_ALPHA"); alpha != "" {
		if v, err := strconv.ParseFloat(alpha, 32); err == nil {
			cfg.Criteria.Alpha = float32(v)
		}
	}
	if threads := os.Getenv("VECTOR_KMEANS_THREADS"); threads != "" {
		if v, err := strconv.Atoi(threads); err == nil {
			cfg.NThreads = v
		}
	}
	if verbose := os.Getenv("VECTOR_KMEANS_VERBOSE"); verbose == "true" {
		cfg.Verbose = true
	}

	return cfg
}

// Validate enforces the fatal preconditions of §6/§7 before the engine is
// ever invoked, so a caller that checks its Config first fails fast with a
// descriptive message.
func (c *Config) Validate() error {
	if c.K < 1 {
		return fmt.Errorf("invalid k: %d (must be > 0)", c.K)
	}
	if c.Criteria.Iterations <= 0 {
		return fmt.Errorf("invalid iterations: %d (must be > 0)", c.Criteria.Iterations)
	}
	if c.Criteria.Accuracy < 0 {
		return fmt.Errorf("invalid accuracy: %f (must be >= 0)", c.Criteria.Accuracy)
	}
	if c.Assignment == kmeans.KDApprox && c.Criteria.Alpha < 1 {
		return fmt.Errorf("invalid alpha: %f (must be >= 1 for approximate kd-tree assignment)", c.Criteria.Alpha)
	}
	if c.NThreads < 1 {
		return fmt.Errorf("invalid n_threads: %d (must be > 0)", c.NThreads)
	}
	return nil
}

// Options builds a kmeans.Options from this configuration.
func (c *Config) Options() kmeans.Options {
	return kmeans.Options{
		K:            c.K,
		DistanceKind: c.DistanceKind,
		Seeding:      c.Seeding,
		Assignment:   c.Assignment,
		Criteria:     c.Criteria,
		NThreads:     c.NThreads,
		Verbose:      c.Verbose,
	}
}
