package scann

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hamerlykmeans/vector/internal/quantization"
)

// SCANN (Scalable Nearest Neighbors) implements Google's state-of-the-art ANN algorithm
//
// SCANN achieves better recall than traditional methods through:
// 1. Learned Partitioning: Uses spherical k-means for better clustering
// 2. Anisotropic Quantization: Adapts quantization to data distribution
// 3. Two-stage Scoring: coarse partition probe, then quantized distance
//    scoring; Search runs no exact rescoring stage
//
// Key advantages over IVF-PQ:
// - Higher recall at same memory/speed
// - Better handles non-uniform data distributions
// - Optimized for maximum inner product search (MIPS)
//
// Paper: "Accelerating Large-Scale Inference with Anisotropic Vector Quantization"
// https://arxiv.org/abs/1908.10396
type SCANN struct {
	// Partitioning
	numPartitions int         // Number of partitions
	partitions    [][]float32 // Partition centroids (normalized for spherical k-means)

	// Anisotropic quantization
	aq            *AnisotropicQuantizer // Learned quantization
	invertedLists [][]SCANNEntry        // Compressed entries per partition

	// Configuration
	dim     int                         // Vector dimension
	metric  quantization.DistanceMetric // Distance metric
	config  *Config                     // SCANN configuration
	mu      sync.RWMutex
	trained bool
}

// SCANNEntry represents a compressed vector in SCANN
type SCANNEntry struct {
	ID       int                    // Vector ID
	Code     []byte                 // Anisotropic quantization code
	Norm     float32                // Vector norm (for MIPS)
	Metadata map[string]interface{} // Metadata
}

// Config holds SCANN configuration
type Config struct {
	// Partitioning
	NumPartitions int  // Number of partitions (typical: sqrt(N))
	SphericalKM   bool // Use spherical k-means (recommended)

	// Quantization
	NumSubvectors int // Number of subvectors for anisotropic quantization
	BitsPerCode   int // Bits per code

	// Search
	ReorderTopK   int  // Rescoring candidate count; Search does not read it
	UseReordering bool // Rescoring flag; Search does not read it and runs no rescoring step

	// Training
	TrainConfig *quantization.QuantizationConfig

	// Distance metric
	Metric quantization.DistanceMetric
}

// DefaultConfig returns recommended SCANN configuration
func DefaultConfig() *Config {
	return &Config{
		NumPartitions: 100,
		SphericalKM:   true,
		NumSubvectors: 16,
		BitsPerCode:   8,
		ReorderTopK:   200,
		UseReordering: true,
		TrainConfig:   quantization.DefaultConfig(),
		Metric:        quantization.CosineDistance,
	}
}

// NewSCANN creates a new SCANN index
func NewSCANN(config *Config) *SCANN {
	if config == nil {
		config = DefaultConfig()
	}
	if config.TrainConfig == nil {
		config.TrainConfig = quantization.DefaultConfig()
	}

	return &SCANN{
		numPartitions: config.NumPartitions,
		invertedLists: make([][]SCANNEntry, config.NumPartitions),
		config:        config,
		metric:        config.Metric,
	}
}

// Train trains the SCANN index
func (s *SCANN) Train(vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(vectors) == 0 {
		return fmt.Errorf("no training data provided")
	}

	s.dim = len(vectors[0])

	fmt.Printf("Training SCANN index:\n")
	fmt.Printf("  Vectors: %d\n", len(vectors))
	fmt.Printf("  Dimension: %d\n", s.dim)
	fmt.Printf("  Partitions: %d\n", s.numPartitions)
	fmt.Printf("  Spherical k-means: %v\n", s.config.SphericalKM)

	// Step 1: Learn partitioning
	if s.config.SphericalKM {
		fmt.Printf("Running spherical k-means partitioning...\n")
		partitions, err := s.sphericalKMeans(vectors, s.numPartitions)
		if err != nil {
			return fmt.Errorf("spherical k-means failed: %w", err)
		}
		s.partitions = partitions
	} else {
		fmt.Printf("Running standard k-means partitioning...\n")
		partitions, err := quantization.KMeansPlusPlus(vectors, s.numPartitions, s.config.TrainConfig)
		if err != nil {
			return fmt.Errorf("k-means failed: %w", err)
		}
		s.partitions = partitions
	}

	fmt.Printf("Partitioning complete\n")

	// Step 2: Assign vectors to partitions and compute residuals
	fmt.Printf("Computing partition residuals...\n")
	partitionAssignments := make([]int, len(vectors))
	residuals := make([][]float32, len(vectors))

	for i, vec := range vectors {
		partitionIdx := s.findNearestPartition(vec)
		partitionAssignments[i] = partitionIdx

		// Compute residual
		partition := s.partitions[partitionIdx]
		residual := make([]float32, s.dim)
		for d := 0; d < s.dim; d++ {
			residual[d] = vec[d] - partition[d]
		}
		residuals[i] = residual
	}

	// Step 3: Train anisotropic quantizer on residuals
	fmt.Printf("Training anisotropic quantizer...\n")
	s.aq = NewAnisotropicQuantizer(s.dim, s.config.NumSubvectors, s.config.BitsPerCode)
	if err := s.aq.Train(residuals, s.config.TrainConfig); err != nil {
		return fmt.Errorf("anisotropic quantization training failed: %w", err)
	}

	s.trained = true

	fmt.Printf("\nSCANN Training Complete!\n")
	fmt.Printf("  Compression ratio: %.1fx\n", s.aq.GetCompressionRatio())
	fmt.Printf("  Memory per vector: %d bytes\n", s.aq.GetBytesPerVector())

	return nil
}

// Add adds vectors to the index
func (s *SCANN) Add(vectors [][]float32, ids []int, metadata []map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.trained {
		return fmt.Errorf("index not trained, call Train() first")
	}

	if len(vectors) != len(ids) {
		return fmt.Errorf("vectors and ids length mismatch")
	}

	for i, vec := range vectors {
		if len(vec) != s.dim {
			return fmt.Errorf("vector dimension mismatch")
		}

		// Find partition
		partitionIdx := s.findNearestPartition(vec)
		partition := s.partitions[partitionIdx]

		// Compute residual
		residual := make([]float32, s.dim)
		for d := 0; d < s.dim; d++ {
			residual[d] = vec[d] - partition[d]
		}

		// Encode with anisotropic quantizer
		code := s.aq.Encode(residual)

		// Compute norm (for MIPS)
		norm := quantization.NormL2(vec)

		// Add entry
		entry := SCANNEntry{
			ID:   ids[i],
			Code: code,
			Norm: norm,
		}
		if metadata != nil && i < len(metadata) {
			entry.Metadata = metadata[i]
		}

		s.invertedLists[partitionIdx] = append(s.invertedLists[partitionIdx], entry)
	}

	return nil
}

// Search performs approximate nearest neighbor search with SCANN
func (s *SCANN) Search(query []float32, k int, nprobe int) ([]int, []float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.trained {
		return nil, nil, fmt.Errorf("index not trained")
	}

	if len(query) != s.dim {
		return nil, nil, fmt.Errorf("query dimension mismatch")
	}

	// Stage 1: Coarse search - find nearest partitions
	partitionIDs := s.findNearestPartitions(query, nprobe)

	// Stage 2: Mid-level scoring with anisotropic quantization
	type candidate struct {
		id   int
		dist float32
	}

	candidates := make([]candidate, 0, nprobe*100)

	for _, partitionID := range partitionIDs {
		partition := s.partitions[partitionID]

		// Compute query residual
		queryResidual := make([]float32, s.dim)
		for d := 0; d < s.dim; d++ {
			queryResidual[d] = query[d] - partition[d]
		}

		// Precompute distance table for asymmetric distance
		distTable := s.aq.ComputeDistanceTable(queryResidual)

		// Score all vectors in this partition
		for _, entry := range s.invertedLists[partitionID] {
			dist := s.aq.AsymmetricDistance(distTable, entry.Code)
			candidates = append(candidates, candidate{id: entry.ID, dist: dist})
		}
	}

	// Sort candidates
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	// Stage 3: Fine rescoring (optional, but improves recall)
	// In a production system, you'd recompute exact distances
	// using stored vectors for top candidates

	// Return top-k
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	ids := make([]int, len(candidates))
	distances := make([]float32, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
		distances[i] = c.dist
	}

	return ids, distances, nil
}

// SearchWithFilter performs filtered search
func (s *SCANN) SearchWithFilter(query []float32, k int, nprobe int, filter func(map[string]interface{}) bool) ([]int, []float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.trained {
		return nil, nil, fmt.Errorf("index not trained")
	}

	partitionIDs := s.findNearestPartitions(query, nprobe)

	type candidate struct {
		id   int
		dist float32
	}

	candidates := make([]candidate, 0)

	for _, partitionID := range partitionIDs {
		partition := s.partitions[partitionID]

		queryResidual := make([]float32, s.dim)
		for d := 0; d < s.dim; d++ {
			queryResidual[d] = query[d] - partition[d]
		}

		distTable := s.aq.ComputeDistanceTable(queryResidual)

		for _, entry := range s.invertedLists[partitionID] {
			// Apply filter
			if filter != nil && !filter(entry.Metadata) {
				continue
			}

			dist := s.aq.AsymmetricDistance(distTable, entry.Code)
			candidates = append(candidates, candidate{id: entry.ID, dist: dist})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	ids := make([]int, len(candidates))
	distances := make([]float32, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
		distances[i] = c.dist
	}

	return ids, distances, nil
}

// sphericalKMeans performs spherical k-means clustering
// This is better for angular similarity (cosine distance)
func (s *SCANN) sphericalKMeans(vectors [][]float32, k int) ([][]float32, error) {
	if len(vectors) < k {
		return nil, fmt.Errorf("not enough vectors for %d clusters", k)
	}

	// Normalize all vectors
	normalized := make([][]float32, len(vectors))
	for i, vec := range vectors {
		normalized[i] = quantization.Normalize(vec)
	}

	// Initialize centroids with the first k normalized vectors
	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		centroids[i] = make([]float32, s.dim)
		copy(centroids[i], normalized[i%len(normalized)])
	}

	// Iterate
	for iter := 0; iter < s.config.TrainConfig.NumIterations; iter++ {
		// Assign to clusters (using cosine similarity)
		clusters := make([][][]float32, k)

		for _, vec := range normalized {
			maxSim := float32(-math.MaxFloat32)
			maxCluster := 0

			for c, centroid := range centroids {
				// Cosine similarity = dot product (vectors are normalized)
				sim := quantization.DotProductFloat32(vec, centroid)
				if sim > maxSim {
					maxSim = sim
					maxCluster = c
				}
			}

			clusters[maxCluster] = append(clusters[maxCluster], vec)
		}

		// Update centroids (mean and normalize)
		converged := true
		for c := range centroids {
			if len(clusters[c]) == 0 {
				continue
			}

			// Compute mean
			newCentroid := make([]float32, s.dim)
			for _, vec := range clusters[c] {
				for d := 0; d < s.dim; d++ {
					newCentroid[d] += vec[d]
				}
			}

			// Normalize
			newCentroid = quantization.Normalize(newCentroid)

			// Check convergence
			dist := quantization.EuclideanDistanceFloat32(centroids[c], newCentroid)
			if dist > 1e-6 {
				converged = false
			}

			centroids[c] = newCentroid
		}

		if converged {
			fmt.Printf("  Converged at iteration %d\n", iter)
			break
		}
	}

	return centroids, nil
}

// findNearestPartition finds the nearest partition for a vector
func (s *SCANN) findNearestPartition(vec []float32) int {
	var maxSim float32
	if s.config.SphericalKM {
		maxSim = float32(-math.MaxFloat32)
	}
	minDist := float32(math.MaxFloat32)
	minIdx := 0

	for i, partition := range s.partitions {
		if s.config.SphericalKM {
			// Use cosine similarity
			sim := quantization.DotProductFloat32(
				quantization.Normalize(vec),
				quantization.Normalize(partition),
			)
			if sim > maxSim {
				maxSim = sim
				minIdx = i
			}
		} else {
			dist := quantization.EuclideanDistanceFloat32(vec, partition)
			if dist < minDist {
				minDist = dist
				minIdx = i
			}
		}
	}

	return minIdx
}

// findNearestPartitions finds the nprobe nearest partitions
func (s *SCANN) findNearestPartitions(vec []float32, nprobe int) []int {
	type distPair struct {
		idx  int
		dist float32
	}

	distances := make([]distPair, len(s.partitions))

	for i, partition := range s.partitions {
		var dist float32
		if s.config.SphericalKM {
			// Use negative cosine similarity as distance
			sim := quantization.DotProductFloat32(
				quantization.Normalize(vec),
				quantization.Normalize(partition),
			)
			dist = -sim
		} else {
			dist = quantization.EuclideanDistanceFloat32(vec, partition)
		}

		distances[i] = distPair{idx: i, dist: dist}
	}

	sort.Slice(distances, func(i, j int) bool {
		return distances[i].dist < distances[j].dist
	})

	if nprobe > len(distances) {
		nprobe = len(distances)
	}

	result := make([]int, nprobe)
	for i := 0; i < nprobe; i++ {
		result[i] = distances[i].idx
	}

	return result
}

// GetStats returns index statistics
func (s *SCANN) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})
	stats["num_partitions"] = s.numPartitions
	stats["dimension"] = s.dim
	stats["trained"] = s.trained
	stats["spherical_kmeans"] = s.config.SphericalKM

	totalEntries := 0
	for _, list := range s.invertedLists {
		totalEntries += len(list)
	}

	stats["total_entries"] = totalEntries

	if s.aq != nil {
		stats["compression_ratio"] = s.aq.GetCompressionRatio()
		stats["bytes_per_vector"] = s.aq.GetBytesPerVector()
	}

	return stats
}
