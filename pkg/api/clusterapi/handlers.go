package clusterapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hamerlykmeans/vector/pkg/kmeans"
)

// Handler runs clustering requests directly against pkg/kmeans.
type Handler struct{}

// NewHandler creates a new clustering API handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ClusterRequest is the body of POST /v1/cluster.
type ClusterRequest struct {
	Points     [][]float32 `json:"points"`
	K          int         `json:"k"`
	Distance   string      `json:"distance,omitempty"`   // "L2" (default) or "L1"
	Assignment string      `json:"assignment,omitempty"` // "linear" (default), "kd_exact", "kd_approx"
	Alpha      float32     `json:"alpha,omitempty"`
	Accuracy   float32     `json:"accuracy,omitempty"`
	Iterations int         `json:"iterations,omitempty"`
}

// ClusterResponse is the body returned from POST /v1/cluster.
type ClusterResponse struct {
	Centers    [][]float32    `json:"centers"`
	Labels     []int          `json:"labels"`
	Stats      kmeans.RunStats `json:"stats"`
}

// Cluster handles POST /v1/cluster: it runs SimpleKMeans synchronously and
// returns the resulting centers, labels, and run statistics.
func (h *Handler) Cluster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	opts, err := req.toOptions()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	dataset, err := kmeans.NewDataset(req.Points)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := kmeans.SimpleKMeans(dataset, opts)
	if err != nil {
		writeError(w, fmt.Sprintf("clustering failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, ClusterResponse{
		Centers: result.Centers,
		Labels:  result.Labels,
		Stats:   result.Stats,
	}, http.StatusOK)
}

// SeedRequest is the body of POST /v1/cluster/seed.
type SeedRequest struct {
	Points   [][]float32 `json:"points"`
	K        int         `json:"k"`
	Seeding  string      `json:"seeding,omitempty"` // "kmeans_plus_plus" (default) or "random"
	Distance string      `json:"distance,omitempty"`
}

// SeedResponse is the body returned from POST /v1/cluster/seed.
type SeedResponse struct {
	Seeds [][]float32 `json:"seeds"`
}

// Seed handles POST /v1/cluster/seed: it runs only the seeding stage, for
// inspecting RANDOM/KMEANS_PLUS_PLUS output without a full clustering run.
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	dataset, err := kmeans.NewDataset(req.Points)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind := parseDistance(req.Distance)

	var seeds [][]float32
	if req.Seeding == "random" {
		seeds, err = kmeans.RandomSeeds(dataset, req.K, nil)
	} else {
		seeds, err = kmeans.KMeansPlusPlusSeeds(dataset, req.K, kind, nil)
	}
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, SeedResponse{Seeds: seeds}, http.StatusOK)
}

func (req ClusterRequest) toOptions() (kmeans.Options, error) {
	assignment := kmeans.LinearBound
	switch req.Assignment {
	case "", "linear":
		assignment = kmeans.LinearBound
	case "kd_exact":
		assignment = kmeans.KDExact
	case "kd_approx":
		assignment = kmeans.KDApprox
	default:
		return kmeans.Options{}, fmt.Errorf("unknown assignment strategy %q", req.Assignment)
	}

	alpha := req.Alpha
	if alpha == 0 {
		alpha = 1.0
	}
	accuracy := req.Accuracy
	if accuracy == 0 {
		accuracy = 1e-4
	}
	iterations := req.Iterations
	if iterations == 0 {
		iterations = 100
	}

	return kmeans.Options{
		K:            req.K,
		DistanceKind: parseDistance(req.Distance),
		Seeding:      kmeans.KMeansPlusPlusSeeding,
		Assignment:   assignment,
		Criteria: kmeans.Criteria{
			Alpha:      alpha,
			Accuracy:   accuracy,
			Iterations: iterations,
		},
		NThreads: 1,
	}, nil
}

func parseDistance(s string) kmeans.DistanceKind {
	if s == "L1" {
		return kmeans.L1
	}
	return kmeans.L2
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, fmt.Sprintf("Failed to encode response: %v", err), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":  message,
		"status": statusCode,
	})
}
