package observability

// LogIteration reports one outer-loop iteration of the bound-accelerated
// k-means loop: the iteration number, the convergence error e, and the
// current distortion, mirroring the fields the reference implementation's
// verbose mode prints per iteration.
func (l *Logger) LogIteration(iteration int, e, distortion float32) {
	l.Debug("kmeans iteration", map[string]interface{}{
		"iteration":  iteration,
		"error":      e,
		"distortion": distortion,
	})
}

// LogEmptyClusterRecovered reports that a cluster emptied mid-run and was
// recovered from the farthest observer of another cluster (§4.D, §7).
func (l *Logger) LogEmptyClusterRecovered(cluster, victim, point int) {
	l.Warn("empty cluster recovered", map[string]interface{}{
		"cluster": cluster,
		"victim":  victim,
		"point":   point,
	})
}

// LogConverged reports why the outer loop stopped: "iterations", "accuracy",
// or "stalled".
func (l *Logger) LogConverged(iteration int, e float32, reason string) {
	l.Info("kmeans converged", map[string]interface{}{
		"iteration": iteration,
		"error":     e,
		"reason":    reason,
	})
}
