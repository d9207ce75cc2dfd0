package executor

// BackendType selects the execution backend.
type BackendType string

const (
	CPUDense  BackendType = "cpu_dense"
	CPUSparse BackendType = "cpu_sparse"
	GPU       BackendType = "gpu"
)

// BackendConfig configures execution. NumThreads is accepted for forward
// compatibility; the dense CPU backend currently runs experiments on one
// goroutine so node memoization can be shared across experiments.
type BackendConfig struct {
	BackendType BackendType `json:"backend_type"`
	NumThreads  int         `json:"num_threads,omitempty"`
}

// DefaultConfig is the dense CPU backend.
func DefaultConfig() BackendConfig {
	return BackendConfig{BackendType: CPUDense}
}
