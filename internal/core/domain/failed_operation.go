package domain

// Operation names the lifecycle transition that produced a record.
type Operation string

const (
	OpInstall   Operation = "install"
	OpPreview   Operation = "preview"
	OpStart     Operation = "start"
	OpStop      Operation = "stop"
	OpUninstall Operation = "uninstall"
)

// FailedOperation represents a lifecycle operation that exhausted its retries
// and was parked for later replay.
type FailedOperation struct {
	ID         string    `json:"id"`
	Op         Operation `json:"op"`
	JobID      JobID     `json:"job_id"`
	Error      string    `json:"error_msg"`
	RetryCount int       `json:"retry_count"`
	CreatedAt  int64     `json:"created_at"`
}
