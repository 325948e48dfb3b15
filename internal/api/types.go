package api

import (
	"time"

	"github.com/harsh-khajruia/thread-manager/internal/pool"
)

type VersionInfo struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Platform  string
}

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

type MessageResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// SubmitRequest describes the built-in sample workload: it runs for
// Duration split into Steps progress increments and, when Fail is set,
// finishes in the error state.
type SubmitRequest struct {
	Duration string `json:"duration"`
	Steps    int    `json:"steps"`
	Fail     bool   `json:"fail"`
}

type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

type ThreadsResponse struct {
	Count   int             `json:"count"`
	Threads []pool.TaskInfo `json:"threads"`
}

type SlotsResponse struct {
	Count int             `json:"count"`
	Slots []pool.SlotInfo `json:"slots"`
}

type PoolStatus struct {
	MaxWorkers   int    `json:"max_workers"`
	Submitted    int64  `json:"submitted"`
	Completed    int64  `json:"completed"`
	Failed       int64  `json:"failed"`
	QueueLength  int    `json:"queue_length"`
	Running      int    `json:"running"`
	Uptime       string `json:"uptime"`
	ShuttingDown bool   `json:"shutting_down"`
}

type HealthResponse struct {
	Status string     `json:"status"`
	Build  BuildInfo  `json:"build"`
	Pool   PoolStatus `json:"pool"`
}

func poolStatus(st pool.Stats) PoolStatus {
	return PoolStatus{
		MaxWorkers:   st.MaxWorkers,
		Submitted:    st.Submitted,
		Completed:    st.Completed,
		Failed:       st.Failed,
		QueueLength:  st.QueueLength,
		Running:      st.Running,
		Uptime:       st.Uptime.Round(time.Second).String(),
		ShuttingDown: st.ShuttingDown,
	}
}
