package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/valuescan/backend/internal/scheduler"
	"github.com/wonny/valuescan/backend/pkg/logger"
)

// SchedulerHandler exposes scheduled job status and manual triggers.
// 스케줄러가 꺼져 있으면 (sched == nil) 모든 요청은 503.
type SchedulerHandler struct {
	sched  *scheduler.Scheduler
	logger *logger.Logger
}

// NewSchedulerHandler creates a scheduler handler
func NewSchedulerHandler(sched *scheduler.Scheduler, log *logger.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		sched:  sched,
		logger: log.WithField("module", "scheduler_handler"),
	}
}

// ListJobs returns registered jobs with their recent run history
func (h *SchedulerHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}

	jobs := make(map[string][]scheduler.JobResult)
	for _, name := range h.sched.GetAllJobs() {
		history, err := h.sched.GetJobHistory(name)
		if err != nil {
			continue
		}
		jobs[name] = history.GetLatestResults(10)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jobs": jobs,
	})
}

// RunJob triggers a job immediately, outside its schedule
func (h *SchedulerHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	if h.sched == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler disabled")
		return
	}

	name := mux.Vars(r)["name"]
	if err := h.sched.RunJob(name); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered manually")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "started",
		"job":    name,
	})
}
