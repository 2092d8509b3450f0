// The api command exposes brief runs over HTTP: start a run, poll its
// status, download the finished artifact.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aviation_intel/pkg/core/config"
	"aviation_intel/pkg/core/pipeline"
)

type jobState string

const (
	jobRunning   jobState = "running"
	jobCompleted jobState = "completed"
	jobFailed    jobState = "failed"
)

type job struct {
	ID         string    `json:"id"`
	State      jobState  `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	Artifacts  []string  `json:"artifacts,omitempty"`
	Error      string    `json:"error,omitempty"`
}

type jobManager struct {
	mu   sync.Mutex
	jobs map[string]*job
	cfg  *config.Config
}

func newJobManager(cfg *config.Config) *jobManager {
	return &jobManager{jobs: make(map[string]*job), cfg: cfg}
}

func (m *jobManager) start() (*job, error) {
	p, err := pipeline.New(m.cfg)
	if err != nil {
		return nil, err
	}

	j := &job{ID: uuid.NewString(), State: jobRunning, StartedAt: time.Now()}
	m.mu.Lock()
	m.jobs[j.ID] = j
	m.mu.Unlock()

	go func() {
		result, err := p.Run(context.Background())
		m.mu.Lock()
		defer m.mu.Unlock()
		j.FinishedAt = time.Now()
		if err != nil {
			j.State = jobFailed
			j.Error = err.Error()
			return
		}
		j.RunID = result.RunID
		j.Artifacts = result.Artifacts
		if result.Collection.Succeeded() {
			j.State = jobCompleted
		} else {
			j.State = jobFailed
			j.Error = strings.Join(result.Collection.Errors, "; ")
		}
	}()
	return j, nil
}

func (m *jobManager) snapshot(id string) (job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return job{}, false
	}
	return *j, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func main() {
	cfg := config.Load()
	manager := newJobManager(cfg)

	http.HandleFunc("/api/brief/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
			return
		}
		j, err := manager.start()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		fmt.Printf("[API] started brief job %s\n", j.ID)
		writeJSON(w, http.StatusAccepted, map[string]string{"id": j.ID})
	})

	http.HandleFunc("/api/brief/status", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := manager.snapshot(r.URL.Query().Get("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job id"})
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	http.HandleFunc("/api/brief/download", func(w http.ResponseWriter, r *http.Request) {
		snap, ok := manager.snapshot(r.URL.Query().Get("id"))
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job id"})
			return
		}
		if snap.State != jobCompleted {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "brief not ready"})
			return
		}
		for _, artifact := range snap.Artifacts {
			if filepath.Ext(artifact) == ".md" {
				w.Header().Set("Content-Type", "text/markdown")
				http.ServeFile(w, r, artifact)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no markdown artifact"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	fmt.Printf("Brief API listening on :%s\n", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] server stopped: %v\n", err)
		os.Exit(1)
	}
}
