// Command mockapi serves a stand-in for the Odyssey messaging API so load
// scenarios can be exercised locally:
//
//	go run ./scripts/mockapi --port 8089 --latency 20ms --fail-rate 0.02
//	msgload run --base-url http://localhost:8089 --auth-token "Bearer local-token" -s smoke
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/odysseylab/msgload/internal/logging"
)

// sendResources accept POSTed jobs and answer with a JobNumber.
var sendResources = map[string]bool{
	"SMSJobs":   true,
	"EmailJobs": true,
	"FaxJobs":   true,
	"VoiceJobs": true,
}

type mockAPI struct {
	latency  time.Duration
	failRate float64
	log      *zap.Logger

	jobs uint64
	mu   sync.Mutex
	rnd  *rand.Rand
}

func main() {
	flags := pflag.NewFlagSet("mockapi", pflag.ExitOnError)
	port := flags.Int("port", 8089, "Listening port")
	latency := flags.Duration("latency", 0, "Delay added to every response")
	failRate := flags.Float64("fail-rate", 0, "Fraction of requests answered with 503 (0.0-1.0)")
	level := flags.String("log-level", "info", "Log level")
	_ = flags.Parse(os.Args[1:])

	log, err := logging.New(*level, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *failRate < 0 || *failRate > 1 {
		log.Fatal("fail-rate must be between 0 and 1", zap.Float64("fail_rate", *failRate))
	}

	api := newMockAPI(*latency, *failRate, time.Now().UnixNano(), log)
	addr := fmt.Sprintf(":%d", *port)
	log.Info("mock Odyssey API listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.routes()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newMockAPI(latency time.Duration, failRate float64, seed int64, log *zap.Logger) *mockAPI {
	if log == nil {
		log = logging.Nop()
	}
	return &mockAPI{
		latency:  latency,
		failRate: failRate,
		log:      log,
		jobs:     100000,
		rnd:      rand.New(rand.NewSource(seed)),
	}
}

func (m *mockAPI) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/V1/", m.handle)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]any{"Message": "not found"})
	})
	return mux
}

func (m *mockAPI) handle(w http.ResponseWriter, r *http.Request) {
	if m.latency > 0 {
		time.Sleep(m.latency)
	}
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
		respondJSON(w, http.StatusUnauthorized, map[string]any{"Message": "Authorization has been denied for this request."})
		return
	}
	if m.shouldFail() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"Message": "service unavailable"})
		return
	}

	resource, id := splitResource(r.URL.Path)
	m.log.Debug("request", zap.String("method", r.Method), zap.String("resource", resource), zap.String("id", id))

	switch r.Method {
	case http.MethodPost:
		if !sendResources[resource] {
			respondJSON(w, http.StatusOK, map[string]any{"Id": m.nextJob()})
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]any{"Message": "invalid JSON body"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"JobNumber":  m.nextJob(),
			"TrackingId": body["TrackingId"],
			"Status":     "Submitted",
		})
	case http.MethodGet:
		if id != "" {
			respondJSON(w, http.StatusOK, map[string]any{"JobNumber": id, "Resource": resource, "Status": "Completed"})
			return
		}
		respondJSON(w, http.StatusOK, []map[string]any{
			{"JobNumber": strconv.FormatUint(atomic.LoadUint64(&m.jobs), 10), "Resource": resource},
		})
	case http.MethodDelete:
		respondJSON(w, http.StatusOK, map[string]any{"Deleted": id})
	default:
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{"Message": "method not allowed"})
	}
}

func (m *mockAPI) shouldFail() bool {
	if m.failRate <= 0 {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rnd.Float64() < m.failRate
}

func (m *mockAPI) nextJob() string {
	return strconv.FormatUint(atomic.AddUint64(&m.jobs, 1), 10)
}

// splitResource turns /api/V1/JobSummaries/123 into ("JobSummaries", "123").
func splitResource(path string) (resource, id string) {
	rest := strings.Trim(strings.TrimPrefix(path, "/api/V1/"), "/")
	resource, id, _ = strings.Cut(rest, "/")
	return resource, id
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
