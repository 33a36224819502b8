// Command flowcored runs the debug/introspection HTTP server
// SPEC_FULL.md 4.H describes: a small gorilla/mux-routed server
// exposing a running engine's status and Prometheus metrics, outside
// the core execution contract.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	datablocks "github.com/channely/datablocks-editor"
)

func main() {
	addr := os.Getenv("FLOWCORED_ADDR")
	if addr == "" {
		addr = ":8090"
	}

	engine := datablocks.NewDefault()

	router := mux.NewRouter()
	router.HandleFunc("/status", statusHandler(engine)).Methods(http.MethodGet)
	router.Handle("/metrics", prometheus.Handler()).Methods(http.MethodGet)

	logged := handlers.LoggingHandler(os.Stdout, router)

	srv := &http.Server{
		Addr:         addr,
		Handler:      logged,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("flowcored listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("flowcored: %s", err)
	}
}

type statusResponse struct {
	IsExecuting bool                          `json:"isExecuting"`
	NodeCount   int                           `json:"nodeCount"`
	Statuses    map[string]datablocks.NodeStatus `json:"nodeStatuses"`
}

func statusHandler(engine *datablocks.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		isExecuting, statuses, _ := engine.GetExecutionStatus()
		resp := statusResponse{
			IsExecuting: isExecuting,
			NodeCount:   len(statuses),
			Statuses:    statuses,
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
