package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ValentinKolb/tfstated/api/common"
	"github.com/ValentinKolb/tfstated/lib/lockmgr"
	"github.com/ValentinKolb/tfstated/lib/slot"
	"github.com/ValentinKolb/tfstated/lib/statestore"
)

var Logger = common.GetLogger("server")

// Slot names of the two durable records
const (
	stateSlotName = "state"
	lockSlotName  = "lock"
)

// NewBackendServer creates a new backend server for the given configuration.
//
// Usage:
//
//	srv := server.NewBackendServer(config)
//
//	if err := srv.Serve(); err != nil {
//		panic(err)
//	}
func NewBackendServer(config common.ServerConfig) backendServer {
	return backendServer{config: config}
}

type backendServer struct {
	config common.ServerConfig

	// mu serializes every operation that touches the state or lock slot.
	// One global mutual-exclusion domain is sufficient for this
	// control-plane workload.
	mu    sync.Mutex
	store statestore.IStateStore
	locks lockmgr.ILockManager
}

// Init loads the durable records and wires up the lock manager and state
// store. It must be called before Handler; Serve calls it implicitly.
func (s *backendServer) Init() error {
	lockSlot, err := slot.NewFileSlot(s.config.DataDir, lockSlotName)
	if err != nil {
		return fmt.Errorf("failed to create lock slot: %w", err)
	}
	stateSlot, err := slot.NewFileSlot(s.config.DataDir, stateSlotName)
	if err != nil {
		return fmt.Errorf("failed to create state slot: %w", err)
	}

	s.locks, err = lockmgr.NewLockManager(lockSlot)
	if err != nil {
		return fmt.Errorf("failed to create lock manager: %w", err)
	}
	s.store, err = statestore.NewStateStore(stateSlot, s.locks)
	if err != nil {
		return fmt.Errorf("failed to create state store: %w", err)
	}

	Logger.Info("backend setup completed",
		"data_dir", s.config.DataDir,
		"has_state", s.store.HasState(),
		"is_locked", s.locks.Current() != nil)

	return nil
}

// Handler returns the HTTP handler serving the state backend protocol.
func (s *backendServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// State document
	mux.HandleFunc("GET /tfstate", s.handleGetState)
	mux.HandleFunc("POST /tfstate", s.handlePutState)
	mux.HandleFunc("DELETE /tfstate", s.handleDeleteState)

	// Lock (Terraform's http backend uses the non-standard LOCK and UNLOCK
	// methods by default)
	mux.HandleFunc("LOCK /lock", s.handleLock)
	mux.HandleFunc("UNLOCK /lock", s.handleUnlock)

	// Operational endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	return metricsMiddleware(loggerMiddleware(mux.ServeHTTP))
}

// Serve initializes the backend and blocks serving the HTTP API.
func (s *backendServer) Serve() error {
	if err := s.Init(); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         s.config.Endpoint,
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.config.ReadTimeoutSecond) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeoutSecond) * time.Second,
	}

	Logger.Info("starting HTTP server", "endpoint", s.config.Endpoint)
	Logger.Info(s.config.String())

	return httpServer.ListenAndServe()
}
