package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fer-protocol/keeper/internal/logger"
	"github.com/fer-protocol/keeper/internal/state"
)

var webLogger = logger.GetForComponent("web_server")

// StatusProvider reports the keeper's in-memory view for /api/status.
// Implemented by keeper.Keeper.
type StatusProvider interface {
	Status() map[string]interface{}
}

// WebServer handles HTTP requests for keeper status and scan history
type WebServer struct {
	router *mux.Router
	port   string
	status StatusProvider
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, status StatusProvider) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		status: status,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// Prometheus metrics
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/status", ws.handleStatus).Methods("GET")
	api.HandleFunc("/scans", ws.handleGetScans).Methods("GET")
	api.HandleFunc("/scans/latest", ws.handleGetLatestScan).Methods("GET")
	api.HandleFunc("/liquidations", ws.handleGetLiquidations).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	// A nil DB means persistence is disabled, which is a supported
	// configuration, not a degradation. Only a configured database that
	// fails to answer marks the keeper unhealthy.
	dbEnabled := state.DB != nil
	dbHealthy := !dbEnabled || state.DB.Ping() == nil

	status := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		status = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	ws.writeJSONResponse(w, statusCode, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"gc_cycles":        memStats.NumGC,
		},
		"persistence_enabled": dbEnabled,
		"database_healthy":    dbHealthy,
	})
}

// handleStatus returns the keeper's in-memory status
func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if ws.status == nil {
		ws.writeErrorResponse(w, http.StatusServiceUnavailable, "Keeper not running")
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, ws.status.Status())
}

// handleGetScans returns paginated scan history
func (ws *WebServer) handleGetScans(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	scans, err := state.LatestScanSummaries(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent scans")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve scans")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"scans": scans,
		"count": len(scans),
		"limit": limit,
	})
}

// handleGetLatestScan returns the most recent scan snapshot
func (ws *WebServer) handleGetLatestScan(w http.ResponseWriter, r *http.Request) {
	scans, err := state.LatestScanSummaries(1)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get latest scan")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve latest scan")
		return
	}
	if len(scans) == 0 {
		ws.writeErrorResponse(w, http.StatusNotFound, "No scans recorded yet")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, scans[0])
}

// handleGetLiquidations returns recent liquidation attempts
func (ws *WebServer) handleGetLiquidations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	attempts, err := state.LatestLiquidationAttempts(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get liquidation attempts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve liquidation attempts")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"attempts": attempts,
		"count":    len(attempts),
		"limit":    limit,
	})
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	ws.writeJSONResponse(w, statusCode, map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
