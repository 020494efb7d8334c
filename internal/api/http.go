package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bher20/dormbill/internal/auth"
	"github.com/bher20/dormbill/internal/bills"
	"github.com/bher20/dormbill/internal/metrics"
	"github.com/bher20/dormbill/internal/reports"
	"github.com/bher20/dormbill/internal/storage"
)

// Deps are the collaborators the HTTP layer needs. A nil Auth disables
// authorization.
type Deps struct {
	Store   storage.Storage
	Bills   *bills.Service
	Reports *reports.Service
	Auth    *auth.Service
	Log     *zap.Logger
}

type server struct {
	Deps
}

// NewMux constructs the HTTP mux, wiring in the bills service, metrics, and health endpoints.
func NewMux(d Deps) *http.ServeMux {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Reports == nil && d.Store != nil {
		d.Reports = reports.New(d.Store, d.Log.Named("reports"))
	}
	s := &server{Deps: d}
	mux := http.NewServeMux()

	// Metrics endpoint.
	mux.Handle("GET /metrics", promhttp.Handler())

	// Health / readiness / liveness.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("live"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Bills.
	s.route(mux, "POST /api/v1/bills/preview", auth.ObjBills, auth.ActWrite, s.handlePreview)
	s.route(mux, "POST /api/v1/bills", auth.ObjBills, auth.ActWrite, s.handleIssue)
	s.route(mux, "GET /api/v1/bills/{id}", auth.ObjBills, auth.ActRead, s.handleGetBill)
	s.route(mux, "GET /api/v1/bills/{id}/receipt", auth.ObjBills, auth.ActRead, s.handleReceipt)
	s.route(mux, "GET /api/v1/bills/{id}/pdf", auth.ObjBills, auth.ActRead, s.handleBillPDF)
	s.route(mux, "POST /api/v1/bills/{id}/paid", auth.ObjBills, auth.ActWrite, s.handleMarkPaid)

	// Room directory.
	s.route(mux, "GET /api/v1/rooms", auth.ObjRooms, auth.ActRead, s.handleListRooms)
	s.route(mux, "PUT /api/v1/rooms/{id}", auth.ObjRooms, auth.ActWrite, s.handlePutRoom)
	s.route(mux, "DELETE /api/v1/rooms/{id}", auth.ObjRooms, auth.ActWrite, s.handleDeleteRoom)
	s.route(mux, "GET /api/v1/rooms/{id}/bills", auth.ObjBills, auth.ActRead, s.handleRoomBills)
	s.route(mux, "GET /api/v1/rooms/{id}/bills.xlsx", auth.ObjBills, auth.ActRead, s.handleRoomBillsXLSX)
	s.route(mux, "GET /api/v1/rooms/{id}/boarders", auth.ObjRooms, auth.ActRead, s.handleRoomBoarders)
	s.route(mux, "GET /api/v1/boarders", auth.ObjRooms, auth.ActRead, s.handleListBoarders)
	s.route(mux, "PUT /api/v1/boarders/{id}", auth.ObjRooms, auth.ActWrite, s.handlePutBoarder)
	s.route(mux, "POST /api/v1/boarders/{id}/room", auth.ObjRooms, auth.ActWrite, s.handleAssignRoom)

	// Maintenance reports.
	s.route(mux, "POST /api/v1/reports", auth.ObjReports, auth.ActCreate, s.handleSubmitReport)
	s.route(mux, "GET /api/v1/reports", auth.ObjReports, auth.ActRead, s.handleListReports)
	s.route(mux, "GET /api/v1/reports/{id}", auth.ObjReports, auth.ActRead, s.handleGetReport)
	s.route(mux, "POST /api/v1/reports/{id}/status", auth.ObjReports, auth.ActWrite, s.handleDecideReport)
	s.route(mux, "DELETE /api/v1/reports/{id}", auth.ObjReports, auth.ActWrite, s.handleDeleteReport)

	s.route(mux, "GET /api/v1/tariff", auth.ObjTariff, auth.ActRead, s.handleTariff)

	return mux
}

// route registers h behind request metrics and, when enabled, authorization.
func (s *server) route(mux *http.ServeMux, pattern, obj, act string, h http.HandlerFunc) {
	var handler http.Handler = instrument(pattern, h)
	if s.Auth != nil {
		handler = s.Auth.Middleware(s.Auth.RequirePermission(obj, act, handler))
	}
	mux.Handle(pattern, handler)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		defer func() {
			metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
			if rec.status >= 400 {
				metrics.RequestErrorsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

func (s *server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	if err := s.Store.Ping(r.Context()); err != nil {
		s.Log.Warn("readyz: db ping failed", zap.Error(err))
		http.Error(w, "db not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
