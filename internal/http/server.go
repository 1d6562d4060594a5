// Package http exposes the JSON API: transactions, dashboard aggregates,
// budgets, savings goals, categories and predictions.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgetwise/internal/analytics"
	"budgetwise/internal/ledger"
	"budgetwise/internal/middleware/ratelimit"
	"budgetwise/internal/middleware/security"
	"budgetwise/internal/middleware/trace"
	"budgetwise/internal/services"
)

type Server struct {
	http.Server

	coordinator *services.Coordinator
	analytics   *analytics.Engine
	budgets     *services.BudgetService
	goals       *services.GoalService
	categories  *services.CategoryService
	ledger      *ledger.Ledger

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// Deps carries the wired application services into the server.
type Deps struct {
	Coordinator *services.Coordinator
	Analytics   *analytics.Engine
	Budgets     *services.BudgetService
	Goals       *services.GoalService
	Categories  *services.CategoryService
	Ledger      *ledger.Ledger
}

func NewServer(port string, deps Deps) *Server {
	s := &Server{
		coordinator: deps.Coordinator,
		analytics:   deps.Analytics,
		budgets:     deps.Budgets,
		goals:       deps.Goals,
		categories:  deps.Categories,
		ledger:      deps.Ledger,
		limiter:     ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	s.Server = http.Server{
		Addr:         ":" + port,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleRetractTransaction)

	mux.HandleFunc("GET /api/dashboard/summary", s.handleDashboardSummary)
	mux.HandleFunc("GET /api/dashboard/trends", s.handleMonthlyTrends)
	mux.HandleFunc("GET /api/dashboard/breakdown", s.handleCategoryBreakdown)
	mux.HandleFunc("GET /api/dashboard/recent", s.handleRecentTransactions)
	mux.HandleFunc("GET /api/predictions", s.handlePredictions)

	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("GET /api/budgets/{id}", s.handleGetBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("POST /api/budgets/{id}/contribute", s.handleContributeToBudget)

	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/contribute", s.handleContributeToGoal)
	mux.HandleFunc("POST /api/goals/{id}/withdraw", s.handleWithdrawFromGoal)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	traceMw := trace.NewMiddleware(clientIP)
	limitMw := s.limiter.Middleware(clientIP)

	var handler http.Handler = mux
	handler = limitMw(handler)
	handler = security.Headers(handler)
	handler = traceMw.Handler(handler)
	return handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shutdown stops the HTTP server and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
