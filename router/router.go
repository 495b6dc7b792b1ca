package router

import (
	"go-ledger-api/handler"
	"go-ledger-api/metrics"
	"net/http"

	_ "go-ledger-api/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Handlers struct {
	Account   *handler.AccountHandler
	Admin     *handler.AdminHandler
	JWTSecret []byte
}

func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, handler.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	r.Get("/health", handler.HealthCheck)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Use(handler.AuthMiddleware(h.JWTSecret))

		r.Post("/accounts", handler.ErrorHandlingMiddleware(h.Account.OpenAccount))
		r.Get("/accounts", handler.ErrorHandlingMiddleware(h.Account.ListAccounts))
		r.Route("/accounts/{accountNumber}", func(r chi.Router) {
			r.Get("/", handler.ErrorHandlingMiddleware(h.Account.GetAccount))
			r.Post("/deposit", handler.ErrorHandlingMiddleware(h.Account.Deposit))
			r.Post("/withdraw", handler.ErrorHandlingMiddleware(h.Account.Withdraw))
			r.Post("/interest/credit", handler.ErrorHandlingMiddleware(h.Account.CreditInterest))
			r.Get("/transactions", handler.ErrorHandlingMiddleware(h.Account.ListAccountTransactions))
		})
		r.Post("/transfers", handler.ErrorHandlingMiddleware(h.Account.Transfer))
		r.Get("/transactions/{transactionId}", handler.ErrorHandlingMiddleware(h.Account.GetTransaction))

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.AdminMiddleware)
			r.Get("/accounts", handler.ErrorHandlingMiddleware(h.Admin.ListAllAccounts))
			r.Patch("/accounts/{accountNumber}/status", handler.ErrorHandlingMiddleware(h.Admin.UpdateAccountStatus))
			r.Patch("/accounts/{accountNumber}/interest-rate", handler.ErrorHandlingMiddleware(h.Admin.UpdateInterestRate))
			r.Get("/transactions", handler.ErrorHandlingMiddleware(h.Admin.ListTransactions))
			r.Post("/interest/run", handler.ErrorHandlingMiddleware(h.Admin.RunInterestAccrual))
			r.Get("/interest/last-run", handler.ErrorHandlingMiddleware(h.Admin.LastInterestRun))
		})
	})
	return r
}
