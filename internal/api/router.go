/**
 * @description
 * This file sets up the HTTP router for the dashboard-service using the
 * `chi` routing library. It defines all the API routes and applies
 * necessary middleware.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: The routing library.
 * - github.com/go-chi/cors: Browser CORS handling for the SPA.
 * - The service's internal packages for handlers and middleware.
 */
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bpay/dashboard-service/internal/app"
	"github.com/bpay/dashboard-service/internal/config"
)

// NewRouter creates and configures a new HTTP router.
func NewRouter(cfg *config.Config, flows *app.FlowManager, gateway WalletGateway, dispatcher *app.Dispatcher, rates *app.RateCache, sessions *app.SessionStore) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	authHandler := NewAuthHandler(flows)
	walletHandler := NewWalletHandler(gateway, dispatcher, rates, sessions)

	r.Route("/auth/flows", func(r chi.Router) {
		r.Post("/", authHandler.CreateFlow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", authHandler.GetFlow)
			r.Delete("/", authHandler.DestroyFlow)
			r.Post("/credentials", authHandler.SubmitCredentials)
			r.Put("/digits/{index}", authHandler.SetDigit)
			r.Post("/code", authHandler.SubmitCode)
			r.Post("/resend", authHandler.ResendCode)
			r.Post("/back", authHandler.GoBack)
			r.Post("/mode", authHandler.SwitchMode)
		})
	})

	// Group routes that require an active session
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(sessions))

		r.Get("/wallets", walletHandler.ListAccounts)
		r.Post("/wallets/crypto", walletHandler.CreateCryptoWallet)
		r.Post("/wallets/{id}/operations", walletHandler.SubmitOperation)
		r.Get("/transactions", walletHandler.ListTransactions)
		r.Get("/payment-methods", walletHandler.ListPaymentMethods)
		r.Post("/payment-methods", walletHandler.CreatePaymentMethod)
		r.Get("/rates", walletHandler.GetRates)
		r.Post("/rates/refresh", walletHandler.RefreshRates)
		r.Post("/logout", walletHandler.Logout)
	})

	return r
}
