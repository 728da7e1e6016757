package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/havrebakery/bakery-api/handlers"
	"github.com/havrebakery/bakery-api/middlewares"
	"github.com/havrebakery/bakery-api/utils"
)

type Server struct {
	Router *mux.Router
	server *http.Server
}

const (
	readTimeout       = 5 * time.Minute
	readHeaderTimeout = 30 * time.Second
	writeTimeout      = 5 * time.Minute
)

func SetupRoutes() *Server {
	router := mux.NewRouter()
	router.Use(middlewares.CORSMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status":    "OK",
			"message":   "Havre Bakery API is running",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}).Methods("GET")

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Welcome to Havre Bakery API",
			"version": "1.0.0",
			"endpoints": map[string]string{
				"health":    "/health",
				"auth":      "/api/auth",
				"products":  "/api/getProducts",
				"orders":    "/api/orders",
				"dashboard": "/api/dashboard",
				"website":   "/website",
			},
		})
	}).Methods("GET")

	// everything under /api is rate limited
	api := router.PathPrefix("/api").Subrouter()
	api.Use(middlewares.RateLimitMiddleware)

	// auth
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", handlers.Login).Methods("POST")
	auth.HandleFunc("/register", handlers.Register).Methods("POST")
	auth.HandleFunc("/refresh", handlers.RefreshToken).Methods("POST")

	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(middlewares.AuthMiddleware)
	authProtected.HandleFunc("/logout", handlers.Logout).Methods("POST")
	authProtected.HandleFunc("/profile", handlers.GetProfile).Methods("GET")
	authProtected.HandleFunc("/profile", handlers.UpdateProfile).Methods("PUT")

	// public catalog and order submission
	api.HandleFunc("/getProducts", handlers.GetProducts).Methods("GET")
	api.HandleFunc("/getProduct/{id}", handlers.GetProduct).Methods("GET")
	api.HandleFunc("/products/categories", handlers.GetCategories).Methods("GET")
	api.HandleFunc("/products/search", handlers.SearchProducts).Methods("GET")
	api.HandleFunc("/orders", handlers.CreateOrder).Methods("POST")

	// admin only
	admin := api.PathPrefix("").Subrouter()
	admin.Use(middlewares.AuthMiddleware, middlewares.AdminMiddleware)

	admin.HandleFunc("/createProduct", handlers.CreateProduct).Methods("POST")
	admin.HandleFunc("/products/low-stock", handlers.GetLowStockProducts).Methods("GET")
	admin.HandleFunc("/products/export", handlers.ExportProducts).Methods("GET")
	admin.HandleFunc("/products/{id}", handlers.UpdateProduct).Methods("PUT")
	admin.HandleFunc("/products/{id}", handlers.DeleteProduct).Methods("DELETE")
	admin.HandleFunc("/products/{id}/stock", handlers.UpdateStock).Methods("PATCH")
	admin.HandleFunc("/products/{id}/images/{imageId}", handlers.DeleteProductImage).Methods("DELETE")

	admin.HandleFunc("/orders", handlers.GetOrders).Methods("GET")
	admin.HandleFunc("/orders/stats", handlers.GetOrderStats).Methods("GET")
	admin.HandleFunc("/orders/search", handlers.SearchOrders).Methods("GET")
	admin.HandleFunc("/orders/export", handlers.ExportOrders).Methods("GET")
	admin.HandleFunc("/orders/{id}", handlers.GetOrder).Methods("GET")
	admin.HandleFunc("/orders/{id}", handlers.UpdateOrder).Methods("PUT")
	admin.HandleFunc("/orders/{id}/status", handlers.UpdateOrderStatus).Methods("PATCH")
	admin.HandleFunc("/orders/{id}", handlers.DeleteOrder).Methods("DELETE")

	dashboard := api.PathPrefix("/dashboard").Subrouter()
	dashboard.Use(middlewares.AuthMiddleware, middlewares.AdminMiddleware)
	dashboard.HandleFunc("/stats", handlers.GetDashboardStats).Methods("GET")
	dashboard.HandleFunc("/sales", handlers.GetSalesData).Methods("GET")
	dashboard.HandleFunc("/sales/last30days", handlers.GetLast30DaysSales).Methods("GET")
	dashboard.HandleFunc("/products/distribution", handlers.GetProductSalesDistribution).Methods("GET")
	dashboard.HandleFunc("/orders/recent", handlers.GetRecentOrders).Methods("GET")
	dashboard.HandleFunc("/products/top", handlers.GetTopProducts).Methods("GET")

	// public website
	website := router.PathPrefix("/website").Subrouter()
	website.HandleFunc("/products", handlers.GetPublicProducts).Methods("GET")
	website.HandleFunc("/products/featured", handlers.GetFeaturedProducts).Methods("GET")
	website.HandleFunc("/products/category/{category}", handlers.GetProductsByCategory).Methods("GET")
	website.HandleFunc("/contact", handlers.SubmitContactForm).Methods("POST")
	website.HandleFunc("/newsletter", handlers.SubscribeNewsletter).Methods("POST")
	website.HandleFunc("/stats", handlers.GetWebsiteStats).Methods("GET")

	return &Server{
		Router: router,
	}
}

func (svr *Server) Run(port string) error {
	svr.server = &http.Server{
		Addr:              ":" + port,
		Handler:           svr.Router,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
	return svr.server.ListenAndServe()
}

func (svr *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return svr.server.Shutdown(ctx)
}
