package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/legendiguess/coinbase-tool-server/domain"
	"github.com/legendiguess/coinbase-tool-server/services"
)

const serviceName = "coinbase-tool-server"

type toolService interface {
	Invoke(ctx context.Context, name string, args map[string]string) (string, error)
	Names() []string
	Describe(name string) (domain.ToolInfo, bool)
}

type serverCredentials interface {
	GetAPIPort() int
	GetCORSAllowedOrigins() []string
	GetMaxRequestsPerMinute() int
}

type serverLogger interface {
	Printf(format string, args ...interface{})
	Panic(args ...interface{})
}

type Server struct {
	toolService toolService
	credentials serverCredentials
	logger      serverLogger
}

func NewServer(toolService toolService, credentials serverCredentials, serverLogger serverLogger) *Server {
	return &Server{
		toolService: toolService,
		credentials: credentials,
		logger:      serverLogger,
	}
}

// Start serves in the background; startup failures stop the process.
func (server *Server) Start() {
	go func() {
		server.logger.Panic(http.ListenAndServe(fmt.Sprintf(":%d", server.credentials.GetAPIPort()), server.Routes()))
	}()
}

func (server *Server) Routes() chi.Router {
	root := chi.NewRouter()

	root.Use(middleware.Logger)
	root.Use(cors.Handler(cors.Options{
		AllowedOrigins: server.credentials.GetCORSAllowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	root.Get("/", server.root)
	root.Get("/health", server.health)
	root.Handle("/metrics", promhttp.Handler())

	root.Route("/api/v1", func(api chi.Router) {
		api.Use(NewRateLimiter(server.credentials.GetMaxRequestsPerMinute()).Middleware)
		api.Get("/health", server.apiHealth)
		api.Get("/balance", server.balance)
		api.Get("/portfolio", server.portfolio)
		api.Post("/trade", server.trade)
		api.Get("/orders", server.orders)
		api.Delete("/orders/{orderID}", server.cancelOrder)
		api.Get("/tools", server.listTools)
		api.Get("/tools/{toolName}", server.toolInfo)
	})

	return root
}

func (server *Server) root(w http.ResponseWriter, r *http.Request) {
	server.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":     serviceName,
		"version":     "1.0.0",
		"description": "Tool server for AI-agent crypto trading operations",
		"endpoints": map[string]string{
			"health":    "/api/v1/health",
			"balance":   "/api/v1/balance",
			"portfolio": "/api/v1/portfolio",
			"trade":     "/api/v1/trade",
			"orders":    "/api/v1/orders",
			"tools":     "/api/v1/tools",
		},
	})
}

func (server *Server) health(w http.ResponseWriter, r *http.Request) {
	server.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

func (server *Server) apiHealth(w http.ResponseWriter, r *http.Request) {
	server.writeJSON(w, http.StatusOK, domain.HealthResponse{
		Status:         "healthy",
		Service:        serviceName,
		ToolsAvailable: server.toolService.Names(),
	})
}

func (server *Server) balance(w http.ResponseWriter, r *http.Request) {
	result, err := server.toolService.Invoke(r.Context(), "balance", nil)
	if err != nil {
		server.writeError(w, err)
		return
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Balance retrieved successfully",
		Data:    map[string]interface{}{"balance_info": result},
	})
}

func (server *Server) portfolio(w http.ResponseWriter, r *http.Request) {
	result, err := server.toolService.Invoke(r.Context(), "portfolio", nil)
	if err != nil {
		server.writeError(w, err)
		return
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Portfolio retrieved successfully",
		Data:    map[string]interface{}{"portfolio_info": result},
	})
}

func (server *Server) trade(w http.ResponseWriter, r *http.Request) {
	d, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer r.Body.Close()

	var tradeRequest domain.TradeRequest
	if err := json.Unmarshal(d, &tradeRequest); err != nil {
		server.writeError(w, &domain.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	args := map[string]string{
		"action":     tradeRequest.Action,
		"product_id": tradeRequest.ProductID,
		"amount":     tradeRequest.Amount,
		"order_type": tradeRequest.OrderType,
	}
	if tradeRequest.Price != "" {
		args["price"] = tradeRequest.Price
	}

	result, err := server.toolService.Invoke(r.Context(), "trade", args)
	if err != nil {
		server.writeError(w, err)
		return
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Trade request processed",
		Data:    map[string]interface{}{"trade_result": result},
	})
}

func (server *Server) orders(w http.ResponseWriter, r *http.Request) {
	args := map[string]string{}
	if status := r.URL.Query().Get("status"); status != "" {
		args["status"] = status
	}

	result, err := server.toolService.Invoke(r.Context(), "orders", args)
	if err != nil {
		server.writeError(w, err)
		return
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Orders retrieved successfully",
		Data:    map[string]interface{}{"orders_info": result},
	})
}

func (server *Server) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	result, err := server.toolService.Invoke(r.Context(), "orders", map[string]string{"cancel_order_id": orderID})
	if err != nil {
		server.writeError(w, err)
		return
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Order cancellation processed",
		Data:    map[string]interface{}{"cancel_result": result},
	})
}

func (server *Server) listTools(w http.ResponseWriter, r *http.Request) {
	var tools []domain.ToolInfo
	for _, name := range server.toolService.Names() {
		toolInfo, ok := server.toolService.Describe(name)
		if ok {
			tools = append(tools, toolInfo)
		}
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Available tools listed",
		Data:    map[string]interface{}{"tools": tools, "total_count": len(tools)},
	})
}

func (server *Server) toolInfo(w http.ResponseWriter, r *http.Request) {
	toolName := chi.URLParam(r, "toolName")

	toolInfo, ok := server.toolService.Describe(toolName)
	if !ok {
		server.writeJSON(w, http.StatusNotFound, domain.ErrorResponse{
			Detail: fmt.Sprintf("Tool '%s' not found", toolName),
		})
		return
	}

	server.writeJSON(w, http.StatusOK, domain.Response{
		Success: true,
		Message: "Tool information retrieved",
		Data:    map[string]interface{}{"tool": toolInfo},
	})
}

// writeError maps the error taxonomy onto HTTP statuses: validation failures
// to 422, upstream failures to the wrapped upstream status, everything else
// to a generic 500 that never carries secret material.
func (server *Server) writeError(w http.ResponseWriter, err error) {
	var validationError *domain.ValidationError
	var coinbaseError *services.CoinbaseError

	switch {
	case errors.As(err, &validationError):
		server.writeJSON(w, http.StatusUnprocessableEntity, domain.ErrorResponse{
			Detail:    validationError.Error(),
			ErrorType: "ValidationError",
		})
	case errors.As(err, &coinbaseError):
		status := coinbaseError.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		server.writeJSON(w, status, domain.ErrorResponse{
			Detail:    coinbaseError.Message,
			ErrorType: "CoinbaseError",
		})
	default:
		server.logger.Printf("unexpected error: %v", err)
		server.writeJSON(w, http.StatusInternalServerError, domain.ErrorResponse{Detail: "internal server error"})
	}
}

func (server *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		server.logger.Printf("failed to encode response: %v", err)
	}
}
