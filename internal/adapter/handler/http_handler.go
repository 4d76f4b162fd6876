package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JustBrowsing/command-service/internal/core/domain"
	"github.com/JustBrowsing/command-service/internal/core/service"
)

type HTTPHandler struct {
	products  *service.ProductService
	inventory *service.InventoryService
	orders    *service.OrderService
}

func NewHTTPHandler(products *service.ProductService, inventory *service.InventoryService, orders *service.OrderService) *HTTPHandler {
	return &HTTPHandler{
		products:  products,
		inventory: inventory,
		orders:    orders,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("PUT /api/products/{productId}", h.UpdateProduct)
	mux.HandleFunc("POST /api/products/{productId}/tags", h.AddTag)
	mux.HandleFunc("DELETE /api/products/{productId}/tags/{tagId}", h.RemoveTag)
	mux.HandleFunc("PUT /api/products/{productId}/inventory", h.UpdateInventory)
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /health", h.HealthCheck)
}

type tagDTO struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type createProductRequest struct {
	SKU              string   `json:"sku"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	PriceCents       int64    `json:"priceCents"`
	InitialInventory int      `json:"initialInventory"`
	Tags             []tagDTO `json:"tags"`
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"priceCents"`
}

type updateInventoryRequest struct {
	QuantityChange int `json:"quantityChange"`
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	RequestID string             `json:"requestId"`
	Items     []orderItemRequest `json:"items"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Requested int    `json:"requested,omitempty"`
	Available int    `json:"available,omitempty"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	tags := make([]domain.TagAssignment, 0, len(req.Tags))
	for _, t := range req.Tags {
		tags = append(tags, domain.TagAssignment{Name: t.Name, Value: t.Value})
	}

	product, err := h.products.CreateProduct(r.Context(), service.CreateProductRequest{
		SKU:              req.SKU,
		Name:             req.Name,
		Description:      req.Description,
		PriceCents:       req.PriceCents,
		InitialInventory: req.InitialInventory,
		Tags:             tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   product.ID,
		"sku":  product.SKU,
		"name": product.Name,
	})
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), r.PathValue("productId"), service.UpdateProductRequest{
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": product.ID})
}

func (h *HTTPHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req tagDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "tag name is required"})
		return
	}

	productID := r.PathValue("productId")
	tagID, err := h.products.AddTag(r.Context(), productID, domain.TagAssignment{Name: req.Name, Value: req.Value})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"productId": productID,
		"tagId":     tagID,
	})
}

func (h *HTTPHandler) RemoveTag(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	tagID := r.PathValue("tagId")

	if err := h.products.RemoveTag(r.Context(), productID, tagID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"productId": productID,
		"tagId":     tagID,
	})
}

func (h *HTTPHandler) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	var req updateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	productID := r.PathValue("productId")
	inv, err := h.inventory.UpdateInventory(r.Context(), productID, req.QuantityChange)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"productId":   productID,
		"newQuantity": inv.Quantity,
	})
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	items := make([]service.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderRequest{
		RequestID: req.RequestID,
		Items:     items,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"orderId":          order.ID,
		"orderNumber":      order.OrderNumber,
		"totalAmountCents": order.TotalAmountCents,
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, err error) {
	var (
		notFound     *domain.NotFoundError
		duplicate    *domain.DuplicateResourceError
		insufficient *domain.InsufficientStockError
	)

	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: notFound.Error()})
	case errors.As(err, &duplicate):
		writeJSON(w, http.StatusConflict, errorResponse{Error: duplicate.Error()})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:     insufficient.Error(),
			Requested: insufficient.Requested,
			Available: insufficient.Available,
		})
	case errors.Is(err, domain.ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "concurrent modification, retry the request"})
	case errors.Is(err, service.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "duplicate request"})
	case errors.Is(err, service.ErrInvalidOrder),
		errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
