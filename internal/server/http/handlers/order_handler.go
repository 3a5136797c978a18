package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/shipfire/payflow/internal/domain/errors"
	"github.com/shipfire/payflow/internal/domain/model"
	"github.com/shipfire/payflow/internal/server/http/dto"
	"github.com/shipfire/payflow/internal/usecase"
)

// OrderHandler processes order creation and purchaser-facing reads.
type OrderHandler struct {
	auth     AuthFacade
	checkout CheckoutFacade
}

// NewOrderHandler creates OrderHandler instance.
func NewOrderHandler(auth AuthFacade, checkout CheckoutFacade) *OrderHandler {
	return &OrderHandler{auth: auth, checkout: checkout}
}

// Create handles POST /api/user/orders for an authenticated user.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	user, err := currentUser(c, h.auth)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	input := orderInput(req)
	input.UserUUID = user.UUID
	input.UserEmail = user.Email
	h.create(c, input)
}

// GuestCreate handles POST /api/checkout/orders for guest purchases
// identified only by email.
func (h *OrderHandler) GuestCreate(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	h.create(c, orderInput(req))
}

func (h *OrderHandler) create(c *gin.Context, input usecase.CheckoutInput) {
	order, err := h.checkout.OpenOrder(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvalidAmount),
			errors.Is(err, domainErrors.ErrInvalidInterval),
			errors.Is(err, domainErrors.ErrMissingIdentity):
			c.Status(http.StatusBadRequest)
		default:
			c.Status(http.StatusInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, dto.NewOrderResponse(order))
}

// List handles GET /api/user/orders.
func (h *OrderHandler) List(c *gin.Context) {
	user, err := currentUser(c, h.auth)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	orders, err := h.checkout.PaidOrders(c.Request.Context(), user.UUID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(orders) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	response := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		response = append(response, dto.NewOrderResponse(&orders[i]))
	}
	c.JSON(http.StatusOK, response)
}

// Balance handles GET /api/user/balance.
func (h *OrderHandler) Balance(c *gin.Context) {
	user, err := currentUser(c, h.auth)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	credits, err := h.checkout.CreditBalance(c.Request.Context(), user.UUID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, dto.BalanceResponse{Credits: credits})
}

func orderInput(req dto.CreateOrderRequest) usecase.CheckoutInput {
	return usecase.CheckoutInput{
		UserEmail: req.Email,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Credits:   req.Credits,
		Interval:  model.OrderInterval(req.Interval),
		SessionID: req.SessionID,
	}
}
