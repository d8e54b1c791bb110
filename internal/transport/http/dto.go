package http

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DTO транспортного слоя. Деньги ходят по проводу только в минимальных
// единицах (*_minor), времена — RFC 3339 UTC.

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token      string    `json:"token"`
	Role       string    `json:"role"`
	CustomerID string    `json:"customer_id,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type userResponse struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	Email      string `json:"email,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

type customerRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address,omitempty"`
}

type customerPatchRequest struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

type customerResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Address   string     `json:"address,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type productRequest struct {
	Name        string `json:"name"`
	PriceMinor  int64  `json:"price_minor"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Stock       int32  `json:"stock"`
}

type productPatchRequest struct {
	Name        *string `json:"name,omitempty"`
	PriceMinor  *int64  `json:"price_minor,omitempty"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
	Stock       *int32  `json:"stock,omitempty"`
}

type productResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	PriceMinor  int64      `json:"price_minor"`
	Description string     `json:"description,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Stock       int32      `json:"stock"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type orderLineRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type createOrderRequest struct {
	// CustomerID учитывается только для привилегированных сессий;
	// для обычного пользователя заказ всегда оформляется на его клиента.
	CustomerID      string             `json:"customer_id,omitempty"`
	Status          string             `json:"status,omitempty"`
	OrderDate       *time.Time         `json:"order_date,omitempty"`
	Phone           string             `json:"phone,omitempty"`
	DeliveryAddress string             `json:"delivery_address,omitempty"`
	Lines           []orderLineRequest `json:"lines"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type orderLineResponse struct {
	ID            string `json:"id"`
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	Qty           int32  `json:"qty"`
	PriceMinor    int64  `json:"price_minor"`
	SubtotalMinor int64  `json:"subtotal_minor"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	CustomerID      string              `json:"customer_id"`
	CustomerName    string              `json:"customer_name"`
	Status          string              `json:"status"`
	OrderDate       time.Time           `json:"order_date"`
	AmountMinor     int64               `json:"amount_minor"`
	Phone           string              `json:"phone,omitempty"`
	DeliveryAddress string              `json:"delivery_address,omitempty"`
	Lines           []orderLineResponse `json:"lines"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       *time.Time          `json:"updated_at,omitempty"`
}

type timelineEventResponse struct {
	OrderID  string    `json:"order_id"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toCustomerResponse(c domain.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: optionalTime(c.UpdatedAt),
	}
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		PriceMinor:  p.PriceMinor,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   optionalTime(p.UpdatedAt),
	}
}

func toOrderResponse(o domain.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, orderLineResponse{
			ID:            line.ID,
			ProductID:     line.ProductID,
			ProductName:   line.ProductName,
			Qty:           line.Qty,
			PriceMinor:    line.PriceMinor,
			SubtotalMinor: line.SubtotalMinor,
		})
	}
	return orderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		Status:          string(o.Status),
		OrderDate:       o.OrderDate,
		AmountMinor:     o.AmountMinor,
		Phone:           o.Phone,
		DeliveryAddress: o.DeliveryAddress,
		Lines:           lines,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       optionalTime(o.UpdatedAt),
	}
}

func toUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Username:   u.Username,
		Role:       string(u.Role),
		Email:      u.Email,
		CustomerID: u.CustomerID,
	}
}

func toTimelineResponse(events []domain.TimelineEvent) []timelineEventResponse {
	result := make([]timelineEventResponse, 0, len(events))
	for _, e := range events {
		result = append(result, timelineEventResponse{
			OrderID:  e.OrderID,
			Type:     e.Type,
			Reason:   e.Reason,
			Occurred: e.Occurred,
		})
	}
	return result
}
