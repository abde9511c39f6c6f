package rest

import "time"

// Authentication types

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the request body for account creation.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"` // "customer" or "provider"
}

// TokenResponse is returned after successful authentication.
type TokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User represents an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Product types

// Product is a service listing in the marketplace.
type Product struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"providerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	PriceCents  int64     `json:"priceCents"`
	Currency    string    `json:"currency"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProductFilter narrows a product listing. Zero values are omitted from the
// query string.
type ProductFilter struct {
	Category      string
	Query         string
	MinPriceCents int64
	MaxPriceCents int64
	Limit         int
	Offset        int
}

// Order types

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAccepted  OrderStatus = "accepted"
	OrderRejected  OrderStatus = "rejected"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a placed order for a service listing.
type Order struct {
	ID         string      `json:"id"`
	ProductID  string      `json:"productId"`
	CustomerID string      `json:"customerId"`
	ProviderID string      `json:"providerId"`
	Status     OrderStatus `json:"status"`
	Note       string      `json:"note,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// CreateOrderRequest is the request body for placing an order.
type CreateOrderRequest struct {
	ProductID string `json:"productId"`
	Note      string `json:"note,omitempty"`
}

// RejectOrderRequest carries the optional rejection reason.
type RejectOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

// Team types

// Team groups provider accounts that share a chat.
type Team struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"memberIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// Push notification types

// PushTokenRequest registers a device token with the push bridge.
type PushTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"` // "ios", "android" or "web"
}

// Upload types

// Attachment describes an uploaded file.
type Attachment struct {
	ID          string `json:"id"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	URL         string `json:"url"`
}

// ErrorResponse is the backend's error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
