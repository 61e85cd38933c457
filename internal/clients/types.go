package clients

import (
	"encoding/json"
	"net/url"
	"strconv"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/orders"
)

const DefaultPageSize = 20

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	AccessToken string         `json:"accessToken"`
	User        auth.Principal `json:"user"`
}

type Overview struct {
	TotalUsers        int64   `json:"totalUsers"`
	TotalStaff        int64   `json:"totalStaff"`
	NewUsersThisMonth int64   `json:"newUsersThisMonth"`
	TotalProducts     int64   `json:"totalProducts"`
	ActiveProducts    int64   `json:"activeProducts"`
	TotalOrders       int64   `json:"totalOrders"`
	PendingOrders     int64   `json:"pendingOrders"`
	ConfirmedOrders   int64   `json:"confirmedOrders"`
	ShippedOrders     int64   `json:"shippedOrders"`
	DeliveredOrders   int64   `json:"deliveredOrders"`
	CancelledOrders   int64   `json:"cancelledOrders"`
	TotalRevenue      float64 `json:"totalRevenue"`
	RevenueToday      float64 `json:"revenueToday"`
	RevenueThisMonth  float64 `json:"revenueThisMonth"`
}

type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
	Orders  int64   `json:"orders,omitempty"`
}

type Revenue struct {
	TotalRevenue float64        `json:"totalRevenue"`
	DataPoints   []RevenuePoint `json:"dataPoints"`
}

// Stats is a backend statistics object passed through as-is.
type Stats map[string]interface{}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name,omitempty"`
	FullName     string    `json:"fullName,omitempty"`
	Email        string    `json:"email"`
	Role         auth.Role `json:"role"`
	IsActive     bool      `json:"isActive"`
	IsBanned     bool      `json:"isBanned"`
	WarningCount int       `json:"warningCount,omitempty"`
	CreatedAt    string    `json:"createdAt,omitempty"`
}

type UserInput struct {
	Name     string    `json:"name" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required,min=6"`
	Role     auth.Role `json:"role" validate:"required,oneof=ADMIN STAFF CUSTOMER"`
	IsActive bool      `json:"isActive"`
}

type RoleChange struct {
	Role auth.Role `json:"role" validate:"required,oneof=ADMIN STAFF CUSTOMER"`
}

type Image struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// Specs holds the free-form hardware attributes shown on the product form.
type Specs struct {
	Color           string `json:"color,omitempty"`
	Weight          string `json:"weight,omitempty"`
	Dimension       string `json:"dimension,omitempty"`
	BatteryType     string `json:"batteryType,omitempty"`
	BatteryCapacity string `json:"batteryCapacity,omitempty"`
	RAMCapacity     string `json:"ramCapacity,omitempty"`
	ROMCapacity     string `json:"romCapacity,omitempty"`
	ScreenSize      string `json:"screenSize,omitempty"`
	ConnectionPort  string `json:"connectionPort,omitempty"`
}

type Product struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Brand       string `json:"brand,omitempty"`
	Description string `json:"description,omitempty"`
	Specs
	DetailedReview      string                `json:"detailedReview,omitempty"`
	PowerfulPerformance string                `json:"powerfulPerformance,omitempty"`
	CategoryID          *int64                `json:"categoryId,omitempty"`
	Active              bool                  `json:"active"`
	Images              []Image               `json:"images"`
	Inventories         []inventory.Inventory `json:"inventories"`
	AverageRating       float64               `json:"averageRating"`
	NumRatings          int                   `json:"numRatings"`
	QuantitySold        int                   `json:"quantitySold"`
	CreatedAt           string                `json:"createdAt,omitempty"`
	UpdatedAt           string                `json:"updatedAt,omitempty"`
}

// UnmarshalJSON also accepts the older isActive key for the active flag.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var aux struct {
		plain
		Active   *bool `json:"active"`
		IsActive *bool `json:"isActive"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Product(aux.plain)
	switch {
	case aux.Active != nil:
		p.Active = *aux.Active
	case aux.IsActive != nil:
		p.Active = *aux.IsActive
	}
	return nil
}

type ProductInput struct {
	Title       string `json:"title" validate:"required"`
	Brand       string `json:"brand"`
	Description string `json:"description"`
	Specs
	DetailedReview      string              `json:"detailedReview,omitempty"`
	PowerfulPerformance string              `json:"powerfulPerformance,omitempty"`
	CategoryID          *int64              `json:"categoryId" validate:"required"`
	Active              bool                `json:"active"`
	Inventories         []inventory.Payload `json:"inventories,omitempty" validate:"dive"`
}

type OrderItem struct {
	ProductID       int64   `json:"productId"`
	ProductTitle    string  `json:"productTitle"`
	Size            string  `json:"size,omitempty"`
	Quantity        int     `json:"quantity"`
	Price           float64 `json:"price"`
	DiscountedPrice float64 `json:"discountedPrice"`
}

// Order carries its status under either orderStatus or status depending on
// the backend endpoint.
type Order struct {
	ID                     int64       `json:"id"`
	UserID                 int64       `json:"userId,omitempty"`
	UserName               string      `json:"userName,omitempty"`
	UserEmail              string      `json:"userEmail,omitempty"`
	OrderStatus            string      `json:"orderStatus,omitempty"`
	RawStatus              string      `json:"status,omitempty"`
	PaymentStatus          string      `json:"paymentStatus,omitempty"`
	PaymentMethod          string      `json:"paymentMethod,omitempty"`
	TotalPrice             float64     `json:"totalPrice"`
	TotalItems             int         `json:"totalItems"`
	OrderItems             []OrderItem `json:"orderItems"`
	ShippingAddressDetails string      `json:"shippingAddressDetails,omitempty"`
	CreatedAt              string      `json:"createdAt,omitempty"`
	DeliveryDate           string      `json:"deliveryDate,omitempty"`
}

// Status is the first recognised value of orderStatus and status. A value
// outside the known set comes back as the backend sent it, normalised, so it
// never picks up another status's transitions.
func (o Order) Status() orders.Status {
	var unknown orders.Status
	for _, raw := range []string{o.OrderStatus, o.RawStatus} {
		status, ok := orders.ParseStatus(raw)
		if ok {
			return status
		}
		if unknown == "" {
			unknown = status
		}
	}
	return unknown
}

type Review struct {
	ID            int64  `json:"id"`
	ProductID     int64  `json:"productId"`
	ProductTitle  string `json:"productTitle,omitempty"`
	UserID        int64  `json:"userId"`
	UserName      string `json:"userName,omitempty"`
	UserEmail     string `json:"userEmail,omitempty"`
	Rating        int    `json:"rating"`
	ReviewContent string `json:"reviewContent,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

type Page[T any] struct {
	Items         []T   `json:"items"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements,omitempty"`
}

// ListQuery holds the filters accepted by the backend list endpoints. Pages
// are 0-indexed.
type ListQuery struct {
	Page          int
	Size          int
	Search        string
	Role          string
	IsBanned      *bool
	CategoryID    int64
	IsActive      *bool
	Status        string
	PaymentStatus string
	StartDate     string
	EndDate       string
	ProductID     int64
	UserID        int64
}

func (q ListQuery) PageSize() int {
	if q.Size <= 0 {
		return DefaultPageSize
	}
	return q.Size
}

func (q ListQuery) Values() url.Values {
	values := url.Values{}
	page := q.Page
	if page < 0 {
		page = 0
	}
	values.Set("page", strconv.Itoa(page))
	values.Set("size", strconv.Itoa(q.PageSize()))
	setString(values, "search", q.Search)
	setString(values, "role", q.Role)
	setString(values, "status", q.Status)
	setString(values, "paymentStatus", q.PaymentStatus)
	setString(values, "startDate", q.StartDate)
	setString(values, "endDate", q.EndDate)
	if q.IsBanned != nil {
		values.Set("isBanned", strconv.FormatBool(*q.IsBanned))
	}
	if q.IsActive != nil {
		values.Set("isActive", strconv.FormatBool(*q.IsActive))
	}
	if q.CategoryID > 0 {
		values.Set("categoryId", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.ProductID > 0 {
		values.Set("productId", strconv.FormatInt(q.ProductID, 10))
	}
	if q.UserID > 0 {
		values.Set("userId", strconv.FormatInt(q.UserID, 10))
	}
	return values
}

func setString(values url.Values, key, value string) {
	if value != "" {
		values.Set(key, value)
	}
}
