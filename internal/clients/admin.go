package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"storefront/admin/internal/auth"
	"storefront/admin/internal/inventory"
	"storefront/admin/internal/orders"
)

// Login is sent to the auth API, outside the admin namespace.
func (b *Backend) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var out LoginResult
	err := b.doJSON(ctx, http.MethodPost, b.AuthBaseURL(), "/login", nil, req, &out)
	return out, err
}

func (b *Backend) DashboardOverview(ctx context.Context) (Overview, error) {
	var out Overview
	err := b.getJSON(ctx, "/dashboard/overview", nil, &out)
	return out, err
}

func (b *Backend) RevenueChart(ctx context.Context, startDate, endDate string) (Revenue, error) {
	query := url.Values{}
	setString(query, "startDate", startDate)
	setString(query, "endDate", endDate)
	var out Revenue
	err := b.getJSON(ctx, "/dashboard/revenue", query, &out)
	if out.DataPoints == nil {
		out.DataPoints = []RevenuePoint{}
	}
	return out, err
}

func (b *Backend) ListUsers(ctx context.Context, q ListQuery) (Page[User], error) {
	return listPage[User](ctx, b, "/users", q)
}

func (b *Backend) GetUser(ctx context.Context, id int64) (User, error) {
	var out User
	err := b.getJSON(ctx, fmt.Sprintf("/users/%d", id), nil, &out)
	return out, err
}

func (b *Backend) CreateUser(ctx context.Context, in UserInput) (User, error) {
	var out User
	err := b.sendJSON(ctx, http.MethodPost, "/users", in, &out)
	return out, err
}

func (b *Backend) DeleteUser(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}

func (b *Backend) BanUser(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d/ban", id), nil, nil)
}

func (b *Backend) UnbanUser(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d/unban", id), nil, nil)
}

func (b *Backend) WarnUser(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d/warn", id), nil, nil)
}

func (b *Backend) ChangeUserRole(ctx context.Context, id int64, role auth.Role) error {
	return b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/users/%d/role", id), RoleChange{Role: role}, nil)
}

func (b *Backend) UserStats(ctx context.Context) (Stats, error) {
	out := Stats{}
	err := b.getJSON(ctx, "/users/stats", nil, &out)
	return out, err
}

func (b *Backend) ListProducts(ctx context.Context, q ListQuery) (Page[Product], error) {
	return listPage[Product](ctx, b, "/products", q)
}

func (b *Backend) GetProduct(ctx context.Context, id int64) (Product, error) {
	var out Product
	err := b.getJSON(ctx, fmt.Sprintf("/products/%d", id), nil, &out)
	return out, err
}

func (b *Backend) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	var out Product
	err := b.sendJSON(ctx, http.MethodPost, "/products", in, &out)
	return out, err
}

func (b *Backend) UpdateProduct(ctx context.Context, id int64, in ProductInput) (Product, error) {
	var out Product
	err := b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d", id), in, &out)
	return out, err
}

func (b *Backend) DeleteProduct(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/products/%d", id), nil, nil)
}

func (b *Backend) ToggleProductActive(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d/toggle-active", id), nil, nil)
}

func (b *Backend) AddInventory(ctx context.Context, productID int64, payload inventory.Payload) (inventory.Inventory, error) {
	var out inventory.Inventory
	err := b.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/products/%d/inventory", productID), payload, &out)
	return out, err
}

func (b *Backend) UpdateInventory(ctx context.Context, productID, inventoryID int64, payload inventory.Payload) (inventory.Inventory, error) {
	var out inventory.Inventory
	err := b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/products/%d/inventory/%d", productID, inventoryID), payload, &out)
	return out, err
}

// UploadProductImage sends one file as the multipart field "file".
func (b *Backend) UploadProductImage(ctx context.Context, productID int64, filename string, content io.Reader) (Image, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return Image{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return Image{}, fmt.Errorf("copy image: %w", err)
	}
	if err := form.Close(); err != nil {
		return Image{}, err
	}
	raw, err := b.do(ctx, http.MethodPost, b.AdminBaseURL(), fmt.Sprintf("/products/%d/images", productID), nil, &buf, form.FormDataContentType())
	if err != nil {
		return Image{}, err
	}
	var out Image
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(unwrap(raw), &out); err != nil {
			return Image{}, fmt.Errorf("decode image upload: %w", err)
		}
	}
	return out, nil
}

func (b *Backend) DeleteProductImage(ctx context.Context, imageID int64) error {
	return b.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/products/images/%d", imageID), nil, nil)
}

func (b *Backend) ListOrders(ctx context.Context, q ListQuery) (Page[Order], error) {
	return listPage[Order](ctx, b, "/orders", q)
}

func (b *Backend) GetOrder(ctx context.Context, id int64) (Order, error) {
	var out Order
	err := b.getJSON(ctx, fmt.Sprintf("/orders/%d", id), nil, &out)
	return out, err
}

type statusChange struct {
	Status orders.Status `json:"status"`
}

func (b *Backend) UpdateOrderStatus(ctx context.Context, orderID int64, status orders.Status) error {
	return b.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/orders/%d", orderID), statusChange{Status: status}, nil)
}

func (b *Backend) OrderStats(ctx context.Context, startDate, endDate string) (Stats, error) {
	query := url.Values{}
	setString(query, "startDate", startDate)
	setString(query, "endDate", endDate)
	out := Stats{}
	err := b.getJSON(ctx, "/orders/stats", query, &out)
	return out, err
}

func (b *Backend) ListReviews(ctx context.Context, q ListQuery) (Page[Review], error) {
	return listPage[Review](ctx, b, "/reviews", q)
}

func (b *Backend) GetReview(ctx context.Context, id int64) (Review, error) {
	var out Review
	err := b.getJSON(ctx, fmt.Sprintf("/reviews/%d", id), nil, &out)
	return out, err
}

func (b *Backend) DeleteReview(ctx context.Context, id int64) error {
	return b.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/reviews/%d", id), nil, nil)
}

type pageBody struct {
	Content       json.RawMessage `json:"content"`
	Data          json.RawMessage `json:"data"`
	TotalPages    int             `json:"totalPages"`
	TotalElements int64           `json:"totalElements"`
	Pagination    struct {
		TotalPages    int   `json:"totalPages"`
		TotalElements int64 `json:"totalElements"`
	} `json:"pagination"`
}

func listPage[T any](ctx context.Context, b *Backend, path string, q ListQuery) (Page[T], error) {
	raw, err := b.do(ctx, http.MethodGet, b.AdminBaseURL(), path, q.Values(), nil, "")
	if err != nil {
		return Page[T]{}, err
	}
	page, err := decodePage[T](raw)
	if err != nil {
		return Page[T]{}, fmt.Errorf("decode %s: %w", path, err)
	}
	page.Page = q.Page
	page.Size = q.PageSize()
	return page, nil
}

// decodePage accepts items under content or data, either at the top level or
// inside a data envelope, and defaults to a single page.
func decodePage[T any](raw []byte) (Page[T], error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		page := Page[T]{Items: []T{}, TotalPages: 1}
		err := json.Unmarshal(raw, &page.Items)
		return page, err
	}
	var body pageBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return Page[T]{}, err
	}
	items := body.Content
	if isNull(items) && !isNull(body.Data) {
		trimmed := bytes.TrimSpace(body.Data)
		if trimmed[0] == '{' {
			return decodePage[T](trimmed)
		}
		items = trimmed
	}

	page := Page[T]{Items: []T{}, TotalPages: 1}
	if !isNull(items) {
		if err := json.Unmarshal(items, &page.Items); err != nil {
			return Page[T]{}, err
		}
	}
	switch {
	case body.TotalPages > 0:
		page.TotalPages = body.TotalPages
	case body.Pagination.TotalPages > 0:
		page.TotalPages = body.Pagination.TotalPages
	}
	page.TotalElements = body.TotalElements
	if page.TotalElements == 0 {
		page.TotalElements = body.Pagination.TotalElements
	}
	return page, nil
}
