package permissions

import (
	"strings"

	"storefront/admin/internal/auth"
)

type Capability int

const (
	ViewDashboard Capability = iota
	ViewUsers
	CreateUsers
	DeleteUsers
	BanUsers
	WarnUsers
	UnbanUsers
	ChangeUserRole
	ViewProducts
	CreateProduct
	EditProduct
	DeleteProduct
	ToggleProductActive
	UploadProductImages
	DeleteProductImages
	ManageInventory
	AddInventory
	UpdateInventory
	ViewOrders
	UpdateOrders
	ViewOrderStats
	ViewReviews
	DeleteReviews

	capabilityCount
)

var names = [capabilityCount]string{
	ViewDashboard:       "viewDashboard",
	ViewUsers:           "viewUsers",
	CreateUsers:         "createUsers",
	DeleteUsers:         "deleteUsers",
	BanUsers:            "banUsers",
	WarnUsers:           "warnUsers",
	UnbanUsers:          "unbanUsers",
	ChangeUserRole:      "changeUserRole",
	ViewProducts:        "viewProducts",
	CreateProduct:       "createProduct",
	EditProduct:         "editProduct",
	DeleteProduct:       "deleteProduct",
	ToggleProductActive: "toggleProductActive",
	UploadProductImages: "uploadProductImages",
	DeleteProductImages: "deleteProductImages",
	ManageInventory:     "manageInventory",
	AddInventory:        "addInventory",
	UpdateInventory:     "updateInventory",
	ViewOrders:          "viewOrders",
	UpdateOrders:        "updateOrders",
	ViewOrderStats:      "viewOrderStats",
	ViewReviews:         "viewReviews",
	DeleteReviews:       "deleteReviews",
}

func (c Capability) String() string {
	if c < 0 || c >= capabilityCount {
		return "unknown"
	}
	return names[c]
}

// Key is the flag name exposed to the browser shell, e.g. canViewUsers.
func (c Capability) Key() string {
	name := c.String()
	return "can" + strings.ToUpper(name[:1]) + name[1:]
}

func All() []Capability {
	out := make([]Capability, 0, capabilityCount)
	for c := Capability(0); c < capabilityCount; c++ {
		out = append(out, c)
	}
	return out
}

// Set holds a decision for every capability; the zero value denies all.
type Set [capabilityCount]bool

func (s Set) Has(c Capability) bool {
	if c < 0 || c >= capabilityCount {
		return false
	}
	return s[c]
}

func (s Set) Map() map[string]bool {
	out := make(map[string]bool, capabilityCount)
	for _, c := range All() {
		out[c.Key()] = s[c]
	}
	return out
}

// Resolve is total over roles: unknown or customer roles get an all-false set.
func Resolve(role auth.Role) Set {
	var set Set
	for _, c := range All() {
		set[c] = allowed(role, c)
	}
	return set
}

func allowed(role auth.Role, c Capability) bool {
	switch role {
	case auth.RoleAdmin:
		return true
	case auth.RoleStaff:
		return staffAllowed(c)
	case auth.RoleCustomer, auth.RoleUnknown:
		return false
	default:
		return false
	}
}

// staffAllowed lists every capability so a new one cannot be added silently.
func staffAllowed(c Capability) bool {
	switch c {
	case ViewUsers,
		ViewProducts,
		ManageInventory,
		AddInventory,
		UpdateInventory,
		ViewOrders,
		UpdateOrders,
		ViewReviews:
		return true
	case ViewDashboard,
		CreateUsers,
		DeleteUsers,
		BanUsers,
		WarnUsers,
		UnbanUsers,
		ChangeUserRole,
		CreateProduct,
		EditProduct,
		DeleteProduct,
		ToggleProductActive,
		UploadProductImages,
		DeleteProductImages,
		ViewOrderStats,
		DeleteReviews:
		return false
	case capabilityCount:
		return false
	default:
		return false
	}
}
