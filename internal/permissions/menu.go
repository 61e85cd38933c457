package permissions

type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Show  bool   `json:"show"`
}

// Menu returns the sidebar entries in display order. Hidden entries are kept
// with Show=false so the shell can render placeholders consistently.
func Menu(set Set) []MenuItem {
	return []MenuItem{
		{Label: "Dashboard", Path: "/dashboard", Show: set.Has(ViewDashboard)},
		{Label: "Users", Path: "/users", Show: set.Has(ViewUsers)},
		{Label: "Products", Path: "/products", Show: set.Has(ViewProducts)},
		{Label: "Orders", Path: "/orders", Show: set.Has(ViewOrders)},
		{Label: "Reviews", Path: "/reviews", Show: set.Has(ViewReviews)},
	}
}

// Landing is the first visible menu path, or empty when nothing is visible.
func Landing(set Set) string {
	for _, item := range Menu(set) {
		if item.Show {
			return item.Path
		}
	}
	return ""
}
