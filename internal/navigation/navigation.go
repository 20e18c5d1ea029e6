// internal/navigation/navigation.go

// Package navigation serves the admin sidebar.
package navigation

import (
	"net/http"

	"rextra/internal/render"

	"github.com/go-chi/chi/v5"
)

// Item is a sidebar entry. Groups have children and no path.
type Item struct {
	Label    string `json:"label"`
	Path     string `json:"path,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Children []Item `json:"children,omitempty"`
}

// Sidebar returns the menu tree of the admin dashboard.
func Sidebar() []Item {
	return []Item{
		{Label: "Dashboard", Path: "/dashboard", Icon: "layout-dashboard"},
		{Label: "Asesmen", Icon: "clipboard-list", Children: []Item{
			{Label: "Hasil Tes", Path: "/assessments"},
		}},
		{Label: "Membership", Icon: "crown", Children: []Item{
			{Label: "Konfigurasi Harga", Path: "/membership/pricing"},
			{Label: "Hak Akses Fitur", Path: "/membership/entitlements"},
		}},
		{Label: "Token", Icon: "coins", Children: []Item{
			{Label: "Riwayat Token", Path: "/ledger"},
		}},
	}
}

// Find returns the item whose path is path, searching depth first.
func Find(items []Item, path string) (Item, bool) {
	for _, it := range items {
		if it.Path == path {
			return it, true
		}
		if found, ok := Find(it.Children, path); ok {
			return found, true
		}
	}
	return Item{}, false
}

// Routes mounts GET /navigation.
func Routes(r chi.Router) {
	r.Get("/navigation", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, Sidebar())
	})
}
