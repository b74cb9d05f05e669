package templates

import (
	"encoding/json"

	"finitefield.org/chatthing-web/internal/content"
	"finitefield.org/chatthing-web/internal/httpserver/middleware"
	"finitefield.org/chatthing-web/internal/uistate"
)

// Script is an external script pinned with subresource integrity.
type Script struct {
	Src       string
	Integrity string
}

// HTMX is the pinned htmx release the widgets post through.
var HTMX = Script{
	Src:       "https://unpkg.com/htmx.org@1.9.12/dist/htmx.min.js",
	Integrity: "sha384-ujb1lZYygJmzgSwoxRggbCHcjc0rB2XoQrxeTUQyRjrOnlCoYta87iKBWq3EsdM2",
}

// PageData is the view model shared by the page and its fragments.
type PageData struct {
	Catalog     *content.Catalog
	State       uistate.Snapshot
	Handle      string
	CSRFToken   string
	CSRFHeader  string
	BasePath    string
	Environment string
	// Static renders without htmx endpoints, for exported snapshots.
	Static bool
}

// Interactive reports whether widgets should post events back to the server.
func (d PageData) Interactive() bool {
	return !d.Static && d.Handle != ""
}

// Action returns the endpoint for an event on the current view.
func (d PageData) Action(parts ...string) string {
	return middleware.JoinBase(d.BasePath, append([]string{"views", d.Handle}, parts...)...)
}

// Asset returns the URL of an embedded static file.
func (d PageData) Asset(name string) string {
	return middleware.JoinBase(d.BasePath, "public", "static", name)
}

// HXHeaders is the JSON for hx-headers carrying the CSRF token.
func (d PageData) HXHeaders() string {
	header := d.CSRFHeader
	if header == "" {
		header = "X-CSRF-Token"
	}
	payload, err := json.Marshal(map[string]string{header: d.CSRFToken})
	if err != nil {
		return "{}"
	}
	return string(payload)
}

// PriceFor projects plan onto the selected billing period.
func (d PageData) PriceFor(plan content.PricingPlan) string {
	return d.State.PriceFor(plan)
}

// PeriodSuffix is the unit shown next to prices, e.g. "/month".
func (d PageData) PeriodSuffix() string {
	return d.Catalog.Period(d.State.Period).Suffix
}

// IsPeriod reports whether index is the selected billing period.
func (d PageData) IsPeriod(index int) bool {
	return int(d.State.Period) == index
}

// IsExpanded reports whether FAQ entry index is expanded.
func (d PageData) IsExpanded(index int) bool {
	return d.State.IsExpanded(index)
}
