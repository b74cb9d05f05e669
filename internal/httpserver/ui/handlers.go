package ui

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"finitefield.org/chatthing-web/internal/content"
	custommw "finitefield.org/chatthing-web/internal/httpserver/middleware"
	"finitefield.org/chatthing-web/internal/httpx"
	"finitefield.org/chatthing-web/internal/observability"
	"finitefield.org/chatthing-web/internal/templates"
	"finitefield.org/chatthing-web/internal/uistate"
	"finitefield.org/chatthing-web/internal/views"
)

// NavigateEvent is the client event fired after a sidebar entry closes the panel.
const NavigateEvent = "landing:navigate"

// Dependencies collects what the UI handlers render from.
type Dependencies struct {
	Catalog    *content.Catalog
	Views      *views.Store
	Renderer   *templates.Renderer
	CSRFHeader string
}

// Handlers exposes the page and its widget fragments.
type Handlers struct {
	catalog    *content.Catalog
	views      *views.Store
	renderer   *templates.Renderer
	csrfHeader string
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		catalog:    deps.Catalog,
		views:      deps.Views,
		renderer:   deps.Renderer,
		csrfHeader: deps.CSRFHeader,
	}
}

// Page renders the landing page and opens a new page view with initial state.
func (h *Handlers) Page(w http.ResponseWriter, r *http.Request) {
	view, handle, err := h.views.Create(len(h.catalog.FAQ.Entries))
	if err != nil {
		observability.FromContext(r.Context()).Error("create page view", zap.Error(err))
		httpx.WriteError(r.Context(), w, httpx.NewError("view_unavailable", "could not open page view", http.StatusInternalServerError))
		return
	}
	r = r.WithContext(observability.WithFields(r.Context(), zap.String("view_id", view.ID)))
	observability.FromContext(r.Context()).Debug("page view opened")

	data := h.pageData(r, handle, view.Snapshot())
	templ.Handler(h.renderer.Page(data)).ServeHTTP(w, r)
}

// NavOpen opens the mobile menu.
func (h *Handlers) NavOpen(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventNavOpen}, templates.FragmentNavPanel)
}

// NavClose closes the mobile menu.
func (h *Handlers) NavClose(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventNavClose}, templates.FragmentNavPanel)
}

// NavEntry closes the mobile menu and asks the client to follow the chosen entry.
func (h *Handlers) NavEntry(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	index := pathIndex(r)
	entry, err := h.catalog.MenuAt(index)
	if err != nil {
		snap, lookupErr := h.views.Snapshot(handle)
		if lookupErr != nil {
			h.fail(w, r, lookupErr)
			return
		}
		h.violation(w, r, err, handle, snap, templates.FragmentNavPanel)
		return
	}

	snap, err := h.views.Dispatch(r.Context(), handle, uistate.Event{Kind: uistate.EventNavClose})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := custommw.TriggerEvent(w, NavigateEvent, map[string]string{"href": entry.Link}); err != nil {
		observability.FromContext(r.Context()).Warn("set navigate trigger", zap.Error(err))
	}
	h.renderFragment(w, r, handle, snap, templates.FragmentNavPanel)
}

// PricingSelect switches the billing period.
func (h *Handlers) PricingSelect(w http.ResponseWriter, r *http.Request) {
	index := pathIndex(r)
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventPricingSelect, Index: index}, templates.FragmentPricing)
}

// FAQToggle expands or collapses one FAQ entry.
func (h *Handlers) FAQToggle(w http.ResponseWriter, r *http.Request) {
	index := pathIndex(r)
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventFAQToggle, Index: index}, templates.FragmentFAQ)
}

// ChatToggle flips the chat overlay.
func (h *Handlers) ChatToggle(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventChatToggle}, templates.FragmentChat)
}

// ChatShow shows the chat overlay.
func (h *Handlers) ChatShow(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventChatShow}, templates.FragmentChat)
}

// ChatHide hides the chat overlay.
func (h *Handlers) ChatHide(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, uistate.Event{Kind: uistate.EventChatHide}, templates.FragmentChat)
}

func (h *Handlers) dispatch(w http.ResponseWriter, r *http.Request, ev uistate.Event, fragment templates.Fragment) {
	handle := chi.URLParam(r, "handle")
	snap, err := h.views.Dispatch(r.Context(), handle, ev)
	switch {
	case err == nil:
		h.renderFragment(w, r, handle, snap, fragment)
	case uistate.IsContractViolation(err):
		h.violation(w, r, err, handle, snap, fragment)
	default:
		h.fail(w, r, err)
	}
}

// violation applies the environment's policy: strict answers 422, lenient
// re-renders the unchanged fragment.
func (h *Handlers) violation(w http.ResponseWriter, r *http.Request, err error, handle string, snap uistate.Snapshot, fragment templates.Fragment) {
	logger := observability.FromContext(r.Context())
	policy := custommw.PolicyFromContext(r.Context())
	if resolved := policy.Resolve(err); resolved != nil {
		logger.Error("rejected ui event", zap.Error(resolved), zap.Stringer("policy", policy))
		httpx.WriteError(r.Context(), w, violationError(resolved))
		return
	}
	logger.Warn("ignored ui event", zap.Error(err), zap.Stringer("policy", policy))
	h.renderFragment(w, r, handle, snap, fragment)
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := observability.FromContext(r.Context())
	if errors.Is(err, views.ErrInvalidHandle) || errors.Is(err, views.ErrViewNotFound) {
		logger.Info("stale page view", zap.Error(err))
		custommw.Refresh(w)
		httpx.WriteError(r.Context(), w, httpx.NewError("view_gone", "page view expired; reload the page", http.StatusGone))
		return
	}
	logger.Error("ui event failed", zap.Error(err))
	httpx.WriteError(r.Context(), w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
}

func (h *Handlers) renderFragment(w http.ResponseWriter, r *http.Request, handle string, snap uistate.Snapshot, fragment templates.Fragment) {
	data := h.pageData(r, handle, snap)
	templ.Handler(h.renderer.Fragment(fragment, data)).ServeHTTP(w, r)
}

func (h *Handlers) pageData(r *http.Request, handle string, snap uistate.Snapshot) templates.PageData {
	ctx := r.Context()
	return templates.PageData{
		Catalog:     h.catalog,
		State:       snap,
		Handle:      handle,
		CSRFToken:   custommw.CSRFTokenFromContext(ctx),
		CSRFHeader:  h.csrfHeader,
		BasePath:    custommw.BasePathFromContext(ctx),
		Environment: custommw.EnvironmentFromContext(ctx),
	}
}

// pathIndex parses {index}; malformed values map to -1 so they fail the
// same bounds check as out-of-range ones.
func pathIndex(r *http.Request) int {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return -1
	}
	return index
}

func violationError(err error) httpx.Error {
	var (
		period *uistate.InvalidPeriodError
		bounds *uistate.IndexOutOfRangeError
	)
	switch {
	case errors.As(err, &period):
		return httpx.NewError("invalid_period", err.Error(), http.StatusUnprocessableEntity).
			With("index", period.Index)
	case errors.As(err, &bounds):
		return httpx.NewError("index_out_of_range", err.Error(), http.StatusUnprocessableEntity).
			With("collection", bounds.Collection).
			With("index", bounds.Index).
			With("len", bounds.Len)
	default:
		return httpx.NewError("unknown_event", err.Error(), http.StatusUnprocessableEntity)
	}
}
