package portal

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/voicedesk/pkg/billing"
	"github.com/dmitrymomot/voicedesk/pkg/logger"
	"github.com/dmitrymomot/voicedesk/pkg/plans"
	"github.com/dmitrymomot/voicedesk/pkg/tenant"
	"github.com/dmitrymomot/voicedesk/pkg/usage"
	"github.com/dmitrymomot/voicedesk/svc/datasource"
)

// Signature headers of the supported processors.
var signatureHeaders = []string{"Stripe-Signature", "Paddle-Signature"}

func (p *Portal) signup(r *http.Request) Response {
	var in tenant.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	t, err := p.tenants.Register(r.Context(), in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(t, http.StatusCreated)
}

func (p *Portal) subscriptionInfo(r *http.Request) Response {
	snap, err := p.gate.Resolve(r.Context(), tenantID(r))
	if err != nil {
		return JSONError(err)
	}
	return JSON(snap)
}

type checkRequest struct {
	Category plans.Category `json:"category"`
}

type checkResponse struct {
	Allowed bool             `json:"allowed"`
	State   usage.GuardState `json:"state"`
}

// checkUsage derives allowed and state from one resolution. A failed resolution
// yields state "unverified" with allowed set by the failure policy.
func (p *Portal) checkUsage(r *http.Request) Response {
	var req checkRequest
	if err := decodeJSON(r, &req); err != nil {
		return JSONError(err)
	}
	if !req.Category.Valid() {
		return JSONError(plans.ErrInvalidCategory)
	}

	d, err := p.gate.Decide(r.Context(), tenantID(r), req.Category)
	if errors.Is(err, usage.ErrNotFound) {
		return JSONError(err)
	}
	return JSON(checkResponse{Allowed: d.Allowed, State: d.View.State})
}

type incrementRequest struct {
	Category plans.Category `json:"category"`
	Amount   int64          `json:"amount"`
}

func (p *Portal) incrementUsage(r *http.Request) Response {
	var req incrementRequest
	if err := decodeJSON(r, &req); err != nil {
		return JSONError(err)
	}
	if !req.Category.Valid() {
		return JSONError(plans.ErrInvalidCategory)
	}
	if req.Amount == 0 {
		req.Amount = 1
	}
	if req.Amount < 0 {
		return JSONError(usage.ErrInvalidAmount)
	}

	id := tenantID(r)
	allowed, err := p.gate.CheckLimit(r.Context(), id, req.Category)
	if !allowed {
		if err == nil {
			return JSONError(ErrLimitReached)
		}
		return JSONError(err)
	}

	if !p.gate.RecordUsage(r.Context(), id, req.Category, req.Amount) {
		return JSONError(ErrRecordFailed)
	}
	return JSON(map[string]any{"recorded": true, "category": req.Category, "amount": req.Amount})
}

func (p *Portal) guard(r *http.Request) Response {
	category, err := plans.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		return JSONError(err)
	}
	view := p.gate.Evaluate(r.Context(), tenantID(r), category)
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		return HTML(GuardBanner(view, printerFor(r)))
	}
	return JSON(view)
}

type checkoutRequest struct {
	Plan       plans.ID `json:"plan"`
	SuccessURL string   `json:"success_url,omitempty"`
	CancelURL  string   `json:"cancel_url,omitempty"`
}

func (p *Portal) checkout(r *http.Request) Response {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		return JSONError(err)
	}
	if req.Plan == "" {
		return JSONError(fmt.Errorf("%w: plan is required", plans.ErrUnknownPlan))
	}
	link, err := p.billing.Checkout(r.Context(), tenantID(r), req.Plan, billing.CheckoutOptions{
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return JSONError(err)
	}
	return JSON(link)
}

func (p *Portal) cancel(r *http.Request) Response {
	if err := p.billing.Cancel(r.Context(), tenantID(r)); err != nil {
		return JSONError(err)
	}
	return JSON(map[string]any{"status": tenant.StatusCanceling})
}

func (p *Portal) webhook(r *http.Request) Response {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return JSONError(errors.Join(billing.ErrInvalidWebhook, err))
	}

	var signature string
	for _, h := range signatureHeaders {
		if signature = r.Header.Get(h); signature != "" {
			break
		}
	}

	if err := p.billing.HandleWebhook(r.Context(), payload, signature); err != nil {
		p.log.WarnContext(r.Context(), "webhook rejected", logger.Error(err))
		return JSONError(err)
	}
	return JSON(map[string]any{"received": true})
}

func (p *Portal) listDataSources(r *http.Request) Response {
	list, err := p.sources.List(r.Context(), tenantID(r))
	if err != nil {
		return JSONError(err)
	}
	return JSON(list)
}

func (p *Portal) createDataSource(r *http.Request) Response {
	var in datasource.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	ds, err := p.sources.Create(r.Context(), tenantID(r), in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(ds, http.StatusCreated)
}

func (p *Portal) updateDataSource(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	var in datasource.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		return JSONError(err)
	}
	ds, err := p.sources.Update(r.Context(), tenantID(r), id, in)
	if err != nil {
		return JSONError(err)
	}
	return JSON(ds)
}

func (p *Portal) deleteDataSource(r *http.Request) Response {
	id, err := pathID(r, "id")
	if err != nil {
		return JSONError(err)
	}
	if err := p.sources.Delete(r.Context(), tenantID(r), id); err != nil {
		return JSONError(err)
	}
	return noContent{}
}
