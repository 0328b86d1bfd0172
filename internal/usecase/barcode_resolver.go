package usecase

import (
	"context"
	"sync"

	"github.com/allertrack/backend/internal/domain"
	"github.com/allertrack/backend/internal/infrastructure/openfoodfacts"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notice messages shown to the user
const (
	MsgMissingBarcode   = "Please enter a barcode"
	MsgProductFound     = "Product found"
	MsgCatalogDataFound = "Product data loaded from Open Food Facts"
	MsgNotInCatalog     = "Product not found in Open Food Facts"
	MsgLookupFailed     = "Failed to look up barcode"
)

// ResolverHandlers are the caller's callbacks. Any of them may be nil.
type ResolverHandlers struct {
	// OnProductFound receives the id of an existing local product
	OnProductFound func(productID string)
	// OnCatalogData receives catalogue data normalized for the new-product form
	OnCatalogData func(form domain.ProductForm)
	// OnSettled observes every terminal outcome, after the callbacks above
	OnSettled func(barcode string, outcome domain.Outcome)
}

// Notifier shows transient notices to the user
type Notifier interface {
	Notify(notice domain.Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(notice domain.Notice)

// Notify calls f(notice)
func (f NotifierFunc) Notify(notice domain.Notice) {
	f(notice)
}

type resolution struct {
	generation uint64
	barcode    string
	status     domain.ResolutionStatus
	local      LocalQuery
	external   CatalogQuery
}

// BarcodeResolver resolves a barcode against the local database and the
// external catalogue at the same time and reports exactly one outcome per
// trigger. A resolver belongs to a single input surface.
//
// Results are consumed only while their resolution is in flight. A new
// trigger, a changed input, or Reset supersedes the running resolution and
// its late results are dropped without a notice.
type BarcodeResolver struct {
	local    domain.LocalFinder
	catalog  domain.CatalogFinder
	handlers ResolverHandlers
	notifier Notifier
	logger   *zap.Logger

	mu         sync.Mutex
	input      string
	current    resolution
	generation uint64

	queries errgroup.Group
}

// NewBarcodeResolver creates an idle resolver
func NewBarcodeResolver(
	local domain.LocalFinder,
	catalog domain.CatalogFinder,
	handlers ResolverHandlers,
	notifier Notifier,
	logger *zap.Logger,
) *BarcodeResolver {
	if notifier == nil {
		notifier = NotifierFunc(func(domain.Notice) {})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BarcodeResolver{
		local:    local,
		catalog:  catalog,
		handlers: handlers,
		notifier: notifier,
		logger:   logger.Named("resolver"),
	}
}

// SetBarcode updates the input value. Changing it away from the barcode of a
// running resolution abandons that resolution.
func (r *BarcodeResolver) SetBarcode(barcode string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.input = barcode
	if r.current.status == domain.StatusInFlight && domain.NormalizeBarcode(barcode) != r.current.barcode {
		r.logger.Debug("input changed, abandoning resolution", zap.String("barcode", r.current.barcode))
		r.current.status = domain.StatusIdle
	}
}

// Barcode returns the current input value
func (r *BarcodeResolver) Barcode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.input
}

// Reset clears the input and abandons any running resolution
func (r *BarcodeResolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.input = ""
	if r.current.status == domain.StatusInFlight {
		r.current.status = domain.StatusIdle
	}
}

// State returns a snapshot of the current resolution
func (r *BarcodeResolver) State() domain.ResolutionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.ResolutionState{Barcode: r.current.barcode, Status: r.current.status}
}

// Trigger starts a resolution for the current input value
func (r *BarcodeResolver) Trigger(ctx context.Context) error {
	return r.trigger(ctx, nil)
}

// TriggerBarcode stores barcode as the input value and starts a resolution for it
func (r *BarcodeResolver) TriggerBarcode(ctx context.Context, barcode string) error {
	return r.trigger(ctx, &barcode)
}

// Wait blocks until every dispatched lookup has returned and its result has
// been consumed or discarded.
func (r *BarcodeResolver) Wait() {
	_ = r.queries.Wait()
}

func (r *BarcodeResolver) trigger(ctx context.Context, override *string) error {
	r.mu.Lock()
	if override != nil {
		r.input = *override
	}
	barcode := domain.NormalizeBarcode(r.input)
	if barcode == "" {
		r.mu.Unlock()
		r.notifier.Notify(domain.Notice{Kind: domain.NoticeFailure, Message: MsgMissingBarcode})
		return domain.ErrMissingBarcode
	}

	if r.current.status == domain.StatusInFlight {
		r.logger.Debug("superseding resolution", zap.String("previous", r.current.barcode), zap.String("barcode", barcode))
	}
	r.generation++
	gen := r.generation
	r.current = resolution{generation: gen, barcode: barcode, status: domain.StatusInFlight}
	r.mu.Unlock()

	r.logger.Debug("resolving barcode", zap.String("barcode", barcode), zap.Uint64("generation", gen))

	r.queries.Go(func() error {
		match, err := r.local.FindByBarcode(ctx, barcode)
		r.settle(gen, func(res *resolution) {
			res.local = LocalQuery{Settled: true, Match: match, Err: err}
		})
		return nil
	})
	r.queries.Go(func() error {
		product, err := r.catalog.Lookup(ctx, barcode)
		r.settle(gen, func(res *resolution) {
			res.external = CatalogQuery{Settled: true, Product: product, Err: err}
		})
		return nil
	})

	return nil
}

// settle records one lookup result if its resolution is still in flight and
// delivers the outcome once both lookups have settled.
func (r *BarcodeResolver) settle(gen uint64, record func(*resolution)) {
	r.mu.Lock()
	if r.current.generation != gen || r.current.status != domain.StatusInFlight {
		r.mu.Unlock()
		r.logger.Debug("discarding stale result", zap.Uint64("generation", gen))
		return
	}

	record(&r.current)
	outcome := Arbitrate(r.current.local, r.current.external)
	if !outcome.Terminal() {
		r.mu.Unlock()
		return
	}

	barcode := r.current.barcode
	r.current = resolution{generation: gen, barcode: barcode, status: domain.StatusSettled}
	if outcome.Kind != domain.OutcomeFoundExternal {
		r.input = ""
	}
	r.mu.Unlock()

	defer r.finish(gen)
	r.deliver(barcode, outcome)
}

// finish returns a settled resolution to idle unless a callback already started a new one
func (r *BarcodeResolver) finish(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current.generation == gen && r.current.status == domain.StatusSettled {
		r.current.status = domain.StatusIdle
	}
}

func (r *BarcodeResolver) deliver(barcode string, outcome domain.Outcome) {
	r.logger.Info("barcode resolved",
		zap.String("barcode", barcode),
		zap.String("outcome", string(outcome.Kind)),
		zap.Error(outcome.Err),
	)

	switch outcome.Kind {
	case domain.OutcomeFoundLocal:
		if r.handlers.OnProductFound != nil {
			r.handlers.OnProductFound(outcome.Local.ID)
		}
		r.notifier.Notify(domain.Notice{Kind: domain.NoticeSuccess, Message: MsgProductFound})
	case domain.OutcomeFoundExternal:
		if r.handlers.OnCatalogData != nil {
			r.handlers.OnCatalogData(openfoodfacts.MapToProductForm(outcome.Product, barcode))
		}
		r.notifier.Notify(domain.Notice{Kind: domain.NoticeSuccess, Message: MsgCatalogDataFound})
	case domain.OutcomeNotFound:
		r.notifier.Notify(domain.Notice{Kind: domain.NoticeFailure, Message: MsgNotInCatalog})
	case domain.OutcomeFailed:
		r.notifier.Notify(domain.Notice{Kind: domain.NoticeFailure, Message: failureMessage(outcome.Err)})
	}

	if r.handlers.OnSettled != nil {
		r.handlers.OnSettled(barcode, outcome)
	}
}

func failureMessage(err error) string {
	if err == nil || err.Error() == "" {
		return MsgLookupFailed
	}
	return err.Error()
}
