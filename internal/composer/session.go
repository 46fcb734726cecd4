package composer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/cardapio/internal/domain"
	"github.com/dukerupert/cardapio/internal/telemetry"
)

// Deps are the collaborators shared by every configuration session.
type Deps struct {
	Catalog  domain.CatalogProvider
	Coupons  domain.CouponValidator
	Logger   *slog.Logger
	Reporter telemetry.Reporter
	Metrics  *telemetry.BusinessMetrics

	// Now is overridable for tests.
	Now func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Reporter == nil {
		d.Reporter = telemetry.NopReporter{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Snapshot is an immutable view of a session after a mutation.
type Snapshot struct {
	SessionID       uuid.UUID
	EstablishmentID uuid.UUID
	Version         uint64
	Ready           bool
	Product         *domain.Product
	Selection       Selection
	Candidates      []domain.Product
	Verdict         Verdict
	Groups          []GroupStatus
	UnitPrice       decimal.Decimal
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
}

// Session owns the Selection of one product configuration. Every mutation
// replaces the selection with a new snapshot and bumps Version; a closed
// session refuses mutations and ignores late catalog results.
type Session struct {
	id              uuid.UUID
	establishmentID uuid.UUID
	deps            Deps
	logger          *slog.Logger

	mu             sync.Mutex
	product        domain.Product
	candidates     []domain.Product
	sel            Selection
	version        uint64
	loaded         bool
	closed         bool
	couponInFlight bool
	lastTouched    time.Time
	watchers       map[int]func(Snapshot)
	nextWatcher    int
	onClose        func(*Session)
}

// NewSession opens a configuration session for product with default
// selection. Additive groups and flavor candidates arrive with Load.
func NewSession(establishmentID uuid.UUID, product domain.Product, deps Deps) *Session {
	deps = deps.withDefaults()
	id := uuid.New()

	product.AdditiveGroups = nil
	s := &Session{
		id:              id,
		establishmentID: establishmentID,
		deps:            deps,
		logger: deps.Logger.With(
			"session_id", id,
			"establishment_id", establishmentID,
			"product_id", product.ID,
		),
		product:     product,
		watchers:    make(map[int]func(Snapshot)),
		lastTouched: deps.Now(),
	}
	s.sel = NewSelection(&s.product)

	deps.Metrics.RecordSessionOpened(establishmentID.String())
	return s
}

// ID returns the session id.
func (s *Session) ID() uuid.UUID { return s.id }

// EstablishmentID returns the owning establishment.
func (s *Session) EstablishmentID() uuid.UUID { return s.establishmentID }

// Load fetches flavor candidates and additive groups concurrently and waits
// for both. A failed fetch degrades to an empty list and never fails the
// session. Results arriving after Close are discarded.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	product := s.product
	s.mu.Unlock()

	var (
		groups     []domain.AdditiveGroup
		candidates []domain.Product
		g          errgroup.Group
	)

	g.Go(func() error {
		var err error
		groups, err = s.deps.Catalog.FetchAdditiveGroups(ctx, product.ID)
		if err != nil {
			s.fetchFailed(ctx, "additive_groups", err)
			groups = nil
		}
		return nil
	})

	if product.FlavorLimit() > 0 {
		g.Go(func() error {
			var err error
			candidates, err = s.fetchCandidates(ctx, product)
			if err != nil {
				s.fetchFailed(ctx, "candidates", err)
				candidates = nil
			}
			return nil
		})
	}

	_ = g.Wait()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "discarding catalog results for closed session")
		return ErrSessionClosed
	}
	s.product.AdditiveGroups = groups
	s.candidates = candidates
	s.loaded = true
	snap := s.commit(s.sel)
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Session) fetchCandidates(ctx context.Context, product domain.Product) ([]domain.Product, error) {
	subcategories, err := s.deps.Catalog.SiblingSubcategoryIDs(ctx, product.SubcategoryID)
	if err != nil {
		return nil, fmt.Errorf("sibling subcategories: %w", err)
	}
	if len(subcategories) == 0 {
		return nil, nil
	}

	products, err := s.deps.Catalog.FetchCandidateProducts(ctx, s.establishmentID, subcategories)
	if err != nil {
		return nil, fmt.Errorf("candidate products: %w", err)
	}

	return slices.DeleteFunc(products, func(p domain.Product) bool {
		return p.ID == product.ID
	}), nil
}

func (s *Session) fetchFailed(ctx context.Context, kind string, err error) {
	s.logger.WarnContext(ctx, "catalog fetch failed, continuing without it",
		"kind", kind,
		"error", err,
	)
	s.deps.Reporter.Report(ctx, err,
		slog.String("component", "composer"),
		slog.String("fetch", kind),
		slog.String("establishment_id", s.establishmentID.String()),
	)
	s.deps.Metrics.RecordCatalogFetchFailed(s.establishmentID.String(), kind)
}

// Snapshot returns the current state of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	product := s.product
	return Snapshot{
		SessionID:       s.id,
		EstablishmentID: s.establishmentID,
		Version:         s.version,
		Ready:           s.loaded,
		Product:         &product,
		Selection:       s.sel,
		Candidates:      s.candidates,
		Verdict:         ValidateSelection(&product, s.sel),
		Groups:          GroupProgress(&product, s.sel),
		UnitPrice:       ComputeUnitPrice(&product, s.sel),
		Subtotal:        Subtotal(&product, s.sel),
		Discount:        Discount(&product, s.sel),
		Total:           Total(&product, s.sel),
	}
}

// Watch registers fn to receive every new snapshot. The returned func
// unregisters it.
func (s *Session) Watch(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// commit stores sel as the new snapshot. Callers hold mu.
func (s *Session) commit(sel Selection) Snapshot {
	s.sel = sel
	s.version++
	s.lastTouched = s.deps.Now()
	return s.snapshotLocked()
}

func (s *Session) notify(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// mutate applies fn to the current selection under the lock and commits the
// result when fn succeeds.
func (s *Session) mutate(fn func(p *domain.Product, sel Selection) (Selection, error)) (Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	next, err := fn(&s.product, s.sel)
	if err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	snap := s.commit(next)
	s.mu.Unlock()

	s.notify(snap)
	return snap, nil
}

// SelectVariation chooses a variation of the product.
func (s *Session) SelectVariation(id uuid.UUID) (Snapshot, error) {
	return s.mutate(func(p *domain.Product, sel Selection) (Selection, error) {
		return sel.WithVariation(p, id)
	})
}

// AdjustAdditive changes an additive's quantity by delta. A change that would
// exceed the group's capacity is refused: accepted is false and the session
// is left untouched.
func (s *Session) AdjustAdditive(groupID, additiveID uuid.UUID, delta int) (snap Snapshot, accepted bool, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, false, ErrSessionClosed
	}
	group, ok := s.product.Group(groupID)
	if !ok {
		s.mu.Unlock()
		return Snapshot{}, false, ErrGroupNotFound
	}
	additive, ok := group.Additive(additiveID)
	if !ok {
		s.mu.Unlock()
		return Snapshot{}, false, domain.ErrAdditiveNotFound
	}

	next, accepted := AdjustAdditiveQuantity(group, additive, s.sel, delta)
	if !accepted {
		snap = s.snapshotLocked()
		s.mu.Unlock()
		s.deps.Metrics.RecordAdditiveRejected(s.establishmentID.String())
		return snap, false, nil
	}
	snap = s.commit(next)
	s.mu.Unlock()

	s.notify(snap)
	return snap, true, nil
}

// SetSplit turns the flavor split on or off and sets the flavor count.
func (s *Session) SetSplit(enabled bool, count int) (Snapshot, error) {
	return s.mutate(func(p *domain.Product, sel Selection) (Selection, error) {
		return SetSplit(p, sel, enabled, count)
	})
}

// SetFlavorSlot fills (or clears, with uuid.Nil) a companion flavor slot.
func (s *Session) SetFlavorSlot(slot int, productID uuid.UUID) (Snapshot, error) {
	return s.mutate(func(p *domain.Product, sel Selection) (Selection, error) {
		return SetFlavorSlot(p, s.candidates, sel, slot, productID)
	})
}

// SetNote sets the note for the kitchen.
func (s *Session) SetNote(note string) (Snapshot, error) {
	return s.mutate(func(_ *domain.Product, sel Selection) (Selection, error) {
		return sel.WithNote(note)
	})
}

// SetQuantity sets the line quantity.
func (s *Session) SetQuantity(quantity int) (Snapshot, error) {
	return s.mutate(func(_ *domain.Product, sel Selection) (Selection, error) {
		return sel.WithQuantity(quantity)
	})
}

// IncrementQuantity adds one unit.
func (s *Session) IncrementQuantity() (Snapshot, error) {
	return s.mutate(func(_ *domain.Product, sel Selection) (Selection, error) {
		return sel.WithQuantity(sel.Quantity + 1)
	})
}

// DecrementQuantity removes one unit, never going below 1.
func (s *Session) DecrementQuantity() (Snapshot, error) {
	return s.mutate(func(_ *domain.Product, sel Selection) (Selection, error) {
		return sel.WithQuantity(max(sel.Quantity-1, 1))
	})
}

// ApplyCoupon validates code against the current subtotal and, when the
// validator accepts it, stores its terms on the selection. The discount is
// recomputed from those terms whenever the subtotal changes.
//
// Only one validation may be in flight per session. A rejected or failed
// validation leaves the selection as it was.
func (s *Session) ApplyCoupon(ctx context.Context, code string) (Snapshot, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Snapshot{}, ErrCouponCodeRequired
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	if s.couponInFlight {
		s.mu.Unlock()
		return Snapshot{}, ErrCouponInFlight
	}
	s.couponInFlight = true
	subtotal := Subtotal(&s.product, s.sel)
	s.mu.Unlock()

	verdict, err := s.deps.Coupons.Validate(ctx, s.establishmentID, code, subtotal)

	s.mu.Lock()
	s.couponInFlight = false
	if s.closed {
		s.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}

	estID := s.establishmentID.String()
	if err != nil {
		s.mu.Unlock()
		s.logger.WarnContext(ctx, "coupon validation failed", "code", code, "error", err)
		s.deps.Reporter.Report(ctx, err,
			slog.String("component", "composer"),
			slog.String("coupon_code", code),
			slog.String("establishment_id", estID),
		)
		s.deps.Metrics.RecordCouponError(estID)
		return Snapshot{}, ErrCouponUnavailable
	}

	if !verdict.Valid || !verdict.Kind.Valid() {
		s.mu.Unlock()
		reason := verdict.Reason
		if reason == "" {
			reason = "Invalid coupon"
		}
		s.logger.InfoContext(ctx, "coupon rejected", "code", code, "reason", reason)
		s.deps.Metrics.RecordCouponRejected(estID)
		return Snapshot{}, &CouponRejectedError{Code: code, Reason: reason}
	}

	snap := s.commit(s.sel.WithCoupon(&domain.CouponTerms{
		Code:        code,
		Kind:        verdict.Kind,
		Value:       verdict.Value,
		MinSubtotal: verdict.MinSubtotal,
	}))
	s.mu.Unlock()

	s.deps.Metrics.RecordCouponApplied(estID, string(verdict.Kind))
	s.notify(snap)
	return snap, nil
}

// RemoveCoupon drops the applied coupon without re-validating.
func (s *Session) RemoveCoupon() (Snapshot, error) {
	return s.mutate(func(_ *domain.Product, sel Selection) (Selection, error) {
		return sel.WithCoupon(nil), nil
	})
}

// AddToCart assembles the line item, hands it to store and closes the
// session. An invalid selection returns ErrSelectionInvalid and keeps the
// session open.
func (s *Session) AddToCart(ctx context.Context, store domain.CartStore) (domain.LineItem, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.LineItem{}, ErrSessionClosed
	}
	if !s.loaded {
		s.mu.Unlock()
		return domain.LineItem{}, ErrSessionNotReady
	}

	item, err := AssembleLineItem(&s.product, s.sel, s.candidates...)
	if err != nil {
		s.mu.Unlock()
		return domain.LineItem{}, err
	}

	if err := store.AddItem(ctx, item); err != nil {
		s.mu.Unlock()
		return domain.LineItem{}, err
	}
	s.closed = true
	onClose := s.onClose
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "line item added to cart",
		"line_item_id", item.ID,
		"quantity", item.Quantity,
		"total", item.Total.StringFixed(2),
	)
	s.deps.Metrics.RecordLineItemAdded(s.establishmentID.String(), item.Total)
	if onClose != nil {
		onClose(s)
	}
	return item, nil
}

// Close discards the session. It is safe to call more than once.
func (s *Session) Close() {
	s.closeWithReason("cancelled")
}

func (s *Session) closeWithReason(reason string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	onClose := s.onClose
	s.mu.Unlock()

	s.deps.Metrics.RecordSessionAbandoned(s.establishmentID.String(), reason)
	if onClose != nil {
		onClose(s)
	}
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}
