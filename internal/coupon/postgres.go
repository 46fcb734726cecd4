package coupon

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/cardapio/internal/domain"
)

// DBTX is the part of pgxpool.Pool (and pgx.Tx) the validator needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresValidator validates and redeems coupons stored in PostgreSQL.
type PostgresValidator struct {
	db     DBTX
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time checks.
var (
	_ domain.CouponValidator = (*PostgresValidator)(nil)
	_ Redeemer               = (*PostgresValidator)(nil)
)

// NewPostgresValidator creates a PostgreSQL-backed coupon validator.
func NewPostgresValidator(db DBTX, logger *slog.Logger) *PostgresValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresValidator{db: db, logger: logger, now: time.Now}
}

const getCouponSQL = `
SELECT id, establishment_id, code, discount_kind, discount_value, min_subtotal,
       starts_at, expires_at, usage_limit, times_used, active
FROM coupons
WHERE establishment_id = $1 AND upper(code) = upper($2)`

// The usage check is repeated in the UPDATE so concurrent checkouts cannot
// push a coupon past its limit.
const redeemCouponSQL = `
UPDATE coupons
SET times_used = times_used + 1
WHERE establishment_id = $1 AND upper(code) = upper($2) AND active
  AND (usage_limit IS NULL OR times_used < usage_limit)`

// Validate looks the code up and evaluates its rules against subtotal.
func (v *PostgresValidator) Validate(ctx context.Context, establishmentID uuid.UUID, code string, subtotal decimal.Decimal) (domain.CouponVerdict, error) {
	code = strings.TrimSpace(code)

	c, err := scanCoupon(v.db.QueryRow(ctx, getCouponSQL, establishmentID, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return reject(ReasonNotFound), nil
		}
		return domain.CouponVerdict{}, newCouponError(codeInternal, "Failed to look up coupon", err)
	}

	verdict := Evaluate(c, subtotal, v.now())
	v.logger.DebugContext(ctx, "coupon evaluated",
		"establishment_id", establishmentID,
		"coupon_id", c.ID,
		"valid", verdict.Valid,
		"reason", verdict.Reason,
	)
	return verdict, nil
}

// Redeem increments the usage count of an active coupon below its limit.
func (v *PostgresValidator) Redeem(ctx context.Context, establishmentID uuid.UUID, code string) error {
	tag, err := v.db.Exec(ctx, redeemCouponSQL, establishmentID, strings.TrimSpace(code))
	if err != nil {
		return newCouponError(codeInternal, "Failed to redeem coupon", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotRedeemable
	}
	return nil
}

func scanCoupon(row pgx.Row) (Coupon, error) {
	var (
		c         Coupon
		kind      string
		startsAt  *time.Time
		expiresAt *time.Time
		limit     *int32
		timesUsed int32
	)
	err := row.Scan(
		&c.ID, &c.EstablishmentID, &c.Code, &kind, &c.Value, &c.MinSubtotal,
		&startsAt, &expiresAt, &limit, &timesUsed, &c.Active,
	)
	if err != nil {
		return c, err
	}
	c.Kind = domain.DiscountKind(kind)
	c.StartsAt = startsAt
	c.ExpiresAt = expiresAt
	if limit != nil {
		n := int(*limit)
		c.UsageLimit = &n
	}
	c.TimesUsed = int(timesUsed)
	return c, nil
}
