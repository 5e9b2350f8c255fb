package listing

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/pazarnet/discovery/internal/tracing"
)

// PostgresRepository implements Repository against the network_listings table.
type PostgresRepository struct {
	db       *sql.DB
	fetchCap int
}

// NewPostgresRepository creates a PostgresRepository with the default fetch cap.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return NewPostgresRepositoryWithCap(db, DefaultFetchCap)
}

// NewPostgresRepositoryWithCap creates a PostgresRepository with a custom
// fetch cap. Non-positive caps fall back to the default.
func NewPostgresRepositoryWithCap(db *sql.DB, fetchCap int) *PostgresRepository {
	if fetchCap <= 0 {
		fetchCap = DefaultFetchCap
	}
	return &PostgresRepository{db: db, fetchCap: fetchCap}
}

// FindEligible returns eligible listings matching the filters.
// Eligibility (visibility, status) is enforced in SQL regardless of filters;
// ordering by id keeps the cap truncation deterministic.
func (r *PostgresRepository) FindEligible(ctx context.Context, filters Filters) ([]Listing, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "network_listings", tracing.DBOperationQuery)

	where := []string{"visibility = $1", "status = $2"}
	args := []interface{}{VisibilityNetwork, StatusActive}

	addArg := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, clause+" $"+strconv.Itoa(len(args)))
	}

	if filters.CategoryID != nil {
		addArg("category_id =", *filters.CategoryID)
	}
	if filters.BrandID != nil {
		addArg("brand_id =", *filters.BrandID)
	}
	if filters.PriceMin != nil {
		addArg("unit_price >=", *filters.PriceMin)
	}
	if filters.PriceMax != nil {
		addArg("unit_price <=", *filters.PriceMax)
	}
	if filters.InStockOnly {
		where = append(where, "available_qty > 0")
	}
	if filters.LeadTimeMax != nil {
		addArg("lead_time_days <=", *filters.LeadTimeMax)
	}

	query := fmt.Sprintf(`
		SELECT id, global_product_id, seller_id, title, category_id,
		       COALESCE(brand_id, ''), unit_price, currency, available_qty,
		       min_order_qty, lead_time_days, visibility, status, created_at
		FROM network_listings
		WHERE %s
		ORDER BY id
		LIMIT %d`, strings.Join(where, " AND "), r.fetchCap)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(
			&l.ID, &l.GlobalProductID, &l.SellerID, &l.Title, &l.CategoryID,
			&l.BrandID, &l.UnitPrice, &l.Currency, &l.AvailableQty,
			&l.MinOrderQty, &l.LeadTimeDays, &l.Visibility, &l.Status, &l.CreatedAt,
		); err != nil {
			endSpan(err)
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		endSpan(err)
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}

	endSpan(nil)
	return listings, nil
}
