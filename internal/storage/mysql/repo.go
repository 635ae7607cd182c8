package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"itinerary_pricing/internal/domain"
)

const (
	errDuplicateKey = 1062
	errNoParentRow  = 1452
)

func isMySQLErr(err error, code uint16) bool {
	var me *mysqldrv.MySQLError
	return errors.As(err, &me) && me.Number == code
}

func valJSON(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func dateStr(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.Format("2006-01-02")
	return &s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// pricingArgs returns the JSON and scalar columns shared by insert and update, in column order.
func pricingArgs(p domain.ItineraryPricing) ([]any, error) {
	data, err := valJSON(p.PricingData)
	if err != nil {
		return nil, fmt.Errorf("encode pricing_data: %w", err)
	}
	prices, err := valJSON(p.FinalClientPrices)
	if err != nil {
		return nil, fmt.Errorf("encode final_client_prices: %w", err)
	}
	gst, err := valJSON(p.OptionGstSettings)
	if err != nil {
		return nil, fmt.Errorf("encode option_gst_settings: %w", err)
	}
	return []any{
		data, prices, gst,
		p.BaseMarkup, p.ExtraMarkup,
		p.CGST, p.SGST, p.IGST, p.TCS, p.Discount,
	}, nil
}

func (r *Repo) SavePricing(ctx context.Context, p domain.ItineraryPricing, expectedVersion *int64) (int64, error) {
	cols, err := pricingArgs(p)
	if err != nil {
		return 0, err
	}

	switch {
	case expectedVersion == nil:
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback()
		if _, err := tx.ExecContext(ctx, upsertPricingSQL, append([]any{p.PackageID}, cols...)...); err != nil {
			return 0, mapWriteErr(err, p.PackageID)
		}
		var v int64
		if err := tx.QueryRowContext(ctx, selectVersionSQL, p.PackageID).Scan(&v); err != nil {
			return 0, err
		}
		return v, tx.Commit()

	case *expectedVersion == 0:
		if _, err := r.db.ExecContext(ctx, insertPricingSQL, append([]any{p.PackageID}, cols...)...); err != nil {
			return 0, mapWriteErr(err, p.PackageID)
		}
		return 1, nil

	default:
		args := append(cols, p.PackageID, *expectedVersion)
		res, err := r.db.ExecContext(ctx, updatePricingIfVersionSQL, args...)
		if err != nil {
			return 0, mapWriteErr(err, p.PackageID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, fmt.Errorf("package %d at version %d: %w", p.PackageID, *expectedVersion, domain.ErrConflict)
		}
		return *expectedVersion + 1, nil
	}
}

func mapWriteErr(err error, packageID int64) error {
	switch {
	case isMySQLErr(err, errDuplicateKey):
		return fmt.Errorf("package %d: %w", packageID, domain.ErrConflict)
	case isMySQLErr(err, errNoParentRow):
		return fmt.Errorf("package %d: %w", packageID, domain.ErrNotFound)
	}
	return err
}

func (r *Repo) ReplaceProposals(ctx context.Context, packageID int64, ps []domain.Proposal) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, deleteProposalsSQL, packageID); err != nil {
		return err
	}
	for _, p := range ps {
		payload, err := valJSON(p)
		if err != nil {
			return fmt.Errorf("encode proposal %d: %w", p.OptionNumber, err)
		}
		if _, err := tx.ExecContext(ctx, insertProposalSQL, packageID, p.OptionNumber, p.Price, payload); err != nil {
			return mapWriteErr(err, packageID)
		}
	}
	return tx.Commit()
}

func (r *Repo) LogMiss(ctx context.Context, packageID int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, packageID, status, reason)
	return err
}

func (r *Repo) GetPackage(ctx context.Context, id int64) (domain.Package, error) {
	var (
		p            domain.Package
		destinations sql.NullString
		image        sql.NullString
		start, end   sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, getPackageSQL, id).Scan(
		&p.ID, &p.ItineraryName, &destinations, &p.Duration, &p.Adult, &p.Child, &start, &end, &image,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Package{}, fmt.Errorf("package %d: %w", id, domain.ErrNotFound)
		}
		return domain.Package{}, err
	}
	p.Destinations = destinations.String
	p.StartDate, p.EndDate = dateStr(start), dateStr(end)
	if image.Valid && image.String != "" {
		s := image.String
		p.Image = &s
	}
	return p, nil
}

func (r *Repo) GetPricing(ctx context.Context, packageID int64) (domain.ItineraryPricing, error) {
	var (
		p                 domain.ItineraryPricing
		data, prices, gst []byte
		updated           sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, getPricingSQL, packageID).Scan(
		&p.PackageID,
		&data, &prices, &gst,
		&p.BaseMarkup, &p.ExtraMarkup,
		&p.CGST, &p.SGST, &p.IGST, &p.TCS, &p.Discount,
		&p.Version,
		&updated,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ItineraryPricing{}, fmt.Errorf("pricing for package %d: %w", packageID, domain.ErrNotFound)
		}
		return domain.ItineraryPricing{}, err
	}
	p.PricingData = map[string]domain.PricingLine{}
	p.FinalClientPrices = map[string]domain.FlexDecimal{}
	p.OptionGstSettings = map[string]domain.GstSettings{}
	// JSON columns written by older clients may be null or malformed; keep what decodes.
	if len(data) > 0 {
		_ = json.Unmarshal(data, &p.PricingData)
	}
	if len(prices) > 0 {
		_ = json.Unmarshal(prices, &p.FinalClientPrices)
	}
	if len(gst) > 0 {
		_ = json.Unmarshal(gst, &p.OptionGstSettings)
	}
	if updated.Valid {
		t := updated.Time
		p.UpdatedAt = &t
	}
	return p, nil
}

func (r *Repo) ListProposals(ctx context.Context, packageID int64) ([]domain.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, listProposalsSQL, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Proposal{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var p domain.Proposal
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("decode proposal for package %d: %w", packageID, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) ListPricedPackages(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, listPricedPackagesSQL, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
