// Package sqlite implements the ledger store on an embedded SQLite
// database via database/sql and mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	factoring "github.com/xraph/factoring"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// DefaultCommission seeds the commission rate on first migration.
const DefaultCommission = 2

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path. Use ":memory:"
// for an ephemeral database in tests.
//
// The database is configured with WAL mode, a 5-second busy timeout and a
// single writer connection; SQLite supports one writer at a time and the
// single connection avoids SQLITE_BUSY instead of surfacing it.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("factoring/sqlite: open %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("factoring/sqlite: connect %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("factoring/sqlite: %s: %w", pragma, err)
		}
	}
	return nil
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer ledger operations when available.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies the schema, seeds the commission rate and stamps the
// schema version. Refuses to open a database written by a newer schema.
// Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("%w: read schema version: %v", factoring.ErrMigrationFailed, err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("%w: database schema version %d is newer than supported version %d",
			factoring.ErrMigrationFailed, version, currentSchemaVersion)
	}

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("%w: %v", factoring.ErrMigrationFailed, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES ('commission', ?) ON CONFLICT(key) DO NOTHING`,
		DefaultCommission,
	)
	if err != nil {
		return fmt.Errorf("%w: seed commission: %v", factoring.ErrMigrationFailed, err)
	}

	if version < currentSchemaVersion {
		stmt := fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: stamp schema version: %v", factoring.ErrMigrationFailed, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Update runs fn inside a write transaction.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("factoring/sqlite: begin: %w", err)
	}

	t := &txn{ctx: ctx, tx: sqlTx}
	if err := fn(t); err != nil {
		_ = sqlTx.Rollback() //nolint:errcheck // fn error takes precedence
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", factoring.ErrTransactionFailed, err)
	}
	return nil
}

// View runs fn inside a transaction that is always rolled back. The driver
// does not support read-only transaction options, so the rollback is what
// discards any write fn makes by mistake.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("factoring/sqlite: begin: %w", err)
	}
	defer sqlTx.Rollback() //nolint:errcheck // view transactions never commit

	return fn(&txn{ctx: ctx, tx: sqlTx})
}

// txn implements store.Tx over a sql.Tx.
type txn struct {
	ctx context.Context
	tx  *sql.Tx
}

var _ store.Tx = (*txn)(nil)

const invoiceCols = `idx, payee, beneficiary, payer, total_amount, currency,
	due_date, status, resell_amount, resell_currency, created_at, updated_at`

func (t *txn) CreateInvoice(inv *invoice.Invoice) (uint64, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO invoices
		(payee, beneficiary, payer, total_amount, currency, due_date, status,
		 resell_amount, resell_currency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(inv.Payee), string(inv.Beneficiary), string(inv.Payer),
		inv.Total.Amount, inv.Total.Currency,
		inv.DueDate, string(inv.Status),
		inv.ResellPrice.Amount, inv.ResellPrice.Currency,
		inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("factoring/sqlite: create invoice: %w", err)
	}
	idx, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("factoring/sqlite: create invoice: %w", err)
	}
	inv.Index = uint64(idx)
	return inv.Index, nil
}

func (t *txn) GetInvoice(index uint64) (*invoice.Invoice, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+invoiceCols+` FROM invoices WHERE idx = ?`, index)
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: invoice %d", factoring.ErrNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("factoring/sqlite: get invoice %d: %w", index, err)
	}
	return inv, nil
}

func (t *txn) PutInvoice(inv *invoice.Invoice) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE invoices SET
			payee = ?, beneficiary = ?, payer = ?, total_amount = ?,
			currency = ?, due_date = ?, status = ?, resell_amount = ?,
			resell_currency = ?, updated_at = ?
		WHERE idx = ?
	`,
		string(inv.Payee), string(inv.Beneficiary), string(inv.Payer),
		inv.Total.Amount, inv.Total.Currency,
		inv.DueDate, string(inv.Status),
		inv.ResellPrice.Amount, inv.ResellPrice.Currency,
		inv.UpdatedAt, inv.Index,
	)
	if err != nil {
		return fmt.Errorf("factoring/sqlite: put invoice %d: %w", inv.Index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("factoring/sqlite: put invoice %d: %w", inv.Index, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: invoice %d", factoring.ErrNotFound, inv.Index)
	}
	return nil
}

func (t *txn) ListInvoices(opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	var (
		where []string
		args  []any
	)
	if !opts.Beneficiary.IsZero() {
		where = append(where, "beneficiary = ?")
		args = append(args, string(opts.Beneficiary))
	}
	if !opts.Payer.IsZero() {
		where = append(where, "payer = ?")
		args = append(args, string(opts.Payer))
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	} else if !opts.IncludeDeleted {
		where = append(where, "status != ?")
		args = append(args, string(invoice.StatusDeleted))
	}

	query := `SELECT ` + invoiceCols + ` FROM invoices`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY idx"

	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("factoring/sqlite: list invoices: %w", err)
	}
	defer rows.Close()

	var result []*invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("factoring/sqlite: list invoices: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("factoring/sqlite: list invoices: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row scanner) (*invoice.Invoice, error) {
	var (
		inv    invoice.Invoice
		status string
	)
	err := row.Scan(
		&inv.Index,
		(*string)(&inv.Payee), (*string)(&inv.Beneficiary), (*string)(&inv.Payer),
		&inv.Total.Amount, &inv.Total.Currency,
		&inv.DueDate, &status,
		&inv.ResellPrice.Amount, &inv.ResellPrice.Currency,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.Status = invoice.Status(status)
	return &inv, nil
}

const offerCols = `idx, invoice_idx, seller, price_amount, currency, status,
	created_at, updated_at`

func (t *txn) CreateOffer(off *market.Offer) (uint64, error) {
	res, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO offers
		(invoice_idx, seller, price_amount, currency, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		off.InvoiceIndex, string(off.Seller),
		off.Price.Amount, off.Price.Currency,
		string(off.Status), off.CreatedAt, off.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("factoring/sqlite: create offer: %w", err)
	}
	idx, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("factoring/sqlite: create offer: %w", err)
	}
	off.Index = uint64(idx)
	return off.Index, nil
}

func (t *txn) GetOffer(index uint64) (*market.Offer, error) {
	row := t.tx.QueryRowContext(t.ctx,
		`SELECT `+offerCols+` FROM offers WHERE idx = ?`, index)
	off, err := scanOffer(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: offer %d", factoring.ErrNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("factoring/sqlite: get offer %d: %w", index, err)
	}
	return off, nil
}

func (t *txn) PutOffer(off *market.Offer) error {
	res, err := t.tx.ExecContext(t.ctx, `
		UPDATE offers SET
			invoice_idx = ?, seller = ?, price_amount = ?, currency = ?,
			status = ?, updated_at = ?
		WHERE idx = ?
	`,
		off.InvoiceIndex, string(off.Seller),
		off.Price.Amount, off.Price.Currency,
		string(off.Status), off.UpdatedAt, off.Index,
	)
	if err != nil {
		return fmt.Errorf("factoring/sqlite: put offer %d: %w", off.Index, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("factoring/sqlite: put offer %d: %w", off.Index, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: offer %d", factoring.ErrNotFound, off.Index)
	}
	return nil
}

func (t *txn) ListOffers(opts market.ListOpts) ([]*market.Offer, error) {
	var (
		where []string
		args  []any
	)
	if !opts.Seller.IsZero() {
		where = append(where, "seller = ?")
		args = append(args, string(opts.Seller))
	}
	if opts.InvoiceIndex != 0 {
		where = append(where, "invoice_idx = ?")
		args = append(args, opts.InvoiceIndex)
	}
	if opts.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(opts.Status))
	} else if !opts.IncludeClosed {
		where = append(where, "status = ?")
		args = append(args, string(market.StatusOpen))
	}

	query := `SELECT ` + offerCols + ` FROM offers`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY idx"

	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("factoring/sqlite: list offers: %w", err)
	}
	defer rows.Close()

	var result []*market.Offer
	for rows.Next() {
		off, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("factoring/sqlite: list offers: %w", err)
		}
		result = append(result, off)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("factoring/sqlite: list offers: %w", err)
	}
	return result, nil
}

func scanOffer(row scanner) (*market.Offer, error) {
	var (
		off    market.Offer
		status string
	)
	err := row.Scan(
		&off.Index, &off.InvoiceIndex, (*string)(&off.Seller),
		&off.Price.Amount, &off.Price.Currency,
		&status, &off.CreatedAt, &off.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	off.Status = market.Status(status)
	return &off, nil
}

func (t *txn) Commission() (int, error) {
	var pct int
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT value FROM settings WHERE key = 'commission'`).Scan(&pct)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: commission not seeded, run Migrate", factoring.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("factoring/sqlite: read commission: %w", err)
	}
	return pct, nil
}

func (t *txn) SetCommission(percent int) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO settings (key, value) VALUES ('commission', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, percent)
	if err != nil {
		return fmt.Errorf("factoring/sqlite: set commission: %w", err)
	}
	return nil
}

func (t *txn) AppendReceipt(rcpt *payment.Receipt) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO receipts
		(id, kind, from_addr, to_addr, amount, currency, invoice_idx, offer_idx,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rcpt.ID.String(), string(rcpt.Kind),
		string(rcpt.From), string(rcpt.To),
		rcpt.Amount.Amount, rcpt.Amount.Currency,
		rcpt.InvoiceIndex, rcpt.OfferIndex,
		rcpt.CreatedAt, rcpt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("factoring/sqlite: append receipt: %w", err)
	}
	return nil
}

func (t *txn) ListReceipts(opts payment.ListOpts) ([]*payment.Receipt, error) {
	var (
		where []string
		args  []any
	)
	if !opts.Party.IsZero() {
		where = append(where, "(from_addr = ? OR to_addr = ?)")
		args = append(args, string(opts.Party), string(opts.Party))
	}
	if opts.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(opts.Kind))
	}

	query := `SELECT id, kind, from_addr, to_addr, amount, currency,
		invoice_idx, offer_idx, created_at, updated_at FROM receipts`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("factoring/sqlite: list receipts: %w", err)
	}
	defer rows.Close()

	var result []*payment.Receipt
	for rows.Next() {
		var (
			rcpt payment.Receipt
			kind string
		)
		err := rows.Scan(
			&rcpt.ID, &kind,
			(*string)(&rcpt.From), (*string)(&rcpt.To),
			&rcpt.Amount.Amount, &rcpt.Amount.Currency,
			&rcpt.InvoiceIndex, &rcpt.OfferIndex,
			&rcpt.CreatedAt, &rcpt.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("factoring/sqlite: list receipts: %w", err)
		}
		rcpt.Kind = payment.Kind(kind)
		result = append(result, &rcpt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("factoring/sqlite: list receipts: %w", err)
	}
	return result, nil
}
