package sqlite

// Schema version tracking:
// 1 - Initial schema
const currentSchemaVersion = 1

// AUTOINCREMENT keeps both index spaces monotonic across soft deletes: a
// rowid is never handed out twice even after the highest row is removed,
// and sqlite_sequence updates roll back with the enclosing transaction, so
// an aborted creation does not burn an index.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS invoices (
	idx             INTEGER PRIMARY KEY AUTOINCREMENT,
	payee           TEXT NOT NULL,
	beneficiary     TEXT NOT NULL,
	payer           TEXT NOT NULL,
	total_amount    INTEGER NOT NULL,
	currency        TEXT NOT NULL,
	due_date        INTEGER NOT NULL,
	status          TEXT NOT NULL,
	resell_amount   INTEGER NOT NULL DEFAULT 0,
	resell_currency TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_invoices_beneficiary ON invoices(beneficiary, status);
CREATE INDEX IF NOT EXISTS idx_invoices_payer ON invoices(payer, status);

CREATE TABLE IF NOT EXISTS offers (
	idx          INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_idx  INTEGER NOT NULL REFERENCES invoices(idx),
	seller       TEXT NOT NULL,
	price_amount INTEGER NOT NULL,
	currency     TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_offers_status ON offers(status);
CREATE INDEX IF NOT EXISTS idx_offers_invoice ON offers(invoice_idx);

CREATE TABLE IF NOT EXISTS receipts (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	kind         TEXT NOT NULL,
	from_addr    TEXT NOT NULL,
	to_addr      TEXT NOT NULL,
	amount       INTEGER NOT NULL,
	currency     TEXT NOT NULL,
	invoice_idx  INTEGER NOT NULL,
	offer_idx    INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_receipts_from ON receipts(from_addr);
CREATE INDEX IF NOT EXISTS idx_receipts_to ON receipts(to_addr);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`
