// Package mongo implements the ledger store on MongoDB.
//
// Updates run inside multi-document transactions, so the backend requires a
// replica set (a single-node replica set is enough). Index counters live in
// a counters collection and are advanced with $inc inside the transaction,
// so an aborted transition does not burn an index.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	factoring "github.com/xraph/factoring"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/store"
)

// Collection name constants.
const (
	colInvoices = "factoring_invoices"
	colOffers   = "factoring_offers"
	colReceipts = "factoring_receipts"
	colCounters = "factoring_counters"
	colSettings = "factoring_settings"
)

// Counter document ids.
const (
	counterInvoices = "invoices"
	counterOffers   = "offers"
	counterReceipts = "receipts"
)

// DefaultCommission seeds the commission rate on first migration.
const DefaultCommission = 2

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a MongoDB store on the named database of an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// Connect dials uri and returns a store on the named database.
func Connect(uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("factoring/mongo: connect: %w", err)
	}
	return New(client, database), nil
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *mongo.Database { return s.db }

// Migrate creates collections, indexes, counters and the commission seed.
// Transactions cannot implicitly create collections, so everything a
// transition touches must exist up front. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, col := range []string{colInvoices, colOffers, colReceipts, colCounters, colSettings} {
		if err := s.db.CreateCollection(ctx, col); err != nil {
			var cmdErr mongo.CommandError
			if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
				continue
			}
			return fmt.Errorf("%w: create %s: %v", factoring.ErrMigrationFailed, col, err)
		}
	}

	indexes := map[string][]mongo.IndexModel{
		colInvoices: {
			{Keys: bson.D{{Key: "beneficiary", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "payer", Value: 1}, {Key: "status", Value: 1}}},
		},
		colOffers: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "invoice_index", Value: 1}}},
		},
		colReceipts: {
			{Keys: bson.D{{Key: "from", Value: 1}}},
			{Keys: bson.D{{Key: "to", Value: 1}}},
			{Keys: bson.D{{Key: "seq", Value: 1}}},
		},
	}
	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%w: %s indexes: %v", factoring.ErrMigrationFailed, col, err)
		}
	}

	for _, counter := range []string{counterInvoices, counterOffers, counterReceipts} {
		_, err := s.db.Collection(colCounters).UpdateOne(ctx,
			bson.M{"_id": counter},
			bson.M{"$setOnInsert": bson.M{"seq": int64(0)}},
			options.UpdateOne().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("%w: seed counter %s: %v", factoring.ErrMigrationFailed, counter, err)
		}
	}

	_, err := s.db.Collection(colSettings).UpdateOne(ctx,
		bson.M{"_id": "commission"},
		bson.M{"$setOnInsert": bson.M{"value": DefaultCommission}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: seed commission: %v", factoring.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// Update runs fn inside a multi-document transaction. fn's error aborts the
// transaction and is returned unchanged.
func (s *Store) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("factoring/mongo: start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx context.Context) (any, error) {
		return nil, fn(&txn{ctx: sessCtx, db: s.db})
	})
	return err
}

// View runs fn against the current committed state. Reads are not
// snapshot-isolated across documents; the execution substrate serializes
// writes, so views only race with each other.
func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(&txn{ctx: ctx, db: s.db})
}

// txn implements store.Tx bound to a session context.
type txn struct {
	ctx context.Context
	db  *mongo.Database
}

var _ store.Tx = (*txn)(nil)

// nextIndex advances the named counter and returns the new value.
func (t *txn) nextIndex(counter string) (uint64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := t.db.Collection(colCounters).FindOneAndUpdate(t.ctx,
		bson.M{"_id": counter},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("factoring/mongo: advance %s counter: %w", counter, err)
	}
	return uint64(doc.Seq), nil
}

func (t *txn) CreateInvoice(inv *invoice.Invoice) (uint64, error) {
	idx, err := t.nextIndex(counterInvoices)
	if err != nil {
		return 0, err
	}
	inv.Index = idx
	if _, err := t.db.Collection(colInvoices).InsertOne(t.ctx, toInvoiceModel(inv)); err != nil {
		return 0, fmt.Errorf("factoring/mongo: create invoice: %w", err)
	}
	return idx, nil
}

func (t *txn) GetInvoice(index uint64) (*invoice.Invoice, error) {
	var m invoiceModel
	err := t.db.Collection(colInvoices).FindOne(t.ctx, bson.M{"_id": index}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: invoice %d", factoring.ErrNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("factoring/mongo: get invoice %d: %w", index, err)
	}
	return fromInvoiceModel(&m), nil
}

func (t *txn) PutInvoice(inv *invoice.Invoice) error {
	res, err := t.db.Collection(colInvoices).ReplaceOne(t.ctx,
		bson.M{"_id": inv.Index}, toInvoiceModel(inv))
	if err != nil {
		return fmt.Errorf("factoring/mongo: put invoice %d: %w", inv.Index, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: invoice %d", factoring.ErrNotFound, inv.Index)
	}
	return nil
}

func (t *txn) ListInvoices(opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	filter := bson.M{}
	if !opts.Beneficiary.IsZero() {
		filter["beneficiary"] = string(opts.Beneficiary)
	}
	if !opts.Payer.IsZero() {
		filter["payer"] = string(opts.Payer)
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	} else if !opts.IncludeDeleted {
		filter["status"] = bson.M{"$ne": string(invoice.StatusDeleted)}
	}

	cursor, err := t.db.Collection(colInvoices).Find(t.ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("factoring/mongo: list invoices: %w", err)
	}
	defer cursor.Close(t.ctx)

	var result []*invoice.Invoice
	for cursor.Next(t.ctx) {
		var m invoiceModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("factoring/mongo: list invoices: %w", err)
		}
		result = append(result, fromInvoiceModel(&m))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("factoring/mongo: list invoices: %w", err)
	}
	return result, nil
}

func (t *txn) CreateOffer(off *market.Offer) (uint64, error) {
	idx, err := t.nextIndex(counterOffers)
	if err != nil {
		return 0, err
	}
	off.Index = idx
	if _, err := t.db.Collection(colOffers).InsertOne(t.ctx, toOfferModel(off)); err != nil {
		return 0, fmt.Errorf("factoring/mongo: create offer: %w", err)
	}
	return idx, nil
}

func (t *txn) GetOffer(index uint64) (*market.Offer, error) {
	var m offerModel
	err := t.db.Collection(colOffers).FindOne(t.ctx, bson.M{"_id": index}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: offer %d", factoring.ErrNotFound, index)
	}
	if err != nil {
		return nil, fmt.Errorf("factoring/mongo: get offer %d: %w", index, err)
	}
	return fromOfferModel(&m), nil
}

func (t *txn) PutOffer(off *market.Offer) error {
	res, err := t.db.Collection(colOffers).ReplaceOne(t.ctx,
		bson.M{"_id": off.Index}, toOfferModel(off))
	if err != nil {
		return fmt.Errorf("factoring/mongo: put offer %d: %w", off.Index, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: offer %d", factoring.ErrNotFound, off.Index)
	}
	return nil
}

func (t *txn) ListOffers(opts market.ListOpts) ([]*market.Offer, error) {
	filter := bson.M{}
	if !opts.Seller.IsZero() {
		filter["seller"] = string(opts.Seller)
	}
	if opts.InvoiceIndex != 0 {
		filter["invoice_index"] = opts.InvoiceIndex
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	} else if !opts.IncludeClosed {
		filter["status"] = string(market.StatusOpen)
	}

	cursor, err := t.db.Collection(colOffers).Find(t.ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("factoring/mongo: list offers: %w", err)
	}
	defer cursor.Close(t.ctx)

	var result []*market.Offer
	for cursor.Next(t.ctx) {
		var m offerModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("factoring/mongo: list offers: %w", err)
		}
		result = append(result, fromOfferModel(&m))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("factoring/mongo: list offers: %w", err)
	}
	return result, nil
}

func (t *txn) Commission() (int, error) {
	var doc struct {
		Value int `bson:"value"`
	}
	err := t.db.Collection(colSettings).FindOne(t.ctx, bson.M{"_id": "commission"}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("%w: commission not seeded, run Migrate", factoring.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("factoring/mongo: read commission: %w", err)
	}
	return doc.Value, nil
}

func (t *txn) SetCommission(percent int) error {
	_, err := t.db.Collection(colSettings).UpdateOne(t.ctx,
		bson.M{"_id": "commission"},
		bson.M{"$set": bson.M{"value": percent}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("factoring/mongo: set commission: %w", err)
	}
	return nil
}

func (t *txn) AppendReceipt(rcpt *payment.Receipt) error {
	seq, err := t.nextIndex(counterReceipts)
	if err != nil {
		return err
	}
	if _, err := t.db.Collection(colReceipts).InsertOne(t.ctx, toReceiptModel(rcpt, int64(seq))); err != nil {
		return fmt.Errorf("factoring/mongo: append receipt: %w", err)
	}
	return nil
}

func (t *txn) ListReceipts(opts payment.ListOpts) ([]*payment.Receipt, error) {
	filter := bson.M{}
	if !opts.Party.IsZero() {
		party := string(opts.Party)
		filter["$or"] = bson.A{bson.M{"from": party}, bson.M{"to": party}}
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	cursor, err := t.db.Collection(colReceipts).Find(t.ctx, filter,
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("factoring/mongo: list receipts: %w", err)
	}
	defer cursor.Close(t.ctx)

	var result []*payment.Receipt
	for cursor.Next(t.ctx) {
		var m receiptModel
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("factoring/mongo: list receipts: %w", err)
		}
		rcpt, err := fromReceiptModel(&m)
		if err != nil {
			return nil, fmt.Errorf("factoring/mongo: list receipts: %w", err)
		}
		result = append(result, rcpt)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("factoring/mongo: list receipts: %w", err)
	}
	return result, nil
}
