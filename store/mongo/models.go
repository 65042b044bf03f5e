package mongo

import (
	"time"

	"github.com/xraph/factoring/id"
	"github.com/xraph/factoring/invoice"
	"github.com/xraph/factoring/market"
	"github.com/xraph/factoring/payment"
	"github.com/xraph/factoring/types"
)

// ==================== Invoice model ====================

type invoiceModel struct {
	Index          uint64    `bson:"_id"`
	Payee          string    `bson:"payee"`
	Beneficiary    string    `bson:"beneficiary"`
	Payer          string    `bson:"payer"`
	TotalAmount    int64     `bson:"total_amount"`
	Currency       string    `bson:"currency"`
	DueDate        int64     `bson:"due_date"`
	Status         string    `bson:"status"`
	ResellAmount   int64     `bson:"resell_amount,omitempty"`
	ResellCurrency string    `bson:"resell_currency,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		Index:          inv.Index,
		Payee:          string(inv.Payee),
		Beneficiary:    string(inv.Beneficiary),
		Payer:          string(inv.Payer),
		TotalAmount:    inv.Total.Amount,
		Currency:       inv.Total.Currency,
		DueDate:        inv.DueDate,
		Status:         string(inv.Status),
		ResellAmount:   inv.ResellPrice.Amount,
		ResellCurrency: inv.ResellPrice.Currency,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) *invoice.Invoice {
	return &invoice.Invoice{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Index:       m.Index,
		Payee:       types.Address(m.Payee),
		Beneficiary: types.Address(m.Beneficiary),
		Payer:       types.Address(m.Payer),
		Total:       types.Money{Amount: m.TotalAmount, Currency: m.Currency},
		DueDate:     m.DueDate,
		Status:      invoice.Status(m.Status),
		ResellPrice: types.Money{Amount: m.ResellAmount, Currency: m.ResellCurrency},
	}
}

// ==================== Offer model ====================

type offerModel struct {
	Index        uint64    `bson:"_id"`
	InvoiceIndex uint64    `bson:"invoice_index"`
	Seller       string    `bson:"seller"`
	PriceAmount  int64     `bson:"price_amount"`
	Currency     string    `bson:"currency"`
	Status       string    `bson:"status"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toOfferModel(off *market.Offer) *offerModel {
	return &offerModel{
		Index:        off.Index,
		InvoiceIndex: off.InvoiceIndex,
		Seller:       string(off.Seller),
		PriceAmount:  off.Price.Amount,
		Currency:     off.Price.Currency,
		Status:       string(off.Status),
		CreatedAt:    off.CreatedAt,
		UpdatedAt:    off.UpdatedAt,
	}
}

func fromOfferModel(m *offerModel) *market.Offer {
	return &market.Offer{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Index:        m.Index,
		InvoiceIndex: m.InvoiceIndex,
		Seller:       types.Address(m.Seller),
		Price:        types.Money{Amount: m.PriceAmount, Currency: m.Currency},
		Status:       market.Status(m.Status),
	}
}

// ==================== Receipt model ====================

type receiptModel struct {
	ID           string    `bson:"_id"`
	Seq          int64     `bson:"seq"`
	Kind         string    `bson:"kind"`
	From         string    `bson:"from"`
	To           string    `bson:"to"`
	Amount       int64     `bson:"amount"`
	Currency     string    `bson:"currency"`
	InvoiceIndex uint64    `bson:"invoice_index"`
	OfferIndex   uint64    `bson:"offer_index,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toReceiptModel(rcpt *payment.Receipt, seq int64) *receiptModel {
	return &receiptModel{
		ID:           rcpt.ID.String(),
		Seq:          seq,
		Kind:         string(rcpt.Kind),
		From:         string(rcpt.From),
		To:           string(rcpt.To),
		Amount:       rcpt.Amount.Amount,
		Currency:     rcpt.Amount.Currency,
		InvoiceIndex: rcpt.InvoiceIndex,
		OfferIndex:   rcpt.OfferIndex,
		CreatedAt:    rcpt.CreatedAt,
		UpdatedAt:    rcpt.UpdatedAt,
	}
}

func fromReceiptModel(m *receiptModel) (*payment.Receipt, error) {
	rid, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}
	return &payment.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           rid,
		Kind:         payment.Kind(m.Kind),
		From:         types.Address(m.From),
		To:           types.Address(m.To),
		Amount:       types.Money{Amount: m.Amount, Currency: m.Currency},
		InvoiceIndex: m.InvoiceIndex,
		OfferIndex:   m.OfferIndex,
	}, nil
}
