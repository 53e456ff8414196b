package stripe

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// VerifiedEvent is a Stripe event whose signature has been checked. Data
// holds the raw `data.object` of the event.
type VerifiedEvent struct {
	ID   string
	Type string
	Data json.RawMessage
}

// ChargePayload covers the charge fields read by the projector. It is also
// used for invoice.created, whose rule reads charge-shaped paths.
type ChargePayload struct {
	Status         *string
	Customer       *string
	BillingName    *string
	BillingEmail   *string
	Amount         *decimal.Decimal
	AmountCaptured *decimal.Decimal
	AmountPaid     *decimal.Decimal
	Currency       *string
	ReceiptURL     *string
}

type InvoicePayload struct {
	Status           *string
	CustomerName     *string
	CustomerEmail    *string
	AmountPaid       *decimal.Decimal
	Currency         *string
	HostedInvoiceURL *string
}

// ParseCharge reads the event object as a charge. Fields that are missing
// or carry an unexpected type are left nil.
func (e *VerifiedEvent) ParseCharge() *ChargePayload {
	obj := parseObject(e.Data)
	billing := obj.object("billing_details")
	return &ChargePayload{
		Status:         obj.text("status"),
		Customer:       obj.expandableID("customer"),
		BillingName:    billing.text("name"),
		BillingEmail:   billing.text("email"),
		Amount:         obj.amount("amount"),
		AmountCaptured: obj.amount("amount_captured"),
		AmountPaid:     obj.amount("amount_paid"),
		Currency:       obj.text("currency"),
		ReceiptURL:     obj.text("receipt_url"),
	}
}

// ParseInvoice reads the event object as an invoice. Fields that are
// missing or carry an unexpected type are left nil.
func (e *VerifiedEvent) ParseInvoice() *InvoicePayload {
	obj := parseObject(e.Data)
	return &InvoicePayload{
		Status:           obj.text("status"),
		CustomerName:     obj.text("customer_name"),
		CustomerEmail:    obj.text("customer_email"),
		AmountPaid:       obj.amount("amount_paid"),
		Currency:         obj.text("currency"),
		HostedInvoiceURL: obj.text("hosted_invoice_url"),
	}
}

// object is a JSON object read one field at a time, so a mistyped field
// only blanks itself
type object map[string]json.RawMessage

// parseObject returns an empty object for anything that is not a JSON
// object
func parseObject(raw json.RawMessage) object {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return object{}
	}
	return obj
}

func (o object) raw(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

func (o object) object(key string) object {
	raw, ok := o.raw(key)
	if !ok {
		return object{}
	}
	return parseObject(raw)
}

// text returns a string field. Numbers and booleans are rendered as they
// appear in the payload; objects and arrays read as absent.
func (o object) text(key string) *string {
	raw, ok := o.raw(key)
	if !ok {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	switch v.(type) {
	case float64, bool:
		s = string(raw)
		return &s
	}
	return nil
}

// expandableID reads a field that is either an object id or the expanded
// object itself
func (o object) expandableID(key string) *string {
	raw, ok := o.raw(key)
	if ok && raw[0] == '{' {
		return parseObject(raw).text("id")
	}
	return o.text(key)
}

// amount reads a numeric field, accepting numeric strings. Fractional
// values are kept as sent.
func (o object) amount(key string) *decimal.Decimal {
	raw, ok := o.raw(key)
	if !ok {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return nil
	}
	return &d
}
