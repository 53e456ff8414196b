package service

import (
	"context"

	"github.com/flexprice/payment-notifier/internal/domain/notification"
	"github.com/flexprice/payment-notifier/internal/integration/stripe"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	stripeapi "github.com/stripe/stripe-go/v82"
)

// Projector turns a verified Stripe event into the fields of a chat
// notification
type Projector interface {
	// Project returns false only for event types without a rule. Fields
	// the payload lacks or mistypes are left empty.
	Project(ctx context.Context, event *stripe.VerifiedEvent) (*notification.Info, bool)
}

// projectionRule extracts notification fields from one event type
type projectionRule func(event *stripe.VerifiedEvent) *notification.Info

// projectionRules is the closed set of event types that produce a
// notification
var projectionRules = map[stripeapi.EventType]projectionRule{
	stripeapi.EventTypeInvoicePaid:     projectInvoicePaid,
	stripeapi.EventTypeChargeUpdated:   projectChargeUpdated,
	stripeapi.EventTypeChargeSucceeded: projectChargeSucceeded,
	stripeapi.EventTypeInvoiceCreated:  projectInvoiceCreated,
}

type projector struct {
	ServiceParams
}

func NewProjector(params ServiceParams) Projector {
	return &projector{
		ServiceParams: params,
	}
}

func (p *projector) Project(ctx context.Context, event *stripe.VerifiedEvent) (*notification.Info, bool) {
	log := p.Logger.WithContext(ctx)

	rule, ok := projectionRules[stripeapi.EventType(event.Type)]
	if !ok {
		log.Infow("unhandled event type", "event_type", event.Type)
		return nil, false
	}

	info := rule(event)

	log.Debugw("projected event",
		"event_type", event.Type,
		"status", info.EventStatus,
		"amount", info.FormattedAmount(),
		"currency", info.Currency,
	)
	return info, true
}

func projectInvoicePaid(event *stripe.VerifiedEvent) *notification.Info {
	invoice := event.ParseInvoice()
	return &notification.Info{
		EventName:     event.Type,
		EventStatus:   lo.FromPtr(invoice.Status),
		CustomerName:  lo.FromPtr(invoice.CustomerName),
		CustomerEmail: lo.FromPtr(invoice.CustomerEmail),
		AmountPaid:    invoice.AmountPaid,
		Currency:      lo.FromPtr(invoice.Currency),
		ViewDetails:   lo.FromPtr(invoice.HostedInvoiceURL),
	}
}

func projectChargeUpdated(event *stripe.VerifiedEvent) *notification.Info {
	charge := event.ParseCharge()
	info := chargeInfo(event.Type, charge)
	info.AmountPaid = toMajorUnits(charge.Amount)
	return info
}

func projectChargeSucceeded(event *stripe.VerifiedEvent) *notification.Info {
	charge := event.ParseCharge()
	info := chargeInfo(event.Type, charge)
	// a zero or missing amount falls through to amount_captured
	if charge.Amount != nil && !charge.Amount.IsZero() {
		info.AmountPaid = toMajorUnits(charge.Amount)
	} else {
		info.AmountPaid = toMajorUnits(charge.AmountCaptured)
	}
	return info
}

// projectInvoiceCreated reads charge-shaped paths from an invoice object.
// Invoices carry neither billing_details nor receipt_url, so those fields
// come out empty.
func projectInvoiceCreated(event *stripe.VerifiedEvent) *notification.Info {
	charge := event.ParseCharge()
	info := chargeInfo(event.Type, charge)
	info.AmountPaid = charge.AmountPaid
	return info
}

func chargeInfo(eventType string, charge *stripe.ChargePayload) *notification.Info {
	return &notification.Info{
		EventName:     eventType,
		EventStatus:   lo.FromPtr(charge.Status),
		CustomerName:  lo.CoalesceOrEmpty(lo.FromPtr(charge.Customer), lo.FromPtr(charge.BillingName)),
		CustomerEmail: lo.FromPtr(charge.BillingEmail),
		Currency:      lo.FromPtr(charge.Currency),
		ViewDetails:   lo.FromPtr(charge.ReceiptURL),
	}
}

// toMajorUnits converts an amount in minor units (cents) to major units
func toMajorUnits(amount *decimal.Decimal) *decimal.Decimal {
	if amount == nil {
		return nil
	}
	return lo.ToPtr(amount.Shift(-2))
}
