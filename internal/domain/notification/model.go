package notification

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Info is the flat set of billing fields pulled out of a recognised Stripe
// event. Fields the event did not carry are left empty; AmountPaid is nil
// when no amount could be read.
type Info struct {
	EventName     string
	EventStatus   string
	CustomerName  string
	CustomerEmail string
	AmountPaid    *decimal.Decimal
	Currency      string
	ViewDetails   string
}

// FormattedAmount renders AmountPaid without trailing zeros, or an empty
// string when it is missing
func (i Info) FormattedAmount() string {
	if i.AmountPaid == nil {
		return ""
	}
	return i.AmountPaid.String()
}

// ChatMessage is the body posted to the chat API
type ChatMessage struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
}

const messageTemplate = "Event Name: %s\n" +
	"Event Status: %s\n" +
	"Customer Name: %s\n" +
	"Customer Email: %s\n" +
	"Amount Paid: %s %s\n" +
	"View Details: %s"

// Text renders the chat text for the notification
func (i Info) Text() string {
	return fmt.Sprintf(messageTemplate,
		i.EventName,
		i.EventStatus,
		i.CustomerName,
		i.CustomerEmail,
		i.FormattedAmount(), i.Currency,
		i.ViewDetails,
	)
}

// NewChatMessage builds the message for channel
func NewChatMessage(channel string, info Info) ChatMessage {
	return ChatMessage{
		Channel: channel,
		Text:    info.Text(),
	}
}
