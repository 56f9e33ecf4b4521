// Package mail delivers the verification and password reset emails.
package mail

import (
	"context"
	"errors"
)

// ErrDelivery wraps every transport failure.
var ErrDelivery = errors.New("mail: delivery failed")

// Message is a single email with a plain text and an HTML body.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Sender delivers messages. Implementations must honour ctx cancellation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
