// Package domain contains core concepts of the chat system.
// This file defines direct messages and delivery outcomes.
package domain

import "time"

// Message is a direct message as recorded by the durable store.
// Delivered flips from false to true at most once, never back.
type Message struct {
	ID        uint64
	Sender    string
	Recipient string
	Content   string
	Delivered bool
	At        time.Time
}

// DeliveryOutcome describes what happened to a routed message.
type DeliveryOutcome struct {
	MessageID     uint64
	Stored        bool
	DeliveredLive bool
}
