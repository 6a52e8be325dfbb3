package structs

import (
	"strings"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelEmail    Channel = "EMAIL"
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
)

func ToChannel(s string) Channel {
	switch strings.ToUpper(s) {
	case "EMAIL":
		return ChannelEmail
	case "SMS":
		return ChannelSMS
	case "WHATSAPP":
		return ChannelWhatsApp
	default:
		return ""
	}
}

// DeliveryStatus is the outcome of a notification send.
type DeliveryStatus string

const (
	// DeliverySent means the channel accepted the message.
	DeliverySent DeliveryStatus = "SENT"

	// DeliveryFailed means the channel errored.
	DeliveryFailed DeliveryStatus = "FAILED"

	// DeliveryOff means the channel is not configured; nothing was sent.
	DeliveryOff DeliveryStatus = "OFF"
)

// Notification is a templated message bound for one recipient on one channel.
type Notification struct {
	// Channel to deliver on.
	Channel Channel `json:"channel"`

	// Recipient address; an email address or a phone number depending
	// on the channel.
	Recipient string `json:"recipient"`

	// Subject, used by channels that have one.
	Subject string `json:"subject,omitempty"`

	// Body of the message.
	Body string `json:"body"`

	// JobID the message relates to, for tracing.
	JobID string `json:"job_id,omitempty"`
}

// Delivery reports what happened to a Notification.
type Delivery struct {
	Status DeliveryStatus `json:"status"`
	Detail string         `json:"detail,omitempty"`
}
