// Package queue defines message payloads exchanged over the message broker.
package queue

// MailQueueName is the durable queue carrying outbound mail.
const MailQueueName = "mail.outbound"

// MailEvent is published when the service wants an email delivered. The
// core treats delivery as fire-and-forget: a publish failure is logged
// and the originating request still succeeds. Downstream consumers own
// the actual delivery (or, in development, a log file).
type MailEvent struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	QueuedAt string `json:"queued_at"`
}
