// Package metrics defines all custom Prometheus metrics for the identity
// service. It is the single source of truth for metric names, labels, and
// help strings. Metrics register themselves with the default registry via
// promauto at package load.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// ── Credential metrics ────────────────────────────────────────────────────────

// RegistrationsTotal counts successfully created accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts created.",
	},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "invalid_password" or "unknown_email"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── OTP metrics ───────────────────────────────────────────────────────────────

// OTPIssuedTotal counts issued one-time codes.
// Label:
//   - purpose: "verify" or "reset"
var OTPIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_issued_total",
		Help:      "Total number of one-time codes issued, by purpose.",
	},
	[]string{"purpose"},
)

// OTPConfirmedTotal counts confirmation attempts.
// Labels:
//   - purpose: "verify" or "reset"
//   - result: "ok", "invalid" or "expired"
var OTPConfirmedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_confirmed_total",
		Help:      "Total number of one-time code confirmation attempts, by purpose and result.",
	},
	[]string{"purpose", "result"},
)

// ── Mail metrics ──────────────────────────────────────────────────────────────

// MailSentTotal counts outbound mail delivery outcomes.
// Labels:
//   - kind: "welcome", "verify_otp" or "reset_otp"
//   - result: "ok", "error" or "duplicate"
var MailSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mail_sent_total",
		Help:      "Total number of outbound mail deliveries, by kind and result.",
	},
	[]string{"kind", "result"},
)

// MailQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
