// Package gate decides whether a requester may receive a variant.
package gate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cinebot_gate_decisions_total",
	Help: "Delivery gate decisions by result.",
}, []string{"result"})

// Decision is the outcome of an eligibility check.
type Decision int

const (
	Ineligible Decision = iota
	Eligible
)

func (d Decision) String() string {
	if d == Eligible {
		return "eligible"
	}
	return "ineligible"
}

// MembershipLookup reports a user's status in a chat ("member", "left", ...).
type MembershipLookup interface {
	Membership(ctx context.Context, chatID, userID int64) (string, error)
}

var allowed = map[string]struct{}{
	"member":        {},
	"administrator": {},
	"creator":       {},
	"owner":         {},
}

// Gate checks membership in one community chat. A lookup error counts as
// Ineligible.
type Gate struct {
	lookup MembershipLookup
	chatID int64
	logger *slog.Logger
}

// New returns a Gate for chatID. A zero chatID disables the check and every
// requester is Eligible.
func New(log *slog.Logger, lookup MembershipLookup, chatID int64) *Gate {
	if log == nil {
		log = slog.Default()
	}
	g := &Gate{
		lookup: lookup,
		chatID: chatID,
		logger: log.With(slog.String("component", "gate")),
	}
	if !g.Enabled() {
		g.logger.Warn("delivery gate disabled, every requester is eligible", slog.Int64("chat_id", chatID))
	}
	return g
}

func (g *Gate) Enabled() bool {
	return g != nil && g.chatID != 0 && g.lookup != nil
}

func (g *Gate) Check(ctx context.Context, userID int64) Decision {
	if !g.Enabled() {
		return Eligible
	}
	status, err := g.lookup.Membership(ctx, g.chatID, userID)
	if err != nil {
		decisionsTotal.WithLabelValues("lookup_error").Inc()
		g.logger.Warn("membership lookup failed",
			slog.Int64("user_id", userID),
			slog.Int64("chat_id", g.chatID),
			slog.Any("error", err),
		)
		return Ineligible
	}
	if _, ok := allowed[strings.ToLower(strings.TrimSpace(status))]; ok {
		decisionsTotal.WithLabelValues("eligible").Inc()
		return Eligible
	}
	decisionsTotal.WithLabelValues("ineligible").Inc()
	g.logger.Debug("requester not a member", slog.Int64("user_id", userID), slog.String("status", status))
	return Ineligible
}
