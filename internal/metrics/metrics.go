package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the process counters behind one prometheus registry so
// the handler exposes only what we register here. A nil *Registry is valid
// and drops every observation, which keeps tests and dev wiring simple.
type Registry struct {
	registry *prometheus.Registry

	quotesCreated      prometheus.Counter
	quotesApproved     prometheus.Counter
	distributionsMade  prometheus.Counter
	responsesSubmitted prometheus.Counter
	rankingsComputed   prometheus.Counter
	contactsRevealed   prometheus.Counter
	tokenDebits        prometheus.Counter
	insufficientFunds  prometheus.Counter
}

func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.quotesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_quotes_created_total",
		Help: "Quote requests created.",
	})
	r.quotesApproved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_quotes_approved_total",
		Help: "Quote requests approved.",
	})
	r.distributionsMade = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_distributions_total",
		Help: "Distribution records created by approvals.",
	})
	r.responsesSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_responses_submitted_total",
		Help: "Supplier responses accepted.",
	})
	r.rankingsComputed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_rankings_computed_total",
		Help: "Ranking computations served.",
	})
	r.contactsRevealed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_contacts_revealed_total",
		Help: "Supplier contacts revealed to customers.",
	})
	r.tokenDebits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_token_debits_total",
		Help: "Token ledger debits applied.",
	})
	r.insufficientFunds = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "smartquote_token_insufficient_total",
		Help: "Token debits rejected for insufficient balance.",
	})

	r.registry.MustRegister(
		r.quotesCreated,
		r.quotesApproved,
		r.distributionsMade,
		r.responsesSubmitted,
		r.rankingsComputed,
		r.contactsRevealed,
		r.tokenDebits,
		r.insufficientFunds,
	)
	return r
}

func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) QuoteCreated() {
	if r != nil {
		r.quotesCreated.Inc()
	}
}

func (r *Registry) QuoteApproved() {
	if r != nil {
		r.quotesApproved.Inc()
	}
}

func (r *Registry) DistributionsMade(n int) {
	if r != nil && n > 0 {
		r.distributionsMade.Add(float64(n))
	}
}

func (r *Registry) ResponseSubmitted() {
	if r != nil {
		r.responsesSubmitted.Inc()
	}
}

func (r *Registry) RankingComputed() {
	if r != nil {
		r.rankingsComputed.Inc()
	}
}

func (r *Registry) ContactRevealed() {
	if r != nil {
		r.contactsRevealed.Inc()
	}
}

func (r *Registry) TokenDebit() {
	if r != nil {
		r.tokenDebits.Inc()
	}
}

func (r *Registry) InsufficientFunds() {
	if r != nil {
		r.insufficientFunds.Inc()
	}
}
