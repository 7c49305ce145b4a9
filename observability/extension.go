// Package observability provides a metrics extension for the registry that
// records lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/nftledger/id"
	"github.com/xraph/nftledger/plugin"
	"github.com/xraph/nftledger/token"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnTokenMinted      = (*MetricsExtension)(nil)
	_ plugin.OnTokenTransferred = (*MetricsExtension)(nil)
	_ plugin.OnTokenBurned      = (*MetricsExtension)(nil)
	_ plugin.OnTokenApproved    = (*MetricsExtension)(nil)
	_ plugin.OnOperatorApproval = (*MetricsExtension)(nil)
	_ plugin.OnMintPaused       = (*MetricsExtension)(nil)
	_ plugin.OnMintUnpaused     = (*MetricsExtension)(nil)
	_ plugin.OnAdminTransferred = (*MetricsExtension)(nil)
	_ plugin.OnJournalFlushed   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a plugin to automatically track registry activity.
type MetricsExtension struct {
	factory MetricFactory

	// Token metrics
	TokensMinted      Counter
	TokensTransferred Counter
	TokensBurned      Counter
	TransferPayload   Histogram

	// Approval metrics
	TokenApprovals  Counter
	ApprovalClears  Counter
	OperatorGrants  Counter
	OperatorRevokes Counter

	// Admin metrics
	MintPauses     Counter
	MintUnpauses   Counter
	AdminTransfers Counter

	// Journal metrics
	JournalBatchSize    Histogram
	JournalFlushLatency Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Token metrics
		TokensMinted:      factory.Counter("nftledger.token.minted"),
		TokensTransferred: factory.Counter("nftledger.token.transferred"),
		TokensBurned:      factory.Counter("nftledger.token.burned"),
		TransferPayload:   factory.Histogram("nftledger.transfer.payload_bytes"),

		// Approval metrics
		TokenApprovals:  factory.Counter("nftledger.approval.set"),
		ApprovalClears:  factory.Counter("nftledger.approval.cleared"),
		OperatorGrants:  factory.Counter("nftledger.operator.granted"),
		OperatorRevokes: factory.Counter("nftledger.operator.revoked"),

		// Admin metrics
		MintPauses:     factory.Counter("nftledger.mint.paused"),
		MintUnpauses:   factory.Counter("nftledger.mint.unpaused"),
		AdminTransfers: factory.Counter("nftledger.admin.transferred"),

		// Journal metrics
		JournalBatchSize:    factory.Histogram("nftledger.journal.batch.size"),
		JournalFlushLatency: factory.Histogram("nftledger.journal.flush.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Token lifecycle hooks
// ──────────────────────────────────────────────────

// OnTokenMinted implements plugin.OnTokenMinted.
func (m *MetricsExtension) OnTokenMinted(_ context.Context, _ *token.Token) error {
	m.TokensMinted.Inc()
	return nil
}

// OnTokenTransferred implements plugin.OnTokenTransferred.
func (m *MetricsExtension) OnTokenTransferred(_ context.Context, _, _ id.Principal, _ uint64, data []byte) error {
	m.TokensTransferred.Inc()
	m.TransferPayload.Observe(float64(len(data)))
	return nil
}

// OnTokenBurned implements plugin.OnTokenBurned.
func (m *MetricsExtension) OnTokenBurned(_ context.Context, _ id.Principal, _ uint64) error {
	m.TokensBurned.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Approval hooks
// ──────────────────────────────────────────────────

// OnTokenApproved implements plugin.OnTokenApproved.
func (m *MetricsExtension) OnTokenApproved(_ context.Context, _, delegate id.Principal, _ uint64) error {
	if delegate.IsNil() {
		m.ApprovalClears.Inc()
	} else {
		m.TokenApprovals.Inc()
	}
	return nil
}

// OnOperatorApproval implements plugin.OnOperatorApproval.
func (m *MetricsExtension) OnOperatorApproval(_ context.Context, _, _ id.Principal, approved bool) error {
	if approved {
		m.OperatorGrants.Inc()
	} else {
		m.OperatorRevokes.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Admin hooks
// ──────────────────────────────────────────────────

// OnMintPaused implements plugin.OnMintPaused.
func (m *MetricsExtension) OnMintPaused(_ context.Context) error {
	m.MintPauses.Inc()
	return nil
}

// OnMintUnpaused implements plugin.OnMintUnpaused.
func (m *MetricsExtension) OnMintUnpaused(_ context.Context) error {
	m.MintUnpauses.Inc()
	return nil
}

// OnAdminTransferred implements plugin.OnAdminTransferred.
func (m *MetricsExtension) OnAdminTransferred(_ context.Context, _, _ id.Principal) error {
	m.AdminTransfers.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Journal hooks
// ──────────────────────────────────────────────────

// OnJournalFlushed implements plugin.OnJournalFlushed.
func (m *MetricsExtension) OnJournalFlushed(_ context.Context, count int, elapsed time.Duration) error {
	m.JournalBatchSize.Observe(float64(count))
	m.JournalFlushLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
