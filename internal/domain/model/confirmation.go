package model

// PaymentProvider identifies the checkout provider a confirmation came from.
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderCreem  PaymentProvider = "creem"
)

// ConfirmationSource describes the channel a confirmation arrived through.
type ConfirmationSource string

const (
	// SourceWebhook is a server-to-server callback carrying a verified signature.
	SourceWebhook ConfirmationSource = "webhook"
	// SourceRedirect is a browser navigation to a success URL; unauthenticated.
	SourceRedirect ConfirmationSource = "redirect"
	// SourceRecovery is a direct provider API poll performed by the recovery worker.
	SourceRecovery ConfirmationSource = "recovery"
)

// Authenticated reports whether the channel proves the confirmation
// actually originated from the provider.
func (s ConfirmationSource) Authenticated() bool {
	return s == SourceWebhook || s == SourceRecovery
}

// PaymentConfirmation is the canonical confirmation shape shared by all
// providers and delivery channels. OrderNo may be empty when the
// provider supplied no usable identifier; the reconciler then falls
// back to heuristic matching.
type PaymentConfirmation struct {
	Provider   PaymentProvider
	OrderNo    string
	PayerEmail string
	Amount     int64 // minor units, 0 when unknown
	Currency   string
	RawDetail  string
	Source     ConfirmationSource
}

// ReconcileResult reports the outcome of applying a confirmation to an order.
type ReconcileResult struct {
	AlreadyProcessed bool
	Order            *Order
}
