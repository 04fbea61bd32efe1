package checkout

import (
	"context"
	"sync"
	"time"

	"checkout-service/internal/models"
	"checkout-service/internal/util"

	"go.uber.org/zap"
)

// PaymentSessionCreator issues a payment preference for the given items and payer.
type PaymentSessionCreator interface {
	CreatePaymentSession(ctx context.Context, items []models.PreferenceItem, payerEmail string) (string, error)
}

const msgPreferenceFailed = "Could not load payment options, please try again"

// PreferenceManager keeps at most one current preference token aligned with
// the latest (items, payer email) input while the token-based method is
// active. Every issued request carries a sequence number; a response is
// adopted only when its number is still the latest issued, so a slow earlier
// request can never overwrite a newer token. Superseded requests run to
// completion and are discarded on arrival.
type PreferenceManager struct {
	creator          PaymentSessionCreator
	notifier         Notifier
	placeholderEmail string
	logger           *zap.Logger

	mu      sync.Mutex
	seq     uint64
	token   string
	pending bool
	wg      sync.WaitGroup
}

// NewPreferenceManager creates a new preference manager. An empty payer
// email is replaced by placeholderEmail on outgoing requests.
func NewPreferenceManager(creator PaymentSessionCreator, notifier Notifier, placeholderEmail string) *PreferenceManager {
	return &PreferenceManager{
		creator:          creator,
		notifier:         notifier,
		placeholderEmail: placeholderEmail,
		logger:           util.GetLogger(),
	}
}

// Refresh recomputes the preference for the given input. The current token is
// always invalidated; a creation request is issued only for the token-based
// method with a non-empty item list. It returns the sequence number of the
// issued request, or 0 when none was issued.
func (pm *PreferenceManager) Refresh(ctx context.Context, method models.PaymentMethod, items []models.LineItem, payerEmail string) uint64 {
	pm.mu.Lock()
	pm.seq++
	seq := pm.seq
	pm.token = ""
	pm.pending = false

	if method != models.MethodTokenBased || len(items) == 0 {
		pm.mu.Unlock()
		return 0
	}
	pm.pending = true
	pm.wg.Add(1)
	pm.mu.Unlock()

	email := payerEmail
	if email == "" {
		email = pm.placeholderEmail
	}

	util.PreferenceRequestsTotal.WithLabelValues("issued").Inc()
	go pm.issue(context.WithoutCancel(ctx), seq, PreferenceItems(items), email)
	return seq
}

func (pm *PreferenceManager) issue(ctx context.Context, seq uint64, items []models.PreferenceItem, email string) {
	defer pm.wg.Done()

	ctx, span := util.StartSpan(ctx, "PreferenceManager.issue")
	defer span.End()

	start := time.Now()
	token, err := pm.creator.CreatePaymentSession(ctx, items, email)
	util.PreferenceLatency.Observe(time.Since(start).Seconds())

	pm.mu.Lock()
	if seq != pm.seq {
		pm.mu.Unlock()
		util.PreferenceRequestsTotal.WithLabelValues("discarded").Inc()
		pm.logger.Debug("Discarding stale preference response", zap.Uint64("seq", seq))
		return
	}
	pm.pending = false
	if err != nil || token == "" {
		pm.token = ""
		// Must stay under pm.mu: a newer Refresh may not slip in before the notice.
		pm.notifier.Notify(LevelError, msgPreferenceFailed)
		pm.mu.Unlock()

		util.PreferenceRequestsTotal.WithLabelValues("failed").Inc()
		if err == nil {
			err = ErrMalformedResponse
		}
		pm.logger.Warn("Preference creation failed", zap.Uint64("seq", seq), zap.Error(err))
		return
	}
	pm.token = token
	pm.mu.Unlock()

	util.PreferenceRequestsTotal.WithLabelValues("adopted").Inc()
	pm.logger.Debug("Preference adopted", zap.Uint64("seq", seq))
}

// Token returns the current token, or "" when none is valid.
func (pm *PreferenceManager) Token() string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.token
}

// Pending reports whether the latest issued request is still in flight.
func (pm *PreferenceManager) Pending() bool {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return pm.pending
}

// Wait blocks until every issued request, current or superseded, has returned.
func (pm *PreferenceManager) Wait() {
	pm.wg.Wait()
}
