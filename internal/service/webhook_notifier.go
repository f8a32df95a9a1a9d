package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"account-transfer-service/internal/core/domain"

	"github.com/rs/zerolog"
)

// HeaderSignature carries the HMAC-SHA256 of the webhook body when a secret
// is configured.
const HeaderSignature = "X-Signature"

// defaultWebhookRetryIntervals are the waits between delivery attempts.
var defaultWebhookRetryIntervals = []time.Duration{
	15 * time.Second,
	60 * time.Second,
	2 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// defaultWebhookMaxInFlight bounds deliveries that are still retrying.
const defaultWebhookMaxInFlight = 1024

var (
	// ErrWebhookBacklogFull is returned by Notify when too many deliveries
	// are still retrying. The notification is dropped.
	ErrWebhookBacklogFull    = errors.New("webhook delivery backlog full")
	ErrWebhookNotifierClosed = errors.New("webhook notifier closed")
)

// WebhookNotifier POSTs notifications to a fixed URL. Delivery happens in
// the background with retries, so Notify only fails if the payload cannot
// be built or the backlog is full. Close stops pending retries.
type WebhookNotifier struct {
	url            string
	signer         *HMACSigner // nil = unsigned
	httpClient     HTTPClient
	retryIntervals []time.Duration
	log            zerolog.Logger

	// ctx ends every in-flight delivery when the notifier is closed.
	ctx      context.Context
	cancel   context.CancelFunc
	inFlight chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex // guards closed and wg.Add against Close
	closed bool
}

// NewWebhookNotifier creates a WebhookNotifier. An empty secret sends
// unsigned payloads; nil retryIntervals uses the defaults.
func NewWebhookNotifier(url, secret string, httpClient HTTPClient, retryIntervals []time.Duration, log zerolog.Logger) *WebhookNotifier {
	ctx, cancel := context.WithCancel(context.Background())
	n := &WebhookNotifier{
		url:            url,
		httpClient:     httpClient,
		retryIntervals: retryIntervals,
		log:            log,
		ctx:            ctx,
		cancel:         cancel,
		inFlight:       make(chan struct{}, defaultWebhookMaxInFlight),
	}
	if secret != "" {
		n.signer = NewHMACSigner(secret)
	}
	if n.retryIntervals == nil {
		n.retryIntervals = defaultWebhookRetryIntervals
	}
	return n
}

// Notify queues the notification for delivery.
func (n *WebhookNotifier) Notify(_ context.Context, account *domain.Account, message string) error {
	payload, err := json.Marshal(domain.Notification{
		AccountID: account.ID(),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrWebhookNotifierClosed
	}
	select {
	case n.inFlight <- struct{}{}:
	default:
		n.mu.Unlock()
		return ErrWebhookBacklogFull
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		defer func() { <-n.inFlight }()
		n.deliverWithRetries(payload, account.ID())
	}()
	return nil
}

// Close cancels pending retries and waits for delivery goroutines to exit,
// or for ctx to be done.
func (n *WebhookNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.cancel()
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("webhook notifier close: %w", ctx.Err())
	}
}

// deliverWithRetries attempts delivery once plus once per retry interval.
// It gives up early when the notifier is closed.
func (n *WebhookNotifier) deliverWithRetries(payload []byte, accountID string) {
	for attempt := 0; attempt <= len(n.retryIntervals); attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(n.retryIntervals[attempt-1])
			select {
			case <-timer.C:
			case <-n.ctx.Done():
				timer.Stop()
				n.log.Warn().Str("account_id", accountID).Int("attempt", attempt).Msg("webhook: notifier closed, delivery abandoned")
				return
			}
		}

		req, err := http.NewRequestWithContext(n.ctx, http.MethodPost, n.url, bytes.NewReader(payload))
		if err != nil {
			n.log.Error().Err(err).Str("account_id", accountID).Msg("webhook: failed to create request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		if n.signer != nil {
			req.Header.Set(HeaderSignature, n.signer.Sign(payload))
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.log.Warn().Err(err).Str("account_id", accountID).Int("attempt", attempt+1).Msg("webhook: delivery failed")
			continue
		}
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			n.log.Debug().Str("account_id", accountID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: delivered")
			return
		}

		n.log.Warn().Str("account_id", accountID).Int("attempt", attempt+1).Int("status", resp.StatusCode).Msg("webhook: non-2xx response, retrying")
	}

	n.log.Error().Str("account_id", accountID).Msg("webhook: all retry attempts exhausted")
}
