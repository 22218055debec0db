package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clubhouse/internal/adapters/email"
	outboxStore "clubhouse/internal/adapters/storage/outbox"
	"clubhouse/internal/domain/outbox"
)

// OutboxEnqueuer is the minimal sink for queueing outbound actions.
type OutboxEnqueuer interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// enqueueEmail queues one outbound email for the background worker.
func enqueueEmail(ctx context.Context, store OutboxEnqueuer, id string, now time.Time, payload outbox.EmailPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}
	entry := outbox.Entry{
		ID:          id,
		ActionType:  outbox.ActionTypeEmail,
		Payload:     string(raw),
		Status:      outbox.StatusPending,
		MaxAttempts: outbox.DefaultMaxAttempts,
		CreatedAt:   now,
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	return store.Save(ctx, entry)
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the provider's external ID and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor drains the outbox: it retries failed external actions
// with exponential backoff and exposes the admin retry/abandon operations.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
}

// NewOutboxProcessor creates an outbox processor with the default retry
// policy.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: outbox.BaseRetryDelay,
		maxDelay:  outbox.MaxRetryDelay,
		batchSize: 20,
		now:       time.Now,
	}
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: Ready entries are attempted; failures keep their retry schedule
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}

	return nil
}

// processEntry attempts one entry, respecting its backoff window.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry outbox.Entry) error {
	if !entry.LastAttemptedAt.IsZero() {
		delay := entry.NextRetryDelay(p.baseDelay, p.maxDelay)
		if p.now().Sub(entry.LastAttemptedAt) < delay {
			return nil // Not ready to retry yet
		}
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}

	return p.store.Save(ctx, entry)
}

// ProcessSingle manually processes a single outbox entry (admin retry).
// PRE: entryID is non-empty
// POST: Entry is attempted immediately, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried", entryID)
	}

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		return fmt.Errorf("no executor registered for action type: %s", entry.ActionType)
	}

	entry.MarkAttempt(p.now())
	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
	} else {
		entry.MarkSuccess(externalID)
	}

	return p.store.Save(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}

	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// --- Email Executor ---

// EmailExecutor delivers queued emails through the configured provider.
type EmailExecutor struct {
	Sender  email.Sender
	From    string
	ReplyTo string
}

// Execute sends an email from the payload.
// PRE: payload is valid JSON matching outbox.EmailPayload
// POST: Email sent via the provider, returns its message ID
// INVARIANT: Outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p outbox.EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal email payload: %w", err)
	}
	if len(p.To) == 0 {
		return "", errors.New("email payload has no recipients")
	}

	result, err := e.Sender.Send(ctx, email.SendRequest{
		To:      p.To,
		From:    e.From,
		Subject: p.Subject,
		HTML:    p.HTML,
		ReplyTo: e.ReplyTo,
	})
	if err != nil {
		return "", err
	}
	return result.MessageID, nil
}

// --- Background Worker ---

// StartBackgroundWorker starts a goroutine that periodically drains the
// outbox until stopCh is closed.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
