// Package ledger hosts the task list program over a record store.
//
// It plays the part of the chain runtime: it authenticates the caller,
// serializes access per address and commits a request's writes only when
// the request succeeds.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskledger/internal/address"
	"taskledger/internal/identity"
	"taskledger/internal/program"
	"taskledger/internal/store"
	"taskledger/internal/taskerr"
)

// Request is a signed task list request.
type Request struct {
	Caller  identity.ID
	Address address.Address

	// Payload is the encoded operation: tag followed by arguments.
	Payload []byte

	// Signature is the caller's ed25519 signature over SigningMessage.
	Signature []byte
}

// SigningMessage returns the bytes a caller signs: address || payload.
func SigningMessage(addr address.Address, payload []byte) []byte {
	msg := make([]byte, 0, len(addr)+len(payload))
	msg = append(msg, addr[:]...)
	return append(msg, payload...)
}

// NewRequest builds and signs a request for kp.
func NewRequest(kp *identity.Keypair, addr address.Address, payload []byte) Request {
	return Request{
		Caller:    kp.ID(),
		Address:   addr,
		Payload:   payload,
		Signature: kp.Sign(SigningMessage(addr, payload)),
	}
}

// Receipt reports the outcome of a submitted request.
type Receipt struct {
	RequestID string
	Operation string
	Success   bool

	AssignedID    uint64
	HasAssignedID bool

	// Failure fields are set when Success is false.
	Failure taskerr.Kind
	Code    uint32
	Message string
}

// Err returns the receipt's failure as a *taskerr.Error, or nil on success.
func (r Receipt) Err() error {
	if r.Success {
		return nil
	}
	return &taskerr.Error{Kind: r.Failure}
}

// Ledger runs requests against a store.
type Ledger struct {
	program *program.Program
	backend store.Backend
	logger  *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(lg *Ledger) {
		if l != nil {
			lg.logger = l
		}
	}
}

// New creates a Ledger for p over backend.
func New(p *program.Program, backend store.Backend, opts ...Option) *Ledger {
	l := &Ledger{
		program: p,
		backend: backend,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Submit executes req. Domain failures are reported in the receipt; the
// returned error is non-nil only for infrastructure failures.
func (l *Ledger) Submit(ctx context.Context, req Request) (Receipt, error) {
	rcpt := Receipt{RequestID: uuid.NewString()}
	logger := l.logger.With(
		"request", rcpt.RequestID,
		"caller", req.Caller.String(),
		"address", req.Address.String(),
	)

	if !identity.Verify(req.Caller, SigningMessage(req.Address, req.Payload), req.Signature) {
		l.fail(logger, &rcpt, taskerr.New(taskerr.SignatureInvalid, ""))
		return rcpt, nil
	}

	start := time.Now()
	var res program.Result
	err := l.backend.Update(ctx, req.Address, func(tx store.Tx) error {
		var err error
		res, err = l.program.Handle(ctx, req.Caller, req.Address, req.Payload, tx)
		return err
	})

	var domainErr *taskerr.Error
	switch {
	case err == nil:
	case errors.As(err, &domainErr):
		l.fail(logger, &rcpt, domainErr)
		return rcpt, nil
	default:
		logger.Error("request failed", "error", err)
		return Receipt{}, fmt.Errorf("request %s: %w", rcpt.RequestID, err)
	}

	rcpt.Success = true
	rcpt.Operation = res.Operation
	rcpt.AssignedID = res.AssignedID
	rcpt.HasAssignedID = res.HasAssignedID

	attrs := []any{"op", res.Operation, "elapsed", time.Since(start)}
	if res.HasAssignedID {
		attrs = append(attrs, "task", res.AssignedID)
	}
	logger.Info("request applied", attrs...)
	return rcpt, nil
}

func (l *Ledger) fail(logger *slog.Logger, rcpt *Receipt, e *taskerr.Error) {
	rcpt.Failure = e.Kind
	rcpt.Code = e.Kind.Code()
	rcpt.Message = e.Error()
	logger.Warn("request rejected", "kind", e.Kind.String(), "code", rcpt.Code, "detail", e.Detail)
}

// Account returns the raw record bytes at addr. ok is false when absent.
func (l *Ledger) Account(ctx context.Context, addr address.Address) (data []byte, ok bool, err error) {
	a, err := l.backend.Get(ctx, addr)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return a.Data, true, nil
}

// DeriveAddress returns the record address of owner.
func (l *Ledger) DeriveAddress(owner identity.ID) address.Address {
	return l.program.Deriver().Address(owner)
}
