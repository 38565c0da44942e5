package ledger_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"taskledger/internal/address"
	"taskledger/internal/codec"
	"taskledger/internal/identity"
	"taskledger/internal/ledger"
	"taskledger/internal/program"
	"taskledger/internal/store"
	"taskledger/internal/taskerr"
	"taskledger/internal/tasklist"
)

var (
	alice = identity.FromSeed(bytes.Repeat([]byte{1}, 32))
	bob   = identity.FromSeed(bytes.Repeat([]byte{2}, 32))
)

func newLedger(t *testing.T, opts ...ledger.Option) *ledger.Ledger {
	t.Helper()
	p := program.New(address.NewDeriver(address.DefaultProgramID))
	return ledger.New(p, store.NewMemory(), opts...)
}

func submit(t *testing.T, l *ledger.Ledger, kp *identity.Keypair, owner identity.ID, op tasklist.Operation) ledger.Receipt {
	t.Helper()
	req := ledger.NewRequest(kp, l.DeriveAddress(owner), codec.EncodeOperation(op))
	rcpt, err := l.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	return rcpt
}

func TestSubmit_CreateAndAppend(t *testing.T) {
	l := newLedger(t)

	rcpt := submit(t, l, alice, alice.ID(), tasklist.Create{})
	if !rcpt.Success || rcpt.Operation != "create" {
		t.Fatalf("unexpected receipt %+v", rcpt)
	}
	if rcpt.RequestID == "" {
		t.Error("expected request id")
	}

	rcpt = submit(t, l, alice, alice.ID(), tasklist.Append{Description: "buy milk"})
	if !rcpt.Success || !rcpt.HasAssignedID || rcpt.AssignedID != 0 {
		t.Fatalf("unexpected receipt %+v", rcpt)
	}

	data, ok, err := l.Account(context.Background(), l.DeriveAddress(alice.ID()))
	if err != nil || !ok {
		t.Fatalf("Account failed: ok=%v err=%v", ok, err)
	}
	list, err := codec.DecodeRecord(data)
	if err != nil {
		t.Fatalf("DecodeRecord failed: %v", err)
	}
	if len(list.Tasks) != 1 || list.Tasks[0].Description != "buy milk" {
		t.Errorf("unexpected tasks %+v", list.Tasks)
	}
}

func TestSubmit_DomainFailureIsReceipt(t *testing.T) {
	l := newLedger(t)
	submit(t, l, alice, alice.ID(), tasklist.Create{})

	rcpt := submit(t, l, bob, alice.ID(), tasklist.Append{Description: "x"})
	if rcpt.Success {
		t.Fatal("expected failure")
	}
	if rcpt.Failure != taskerr.Unauthorized || rcpt.Code != 6004 {
		t.Errorf("expected Unauthorized/6004, got %s/%d", rcpt.Failure, rcpt.Code)
	}
	if !errors.Is(rcpt.Err(), taskerr.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", rcpt.Err())
	}
}

func TestSubmit_BadSignature(t *testing.T) {
	l := newLedger(t)
	addr := l.DeriveAddress(alice.ID())
	payload := codec.EncodeOperation(tasklist.Create{})

	cases := map[string]ledger.Request{
		"signed by other": {
			Caller:    alice.ID(),
			Address:   addr,
			Payload:   payload,
			Signature: bob.Sign(ledger.SigningMessage(addr, payload)),
		},
		"payload swapped": {
			Caller:    alice.ID(),
			Address:   addr,
			Payload:   codec.EncodeOperation(tasklist.Remove{TaskID: 0}),
			Signature: alice.Sign(ledger.SigningMessage(addr, payload)),
		},
		"missing": {
			Caller:  alice.ID(),
			Address: addr,
			Payload: payload,
		},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			rcpt, err := l.Submit(context.Background(), req)
			if err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if rcpt.Failure != taskerr.SignatureInvalid {
				t.Errorf("expected SignatureInvalid, got %+v", rcpt)
			}
		})
	}

	if _, ok, _ := l.Account(context.Background(), addr); ok {
		t.Error("rejected request must not create a record")
	}
}

func TestSubmit_ConcurrentAppendsGetDistinctIDs(t *testing.T) {
	l := newLedger(t)
	submit(t, l, alice, alice.ID(), tasklist.Create{})

	const n = tasklist.MaxTasks
	ids := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rcpt := submit(t, l, alice, alice.ID(), tasklist.Append{Description: "t"})
			if !rcpt.Success {
				t.Errorf("append failed: %+v", rcpt)
				return
			}
			ids <- rcpt.AssignedID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d ids, got %d", n, len(seen))
	}
}

func TestSubmit_Logs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	l := newLedger(t, ledger.WithLogger(logger))

	submit(t, l, alice, alice.ID(), tasklist.Create{})
	submit(t, l, alice, alice.ID(), tasklist.Complete{TaskID: 3})

	out := buf.String()
	if !strings.Contains(out, "request applied") || !strings.Contains(out, "op=create") {
		t.Errorf("expected applied log, got %q", out)
	}
	if !strings.Contains(out, "request rejected") || !strings.Contains(out, "kind=TaskNotFound") {
		t.Errorf("expected rejected log, got %q", out)
	}
}

type failingBackend struct {
	store.Backend
}

func (failingBackend) Update(context.Context, address.Address, func(store.Tx) error) error {
	return errors.New("backend down")
}

func TestSubmit_InfrastructureError(t *testing.T) {
	p := program.New(address.NewDeriver(address.DefaultProgramID))
	l := ledger.New(p, failingBackend{Backend: store.NewMemory()})

	req := ledger.NewRequest(alice, l.DeriveAddress(alice.ID()), codec.EncodeOperation(tasklist.Create{}))
	if _, err := l.Submit(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}
}

func TestAccount_Missing(t *testing.T) {
	l := newLedger(t)
	data, ok, err := l.Account(context.Background(), l.DeriveAddress(bob.ID()))
	if err != nil || ok || data != nil {
		t.Errorf("expected absent account, got ok=%v err=%v", ok, err)
	}
}
