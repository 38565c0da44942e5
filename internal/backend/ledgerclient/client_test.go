package ledgerclient_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"taskledger/internal/address"
	"taskledger/internal/backend/ledgerclient"
	"taskledger/internal/identity"
	"taskledger/internal/ledger"
	"taskledger/internal/program"
	"taskledger/internal/service"
	"taskledger/internal/store"
	"taskledger/internal/taskerr"
)

var _ service.Service = (*ledgerclient.Client)(nil)

func newLedger() *ledger.Ledger {
	return ledger.New(program.New(address.NewDeriver(address.DefaultProgramID)), store.NewMemory())
}

func key(b byte) *identity.Keypair {
	return identity.FromSeed(bytes.Repeat([]byte{b}, 32))
}

func TestClient_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c := ledgerclient.New(newLedger(), key(1))

	if _, err := c.TaskList(ctx); !errors.Is(err, taskerr.ErrNotFound) {
		t.Fatalf("expected NotFound before init, got %v", err)
	}
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := c.Initialize(ctx); !errors.Is(err, taskerr.ErrAlreadyExists) {
		t.Errorf("expected AlreadyExists, got %v", err)
	}

	for want, d := range []string{"a", "b"} {
		id, err := c.AddTask(ctx, d)
		if err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
		if id != uint64(want) {
			t.Errorf("expected id %d, got %d", want, id)
		}
	}
	if err := c.CompleteTask(ctx, 1); err != nil {
		t.Fatalf("CompleteTask failed: %v", err)
	}
	if err := c.DeleteTask(ctx, 0); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	l, err := c.TaskList(ctx)
	if err != nil {
		t.Fatalf("TaskList failed: %v", err)
	}
	if l.Owner != c.Owner() || l.TaskCount != 2 || len(l.Tasks) != 1 || !l.Tasks[0].Completed {
		t.Errorf("unexpected list %+v", l)
	}
}

func TestClient_MapsFailureKinds(t *testing.T) {
	ctx := context.Background()
	c := ledgerclient.New(newLedger(), key(1))
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if err := c.CompleteTask(ctx, 7); !errors.Is(err, taskerr.ErrTaskNotFound) {
		t.Errorf("expected TaskNotFound, got %v", err)
	}
	if _, err := c.AddTask(ctx, string(make([]byte, 201))); !errors.Is(err, taskerr.ErrDescriptionTooLong) {
		t.Errorf("expected DescriptionTooLong, got %v", err)
	}
}

func TestClient_SeparateOwners(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	alice := ledgerclient.New(l, key(1))
	bob := ledgerclient.New(l, key(2))

	if alice.Address() == bob.Address() {
		t.Fatal("owners must have distinct addresses")
	}
	if err := alice.Initialize(ctx); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if _, err := bob.AddTask(ctx, "x"); !errors.Is(err, taskerr.ErrNotFound) {
		t.Errorf("expected NotFound for uninitialized owner, got %v", err)
	}
}

type brokenLedger struct {
	ledgerclient.Ledger
	rcpt ledger.Receipt
}

func (b brokenLedger) Submit(context.Context, ledger.Request) (ledger.Receipt, error) {
	return b.rcpt, nil
}

func TestClient_UnknownCode(t *testing.T) {
	bl := brokenLedger{Ledger: newLedger(), rcpt: ledger.Receipt{RequestID: "r1", Code: 42}}
	c := ledgerclient.New(bl, key(1))

	err := c.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := taskerr.KindOf(err); ok {
		t.Errorf("unknown code must not map to a kind, got %v", err)
	}
}
