//go:build integration

package store_test

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"taskledger/internal/store"
)

func getNATSURL() string {
	if url := os.Getenv("NATS_URL"); url != "" {
		return url
	}
	return nats.DefaultURL
}

func newTestNATS(t *testing.T) *store.NATS {
	conn, err := nats.Connect(getNATSURL())
	if err != nil {
		t.Skipf("NATS not available: %v", err)
	}
	t.Cleanup(conn.Close)

	bucket := fmt.Sprintf("taskledger-test-%d", time.Now().UnixNano())
	s, err := store.NewNATS(context.Background(), store.NATSConfig{Conn: conn, Bucket: bucket})
	if err != nil {
		t.Fatalf("NewNATS failed: %v", err)
	}
	return s
}

func TestNATS_AllocateWriteGet(t *testing.T) {
	s := newTestNATS(t)
	ctx := context.Background()
	addr := testAddr(1)

	err := s.Update(ctx, addr, func(tx store.Tx) error {
		if err := tx.Allocate(ctx, addr, payer, 16); err != nil {
			return err
		}
		return tx.Write(ctx, addr, []byte("hello"))
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	a, err := s.Get(ctx, addr)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(a.Data) != "hello" || a.Payer != payer {
		t.Errorf("unexpected account %+v", a)
	}

	if _, err := s.Get(ctx, testAddr(2)); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNATS_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s := newTestNATS(t)
	ctx := context.Background()
	addr := testAddr(3)

	err := s.Update(ctx, addr, func(tx store.Tx) error {
		if err := tx.Allocate(ctx, addr, payer, 8); err != nil {
			return err
		}
		return tx.Write(ctx, addr, make([]byte, 8))
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, addr, func(tx store.Tx) error {
				data, _, err := tx.Read(ctx, addr)
				if err != nil {
					return err
				}
				n := binary.LittleEndian.Uint64(data)
				return tx.Write(ctx, addr, binary.LittleEndian.AppendUint64(nil, n+1))
			})
			if err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	a, err := s.Get(ctx, addr)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got := binary.LittleEndian.Uint64(a.Data); got != workers {
		t.Errorf("expected counter %d, got %d", workers, got)
	}
}
