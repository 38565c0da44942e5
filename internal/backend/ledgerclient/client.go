// Package ledgerclient implements the service.Service interface against a ledger host.
package ledgerclient

import (
	"context"
	"fmt"
	"time"

	"taskledger/internal/address"
	"taskledger/internal/codec"
	"taskledger/internal/identity"
	"taskledger/internal/ledger"
	"taskledger/internal/taskerr"
	"taskledger/internal/tasklist"
)

// RequestTimeout is the timeout for a single request.
const RequestTimeout = 5 * time.Second

// Ledger is the host the client submits to. *ledger.Ledger implements it.
type Ledger interface {
	Submit(ctx context.Context, req ledger.Request) (ledger.Receipt, error)
	Account(ctx context.Context, addr address.Address) ([]byte, bool, error)
	DeriveAddress(owner identity.ID) address.Address
}

// Client implements service.Service for the owner of a keypair.
type Client struct {
	ledger  Ledger
	keypair *identity.Keypair
	addr    address.Address
}

// New creates a client that signs with kp.
func New(l Ledger, kp *identity.Keypair) *Client {
	return &Client{
		ledger:  l,
		keypair: kp,
		addr:    l.DeriveAddress(kp.ID()),
	}
}

// Owner implements service.Service.
func (c *Client) Owner() identity.ID {
	return c.keypair.ID()
}

// Address implements service.Service.
func (c *Client) Address() address.Address {
	return c.addr
}

// Initialize implements service.Service.
func (c *Client) Initialize(ctx context.Context) error {
	_, err := c.submit(ctx, tasklist.Create{})
	return err
}

// AddTask implements service.Service.
func (c *Client) AddTask(ctx context.Context, description string) (uint64, error) {
	rcpt, err := c.submit(ctx, tasklist.Append{Description: description})
	if err != nil {
		return 0, err
	}
	if !rcpt.HasAssignedID {
		return 0, fmt.Errorf("request %s: no id assigned", rcpt.RequestID)
	}
	return rcpt.AssignedID, nil
}

// CompleteTask implements service.Service.
func (c *Client) CompleteTask(ctx context.Context, id uint64) error {
	_, err := c.submit(ctx, tasklist.Complete{TaskID: id})
	return err
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id uint64) error {
	_, err := c.submit(ctx, tasklist.Remove{TaskID: id})
	return err
}

// TaskList implements service.Service.
func (c *Client) TaskList(ctx context.Context) (tasklist.TaskList, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	data, ok, err := c.ledger.Account(ctx, c.addr)
	if err != nil {
		return tasklist.TaskList{}, fmt.Errorf("read account: %w", err)
	}
	if !ok {
		return tasklist.TaskList{}, taskerr.New(taskerr.NotFound, "address %s", c.addr)
	}
	return codec.DecodeRecord(data)
}

func (c *Client) submit(ctx context.Context, op tasklist.Operation) (ledger.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req := ledger.NewRequest(c.keypair, c.addr, codec.EncodeOperation(op))
	rcpt, err := c.ledger.Submit(ctx, req)
	if err != nil {
		return ledger.Receipt{}, err
	}
	if !rcpt.Success {
		return rcpt, failure(rcpt)
	}
	return rcpt, nil
}

// failure maps a receipt's numeric code back to a typed failure.
func failure(rcpt ledger.Receipt) error {
	kind, ok := taskerr.FromCode(rcpt.Code)
	if !ok {
		return fmt.Errorf("request %s: unknown failure code %d", rcpt.RequestID, rcpt.Code)
	}
	return fmt.Errorf("request %s: %w", rcpt.RequestID, &taskerr.Error{Kind: kind})
}
