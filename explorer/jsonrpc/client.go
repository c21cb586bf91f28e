// Package jsonrpc implements explorer.Source over a node's HTTP JSON-RPC API.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/rpc/v2/json2"

	"github.com/unkn0wn-root/fetchcache"
	"github.com/unkn0wn-root/fetchcache/explorer"
)

// Node error codes meaning "answered, nothing there".
const (
	codeSlotSkipped         = -32007
	codeLongTermStorageSlot = -32009
)

const defaultMaxRetries = 2

type Options struct {
	HTTPClient *http.Client // nil => 30s timeout client
	Commitment string       // "" => finalized
	MaxRetries uint64       // transport retries; 0 => 2
	UserAgent  string
}

// Client is safe for concurrent use. The endpoint comes from the caller on every
// call, so one Client serves every cluster.
type Client struct {
	hc         *http.Client
	commitment string
	retries    uint64
	ua         string
}

var _ explorer.Source = (*Client)(nil)

func New(opts Options) *Client {
	c := &Client{
		hc:         opts.HTTPClient,
		commitment: opts.Commitment,
		retries:    opts.MaxRetries,
		ua:         opts.UserAgent,
	}
	if c.hc == nil {
		c.hc = &http.Client{Timeout: 30 * time.Second}
	}
	if c.commitment == "" {
		c.commitment = "finalized"
	}
	if c.retries == 0 {
		c.retries = defaultMaxRetries
	}
	return c
}

// StatusError is a non-2xx HTTP response from the node.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return fmt.Sprintf("rpc: http %d: %s", e.Code, e.Body) }

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// call posts one request and decodes result into reply. Null results and
// "not available" node errors become fetchcache.ErrNotFound.
func (c *Client) call(ctx context.Context, endpoint, method string, params, reply any) error {
	body, err := json2.EncodeClientRequest(method, params)
	if err != nil {
		return err
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.ua != "" {
			req.Header.Set("User-Agent", c.ua)
		}
		resp, err := c.hc.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode/100 != 2 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
			if retryable(resp.StatusCode) {
				return serr
			}
			return backoff.Permanent(serr)
		}

		err = json2.DecodeClientResponse(resp.Body, reply)
		var rpcErr *json2.Error
		switch {
		case err == nil:
			return nil
		case errors.Is(err, json2.ErrNullResult):
			return backoff.Permanent(fmt.Errorf("%s: %w", method, fetchcache.ErrNotFound))
		case errors.As(err, &rpcErr):
			if rpcErr.Code == codeSlotSkipped || rpcErr.Code == codeLongTermStorageSlot {
				return backoff.Permanent(fmt.Errorf("%s: %s: %w", method, rpcErr.Message, fetchcache.ErrNotFound))
			}
			return backoff.Permanent(fmt.Errorf("%s: rpc error %d: %s", method, rpcErr.Code, rpcErr.Message))
		default:
			// truncated or malformed body
			return backoff.Permanent(fmt.Errorf("%s: decode: %w", method, err))
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), c.retries), ctx)
	return backoff.Retry(op, b)
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0 // bounded by retry count and ctx
	return b
}

type config struct {
	Commitment                     string `json:"commitment,omitempty"`
	Encoding                       string `json:"encoding,omitempty"`
	TransactionDetails             string `json:"transactionDetails,omitempty"`
	Rewards                        *bool  `json:"rewards,omitempty"`
	MaxSupportedTransactionVersion *int   `json:"maxSupportedTransactionVersion,omitempty"`
	Filter                         string `json:"filter,omitempty"`
}

func ptr[T any](v T) *T { return &v }

func (c *Client) Block(ctx context.Context, endpoint string, slot explorer.Slot) (explorer.Block, error) {
	var b explorer.Block
	err := c.call(ctx, endpoint, "getBlock", []any{uint64(slot), config{
		Commitment:                     c.commitment,
		Encoding:                       "json",
		TransactionDetails:             "signatures",
		Rewards:                        ptr(true),
		MaxSupportedTransactionVersion: ptr(0),
	}}, &b)
	return b, err
}

type accountValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [payload, "base64"]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
	Space      uint64   `json:"space"`
}

type accountResult struct {
	Value *accountValue `json:"value"`
}

func (c *Client) Account(ctx context.Context, endpoint string, addr explorer.Address) (explorer.Account, error) {
	var res accountResult
	err := c.call(ctx, endpoint, "getAccountInfo", []any{string(addr), config{
		Commitment: c.commitment,
		Encoding:   "base64",
	}}, &res)
	if err != nil {
		return explorer.Account{}, err
	}
	if res.Value == nil {
		return explorer.Account{}, fmt.Errorf("getAccountInfo: %w", fetchcache.ErrNotFound)
	}
	v := res.Value
	acc := explorer.Account{
		Lamports:   v.Lamports,
		Owner:      v.Owner,
		Executable: v.Executable,
		RentEpoch:  v.RentEpoch,
		Space:      v.Space,
	}
	if len(v.Data) > 0 && v.Data[0] != "" {
		if acc.Data, err = base64.StdEncoding.DecodeString(v.Data[0]); err != nil {
			return explorer.Account{}, fmt.Errorf("getAccountInfo: data: %w", err)
		}
	}
	return acc, nil
}

func (c *Client) Transaction(ctx context.Context, endpoint string, sig explorer.Signature) (explorer.Transaction, error) {
	var tx explorer.Transaction
	err := c.call(ctx, endpoint, "getTransaction", []any{string(sig), config{
		Commitment:                     c.commitment,
		Encoding:                       "json",
		MaxSupportedTransactionVersion: ptr(0),
	}}, &tx)
	return tx, err
}

type supplyResult struct {
	Value explorer.Supply `json:"value"`
}

func (c *Client) Supply(ctx context.Context, endpoint string) (explorer.Supply, error) {
	var res supplyResult
	err := c.call(ctx, endpoint, "getSupply", []any{config{Commitment: c.commitment}}, &res)
	return res.Value, err
}

type largestResult struct {
	Value []explorer.LargeAccount `json:"value"`
}

func (c *Client) RichList(ctx context.Context, endpoint string, filter explorer.RichListFilter) (explorer.RichList, error) {
	cfg := config{Commitment: c.commitment}
	if filter != explorer.RichListAll {
		cfg.Filter = string(filter)
	}
	var res largestResult
	if err := c.call(ctx, endpoint, "getLargestAccounts", []any{cfg}, &res); err != nil {
		return explorer.RichList{}, err
	}
	return explorer.RichList{Accounts: res.Value}, nil
}
