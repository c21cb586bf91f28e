package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/fetchcache"
	"github.com/unkn0wn-root/fetchcache/explorer"
)

type rpcRequest struct {
	Version string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      uint64            `json:"id"`
}

// node answers with whatever reply returns for the decoded request.
func node(t *testing.T, reply func(req rpcRequest) (status int, body string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Version != "2.0" {
			t.Errorf("jsonrpc=%q", req.Version)
		}
		status, body := reply(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func result(v string) string { return `{"jsonrpc":"2.0","id":1,"result":` + v + `}` }

func rpcErr(code int, msg string) string {
	b, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "error": map[string]any{"code": code, "message": msg}})
	return string(b)
}

func fastClient() *Client {
	return New(Options{HTTPClient: &http.Client{Timeout: 2 * time.Second}})
}

func TestBlock(t *testing.T) {
	srv := node(t, func(req rpcRequest) (int, string) {
		if req.Method != "getBlock" || string(req.Params[0]) != "42" {
			t.Errorf("method=%s params=%s", req.Method, req.Params)
		}
		var cfg config
		_ = json.Unmarshal(req.Params[1], &cfg)
		if cfg.TransactionDetails != "signatures" || cfg.Commitment != "finalized" {
			t.Errorf("config=%+v", cfg)
		}
		return 200, result(`{"blockhash":"abc","previousBlockhash":"xyz","parentSlot":41,"blockTime":1700000000,"signatures":["s1","s2"],"rewards":[]}`)
	})
	b, err := fastClient().Block(context.Background(), srv.URL, 42)
	if err != nil {
		t.Fatal(err)
	}
	if b.Blockhash != "abc" || b.ParentSlot != 41 || len(b.Signatures) != 2 || b.BlockTime == nil || *b.BlockTime != 1700000000 {
		t.Fatalf("block=%+v", b)
	}
}

func TestNotFoundMappings(t *testing.T) {
	cases := map[string]string{
		"null result":  result(`null`),
		"slot skipped": rpcErr(codeSlotSkipped, "Slot 42 was skipped, or missing due to ledger jump to recent snapshot"),
		"long term":    rpcErr(codeLongTermStorageSlot, "Slot 42 was skipped, or missing in long-term storage"),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := node(t, func(rpcRequest) (int, string) { return 200, body })
			_, err := fastClient().Block(context.Background(), srv.URL, 42)
			if !errors.Is(err, fetchcache.ErrNotFound) {
				t.Fatalf("err=%v", err)
			}
		})
	}
}

func TestRPCErrorIsPermanent(t *testing.T) {
	var hits atomic.Int64
	srv := node(t, func(rpcRequest) (int, string) {
		hits.Add(1)
		return 200, rpcErr(-32602, "Invalid param: WrongSize")
	})
	_, err := fastClient().Transaction(context.Background(), srv.URL, "bad")
	if err == nil || errors.Is(err, fetchcache.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("rpc error retried: hits=%d", hits.Load())
	}
}

func TestRetriesTransientStatus(t *testing.T) {
	var hits atomic.Int64
	srv := node(t, func(rpcRequest) (int, string) {
		if hits.Add(1) < 3 {
			return http.StatusTooManyRequests, "slow down"
		}
		return 200, result(`{"context":{"slot":1},"value":{"total":500,"circulating":300,"nonCirculating":200,"nonCirculatingAccounts":["a"]}}`)
	})
	s, err := fastClient().Supply(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if s.Total != 500 || s.NonCirculating != 200 || hits.Load() != 3 {
		t.Fatalf("supply=%+v hits=%d", s, hits.Load())
	}
}

func TestRetriesExhausted(t *testing.T) {
	var hits atomic.Int64
	srv := node(t, func(rpcRequest) (int, string) {
		hits.Add(1)
		return http.StatusBadGateway, "bad gateway"
	})
	_, err := New(Options{MaxRetries: 1}).Supply(context.Background(), srv.URL)
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusBadGateway {
		t.Fatalf("err=%v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("hits=%d, want 2", hits.Load())
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int64
	srv := node(t, func(rpcRequest) (int, string) {
		hits.Add(1)
		return http.StatusForbidden, "forbidden"
	})
	if _, err := fastClient().Supply(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error")
	}
	if hits.Load() != 1 {
		t.Fatalf("hits=%d", hits.Load())
	}
}

func TestAccount(t *testing.T) {
	srv := node(t, func(req rpcRequest) (int, string) {
		if string(req.Params[0]) == `"missing"` {
			return 200, result(`{"context":{"slot":1},"value":null}`)
		}
		return 200, result(`{"context":{"slot":1},"value":{"lamports":5,"owner":"11111111111111111111111111111111","data":["AQID","base64"],"executable":false,"rentEpoch":18446744073709551615,"space":3}}`)
	})
	c := fastClient()
	a, err := c.Account(context.Background(), srv.URL, "present")
	if err != nil {
		t.Fatal(err)
	}
	if a.Lamports != 5 || string(a.Data) != "\x01\x02\x03" || a.Space != 3 {
		t.Fatalf("account=%+v", a)
	}
	if _, err := c.Account(context.Background(), srv.URL, "missing"); !errors.Is(err, fetchcache.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestRichListFilter(t *testing.T) {
	srv := node(t, func(req rpcRequest) (int, string) {
		var cfg config
		_ = json.Unmarshal(req.Params[0], &cfg)
		return 200, result(`{"context":{"slot":1},"value":[{"address":"` + cfg.Filter + `","lamports":9}]}`)
	})
	c := fastClient()
	r, err := c.RichList(context.Background(), srv.URL, explorer.RichListCirculating)
	if err != nil || len(r.Accounts) != 1 || r.Accounts[0].Address != "circulating" {
		t.Fatalf("richlist=%+v err=%v", r, err)
	}
	r, _ = c.RichList(context.Background(), srv.URL, explorer.RichListAll)
	if r.Accounts[0].Address != "" {
		t.Fatal("all should send no filter")
	}
}

func TestCanceledContext(t *testing.T) {
	srv := node(t, func(rpcRequest) (int, string) { return http.StatusServiceUnavailable, "" })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fastClient().Supply(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
}

func TestWithExplorer(t *testing.T) {
	srv := node(t, func(req rpcRequest) (int, string) {
		if req.Method == "getBlock" && string(req.Params[0]) == "98" {
			return 200, rpcErr(codeSlotSkipped, "skipped")
		}
		return 200, result(`{"blockhash":"h","previousBlockhash":"p","parentSlot":1}`)
	})
	e, err := explorer.New(explorer.Options{
		Source:  fastClient(),
		Cluster: fetchcache.Cluster{Kind: fetchcache.Custom, URL: srv.URL},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close(context.Background())

	page := e.LoadBlockPage(context.Background(), 100, 3)
	if page.Entries[0].Status != fetchcache.Fetched || !page.Entries[2].NotFound() {
		t.Fatalf("page=%+v", page.Entries)
	}
}
