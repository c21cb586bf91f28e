// Package explorer wires one fetch cache per explorer entity (blocks, accounts,
// transactions, supply, rich list) to a shared Source and cluster binding.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unkn0wn-root/fetchcache"
	c "github.com/unkn0wn-root/fetchcache/codec"
	gen "github.com/unkn0wn-root/fetchcache/genstore"
	pr "github.com/unkn0wn-root/fetchcache/provider"
)

// Encoding selects the tier codec for every entity cache.
type Encoding string

const (
	EncodingJSON    Encoding = "json"
	EncodingMsgpack Encoding = "msgpack"
	EncodingCBOR    Encoding = "cbor"
)

type Options struct {
	Source  Source             // required
	Cluster fetchcache.Cluster // initial binding; URL required

	Logger      fetchcache.Logger
	Hooks       fetchcache.Hooks
	Reporter    fetchcache.Reporter
	MaxInFlight int64 // per entity cache
	BatchLimit  int

	// Shared second tier; entity caches use distinct namespaces in it.
	Provider   pr.Provider
	GenStore   gen.GenStore
	Encoding   Encoding // "" => json
	MaxPayload int      // tier decode limit in bytes; 0 => unlimited
	TTL        time.Duration
}

// Explorer owns the entity caches. All of them follow one cluster binding.
type Explorer struct {
	Blocks       fetchcache.Cache[Slot, Block]
	Accounts     fetchcache.Cache[Address, Account]
	Transactions fetchcache.Cache[Signature, Transaction]
	Supply       fetchcache.Cache[SupplyKey, Supply]
	RichList     fetchcache.Cache[RichListFilter, RichList]

	provider pr.Provider
	gen      gen.GenStore
}

func New(opts Options) (*Explorer, error) {
	if opts.Source == nil {
		return nil, errors.New("explorer: source is required")
	}
	switch opts.Encoding {
	case "", EncodingJSON, EncodingMsgpack, EncodingCBOR:
	default:
		return nil, fmt.Errorf("explorer: unknown encoding %q", opts.Encoding)
	}
	src := opts.Source
	e := &Explorer{provider: opts.Provider, gen: opts.GenStore}
	if e.provider != nil && e.gen == nil {
		// one gen store for all namespaces so Close releases it once
		e.gen = gen.NewLocalGenStore(time.Hour, 30*24*time.Hour)
	}

	var err error
	if e.Blocks, err = newCache(e, opts, "block", src.Block); err != nil {
		return nil, err
	}
	if e.Accounts, err = newCache(e, opts, "account", src.Account); err != nil {
		return nil, err
	}
	if e.Transactions, err = newCache(e, opts, "tx", src.Transaction); err != nil {
		return nil, err
	}
	supply := func(ctx context.Context, endpoint string, _ SupplyKey) (Supply, error) {
		return src.Supply(ctx, endpoint)
	}
	if e.Supply, err = newCache(e, opts, "supply", supply); err != nil {
		return nil, err
	}
	if e.RichList, err = newCache(e, opts, "richlist", src.RichList); err != nil {
		return nil, err
	}
	return e, nil
}

func newCache[K comparable, V any](e *Explorer, opts Options, ns string, fetch func(context.Context, string, K) (V, error)) (fetchcache.Cache[K, V], error) {
	o := fetchcache.Options[K, V]{
		Namespace:   ns,
		Fetcher:     fetchcache.FetcherFunc[K, V](fetch),
		Cluster:     opts.Cluster,
		Logger:      opts.Logger,
		Hooks:       opts.Hooks,
		Reporter:    opts.Reporter,
		MaxInFlight: opts.MaxInFlight,
		BatchLimit:  opts.BatchLimit,
	}
	if e.provider != nil {
		cd, err := codecFor[V](opts.Encoding)
		if err != nil {
			return nil, err
		}
		if opts.MaxPayload > 0 {
			cd = c.Limit[V]{Inner: cd, MaxDecode: opts.MaxPayload}
		}
		o.Provider = sharedProvider{e.provider}
		o.GenStore = sharedGen{e.gen}
		o.Codec = cd
		o.TTL = opts.TTL
		o.ComputeSetCost = func(_ string, raw []byte, _ bool) int64 { return int64(len(raw)) }
	}
	cache, err := fetchcache.New(o)
	if err != nil {
		return nil, fmt.Errorf("explorer: %s cache: %w", ns, err)
	}
	return cache, nil
}

func codecFor[V any](enc Encoding) (c.Codec[V], error) {
	switch enc {
	case EncodingMsgpack:
		return c.Msgpack[V]{}, nil
	case EncodingCBOR:
		return c.NewCBOR[V](true)
	}
	return c.JSON[V]{}, nil
}

// sharedProvider and sharedGen keep entity caches from closing the tier they share.
type sharedProvider struct{ pr.Provider }

func (sharedProvider) Close(context.Context) error { return nil }

type sharedGen struct{ gen.GenStore }

func (sharedGen) Close(context.Context) error { return nil }

// Cluster returns the binding shared by every entity cache.
func (e *Explorer) Cluster() fetchcache.Cluster { return e.Blocks.Cluster() }

// SetCluster rebinds every entity cache, clearing each of them.
func (e *Explorer) SetCluster(cl fetchcache.Cluster) {
	e.Blocks.SetCluster(cl)
	e.Accounts.SetCluster(cl)
	e.Transactions.SetCluster(cl)
	e.Supply.SetCluster(cl)
	e.RichList.SetCluster(cl)
}

// Close closes the entity caches, then the shared tier.
func (e *Explorer) Close(ctx context.Context) error {
	errs := []error{
		e.Blocks.Close(ctx),
		e.Accounts.Close(ctx),
		e.Transactions.Close(ctx),
		e.Supply.Close(ctx),
		e.RichList.Close(ctx),
	}
	if e.gen != nil {
		errs = append(errs, e.gen.Close(ctx))
	}
	if e.provider != nil {
		errs = append(errs, e.provider.Close(ctx))
	}
	return errors.Join(errs...)
}
