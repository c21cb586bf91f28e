package explorer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
)

// MaxSlot bounds slots accepted from user input; larger values do not survive a
// round-trip through JSON numbers in browsers.
const MaxSlot = 1<<53 - 1

// Slot keys the block cache.
type Slot uint64

func ParseSlot(s string) (Slot, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("explorer: invalid slot %q: %w", s, err)
	}
	if n > MaxSlot {
		return 0, fmt.Errorf("explorer: slot %d out of range", n)
	}
	return Slot(n), nil
}

func (s Slot) String() string { return strconv.FormatUint(uint64(s), 10) }

// Address is a base58-encoded 32-byte public key.
type Address string

// Signature is a base58-encoded 64-byte transaction signature.
type Signature string

func ParseAddress(s string) (Address, error) {
	if err := checkBase58(s, 32); err != nil {
		return "", fmt.Errorf("explorer: invalid address %q: %w", s, err)
	}
	return Address(s), nil
}

func ParseSignature(s string) (Signature, error) {
	if err := checkBase58(s, 64); err != nil {
		return "", fmt.Errorf("explorer: invalid signature %q: %w", s, err)
	}
	return Signature(s), nil
}

func checkBase58(s string, size int) error {
	b, err := base58.Decode(s)
	if err != nil {
		return err
	}
	if len(b) != size {
		return fmt.Errorf("decoded to %d bytes, want %d", len(b), size)
	}
	return nil
}

// RichListFilter selects which largest accounts the node returns.
type RichListFilter string

const (
	RichListAll            RichListFilter = "all"
	RichListCirculating    RichListFilter = "circulating"
	RichListNonCirculating RichListFilter = "nonCirculating"
)

// ParseRichListFilter maps a query value to a filter; "" means all.
func ParseRichListFilter(s string) (RichListFilter, error) {
	switch f := RichListFilter(s); f {
	case "", RichListAll:
		return RichListAll, nil
	case RichListCirculating, RichListNonCirculating:
		return f, nil
	}
	return "", fmt.Errorf("explorer: unknown rich list filter %q", s)
}

// SupplyKey is the only key of the supply cache: there is one supply per cluster.
type SupplyKey struct{}

func (SupplyKey) String() string { return "supply" }
