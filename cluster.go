package fetchcache

import (
	"fmt"
	"strings"
)

// Kind identifies which network a cluster endpoint belongs to.
type Kind uint8

const (
	MainnetBeta Kind = iota
	Testnet
	Devnet
	Custom
	Localnet
)

var kindNames = [...]string{
	MainnetBeta: "mainnet-beta",
	Testnet:     "testnet",
	Devnet:      "devnet",
	Custom:      "custom",
	Localnet:    "localnet",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// SuppressesReports is true for self-hosted endpoints; their failures are not sent to the Reporter.
func (k Kind) SuppressesReports() bool { return k == Custom || k == Localnet }

// ParseKind accepts the names printed by Kind.String (case-insensitive) plus "mainnet".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mainnet-beta", "mainnet":
		return MainnetBeta, nil
	case "testnet":
		return Testnet, nil
	case "devnet":
		return Devnet, nil
	case "custom":
		return Custom, nil
	case "localnet", "local":
		return Localnet, nil
	}
	return 0, fmt.Errorf("fetchcache: unknown cluster %q", s)
}

// DefaultURL returns the public RPC endpoint for a well-known cluster, "" for Custom.
func DefaultURL(k Kind) string {
	switch k {
	case MainnetBeta:
		return "https://api.mainnet-beta.solana.com"
	case Testnet:
		return "https://api.testnet.solana.com"
	case Devnet:
		return "https://api.devnet.solana.com"
	case Localnet:
		return "http://127.0.0.1:8899"
	}
	return ""
}

// Cluster is the active endpoint binding. The URL is the endpoint key all entries are stamped with.
type Cluster struct {
	Kind Kind
	URL  string
}

// NewCluster binds kind to its default URL.
func NewCluster(k Kind) Cluster { return Cluster{Kind: k, URL: DefaultURL(k)} }

func (c Cluster) EndpointKey() string { return c.URL }

func (c Cluster) String() string { return c.Kind.String() + "(" + c.URL + ")" }
