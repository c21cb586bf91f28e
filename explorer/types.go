package explorer

import "encoding/json"

type Reward struct {
	Pubkey      string `json:"pubkey"`
	Lamports    int64  `json:"lamports"`
	PostBalance uint64 `json:"postBalance"`
	RewardType  string `json:"rewardType,omitempty"`
	Commission  *uint8 `json:"commission,omitempty"`
}

// Block is a confirmed block with signatures only; full transactions go
// through the transaction cache.
type Block struct {
	Blockhash         string   `json:"blockhash"`
	PreviousBlockhash string   `json:"previousBlockhash"`
	ParentSlot        uint64   `json:"parentSlot"`
	BlockTime         *int64   `json:"blockTime,omitempty"`
	BlockHeight       *uint64  `json:"blockHeight,omitempty"`
	Signatures        []string `json:"signatures,omitempty"`
	Rewards           []Reward `json:"rewards,omitempty"`
}

type Account struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       []byte `json:"data,omitempty"`
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rentEpoch"`
	Space      uint64 `json:"space"`
}

type TxMeta struct {
	Err          json.RawMessage `json:"err,omitempty"`
	Fee          uint64          `json:"fee"`
	PreBalances  []uint64        `json:"preBalances,omitempty"`
	PostBalances []uint64        `json:"postBalances,omitempty"`
	LogMessages  []string        `json:"logMessages,omitempty"`
}

// Transaction keeps the message undecoded; instruction parsing happens in the views.
type Transaction struct {
	Slot        uint64          `json:"slot"`
	BlockTime   *int64          `json:"blockTime,omitempty"`
	Meta        *TxMeta         `json:"meta,omitempty"`
	Transaction json.RawMessage `json:"transaction,omitempty"`
}

// Failed reports whether the transaction executed with an error.
func (t Transaction) Failed() bool {
	if t.Meta == nil || len(t.Meta.Err) == 0 {
		return false
	}
	return string(t.Meta.Err) != "null"
}

type Supply struct {
	Total                  uint64   `json:"total"`
	Circulating            uint64   `json:"circulating"`
	NonCirculating         uint64   `json:"nonCirculating"`
	NonCirculatingAccounts []string `json:"nonCirculatingAccounts,omitempty"`
}

type LargeAccount struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

type RichList struct {
	Accounts []LargeAccount `json:"accounts"`
}
