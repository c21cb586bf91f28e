package explorer

import (
	"context"

	"github.com/unkn0wn-root/fetchcache"
)

// PageSize is how many slots the block list shows per page.
const PageSize = 10

// RecentSlots returns up to n consecutive slots counting down from latest.
// The list stops at slot 0.
func RecentSlots(latest Slot, n int) []Slot {
	if n <= 0 {
		return nil
	}
	if uint64(n) > uint64(latest)+1 {
		n = int(latest) + 1
	}
	out := make([]Slot, n)
	for i := range out {
		out[i] = latest - Slot(i)
	}
	return out
}

// NextPageStart is the first slot of the page following slots; ok=false once slot 0 is listed.
func NextPageStart(slots []Slot) (Slot, bool) {
	if len(slots) == 0 {
		return 0, false
	}
	last := slots[len(slots)-1]
	if last == 0 {
		return 0, false
	}
	return last - 1, true
}

// BlockPage is one page of the block list: the slots shown and their cache entries, positionally.
type BlockPage struct {
	Slots   []Slot
	Entries []fetchcache.Entry[Slot, Block]
}

// LoadBlockPage fetches n slots down from start together and returns their entries.
// Slots already fetched are fetched again; in-flight ones are not duplicated.
func (e *Explorer) LoadBlockPage(ctx context.Context, start Slot, n int) BlockPage {
	slots := RecentSlots(start, n)
	e.Blocks.FetchMany(ctx, slots, false)
	return BlockPage{Slots: slots, Entries: e.Blocks.GetMany(slots)}
}
