// Package chunk bridges lazy, resumable item sequences to the response
// byte budget.
//
// A chunk is one bounded slice of a logically larger result. The assembler
// pulls items from a sequence until the budget or the sequence is exhausted;
// the envelope helpers wrap the emitted slice with uniform resumability
// metadata (has_more + continuation_token). Sequences are recomputed from a
// cursor on every call; nothing is held open between requests.
package chunk

import (
	"github.com/fsgate/fsgate/internal/budget"
	"github.com/fsgate/fsgate/internal/continuation"
)

// Sequence is a lazy item source positioned by an operation-specific cursor.
// Next returns the next item, or ok=false once the sequence is exhausted.
type Sequence interface {
	Next() (item interface{}, ok bool, err error)
}

// SequenceFunc adapts a function to the Sequence interface.
type SequenceFunc func() (interface{}, bool, error)

// Next implements Sequence.
func (f SequenceFunc) Next() (interface{}, bool, error) {
	return f()
}

// Assemble pulls items from seq until the monitor rejects one or the
// sequence ends. hasMore=true means at least one item was consumed but not
// emitted; it is re-derived from the cursor on the next call.
//
// Forward progress: the first item is admitted even when it alone exceeds
// the budget, so a chunk is never empty while items remain.
func Assemble(seq Sequence, mon *budget.Monitor) (items []interface{}, hasMore bool, err error) {
	items = []interface{}{}
	for {
		item, ok, err := seq.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return items, false, nil
		}
		if mon.CanAdmit(item) || len(items) == 0 {
			mon.Commit(item)
			items = append(items, item)
			continue
		}
		return items, true, nil
	}
}

// Page is one assembled chunk plus its resumability state.
type Page struct {
	Items   []interface{}
	HasMore bool
	TokenID string // empty when the result is complete
}

// Paginate is the combined assemble-and-bookmark entry point used by the
// read/list/search handlers.
//
// resumeTokenID is the token the caller presented, or empty for a fresh
// call. When the chunk is truncated, the existing token is updated (or a new
// one generated) with cursorFor(len(items)); when the sequence completes,
// any presented token is deleted.
func Paginate(
	store *continuation.Store,
	mon *budget.Monitor,
	kind continuation.OperationKind,
	targetKey string,
	params map[string]interface{},
	resumeTokenID string,
	seq Sequence,
	cursorFor func(emitted int) map[string]interface{},
) (*Page, error) {
	items, hasMore, err := Assemble(seq, mon)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: items, HasMore: hasMore}

	if !hasMore {
		if resumeTokenID != "" {
			store.Delete(resumeTokenID)
		}
		return page, nil
	}

	tokenID := resumeTokenID
	if tokenID == "" {
		tokenID = store.Generate(kind, targetKey, params)
	}
	if err := store.Update(tokenID, cursorFor(len(items))); err != nil {
		// The token vanished between Resume and Update (eviction race).
		// Return the partial chunk anyway; resumability degrades, the
		// data is still usable.
		return page, nil
	}
	page.TokenID = tokenID
	return page, nil
}
