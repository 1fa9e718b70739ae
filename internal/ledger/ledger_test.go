package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnOrderFilledTracksPerBookInstrumentRows(t *testing.T) {
	l := New(identityUSDT, nil)
	inst := linearInstrument()

	el, err := l.OnOrderFilled("mm-btc", inst, Fill{Side: SideBuy, Price: pr("100"), Quantity: qt("1")})
	require.NoError(t, err)
	assert.Equal(t, qt("1"), el.Size)

	el2, err := l.OnOrderFilled("mm-btc", inst, Fill{Side: SideBuy, Price: pr("110"), Quantity: qt("1")})
	require.NoError(t, err)
	assert.Equal(t, qt("2"), el2.Size)
	assert.Equal(t, pr("105"), el2.AvgPrice)

	assert.Equal(t, el2, l.Get("mm-btc", inst.ID))
}

func TestOnOrderFilledKeepsBooksIndependent(t *testing.T) {
	l := New(identityUSDT, nil)
	inst := linearInstrument()

	_, err := l.OnOrderFilled("book-a", inst, Fill{Side: SideBuy, Price: pr("100"), Quantity: qt("1")})
	require.NoError(t, err)
	_, err = l.OnOrderFilled("book-b", inst, Fill{Side: SideSell, Price: pr("100"), Quantity: qt("1")})
	require.NoError(t, err)

	assert.Equal(t, qt("1"), l.Get("book-a", inst.ID).Size)
	assert.Equal(t, qt("-1"), l.Get("book-b", inst.ID).Size)
}

func TestResetSessionClearsOnlySessionFields(t *testing.T) {
	l := New(identityUSDT, nil)
	inst := linearInstrument()
	_, err := l.OnOrderFilled("mm-btc", inst, Fill{Side: SideBuy, Price: pr("100"), Quantity: qt("1")})
	require.NoError(t, err)

	l.ResetSession("mm-btc", inst.ID)
	el := l.Get("mm-btc", inst.ID)
	assert.True(t, el.SessionVolumeUSDT.IsZero())
	assert.Equal(t, qt("1"), el.Size, "position state survives a session reset")
	assert.Equal(t, am("100"), el.CumulativeVolumeUSDT, "cumulative counters survive a session reset")
}

func TestSnapshotRestoreRoundTripsCumulativeState(t *testing.T) {
	l := New(identityUSDT, nil)
	inst := linearInstrument()
	_, err := l.OnOrderFilled("mm-btc", inst, Fill{Side: SideBuy, Price: pr("100"), Quantity: qt("1")})
	require.NoError(t, err)

	snap := l.Snapshot()
	require.Len(t, snap, 1)

	fresh := New(identityUSDT, nil)
	fresh.Restore(snap)

	restored := fresh.Get("mm-btc", inst.ID)
	assert.Equal(t, qt("1"), restored.Size)
	assert.Equal(t, am("100"), restored.CumulativeVolumeUSDT)
	assert.True(t, restored.SessionVolumeUSDT.IsZero(), "restore starts a fresh session")
}

func TestOnOrderFilledPropagatesApplyFillError(t *testing.T) {
	l := New(identityUSDT, nil)
	// An inverse position with a zero average price and a closing fill
	// makes applyFill value the old position at price 0, which
	// ValueInDenomination rejects for inverse contracts; OnOrderFilled must
	// surface that error.
	inst := inverseInstrument()
	current := BookElement{InstrumentID: inst.ID, Size: qt("1"), AvgPrice: 0}
	l.elements[elementKey{"mm-inv", inst.ID}] = current

	_, err := l.OnOrderFilled("mm-inv", inst, Fill{Side: SideSell, Price: pr("25000"), Quantity: qt("1")})
	assert.Error(t, err)
}
