package ledger

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aether/internal/models"
)

func TestLedger_BranchScenario(t *testing.T) {
	l := New()
	l.Seed("t1", "example.com")

	snap, ok := l.Snapshot("t1")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Entries: []string{"example.com"}, Cursor: 0}, snap)

	l.Record("t1", "foo.com")
	snap, _ = l.Snapshot("t1")
	assert.Equal(t, Snapshot{Entries: []string{"example.com", "foo.com"}, Cursor: 1}, snap)

	url, ok := l.Back("t1")
	require.True(t, ok)
	assert.Equal(t, "example.com", url)
	snap, _ = l.Snapshot("t1")
	assert.Equal(t, 0, snap.Cursor)

	l.Record("t1", "bar.com")
	snap, _ = l.Snapshot("t1")
	assert.Equal(t, Snapshot{Entries: []string{"example.com", "bar.com"}, Cursor: 1}, snap)
	assert.False(t, l.CanGoForward("t1"))
}

func TestLedger_SeedBlank(t *testing.T) {
	l := New()
	l.Seed("t1", "")

	snap, ok := l.Snapshot("t1")
	require.True(t, ok)
	assert.Equal(t, []string{models.BlankURL}, snap.Entries)
	assert.True(t, IsBlank(snap.Entries[0]))
	assert.False(t, l.CanGoBack("t1"))
	assert.False(t, l.CanGoForward("t1"))
}

func TestLedger_OutOfBoundsIsNoop(t *testing.T) {
	l := New()
	l.Seed("t1", "a")

	url, ok := l.Back("t1")
	assert.False(t, ok)
	assert.Empty(t, url)

	url, ok = l.Forward("t1")
	assert.False(t, ok)
	assert.Empty(t, url)

	snap, _ := l.Snapshot("t1")
	assert.Equal(t, 0, snap.Cursor)
}

func TestLedger_UnknownTab(t *testing.T) {
	l := New()

	assert.False(t, l.CanGoBack("missing"))
	assert.False(t, l.CanGoForward("missing"))
	_, ok := l.Back("missing")
	assert.False(t, ok)
	_, ok = l.Forward("missing")
	assert.False(t, ok)
	_, ok = l.Current("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, l.Len())
}

func TestLedger_RecordCreatesRow(t *testing.T) {
	l := New()
	l.Record("t1", "a")

	snap, ok := l.Snapshot("t1")
	require.True(t, ok)
	assert.Equal(t, Snapshot{Entries: []string{"a"}, Cursor: 0}, snap)
}

func TestLedger_BackForwardRoundTrip(t *testing.T) {
	l := New()
	l.Seed("t1", "a")
	l.Record("t1", "b")
	l.Record("t1", "c")
	_, _ = l.Back("t1")

	before, _ := l.Snapshot("t1")
	beforeURL, _ := l.Current("t1")

	_, ok := l.Back("t1")
	require.True(t, ok)
	_, ok = l.Forward("t1")
	require.True(t, ok)

	after, _ := l.Snapshot("t1")
	afterURL, _ := l.Current("t1")
	assert.Equal(t, before, after)
	assert.Equal(t, beforeURL, afterURL)
}

func TestLedger_UndoRestoresStep(t *testing.T) {
	l := New()
	l.Seed("t1", "a.com")
	l.Record("t1", "b.com")

	url, mark, ok := l.Step("t1", -1)
	require.True(t, ok)
	assert.Equal(t, "a.com", url)

	assert.True(t, l.Undo("t1", mark))
	cur, _ := l.Current("t1")
	assert.Equal(t, "b.com", cur)

	assert.False(t, l.Undo("t1", mark), "a mark is only good once")
}

func TestLedger_UndoAfterRecordIsSkipped(t *testing.T) {
	l := New()
	l.Seed("t1", "a.com")
	l.Record("t1", "b.com")

	_, mark, ok := l.Step("t1", -1)
	require.True(t, ok)
	l.Record("t1", "c.com")

	assert.False(t, l.Undo("t1", mark))
	snap, _ := l.Snapshot("t1")
	assert.Equal(t, Snapshot{Entries: []string{"a.com", "c.com"}, Cursor: 1}, snap)
}

func TestLedger_StepOutOfBounds(t *testing.T) {
	l := New()
	l.Seed("t1", "a.com")

	_, _, ok := l.Step("t1", -1)
	assert.False(t, ok)
	_, _, ok = l.Step("t1", 1)
	assert.False(t, ok)
	_, _, ok = l.Step("missing", -1)
	assert.False(t, ok)
	assert.False(t, l.Undo("missing", Mark{}))
}

func TestLedger_DropDiscardsRow(t *testing.T) {
	l := New()
	l.Seed("t1", "a")
	l.Seed("t2", "b")
	l.Drop("t1")

	_, ok := l.Snapshot("t1")
	assert.False(t, ok)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_CursorPredicatesHoldUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	l := New()
	l.Seed("t", "start")

	for i := 0; i < 2000; i++ {
		switch rng.Intn(3) {
		case 0:
			before, _ := l.Snapshot("t")
			l.Record("t", fmt.Sprintf("u%d", i))
			after, _ := l.Snapshot("t")
			assert.Equal(t, before.Entries[:before.Cursor+1], after.Entries[:len(after.Entries)-1])
		case 1:
			l.Back("t")
		case 2:
			l.Forward("t")
		}

		snap, _ := l.Snapshot("t")
		require.GreaterOrEqual(t, snap.Cursor, 0)
		require.Less(t, snap.Cursor, len(snap.Entries))
		assert.Equal(t, snap.Cursor > 0, l.CanGoBack("t"))
		assert.Equal(t, snap.Cursor < len(snap.Entries)-1, l.CanGoForward("t"))
	}
}

func TestLedger_ConcurrentTabsAreIndependent(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		tabID := fmt.Sprintf("tab-%d", i)
		l.Seed(tabID, "home")
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Record(tabID, fmt.Sprintf("%s/%d", tabID, j))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		snap, ok := l.Snapshot(fmt.Sprintf("tab-%d", i))
		require.True(t, ok)
		assert.Len(t, snap.Entries, 101)
		assert.Equal(t, 100, snap.Cursor)
	}
}
