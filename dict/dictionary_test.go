package dict

import (
	"errors"
	"sync"
	"testing"

	"github.com/dictcol/dictcol/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	assert.Equal(t, 0, d.Size())
	assert.Equal(t, DefaultCapacity, d.capacity)
}

func TestWithCapacity(t *testing.T) {
	d, err := New(WithCapacity(3))
	require.NoError(t, err)

	_, err = d.InsertOrGet("a")
	require.NoError(t, err)
	_, err = d.InsertOrGet("b")
	require.NoError(t, err)
	_, err = d.InsertOrGet("c")
	require.NoError(t, err)

	_, err = d.InsertOrGet("d")
	require.ErrorIs(t, err, errs.ErrDictionaryFull)
}

func TestWithCapacity_Invalid(t *testing.T) {
	_, err := New(WithCapacity(0))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)

	_, err = New(WithCapacity(-1))
	require.ErrorIs(t, err, errs.ErrInvalidConfig)
}

func TestWithReserve(t *testing.T) {
	d, err := New(WithReserve(100))
	require.NoError(t, err)
	assert.Equal(t, 0, d.Size())

	id, err := d.InsertOrGet("x")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)
}

func TestInsertOrGet_DenseAssignment(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	ids := make(map[string]uint32)
	for _, v := range []string{"a", "b", "a", "c", "b"} {
		id, err := d.InsertOrGet(v)
		require.NoError(t, err)
		if existing, ok := ids[v]; ok {
			assert.Equal(t, existing, id, "repeat insert must return the same identifier")
		}
		ids[v] = id
	}

	assert.Equal(t, 3, d.Size())
	assert.ElementsMatch(t, []uint32{0, 1, 2}, []uint32{ids["a"], ids["b"], ids["c"]})
}

func TestLookup(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	_, ok := d.Lookup("missing")
	assert.False(t, ok)

	id, err := d.InsertOrGet("present")
	require.NoError(t, err)

	got, ok := d.Lookup("present")
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestValueOf(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	id, err := d.InsertOrGet("hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", d.ValueOf(id))
}

func TestValueOf_OutOfRange_Panics(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	assert.Panics(t, func() {
		d.ValueOf(0)
	})
}

func TestReverseDictionary_IsDefensiveCopy(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	_, err = d.InsertOrGet("a")
	require.NoError(t, err)

	rev := d.ReverseDictionary()
	rev[0] = "mutated"

	assert.Equal(t, "a", d.ValueOf(0), "mutating the returned copy must not affect the Dictionary")
}

func TestEachPrefix_OrderedByIdentifier(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	for _, v := range []string{"apple", "apex", "ant", "banana", "apple"} {
		_, err := d.InsertOrGet(v)
		require.NoError(t, err)
	}

	var matched []string
	d.RLock()
	d.EachPrefix("ap", func(value string, id uint32) {
		matched = append(matched, value)
	})
	d.RUnlock()

	assert.Equal(t, []string{"apple", "apex"}, matched)
}

func TestEachPrefix_EmptyPrefix(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	_, err = d.InsertOrGet("a")
	require.NoError(t, err)

	var called bool
	d.RLock()
	d.EachPrefix("", func(value string, id uint32) { called = true })
	d.RUnlock()

	assert.False(t, called)
}

func TestWithWriteLock_BatchedInsert(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	var ids []uint32
	d.WithWriteLock(func(insertOrGet func(string) (uint32, error)) {
		for _, v := range []string{"x", "y", "x"} {
			id, err := insertOrGet(v)
			require.NoError(t, err)
			ids = append(ids, id)
		}
	})

	assert.Equal(t, []uint32{0, 1, 0}, ids)
}

func TestMemoryUsage_GrowsWithEntries(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	before := d.MemoryUsage()

	_, err = d.InsertOrGet("some value")
	require.NoError(t, err)

	assert.Greater(t, d.MemoryUsage(), before)
}

func TestDictionary_ConcurrentReadersAndWriters(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				value := string(rune('a' + (i % 5)))
				_, err := d.InsertOrGet(value)
				assert.NoError(t, err)

				_, _ = d.Lookup(value)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, 5, d.Size())
}

func TestLookupLocked(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	id, err := d.InsertOrGet("present")
	require.NoError(t, err)

	d.RLock()
	got, ok := d.LookupLocked("present")
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = d.LookupLocked("missing")
	assert.False(t, ok)
	d.RUnlock()
}

func TestInsertOrGet_ErrorIsDictionaryFull(t *testing.T) {
	d, err := New(WithCapacity(1))
	require.NoError(t, err)

	_, err = d.InsertOrGet("only")
	require.NoError(t, err)

	_, err = d.InsertOrGet("overflow")
	require.True(t, errors.Is(err, errs.ErrDictionaryFull))
}
