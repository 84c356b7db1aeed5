package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestMemory() (*Memory, *clock) {
	c := &clock{time.Unix(1700000000, 0)}
	m := NewMemory()
	m.Now = c.now
	return m, c
}

func TestMemoryReadUnknown(t *testing.T) {
	m, _ := newTestMemory()

	for i := 0; i < 5; i++ {
		p, err := m.Read(fmt.Sprint("never-written-", i))
		require.NoError(t, err)
		assert.Empty(t, p)
	}
}

func TestMemoryWriteReplace(t *testing.T) {
	m, _ := newTestMemory()

	require.NoError(t, m.Write("abc", []byte{0x00, 0xFF, 0x41}))
	p, err := m.Read("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0xFF, 0x41}, p)

	require.NoError(t, m.Write("abc", []byte("second")))
	p, err = m.Read("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), p)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryDestroy(t *testing.T) {
	m, _ := newTestMemory()

	require.NoError(t, m.Write("abc", []byte("x")))
	require.NoError(t, m.Destroy("abc"))
	require.NoError(t, m.Destroy("never-written"))

	p, err := m.Read("abc")
	require.NoError(t, err)
	assert.Empty(t, p)
}

func TestMemoryGC(t *testing.T) {
	m, c := newTestMemory()

	require.NoError(t, m.Write("old", []byte("1")))
	c.advance(time.Second * 15)
	require.NoError(t, m.Write("boundary", []byte("2")))
	c.advance(time.Second * 45)
	require.NoError(t, m.Write("recent", []byte("3")))
	c.advance(time.Second * 30)

	// boundary is exactly 75 seconds old
	require.NoError(t, m.GC(75))

	p, _ := m.Read("old")
	assert.Empty(t, p)
	p, _ = m.Read("boundary")
	assert.Empty(t, p)
	p, _ = m.Read("recent")
	assert.Equal(t, []byte("3"), p)

	// Written in the current second counts as zero seconds old
	require.NoError(t, m.Write("now", []byte("3")))
	require.NoError(t, m.GC(0))
	assert.Equal(t, 0, m.Len())
}
