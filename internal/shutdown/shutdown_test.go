package shutdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestShutdownCancelsContext(t *testing.T) {
	c := New()

	select {
	case <-c.Context().Done():
		t.Fatal("context cancelled before shutdown was requested")
	default:
	}

	c.RequestShutdown("test")

	select {
	case <-c.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled after RequestShutdown")
	}
}

func TestCleanupsRunInReverseOrder(t *testing.T) {
	c := New()

	var order []string
	c.OnShutdown(func() { order = append(order, "first") })
	c.OnShutdown(func() { order = append(order, "second") })

	c.RequestShutdown("test")
	c.Wait()

	require.Equal(t, []string{"second", "first"}, order)
}

func TestCleanupsRunOnce(t *testing.T) {
	c := New()

	count := 0
	c.OnShutdown(func() { count++ })

	c.RequestShutdown("test")
	c.Wait()
	c.runCleanups()

	assert.Equal(t, 1, count)
}
