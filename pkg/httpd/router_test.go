package httpd

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterExactMatch(t *testing.T) {
	r := NewRouter()
	r.Handle("GET", "/items", func(_ *Request, res *Response) { res.Text("items") })

	_, ok := r.Find("GET", "/items")
	assert.True(t, ok)

	_, ok = r.Find("POST", "/items")
	assert.False(t, ok, "method must match exactly")

	_, ok = r.Find("GET", "/items/")
	assert.False(t, ok, "no trailing-slash normalization")

	_, ok = r.Find("GET", "/ite")
	assert.False(t, ok, "no prefix matching")
}

func TestRouterReplacesHandler(t *testing.T) {
	r := NewRouter()
	r.Handle("GET", "/", func(_ *Request, res *Response) { res.Text("first") })
	r.Handle("GET", "/", func(_ *Request, res *Response) { res.Text("second") })

	handler, ok := r.Find("GET", "/")
	require.True(t, ok)

	res := NewResponse(nil)
	handler(nil, res)
	assert.Equal(t, "second", res.Body)
	assert.Equal(t, 1, r.Len())
}

func TestRouterConcurrentRegistration(t *testing.T) {
	r := NewRouter()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			path := "/route" + string(rune('a'+n%26))
			r.Handle("GET", path, func(_ *Request, res *Response) { res.Text(path) })
			r.Find("GET", path)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 20, r.Len())
}
