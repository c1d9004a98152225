// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package address

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/gobam/errors"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Address
	}{
		{"example.com", Address{Domain: "example.com"}},
		{"bob@example.com", Address{User: "bob", Domain: "example.com"}},
		{"bob@example.com/chat", Address{User: "bob", Domain: "example.com", Resource: "chat"}},
		{"example.com/service", Address{Domain: "example.com", Resource: "service"}},
		{"bob@example.com/a/b", Address{User: "bob", Domain: "example.com", Resource: "a/b"}},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, got.String())
		})
	}

	t.Run("With invalid input", func(t *testing.T) {
		for _, in := range []string{"", "bob@", "@", "bob@exa mple.com", "/resource"} {
			_, err := Parse(in)
			assert.ErrorIs(t, err, gerrors.ErrInvalidAddress, in)
		}
	})
	t.Run("MustParse panics", func(t *testing.T) {
		assert.Panics(t, func() { MustParse("") })
		assert.Equal(t, "x", MustParse("x").Domain)
	})
}

func TestAddressHelpers(t *testing.T) {
	addr := New("bob", "example.com", "chat")
	assert.Equal(t, "bob@example.com", addr.Bare().String())
	assert.False(t, addr.IsZero())
	assert.True(t, Address{}.IsZero())

	assert.Equal(t, "bob@example.com", Complete("bob@", "example.com"))
	assert.Equal(t, "bob@other", Complete("bob@other", "example.com"))

	assert.Equal(t, "example.com", DomainOf("bob@example.com/chat"))
	assert.Equal(t, "example.com", DomainOf("example.com"))
	assert.Equal(t, "example.com", DomainOf("example.com/svc"))
}

func TestGenerator(t *testing.T) {
	t.Run("With user and anonymous", func(t *testing.T) {
		g := NewGenerator("broker")
		assert.Equal(t, "anon@broker/1", g.Next(""))
		assert.Equal(t, "bob@broker/2", g.Next("bob"))
	})
	t.Run("unique under concurrency", func(t *testing.T) {
		g := NewGenerator("broker")
		var (
			mu   sync.Mutex
			seen = make(map[string]struct{})
			wg   sync.WaitGroup
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				addr := g.Next("")
				mu.Lock()
				seen[addr] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 50)
	})
}
