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
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/gobam/errors"
	"github.com/tochemey/gobam/internal/validation"
)

// AnonymousUser is the user part given to addresses allocated without an identity.
const AnonymousUser = "anon"

var domainPattern = regexp.MustCompile(`^[^\s@/]+$`)

// Address identifies an actor or a broker: user@domain/resource.
// Only the domain is mandatory.
type Address struct {
	User     string
	Domain   string
	Resource string
}

// New creates an Address from its parts.
func New(user, domain, resource string) Address {
	return Address{User: user, Domain: domain, Resource: resource}
}

// Parse reads domain, user@domain, user@domain/resource or domain/resource.
func Parse(s string) (Address, error) {
	var addr Address
	rest := s
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		addr.Resource = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		addr.User = rest[:i]
		rest = rest[i+1:]
	}
	addr.Domain = rest

	if err := addr.Validate(); err != nil {
		return Address{}, fmt.Errorf("%w: %q: %w", gerrors.ErrInvalidAddress, s, err)
	}
	return addr, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Address {
	addr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return addr
}

// Validate checks that the domain is set and that no part contains whitespace.
func (a Address) Validate() error {
	return validation.New(validation.FailFast()).
		AddValidator(validation.NewRequired("domain", a.Domain)).
		AddValidator(validation.NewPattern("domain", domainPattern, a.Domain)).
		AddAssertion("user", !strings.ContainsAny(a.User, " \t\r\n/"), "must not contain whitespace or '/'").
		AddAssertion("resource", !strings.ContainsAny(a.Resource, " \t\r\n"), "must not contain whitespace").
		Validate()
}

// String renders the canonical form.
func (a Address) String() string {
	var sb strings.Builder
	if a.User != "" {
		sb.WriteString(a.User)
		sb.WriteByte('@')
	}
	sb.WriteString(a.Domain)
	if a.Resource != "" {
		sb.WriteByte('/')
		sb.WriteString(a.Resource)
	}
	return sb.String()
}

// Bare drops the resource.
func (a Address) Bare() Address {
	return Address{User: a.User, Domain: a.Domain}
}

// IsZero reports whether a is the zero Address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Complete appends domain to an address ending in '@'. Other addresses are
// returned unchanged.
func Complete(s, domain string) string {
	if strings.HasSuffix(s, "@") {
		return s + domain
	}
	return s
}

// DomainOf extracts the domain part of s without validating it.
func DomainOf(s string) string {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

// Generator allocates unique addresses within a domain.
type Generator struct {
	domain  string
	counter *atomic.Uint64
}

// NewGenerator creates a Generator for domain.
func NewGenerator(domain string) *Generator {
	return &Generator{domain: domain, counter: atomic.NewUint64(0)}
}

// Next returns {user}@{domain}/{id}, using AnonymousUser when user is empty.
// Ids are monotonic and rendered in base 36.
func (g *Generator) Next(user string) string {
	if user == "" {
		user = AnonymousUser
	}
	id := g.counter.Inc()
	return New(user, g.domain, strconv.FormatUint(id, 36)).String()
}
