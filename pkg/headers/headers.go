// Package headers adds host-scoped request headers to thumbnail requests,
// such as the Referer some image CDNs require before serving hotlinked images.
//
//go:generate mockgen -destination=./mocks/headers.go . Decorator
package headers

import (
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
)

// Decorator modifies an outgoing request.
type Decorator interface {
	Apply(req *http.Request) error
	Kind() Kind
}

// Kind names what a decorator does.
type Kind string

// Decorator kinds.
const (
	FixedKind   Kind = "fixed"
	RefererKind Kind = "referer"
	ChainKind   Kind = "chain"
)

// AnyHost scopes a rule to every host.
const AnyHost = "*"

// RefererOrigin makes Referer send the scheme and host of the image URL.
const RefererOrigin = "origin"

// forbidden lists headers that carry credentials. Thumbnails are fetched
// anonymously.
var forbidden = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
}

// Fixed sets fixed header values.
type Fixed struct {
	Headers map[string]string
}

// Apply sets the headers, replacing earlier values.
func (f Fixed) Apply(req *http.Request) error {
	for k, v := range f.Headers {
		req.Header.Set(k, v)
	}
	return nil
}

// Kind returns FixedKind.
func (f Fixed) Kind() Kind { return FixedKind }

// Referer sets the Referer header to URL, or to the origin of the requested
// image when URL is RefererOrigin.
type Referer struct {
	URL string
}

// Apply sets the Referer header.
func (r Referer) Apply(req *http.Request) error {
	value := r.URL
	if value == RefererOrigin {
		value = req.URL.Scheme + "://" + req.URL.Host + "/"
	}
	req.Header.Set("Referer", value)
	return nil
}

// Kind returns RefererKind.
func (r Referer) Kind() Kind { return RefererKind }

// Chain applies decorators in order and stops at the first error.
type Chain []Decorator

// Apply runs every decorator of the chain.
func (c Chain) Apply(req *http.Request) error {
	for _, d := range c {
		if err := d.Apply(req); err != nil {
			return fmt.Errorf("%s: %w", d.Kind(), err)
		}
	}
	return nil
}

// Kind returns ChainKind.
func (c Chain) Kind() Kind { return ChainKind }

// Scoped applies Inner only to requests for one of Hosts. A host entry
// starting with "." also matches its subdomains; AnyHost matches everything.
type Scoped struct {
	Hosts []string
	Inner Decorator
}

// Apply forwards to Inner when the request host is in scope.
func (s Scoped) Apply(req *http.Request) error {
	if !s.Matches(req.URL.Hostname()) {
		return nil
	}
	return s.Inner.Apply(req)
}

// Kind returns the kind of the wrapped decorator.
func (s Scoped) Kind() Kind { return s.Inner.Kind() }

// Matches reports whether host is in scope.
func (s Scoped) Matches(host string) bool {
	host = strings.ToLower(host)
	for _, h := range s.Hosts {
		h = strings.ToLower(h)
		switch {
		case h == AnyHost, h == host:
			return true
		case strings.HasPrefix(h, ".") && (strings.HasSuffix(host, h) || host == h[1:]):
			return true
		}
	}
	return false
}

// Rule is the configuration form of a scoped decorator.
type Rule struct {
	Hosts   []string          `yaml:"hosts"`
	Referer string            `yaml:"referer,omitempty"`
	Set     map[string]string `yaml:"set,omitempty"`
}

// Validate checks that the rule is scoped to at least one host, changes at
// least one header and carries no credentials.
func (r Rule) Validate() error {
	if len(r.Hosts) == 0 {
		return fmt.Errorf("%w: hosts must not be empty (use %q for all hosts)", pkgerrors.ErrHeaderRuleInvalid, AnyHost)
	}
	if r.Referer == "" && len(r.Set) == 0 {
		return fmt.Errorf("%w: rule for %v sets no header", pkgerrors.ErrHeaderRuleInvalid, r.Hosts)
	}
	for name := range r.Set {
		canonical := http.CanonicalHeaderKey(name)
		if forbidden[canonical] {
			return fmt.Errorf("%w: %s cannot be set", pkgerrors.ErrHeaderRuleInvalid, canonical)
		}
		if canonical == "Referer" && r.Referer != "" {
			return fmt.Errorf("%w: Referer given twice", pkgerrors.ErrHeaderRuleInvalid)
		}
	}
	return nil
}

// Build validates the rule and returns the decorator it describes.
func (r Rule) Build() (Decorator, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	var inner Chain
	if len(r.Set) > 0 {
		inner = append(inner, Fixed{Headers: r.Set})
	}
	if r.Referer != "" {
		inner = append(inner, Referer{URL: r.Referer})
	}
	return Scoped{Hosts: r.Hosts, Inner: inner}, nil
}

// Build turns rules into one decorator applying them in order, so later rules
// win for the same header. It returns nil for no rules.
func Build(rules []Rule) (Decorator, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	chain := make(Chain, 0, len(rules))
	for i, rule := range rules {
		d, err := rule.Build()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		chain = append(chain, d)
	}
	return chain, nil
}
