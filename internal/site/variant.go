// Package site serves the data behind the parameterized landing pages.
package site

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrVariantNotFound is returned for unknown slugs.
var ErrVariantNotFound = errors.New("site: variant not found")

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Theme carries the palette a page variant renders with.
type Theme struct {
	Primary    string `yaml:"primary" json:"primary"`
	Accent     string `yaml:"accent" json:"accent"`
	Background string `yaml:"background" json:"background"`
}

// Variant is one landing page. Submissions from it are tagged
// landing:<slug> but always use the canonical valuation table.
type Variant struct {
	Slug           string   `yaml:"slug" json:"slug"`
	Brand          string   `yaml:"brand" json:"brand"`
	Headline       string   `yaml:"headline" json:"headline"`
	Subheadline    string   `yaml:"subheadline" json:"subheadline"`
	ServiceCatalog []string `yaml:"service_catalog" json:"service_catalog,omitempty"`
	TrustSignals   []string `yaml:"trust_signals" json:"trust_signals,omitempty"`
	Theme          Theme    `yaml:"theme" json:"theme"`
	CTA            string   `yaml:"cta" json:"cta"`
	SuccessTitle   string   `yaml:"success_title" json:"success_title"`
	SuccessCopy    string   `yaml:"success_copy" json:"success_copy"`
	ContactPhone   string   `yaml:"contact_phone" json:"contact_phone,omitempty"`
	ContactEmail   string   `yaml:"contact_email" json:"contact_email,omitempty"`
	ChatEnabled    bool     `yaml:"chat_enabled" json:"chat_enabled"`
}

// Source is the lead source recorded for submissions from this variant.
func (v Variant) Source() string {
	return "landing:" + v.Slug
}

type variantsFile struct {
	Variants []Variant `yaml:"variants"`
}

// DefaultVariants returns the two built-in pages.
func DefaultVariants() []Variant {
	return []Variant{
		{
			Slug:           "roofing",
			Brand:          "RoofLeads Pro",
			Headline:       "Need Roof Repair or Replacement? Get Free Quotes Today!",
			Subheadline:    "Connect with licensed, insured roofing contractors in your area. Free estimates, competitive pricing, quality work guaranteed.",
			ServiceCatalog: []string{"Roofing"},
			TrustSignals:   []string{"Licensed & Insured", "Free Estimates", "Local Contractors"},
			Theme:          Theme{Primary: "#2563eb", Accent: "#f59e0b", Background: "#ffffff"},
			CTA:            "Get My Free Quotes Now",
			SuccessTitle:   "Lead Captured!",
			SuccessCopy:    "Thanks! Up to 3 pre-screened roofing contractors will contact you shortly.",
			ContactPhone:   "(555) 123-4567",
			ContactEmail:   "leads@roofleadspro.com",
		},
		{
			Slug:         "powerhouse",
			Brand:        "Powerhouse",
			Headline:     "Florida's Fastest Path to Trusted Contractors",
			Subheadline:  "No Gimmicks, Just Results. When your property needs help, we connect you to the right pro in hours, not days.",
			TrustSignals: []string{"Licensed & Insured", "Pre-Screened Pros", "Response Within Hours"},
			Theme:        Theme{Primary: "#a855f7", Accent: "#22d3ee", Background: "#0b0b1a"},
			CTA:          "Get Premium Florida Contractors Now! 🚀",
			SuccessTitle: "Lead Secured!",
			SuccessCopy:  "Your lead is matched with 2-3 pre-screened, licensed contractors in your area. Expect contact within 30-60 minutes.",
			ChatEnabled:  true,
		},
	}
}

// ParseVariants decodes a variants document and validates every slug.
func ParseVariants(data []byte) ([]Variant, error) {
	var doc variantsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("site: failed to parse variants: %w", err)
	}
	seen := make(map[string]bool, len(doc.Variants))
	for _, v := range doc.Variants {
		if !slugPattern.MatchString(v.Slug) {
			return nil, fmt.Errorf("site: invalid slug %q", v.Slug)
		}
		if seen[v.Slug] {
			return nil, fmt.Errorf("site: duplicate slug %q", v.Slug)
		}
		seen[v.Slug] = true
	}
	return doc.Variants, nil
}

// LoadVariants reads path and overlays it on the defaults by slug. An empty
// path or a missing file yields the defaults.
func LoadVariants(path string) ([]Variant, error) {
	variants := DefaultVariants()
	if path == "" {
		return variants, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return variants, nil
		}
		return nil, fmt.Errorf("site: failed to read variants: %w", err)
	}
	loaded, err := ParseVariants(data)
	if err != nil {
		return nil, err
	}
	return merge(variants, loaded), nil
}

func merge(base, overlay []Variant) []Variant {
	idx := make(map[string]int, len(base))
	out := append([]Variant(nil), base...)
	for i, v := range out {
		idx[v.Slug] = i
	}
	for _, v := range overlay {
		if i, ok := idx[v.Slug]; ok {
			out[i] = v
			continue
		}
		idx[v.Slug] = len(out)
		out = append(out, v)
	}
	return out
}

// Registry is the read-mostly set of served variants.
type Registry struct {
	mu       sync.RWMutex
	variants map[string]Variant
}

func NewRegistry(variants []Variant) *Registry {
	r := &Registry{}
	r.Replace(variants)
	return r
}

// Replace swaps the whole set, e.g. after a config reload.
func (r *Registry) Replace(variants []Variant) {
	m := make(map[string]Variant, len(variants))
	for _, v := range variants {
		m[v.Slug] = v
	}
	r.mu.Lock()
	r.variants = m
	r.mu.Unlock()
}

func (r *Registry) Get(slug string) (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variants[slug]
	if !ok {
		return Variant{}, ErrVariantNotFound
	}
	return v, nil
}

// Slugs lists the served slugs alphabetically.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.variants))
	for slug := range r.variants {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}
