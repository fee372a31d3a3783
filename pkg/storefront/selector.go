package storefront

import (
	"fmt"
	"sort"
)

// VariantSelector implements progressive faceted narrowing over a product's
// variants. Facets are the attribute keys shared by every variant (size,
// color, ...). As the shopper picks values, each facet's option list is
// recomputed against the *other* selections only, so a facet's own options
// stay visible even before it is chosen. Options that cannot be purchased are
// flagged rather than hidden.
//
// A VariantSelector is not safe for concurrent use.
type VariantSelector struct {
	variants []ProductVariant
	facets   []string
	selected map[string]string
}

// FacetOption is one selectable value for a facet. IsAvailable is true when
// at least one variant carrying this value (and matching the other current
// selections) is active, in stock, and has quantity > 0.
type FacetOption struct {
	Value       string `json:"value"`
	IsAvailable bool   `json:"is_available"`
}

// NewVariantSelector builds a selector over a product's variants.
//
// Every variant must carry exactly the same set of attribute keys; a variant
// with a missing or extra key would silently fall out of faceted filtering,
// so mismatched key sets are rejected here instead.
func NewVariantSelector(variants []ProductVariant) (*VariantSelector, error) {
	if len(variants) == 0 {
		return nil, fmt.Errorf("no variants provided")
	}

	// Facets are the union of attribute keys, in sorted order for
	// deterministic rendering.
	facetSet := make(map[string]struct{})
	for _, v := range variants {
		for key := range v.Attributes {
			facetSet[key] = struct{}{}
		}
	}
	facets := make([]string, 0, len(facetSet))
	for key := range facetSet {
		facets = append(facets, key)
	}
	sort.Strings(facets)

	// Strict schema check: every variant must define every facet.
	for _, v := range variants {
		if len(v.Attributes) != len(facets) {
			return nil, fmt.Errorf("variant %s: attribute keys do not match product facets %v", v.ID, facets)
		}
		for _, facet := range facets {
			if _, ok := v.Attributes[facet]; !ok {
				return nil, fmt.Errorf("variant %s: missing attribute %q", v.ID, facet)
			}
		}
	}

	return &VariantSelector{
		variants: variants,
		facets:   facets,
		selected: make(map[string]string),
	}, nil
}

// Facets returns the facet names in sorted order.
func (s *VariantSelector) Facets() []string {
	out := make([]string, len(s.facets))
	copy(out, s.facets)
	return out
}

// Selected returns a copy of the current facet selections.
func (s *VariantSelector) Selected() map[string]string {
	out := make(map[string]string, len(s.selected))
	for k, v := range s.selected {
		out[k] = v
	}
	return out
}

// Select records a value for a facet. Returns an error for an unknown facet.
// Selecting a value no variant carries is allowed; it simply narrows every
// other facet to nothing and resolves no variant.
func (s *VariantSelector) Select(facet, value string) error {
	if !s.hasFacet(facet) {
		return fmt.Errorf("unknown facet: %q", facet)
	}
	s.selected[facet] = value
	return nil
}

// Deselect clears the selection for a facet. Unknown or unselected facets are
// a no-op.
func (s *VariantSelector) Deselect(facet string) {
	delete(s.selected, facet)
}

// Reset clears all selections.
func (s *VariantSelector) Reset() {
	s.selected = make(map[string]string)
}

// Options computes the option list for a facet given the other current
// selections. The facet's own selection is excluded from the filter so its
// alternatives remain visible. Values are sorted; availability is an
// any-match union — one purchasable variant is enough to mark a value
// available even when other variants with the same value are not.
func (s *VariantSelector) Options(facet string) ([]FacetOption, error) {
	if !s.hasFacet(facet) {
		return nil, fmt.Errorf("unknown facet: %q", facet)
	}

	available := make(map[string]bool)
	for _, v := range s.variants {
		if !s.matchesOtherSelections(v, facet) {
			continue
		}
		value := v.Attributes[facet]
		if v.Purchasable() {
			available[value] = true
		} else if _, seen := available[value]; !seen {
			available[value] = false
		}
	}

	values := make([]string, 0, len(available))
	for value := range available {
		values = append(values, value)
	}
	sort.Strings(values)

	options := make([]FacetOption, len(values))
	for i, value := range values {
		options[i] = FacetOption{Value: value, IsAvailable: available[value]}
	}
	return options, nil
}

// Resolved returns the exact variant matching all selections once every facet
// has one, or nil while the selection is incomplete or matches nothing.
func (s *VariantSelector) Resolved() *ProductVariant {
	if len(s.selected) != len(s.facets) {
		return nil
	}

	for i := range s.variants {
		v := &s.variants[i]
		match := true
		for facet, want := range s.selected {
			if v.Attributes[facet] != want {
				match = false
				break
			}
		}
		if match {
			return v
		}
	}
	return nil
}

func (s *VariantSelector) hasFacet(facet string) bool {
	for _, f := range s.facets {
		if f == facet {
			return true
		}
	}
	return false
}

// matchesOtherSelections reports whether the variant matches every current
// selection except the one for the facet under evaluation.
func (s *VariantSelector) matchesOtherSelections(v ProductVariant, facet string) bool {
	for selectedFacet, want := range s.selected {
		if selectedFacet == facet {
			continue
		}
		if v.Attributes[selectedFacet] != want {
			return false
		}
	}
	return true
}
