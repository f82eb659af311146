// Package registry holds the static catalog of depth-model variants and the
// bookkeeping for their locally cached weights.
package registry

import "fmt"

// Variant is an immutable catalog entry for one depth-model size.
type Variant struct {
	Key         string
	ExternalID  string
	Name        string
	Params      string
	Memory      string
	Description string
}

// Catalog is the fixed set of selectable depth-model variants.
type Catalog struct {
	variants   []Variant
	defaultKey string
}

// DefaultVariants mirrors the upstream Depth Anything V2 release sizes.
func DefaultVariants() []Variant {
	return []Variant{
		{
			Key:         "small",
			ExternalID:  "depth-anything/Depth-Anything-V2-Small-hf",
			Name:        "Small",
			Params:      "25M",
			Memory:      "~100MB",
			Description: "Fast, good for previews",
		},
		{
			Key:         "base",
			ExternalID:  "depth-anything/Depth-Anything-V2-Base-hf",
			Name:        "Base",
			Params:      "97M",
			Memory:      "~400MB",
			Description: "Balanced quality/speed",
		},
		{
			Key:         "large",
			ExternalID:  "depth-anything/Depth-Anything-V2-Large-hf",
			Name:        "Large",
			Params:      "335M",
			Memory:      "~1.3GB",
			Description: "Best detail (hair, fences)",
		},
	}
}

// New builds a Catalog. defaultKey must name one of the variants.
func New(variants []Variant, defaultKey string) (*Catalog, error) {
	c := &Catalog{variants: variants, defaultKey: defaultKey}
	if _, ok := c.Get(defaultKey); !ok {
		return nil, fmt.Errorf("default variant %q not in catalog", defaultKey)
	}
	return c, nil
}

// Get looks up a variant by key.
func (c *Catalog) Get(key string) (Variant, bool) {
	for _, v := range c.variants {
		if v.Key == key {
			return v, true
		}
	}
	return Variant{}, false
}

// All returns a copy of the catalog entries.
func (c *Catalog) All() []Variant {
	out := make([]Variant, len(c.variants))
	copy(out, c.variants)
	return out
}

// Keys returns all catalog keys in declaration order.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.variants))
	for _, v := range c.variants {
		out = append(out, v.Key)
	}
	return out
}

// DefaultKey returns the variant used when requests omit a key.
func (c *Catalog) DefaultKey() string { return c.defaultKey }
