// Package catalog lists the built-in background templates and stickers.
//
// Refs are paths under the asset root (see resource.WithAssetRoot), so a
// deployment ships the images next to the binary and can override both
// lists from the config file.
package catalog

import "strings"

// Item is a named gallery entry.
type Item struct {
	Name string `toml:"name" json:"name"`
	Ref  string `toml:"ref" json:"ref"`
}

// Catalog holds the template and sticker galleries.
type Catalog struct {
	Templates []Item
	Stickers  []Item
}

// Default returns the built-in galleries.
func Default() Catalog {
	return Catalog{
		Templates: DefaultTemplates(),
		Stickers:  DefaultStickers(),
	}
}

// DefaultTemplates returns the built-in background templates.
func DefaultTemplates() []Item {
	return []Item{
		{Name: "Paper", Ref: "/templates/paper.jpg"},
		{Name: "Noise", Ref: "/templates/noise.jpg"},
		{Name: "Halftone", Ref: "/templates/halftone.jpg"},
		{Name: "Black", Ref: "/templates/black.jpg"},
		{Name: "Template 1", Ref: "/templates/mogtemplate1.jpg"},
		{Name: "Template 2", Ref: "/templates/mogtemplate2.png"},
		{Name: "Template 3", Ref: "/templates/mogtemplate3.jpg"},
		{Name: "Template 4", Ref: "/templates/mogtemplate4.png"},
		{Name: "Template 5", Ref: "/templates/mogtemplate5.png"},
		{Name: "Template 6", Ref: "/templates/mogtemplate6.png"},
	}
}

// DefaultStickers returns the built-in stickers. pic16 was never shipped.
func DefaultStickers() []Item {
	items := make([]Item, 0, 16)
	for _, n := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "17"} {
		ext := ".png"
		if n == "13" {
			ext = ".jpg"
		}
		items = append(items, Item{Name: "pic" + n, Ref: "/predefined/pic" + n + ext})
	}
	return items
}

// Template looks up a template by case-insensitive name or by exact ref.
func (c Catalog) Template(nameOrRef string) (Item, bool) {
	return lookup(c.Templates, nameOrRef)
}

// Sticker looks up a sticker like Template does.
func (c Catalog) Sticker(nameOrRef string) (Item, bool) {
	return lookup(c.Stickers, nameOrRef)
}

func lookup(items []Item, key string) (Item, bool) {
	for _, it := range items {
		if strings.EqualFold(it.Name, key) || it.Ref == key {
			return it, true
		}
	}
	return Item{}, false
}

// Refs returns every ref in the catalog, templates first.
func (c Catalog) Refs() []string {
	refs := make([]string, 0, len(c.Templates)+len(c.Stickers))
	for _, it := range c.Templates {
		refs = append(refs, it.Ref)
	}
	for _, it := range c.Stickers {
		refs = append(refs, it.Ref)
	}
	return refs
}
