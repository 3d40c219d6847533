package gallery

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is the image search provider an item came from.
type Source string

// Known providers.
const (
	SourceOpenverse Source = "openverse"
	SourcePexels    Source = "pexels"
	SourcePixabay   Source = "pixabay"
	SourceUnsplash  Source = "unsplash"
)

// License is a provider-agnostic license category. The exact license text
// lives behind Item.LicenseURL.
type License string

// License categories.
const (
	LicensePublicDomain License = "pd-cc0"
	LicenseCCBY         License = "cc-by"
	LicenseCCBYSA       License = "cc-by-sa"
	LicenseUnsplash     License = "unsplash"
	LicensePexels       License = "pexels"
	LicensePixabay      License = "pixabay"
	LicenseOther        License = "other"
)

var licenseBadges = map[License]string{
	LicensePublicDomain: "PD/CC0",
	LicenseCCBY:         "CC-BY",
	LicenseCCBYSA:       "CC-BY-SA",
	LicenseUnsplash:     "Unsplash",
	LicensePexels:       "Pexels",
	LicensePixabay:      "Pixabay",
	LicenseOther:        "Free",
}

// ParseLicense normalizes a license name as written by providers or users,
// e.g. "CC0", "PD/CC0", "CC-BY" or "cc_by_sa". Unknown names map to
// LicenseOther and the empty string stays empty.
func ParseLicense(s string) License {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("_", "-", " ", "-", "/", "-").Replace(name)
	switch name {
	case "":
		return ""
	case "pd-cc0", "pd", "cc0", "public-domain", "pdm":
		return LicensePublicDomain
	case "cc-by":
		return LicenseCCBY
	case "cc-by-sa":
		return LicenseCCBYSA
	case "unsplash":
		return LicenseUnsplash
	case "pexels":
		return LicensePexels
	case "pixabay":
		return LicensePixabay
	default:
		return LicenseOther
	}
}

// UnmarshalYAML normalizes the license name via ParseLicense.
func (l *License) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	*l = ParseLicense(s)
	return nil
}

// Badge returns the short label shown on a gallery tile.
func (l License) Badge() string {
	if badge, ok := licenseBadges[l]; ok {
		return badge
	}
	return licenseBadges[LicenseOther]
}

// Orientations reported by Item.Orientation.
const (
	Landscape = "landscape"
	Portrait  = "portrait"
	Square    = "square"
)

// Item is one image search result. Only ThumbnailURL matters for fetching;
// the rest is carried along for display.
type Item struct {
	ID     string `yaml:"id,omitempty"`
	Source Source `yaml:"source,omitempty"`
	Title  string `yaml:"title,omitempty"`
	Author string `yaml:"author,omitempty"`

	ThumbnailURL string `yaml:"thumbnail_url"`
	ImageURL     string `yaml:"image_url,omitempty"`
	SourceURL    string `yaml:"source_url,omitempty"`
	LicenseURL   string `yaml:"license_url,omitempty"`

	License    License `yaml:"license,omitempty"`
	CreditText string  `yaml:"credit_text,omitempty"`

	Width    int      `yaml:"width,omitempty"`
	Height   int      `yaml:"height,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	ColorHex string   `yaml:"color_hex,omitempty"`
}

// UnmarshalYAML accepts either a mapping or a bare thumbnail URL.
func (i *Item) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*i = Item{ThumbnailURL: strings.TrimSpace(node.Value)}
		return nil
	}
	type plain Item
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*i = Item(p)
	return nil
}

// IsPublicDomain reports whether the item may be used without attribution.
func (i Item) IsPublicDomain() bool {
	return i.License == LicensePublicDomain
}

// Orientation returns Landscape, Portrait or Square, or "" when the
// dimensions are unknown.
func (i Item) Orientation() string {
	if i.Width <= 0 || i.Height <= 0 {
		return ""
	}
	switch {
	case i.Width > i.Height:
		return Landscape
	case i.Width < i.Height:
		return Portrait
	default:
		return Square
	}
}

// Tooltip renders the multi-line summary shown over a thumbnail.
func (i Item) Tooltip() string {
	dimensions := "unknown"
	if i.Orientation() != "" {
		dimensions = fmt.Sprintf("%dx%dpx", i.Width, i.Height)
	}
	title := i.Title
	if title == "" {
		title = i.ThumbnailURL
	}

	var b strings.Builder
	b.WriteString(title)
	switch {
	case i.Author != "" && i.Source != "":
		fmt.Fprintf(&b, "\n%s (%s)", i.Author, i.Source)
	case i.Author != "":
		fmt.Fprintf(&b, "\n%s", i.Author)
	case i.Source != "":
		fmt.Fprintf(&b, "\n%s", i.Source)
	}
	fmt.Fprintf(&b, "\nLicense: %s", i.License.Badge())
	fmt.Fprintf(&b, "\nDimensions: %s", dimensions)
	return b.String()
}
