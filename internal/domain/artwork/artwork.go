// Package artwork holds the museum artwork aggregate shared between layers.
package artwork

import (
	"regexp"
	"strconv"
	"strings"
)

// Artwork is a museum object as stored in the search index. The search core
// treats everything except the id, year, and dimensions as pass-through
// display data.
type Artwork struct {
	id             string
	title          string
	artist         string
	date           string
	year           int
	medium         string
	dimensions     string
	heightCM       float64
	widthCM        float64
	classification string
	department     string
	nationality    string
	collection     string
	altText        string
	longDesc       string
	embeddings     map[string][]float32
}

// Metadata carries the plain-text museum fields used to build an Artwork.
type Metadata struct {
	Title          string
	Artist         string
	Date           string
	Medium         string
	Dimensions     string
	Classification string
	Department     string
	Nationality    string
	Collection     string
	AltText        string
	LongDesc       string
}

// New creates an artwork, deriving the numeric year and dimensions from the
// free-text museum fields.
func New(id string, meta Metadata, embeddings map[string][]float32) Artwork {
	h, w := parseDimensions(meta.Dimensions)
	return Artwork{
		id:             id,
		title:          meta.Title,
		artist:         meta.Artist,
		date:           meta.Date,
		year:           ParseYear(meta.Date),
		medium:         meta.Medium,
		dimensions:     meta.Dimensions,
		heightCM:       h,
		widthCM:        w,
		classification: meta.Classification,
		department:     meta.Department,
		nationality:    meta.Nationality,
		collection:     meta.Collection,
		altText:        meta.AltText,
		longDesc:       meta.LongDesc,
		embeddings:     embeddings,
	}
}

// Reconstruct rebuilds an artwork from stored fields, trusting the persisted
// year and dimensions instead of re-deriving them.
func Reconstruct(
	id string, meta Metadata, year int, heightCM, widthCM float64,
	embeddings map[string][]float32,
) Artwork {
	a := New(id, meta, embeddings)
	a.year = year
	a.heightCM = heightCM
	a.widthCM = widthCM
	return a
}

// ID returns the artwork identifier.
func (a Artwork) ID() string { return a.id }

// Title returns the artwork title.
func (a Artwork) Title() string { return a.title }

// Artist returns the artist display name.
func (a Artwork) Artist() string { return a.artist }

// Date returns the free-text date as catalogued.
func (a Artwork) Date() string { return a.date }

// Year returns the numeric creation year, 0 when unknown.
func (a Artwork) Year() int { return a.year }

// Medium returns the medium description.
func (a Artwork) Medium() string { return a.medium }

// Dimensions returns the free-text dimensions.
func (a Artwork) Dimensions() string { return a.dimensions }

// HeightCM returns the parsed height in centimeters, 0 when unknown.
func (a Artwork) HeightCM() float64 { return a.heightCM }

// WidthCM returns the parsed width in centimeters, 0 when unknown.
func (a Artwork) WidthCM() float64 { return a.widthCM }

// Classification returns the object classification.
func (a Artwork) Classification() string { return a.classification }

// Department returns the curatorial department.
func (a Artwork) Department() string { return a.department }

// Nationality returns the artist nationality.
func (a Artwork) Nationality() string { return a.nationality }

// Collection returns the source collection key (moma, met, ...).
func (a Artwork) Collection() string { return a.collection }

// AltText returns the AI-generated short visual description.
func (a Artwork) AltText() string { return a.altText }

// LongDescription returns the AI-generated long visual description.
func (a Artwork) LongDescription() string { return a.longDesc }

// Embedding returns the stored vector for a model, reporting presence.
func (a Artwork) Embedding(model string) ([]float32, bool) {
	v, ok := a.embeddings[model]
	return v, ok
}

// EmbeddingModels returns the model keys this artwork carries vectors for.
func (a Artwork) EmbeddingModels() []string {
	keys := make([]string, 0, len(a.embeddings))
	for k := range a.embeddings {
		keys = append(keys, k)
	}
	return keys
}

var yearRe = regexp.MustCompile(`\b(1[0-9]{3}|20[0-9]{2})\b`)

// ParseYear extracts the first plausible year from a free-text museum date
// ("c. 1889", "1905-06", "ca. 1661"). Returns 0 when none is found.
func ParseYear(date string) int {
	m := yearRe.FindString(date)
	if m == "" {
		return 0
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return y
}

var dimsRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*[x×]\s*([0-9]+(?:\.[0-9]+)?)\s*cm`)

// parseDimensions pulls "H x W cm" out of a free-text dimensions field.
func parseDimensions(dims string) (heightCM, widthCM float64) {
	m := dimsRe.FindStringSubmatch(strings.ToLower(dims))
	if m == nil {
		return 0, 0
	}
	h, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, 0
	}
	w, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, 0
	}
	return h, w
}
