package artwork

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/museumlab/artsearch/internal/domain/artwork"
)

// Hash field names for stored artworks.
const (
	fieldTitle          = "title"
	fieldArtist         = "artist"
	fieldDate           = "date"
	fieldYear           = "year"
	fieldMedium         = "medium"
	fieldDimensions     = "dimensions"
	fieldHeightCM       = "height_cm"
	fieldWidthCM        = "width_cm"
	fieldClassification = "classification"
	fieldDepartment     = "department"
	fieldNationality    = "nationality"
	fieldCollection     = "collection"
	fieldAltText        = "visual_alt_text"
	fieldLongDesc       = "visual_long_description"
)

// Tag aliases: the same hash fields indexed a second time as TAG for exact
// structured matching in metadata-similarity queries.
const (
	tagArtist         = "artist_tag"
	tagClassification = "classification_tag"
	tagDepartment     = "department_tag"
	tagNationality    = "nationality_tag"
)

// embedFieldPrefix prefixes per-model binary vector fields (emb_jina_v3).
const embedFieldPrefix = "emb_"

func embedField(model string) string {
	return embedFieldPrefix + model
}

// displayFields are returned by every search; vectors stay in the store.
var displayFields = []string{
	fieldTitle, fieldArtist, fieldDate, fieldYear,
	fieldMedium, fieldDimensions, fieldHeightCM, fieldWidthCM,
	fieldClassification, fieldDepartment, fieldNationality,
	fieldCollection, fieldAltText, fieldLongDesc,
}

// artworkFromFields rebuilds an artwork from flat hash fields, decoding any
// stored vectors for the known models.
func artworkFromFields(id string, fields map[string]string, models map[string]int) artwork.Artwork {
	year, _ := strconv.Atoi(fields[fieldYear])
	height, _ := strconv.ParseFloat(fields[fieldHeightCM], 64)
	width, _ := strconv.ParseFloat(fields[fieldWidthCM], 64)

	var embeddings map[string][]float32
	for model := range models {
		raw, ok := fields[embedField(model)]
		if !ok {
			continue
		}
		vec := bytesToVector(raw)
		if vec == nil {
			continue
		}
		if embeddings == nil {
			embeddings = make(map[string][]float32, len(models))
		}
		embeddings[model] = vec
	}

	meta := artwork.Metadata{
		Title:          fields[fieldTitle],
		Artist:         fields[fieldArtist],
		Date:           fields[fieldDate],
		Medium:         fields[fieldMedium],
		Dimensions:     fields[fieldDimensions],
		Classification: fields[fieldClassification],
		Department:     fields[fieldDepartment],
		Nationality:    fields[fieldNationality],
		Collection:     fields[fieldCollection],
		AltText:        fields[fieldAltText],
		LongDesc:       fields[fieldLongDesc],
	}

	return artwork.Reconstruct(id, meta, year, height, width, embeddings)
}

// bytesToVector deserializes a little-endian float32 binary string.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
