package chi

import (
	"sort"

	"github.com/museumlab/artsearch/internal/domain/artwork"
	"github.com/museumlab/artsearch/internal/domain/search/result"
	searchuc "github.com/museumlab/artsearch/internal/usecase/search"
)

// searchRequestDTO is the POST /search body. Models is a toggle map (the UI
// sends every known model with an on/off flag). Balance is a pointer so an
// absent field falls back to the 0.5 midpoint instead of pure keyword.
type searchRequestDTO struct {
	Query               string          `json:"query"`
	Keyword             bool            `json:"keyword"`
	Models              map[string]bool `json:"models,omitempty"`
	Hybrid              bool            `json:"hybrid"`
	HybridBalance       *float64        `json:"hybrid_balance,omitempty"`
	HybridMode          string          `json:"hybrid_mode,omitempty"`
	IncludeDescriptions bool            `json:"include_descriptions,omitempty"`
	Size                int             `json:"size,omitempty"`
}

// enabledModels flattens the toggle map into a sorted key list.
func enabledModels(toggles map[string]bool) []string {
	if len(toggles) == 0 {
		return nil
	}
	out := make([]string, 0, len(toggles))
	for m, on := range toggles {
		if on {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

type artworkDTO struct {
	ID              string  `json:"id"`
	Title           string  `json:"title,omitempty"`
	Artist          string  `json:"artist,omitempty"`
	Date            string  `json:"date,omitempty"`
	Year            int     `json:"year,omitempty"`
	Medium          string  `json:"medium,omitempty"`
	Dimensions      string  `json:"dimensions,omitempty"`
	HeightCM        float64 `json:"height_cm,omitempty"`
	WidthCM         float64 `json:"width_cm,omitempty"`
	Classification  string  `json:"classification,omitempty"`
	Department      string  `json:"department,omitempty"`
	Nationality     string  `json:"nationality,omitempty"`
	Collection      string  `json:"collection,omitempty"`
	AltText         string  `json:"visual_alt_text,omitempty"`
	LongDescription string  `json:"visual_long_description,omitempty"`
}

type hitDTO struct {
	ID      string     `json:"id"`
	Score   float64    `json:"score"`
	Artwork artworkDTO `json:"artwork"`
}

type rankedListDTO struct {
	Source string   `json:"source"`
	Hits   []hitDTO `json:"hits"`
}

type fusedHitDTO struct {
	ID      string     `json:"id"`
	Score   float64    `json:"score"`
	Sources []string   `json:"sources"`
	Artwork artworkDTO `json:"artwork"`
}

type fusionResultDTO struct {
	Hits  []fusedHitDTO `json:"hits"`
	Total int           `json:"total"`
}

type searchResponseDTO struct {
	Keyword  *rankedListDTO           `json:"keyword,omitempty"`
	Semantic map[string]rankedListDTO `json:"semantic,omitempty"`
	Hybrid   *fusionResultDTO         `json:"hybrid,omitempty"`
}

func artworkToDTO(a artwork.Artwork) artworkDTO {
	return artworkDTO{
		ID:              a.ID(),
		Title:           a.Title(),
		Artist:          a.Artist(),
		Date:            a.Date(),
		Year:            a.Year(),
		Medium:          a.Medium(),
		Dimensions:      a.Dimensions(),
		HeightCM:        a.HeightCM(),
		WidthCM:         a.WidthCM(),
		Classification:  a.Classification(),
		Department:      a.Department(),
		Nationality:     a.Nationality(),
		Collection:      a.Collection(),
		AltText:         a.AltText(),
		LongDescription: a.LongDescription(),
	}
}

func rankedListToDTO(l result.RankedList) rankedListDTO {
	hits := make([]hitDTO, l.Len())
	for i, h := range l.Hits() {
		hits[i] = hitDTO{ID: h.ID(), Score: h.Score(), Artwork: artworkToDTO(h.Artwork())}
	}
	return rankedListDTO{Source: l.Source().Key(), Hits: hits}
}

func fusionResultToDTO(f result.FusionResult) fusionResultDTO {
	hits := make([]fusedHitDTO, f.Total())
	for i, h := range f.Hits() {
		hits[i] = fusedHitDTO{
			ID:      h.Hit().ID(),
			Score:   h.FusedScore(),
			Sources: h.Sources(),
			Artwork: artworkToDTO(h.Hit().Artwork()),
		}
	}
	return fusionResultDTO{Hits: hits, Total: f.Total()}
}

func searchResponseToDTO(resp *searchuc.Response) searchResponseDTO {
	var dto searchResponseDTO
	if resp.Keyword != nil {
		kw := rankedListToDTO(*resp.Keyword)
		dto.Keyword = &kw
	}
	if len(resp.Semantic) > 0 {
		dto.Semantic = make(map[string]rankedListDTO, len(resp.Semantic))
		for m, l := range resp.Semantic {
			dto.Semantic[m] = rankedListToDTO(l)
		}
	}
	if resp.Hybrid != nil {
		fused := fusionResultToDTO(*resp.Hybrid)
		dto.Hybrid = &fused
	}
	return dto
}
