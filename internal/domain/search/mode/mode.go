package mode

// HybridMode selects which semantic signals participate in hybrid fusion.
type HybridMode string

// Hybrid mode constants.
const (
	// Text fuses keyword with the text embedding models only.
	Text HybridMode = "text"
	// Image fuses keyword with the cross-modal image/text models only.
	Image HybridMode = "image"
	// Both fuses keyword with every enabled model, equal RRF split.
	Both HybridMode = "both"
)

// IsValid checks if the mode is one of the supported values.
func (m HybridMode) IsValid() bool {
	return m == Text || m == Image || m == Both
}
