package utils

import "time"

/**************************************************************************************************
** TConfidence is the ordinal trust tier of a date candidate. It is independent from the
** priority order used for selection: a "medium" candidate may still win over a "high" one
** that has been made ineligible.
**************************************************************************************************/
type TConfidence string

const (
	ConfidenceHigh    TConfidence = "high"
	ConfidenceMedium  TConfidence = "medium"
	ConfidenceLow     TConfidence = "low"
	ConfidenceVeryLow TConfidence = "very_low"
	ConfidenceHint    TConfidence = "hint"
)

/**************************************************************************************************
** Rank returns the ordinal value of the confidence tier, higher meaning more trustworthy.
** Unknown tiers rank below "hint".
**************************************************************************************************/
func (c TConfidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 5
	case ConfidenceMedium:
		return 4
	case ConfidenceLow:
		return 3
	case ConfidenceVeryLow:
		return 2
	case ConfidenceHint:
		return 1
	default:
		return 0
	}
}

/**************************************************************************************************
** TDateSource tags where an item's effective date came from, for low-confidence warnings.
**************************************************************************************************/
type TDateSource string

const (
	DateSourceExif    TDateSource = "exif"
	DateSourceFile    TDateSource = "file"
	DateSourceManual  TDateSource = "manual"
	DateSourceUnknown TDateSource = "unknown"
)

/**************************************************************************************************
** TDateCandidate is one possible capture date for one photo, read from one metadata field.
** A zero Parsed value means the raw value could not be interpreted.
**************************************************************************************************/
type TDateCandidate struct {
	Field                string      `json:"field"`                // Stable field identifier, e.g. "EXIF:DateTimeOriginal"
	Raw                  string      `json:"raw,omitempty"`        // Original textual representation
	Parsed               time.Time   `json:"parsed"`               // Resolved instant, zero when unparseable
	Confidence           TConfidence `json:"confidence"`           // Trust tier
	UsedForEffectiveDate bool        `json:"usedForEffectiveDate"` // Eligible to become the effective date
}

/**************************************************************************************************
** HasParsed reports whether the candidate carries a usable instant.
**************************************************************************************************/
func (c TDateCandidate) HasParsed() bool {
	return !c.Parsed.IsZero()
}

/**************************************************************************************************
** TCropMode tells the compositor how the source bitmap fills its square tile.
**************************************************************************************************/
type TCropMode string

const (
	CropModeCover   TCropMode = "cover"
	CropModeContain TCropMode = "contain"
)

/**************************************************************************************************
** TCrop is a square crop in source pixels. A size of 1 or less stands for the centered square.
** The date engine never reads it; it only carries it along for the crop and export collaborators.
**************************************************************************************************/
type TCrop struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

/**************************************************************************************************
** TCropResult is what a crop inference collaborator hands back for one item.
**************************************************************************************************/
type TCropResult struct {
	Crop       TCrop     `json:"crop"`
	Mode       TCropMode `json:"mode"`
	Confidence float64   `json:"confidence"`
}

/**************************************************************************************************
** TFileSource is the minimal view of an imported file the engine needs: its name, its size,
** its own last-modified instant and a bounded head slice of its bytes.
**************************************************************************************************/
type TFileSource interface {
	Name() string
	Size() int64
	LastModified() time.Time
	Head(n int64) ([]byte, error)
}

/**************************************************************************************************
** TPhotoItem is one imported photo. EffectiveDate, EffectiveDateField and DateSource are
** derived fields: they are only ever written by dates.Apply after a mutation of ManualDate,
** DateOverrideField or DateCandidates.
**************************************************************************************************/
type TPhotoItem struct {
	ID                 string           `json:"id"`
	Source             TFileSource      `json:"-"`
	ImportedAt         time.Time        `json:"importedAt"`
	FallbackDate       time.Time        `json:"fallbackDate"`
	ManualDate         time.Time        `json:"manualDate"`
	DateOverrideField  string           `json:"dateOverrideField,omitempty"`
	DateCandidates     []TDateCandidate `json:"dateCandidates,omitempty"` // nil until extraction completed
	DateSource         TDateSource      `json:"dateSource"`
	EffectiveDate      time.Time        `json:"effectiveDate"`
	EffectiveDateField string           `json:"effectiveDateField,omitempty"`
	ManualOrderIndex   int              `json:"manualOrderIndex"`
	OrderKey           int              `json:"orderKey"`
	Crop               TCrop            `json:"crop"`
	CropMode           TCropMode        `json:"cropMode"`
	CropIsManual       bool             `json:"cropIsManual"`
	AutoCropConfidence float64          `json:"autoCropConfidence,omitempty"`
	ThumbPath          string           `json:"thumbPath,omitempty"`
}

/**************************************************************************************************
** Name returns the source file name, or an empty string when the item has no source.
**************************************************************************************************/
func (p TPhotoItem) Name() string {
	if p.Source == nil {
		return ""
	}
	return p.Source.Name()
}

/**************************************************************************************************
** Candidate returns the first candidate with the given field.
**************************************************************************************************/
func (p TPhotoItem) Candidate(field string) (TDateCandidate, bool) {
	for _, c := range p.DateCandidates {
		if c.Field == field {
			return c, true
		}
	}
	return TDateCandidate{}, false
}

/**************************************************************************************************
** Clone returns a copy of the item whose candidate slice can be mutated without touching the
** original.
**************************************************************************************************/
func (p TPhotoItem) Clone() TPhotoItem {
	next := p
	if p.DateCandidates != nil {
		next.DateCandidates = make([]TDateCandidate, len(p.DateCandidates))
		copy(next.DateCandidates, p.DateCandidates)
	}
	return next
}
