package dates

import (
	"time"

	"github.com/majorfi/photo-tiles/pkg/utils"
)

/**************************************************************************************************
** TResolution is the outcome of effective-date selection for one item.
**************************************************************************************************/
type TResolution struct {
	EffectiveDate time.Time
	Source        utils.TDateSource
	Field         string
}

// IsAllowedOverrideField reports whether a user may pick field as the date to trust.
func IsAllowedOverrideField(field string) bool {
	return utils.Contains(utils.AllowedOverrideFields, field)
}

// IsNeverEffectiveField reports whether field is a modify-time hint.
func IsNeverEffectiveField(field string) bool {
	return utils.Contains(utils.NeverEffectiveFields, field)
}

/**************************************************************************************************
** EffectivePriorityRank returns the 1-based rank of field in the fixed priority order, or 0
** when the field never takes part in priority selection.
**************************************************************************************************/
func EffectivePriorityRank(field string) int {
	return utils.IndexOf(utils.EffectivePriorityFields, field) + 1
}

func sourceForField(field string) utils.TDateSource {
	if field == utils.FieldFileLastModified {
		return utils.DateSourceFile
	}
	return utils.DateSourceExif
}

/**************************************************************************************************
** Resolve selects the effective date of an item by strict precedence:
**   1. the manual date, if set;
**   2. the override field, if allowed and its candidate parsed;
**   3. the first eligible, parsed candidate in EffectivePriorityFields order;
**   4. the fallback date (file), else unknown.
** It is pure: the item is not modified.
**
** @param item - Item to resolve
** @return TResolution - Effective date, source and field
**************************************************************************************************/
func Resolve(item utils.TPhotoItem) TResolution {
	if !item.ManualDate.IsZero() {
		return TResolution{EffectiveDate: item.ManualDate, Source: utils.DateSourceManual}
	}

	if field := item.DateOverrideField; field != "" && !IsNeverEffectiveField(field) && IsAllowedOverrideField(field) {
		for _, c := range item.DateCandidates {
			if c.Field == field && c.HasParsed() {
				return TResolution{EffectiveDate: c.Parsed, Source: sourceForField(field), Field: field}
			}
		}
	}

	for _, field := range utils.EffectivePriorityFields {
		for _, c := range item.DateCandidates {
			if c.Field == field && c.UsedForEffectiveDate && c.HasParsed() {
				return TResolution{EffectiveDate: c.Parsed, Source: sourceForField(field), Field: field}
			}
		}
	}

	if !item.FallbackDate.IsZero() {
		return TResolution{EffectiveDate: item.FallbackDate, Source: utils.DateSourceFile}
	}
	return TResolution{Source: utils.DateSourceUnknown}
}

/**************************************************************************************************
** Apply writes the result of Resolve into the item's derived fields.
**
** @param item - Item to update in place
**************************************************************************************************/
func Apply(item *utils.TPhotoItem) {
	r := Resolve(*item)
	item.EffectiveDate = r.EffectiveDate
	item.DateSource = r.Source
	item.EffectiveDateField = r.Field
}
