package utils

import "time"

/**************************************************************************************************
** TimeFormat is the standard format for instants printed by the application.
**************************************************************************************************/
const TimeFormat = "2006-01-02T15:04:05.000Z07:00"

/**************************************************************************************************
** Candidate field identifiers. They double as priority keys and must stay stable: overrides
** are stored by these names.
**************************************************************************************************/
const (
	FieldDateTimeOriginal     = "EXIF:DateTimeOriginal"
	FieldCreateDate           = "EXIF:CreateDate"
	FieldDateTimeDigitized    = "EXIF:DateTimeDigitized"
	FieldXMPCreateDate        = "XMP:CreateDate"
	FieldIPTCDateCreated      = "IPTC:DateCreated+TimeCreated"
	FieldGPSDateTime          = "GPS:GPSDateStamp+GPSTimeStamp"
	FieldQuickTimeCreate      = "QuickTime:CreateDate"
	FieldQuickTimeMediaCreate = "QuickTime:MediaCreateDate"
	FieldModifyDate           = "EXIF:ModifyDate"
	FieldDateTime             = "EXIF:DateTime"
	FieldFileLastModified     = "file.lastModified"
)

/**************************************************************************************************
** EffectivePriorityFields is the fixed order in which eligible candidates are considered when
** no manual date or override applies. Reordering it changes which date wins for real batches.
**************************************************************************************************/
var EffectivePriorityFields = []string{
	FieldDateTimeOriginal,
	FieldCreateDate,
	FieldDateTimeDigitized,
	FieldXMPCreateDate,
	FieldQuickTimeCreate,
	FieldQuickTimeMediaCreate,
	FieldIPTCDateCreated,
	FieldGPSDateTime,
	FieldFileLastModified,
}

/**************************************************************************************************
** NeverEffectiveFields are modify-time fields. They are hints only and can never become the
** effective date, whatever their confidence.
**************************************************************************************************/
var NeverEffectiveFields = []string{
	FieldModifyDate,
	FieldDateTime,
}

/**************************************************************************************************
** AllowedOverrideFields are the fields a user may pick as "the date to trust".
**************************************************************************************************/
var AllowedOverrideFields = []string{
	FieldDateTimeOriginal,
	FieldCreateDate,
	FieldDateTimeDigitized,
	FieldXMPCreateDate,
	FieldQuickTimeCreate,
	FieldQuickTimeMediaCreate,
	FieldIPTCDateCreated,
	FieldFileLastModified,
}

/**************************************************************************************************
** Batch heuristic thresholds.
**************************************************************************************************/
const (
	NearUploadWindow          = 10 * time.Minute
	ClusterMinItems           = 4
	ClusterMinRatio           = 0.8
	LastModifiedDayMinRatio   = 0.7
	LastModifiedMaxSpread     = 6 * time.Hour
	MetadataHeadSize          = 512 * 1024
	DefaultThumbnailSize      = 384
	DefaultPreviewColumns     = 4
	UnknownDayKey             = "unknown"
	DefaultLocationCacheSize  = 64
	DefaultThumbnailJPEGScore = 84
)

/**************************************************************************************************
** Reason messages attached to demotions, used in debug logs and heuristic reports.
**************************************************************************************************/
var REASON_NEAR_UPLOAD = "near-upload"
var REASON_BATCH_CLUSTER = "batch-cluster"
var REASON_BATCH_SAME_DAY = "batch-same-day"
