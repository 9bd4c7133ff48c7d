package timeline

import "fmt"

// OverlapError reports a placement, move, or trim that would make two clips on
// the same track overlap in [start, end).
type OverlapError struct {
	TrackID    string
	ClipID     string
	Start, End float64
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("clip range [%.3f, %.3f) overlaps clip %s on track %s", e.Start, e.End, e.ClipID, e.TrackID)
}

// InvalidTrimError reports trim bounds that are inverted or outside the
// source's original duration.
type InvalidTrimError struct {
	ClipID           string
	TrimStart        float64
	TrimEnd          float64
	OriginalDuration float64
}

func (e *InvalidTrimError) Error() string {
	return fmt.Sprintf("invalid trim [%.3f, %.3f] for clip %s (original duration %.3f)",
		e.TrimStart, e.TrimEnd, e.ClipID, e.OriginalDuration)
}

// OutOfRangeError reports a time or size value outside its valid bounds.
type OutOfRangeError struct {
	What     string
	Value    float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %.3f out of range [%.3f, %.3f]", e.What, e.Value, e.Min, e.Max)
}

// MissingAssetError reports a clip referencing a video no longer in the
// catalog. This is a data-integrity condition for the UI to surface.
type MissingAssetError struct {
	ClipID  string
	VideoID string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("video %s referenced by clip %s is not in the catalog", e.VideoID, e.ClipID)
}

// ZoomOutOfBoundsError reports a zoom level that is not a usable number.
// Finite positive levels outside the configured bounds are clamped, not
// rejected.
type ZoomOutOfBoundsError struct {
	Level    float64
	Min, Max float64
}

func (e *ZoomOutOfBoundsError) Error() string {
	return fmt.Sprintf("zoom level %v unusable (bounds %.3f-%.3f)", e.Level, e.Min, e.Max)
}

// NotFoundError reports an unknown track or clip ID.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
