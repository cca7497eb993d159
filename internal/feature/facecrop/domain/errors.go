// Package domain defines domain-level errors for the facecrop feature.
package domain

import "errors"

// Pipeline outcomes. The transport layer maps them to status codes with errors.Is.
var (
	// ErrInvalidImage indicates that the upload could not be decoded as a supported raster format.
	ErrInvalidImage = errors.New("invalid image")

	// ErrImageTooLarge indicates that the upload exceeds the configured size limit.
	ErrImageTooLarge = errors.New("image too large")

	// ErrNoFaceFound indicates a valid image without a usable face.
	ErrNoFaceFound = errors.New("no face found")

	// ErrDegenerateCrop indicates that the selected face produced an empty crop after clamping.
	// It is always reported together with ErrNoFaceFound.
	ErrDegenerateCrop = errors.New("degenerate crop")

	// ErrDetectionFailed indicates that the face detector itself failed.
	ErrDetectionFailed = errors.New("face detection failed")

	// ErrExtractionFailed indicates an empty or out-of-bounds crop rectangle during resampling.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEncodingFailed indicates that the normalized image could not be encoded.
	ErrEncodingFailed = errors.New("encoding failed")
)

// Outcome labels used in logs and crop event records.
const (
	OutcomeOK               = "ok"
	OutcomeInvalidImage     = "invalid_image"
	OutcomeImageTooLarge    = "image_too_large"
	OutcomeNoFaceFound      = "no_face_found"
	OutcomeDegenerateCrop   = "degenerate_crop"
	OutcomeDetectionFailed  = "detection_failed"
	OutcomeExtractionFailed = "extraction_failed"
	OutcomeEncodingFailed   = "encoding_failed"
	OutcomeInternalError    = "internal_error"
)

// Outcome returns the label for err. A nil error is OutcomeOK.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrDegenerateCrop):
		return OutcomeDegenerateCrop
	case errors.Is(err, ErrNoFaceFound):
		return OutcomeNoFaceFound
	case errors.Is(err, ErrInvalidImage):
		return OutcomeInvalidImage
	case errors.Is(err, ErrImageTooLarge):
		return OutcomeImageTooLarge
	case errors.Is(err, ErrDetectionFailed):
		return OutcomeDetectionFailed
	case errors.Is(err, ErrExtractionFailed):
		return OutcomeExtractionFailed
	case errors.Is(err, ErrEncodingFailed):
		return OutcomeEncodingFailed
	default:
		return OutcomeInternalError
	}
}

// IsUserError reports whether err was caused by the uploaded input rather than by the service.
func IsUserError(err error) bool {
	return errors.Is(err, ErrInvalidImage) ||
		errors.Is(err, ErrImageTooLarge) ||
		errors.Is(err, ErrNoFaceFound)
}
