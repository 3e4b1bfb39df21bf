package report

import "errors"

var (
	ErrArtifactNotFound  = errors.New("report artifact not found")
	ErrRenderFailure     = errors.New("report rendering failed")
	ErrUnsupportedFormat = errors.New("unsupported report format")
	ErrNothingToArchive  = errors.New("no unarchived artifacts for the period")
	ErrNoRecipient       = errors.New("recipient has no email address")
)
