package services

import (
	"errors"
	"fmt"
)

// ErrorKind groups ingestion failures by the stage that produced them
type ErrorKind string

const (
	KindAuthorization ErrorKind = "authorization"
	KindIntake        ErrorKind = "intake"
	KindValidation    ErrorKind = "validation"
	KindPersistence   ErrorKind = "persistence"
	KindLimit         ErrorKind = "limit"
	KindIO            ErrorKind = "io"
)

var (
	ErrNotAuthenticated      = errors.New("not authenticated")
	ErrInsufficientPrivilege = errors.New("insufficient privilege")
	ErrUnknownUser           = errors.New("unknown user")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyUpload         = errors.New("empty upload")
	ErrArchiveCorrupt      = errors.New("archive is corrupt")
	ErrPathTraversal       = errors.New("path traversal detected")

	ErrMissingChartAsset = errors.New("missing chart asset")
	ErrMissingAudioAsset = errors.New("missing audio asset")

	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrStoreUnavailable  = errors.New("store unavailable")

	ErrArchiveTooLarge = errors.New("archive exceeds size limits")
	ErrTimeout         = errors.New("ingestion timed out")

	ErrIOFailure = errors.New("io failure")
)

var errorKinds = map[error]ErrorKind{
	ErrNotAuthenticated:      KindAuthorization,
	ErrInsufficientPrivilege: KindAuthorization,
	ErrUnknownUser:           KindAuthorization,
	ErrUnsupportedFileType:   KindIntake,
	ErrEmptyUpload:           KindIntake,
	ErrArchiveCorrupt:        KindIntake,
	ErrPathTraversal:         KindIntake,
	ErrMissingChartAsset:     KindValidation,
	ErrMissingAudioAsset:     KindValidation,
	ErrDuplicateIdentity:     KindPersistence,
	ErrStoreUnavailable:      KindPersistence,
	ErrArchiveTooLarge:       KindLimit,
	ErrTimeout:               KindLimit,
	ErrIOFailure:             KindIO,
}

// IngestError carries the failure condition (Err, one of the sentinels above)
// and the underlying cause. errors.Is matches both.
type IngestError struct {
	Kind  ErrorKind
	Err   error
	Cause error
}

func (e *IngestError) Error() string {
	if e.Cause == nil {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Cause.Error()
}

func (e *IngestError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func newError(sentinel, cause error) *IngestError {
	kind, ok := errorKinds[sentinel]
	if !ok {
		kind = KindIO
	}
	return &IngestError{Kind: kind, Err: sentinel, Cause: cause}
}

func newErrorf(sentinel error, format string, args ...interface{}) *IngestError {
	return newError(sentinel, fmt.Errorf(format, args...))
}

// KindOf returns the kind of an ingestion error, KindIO for foreign errors
func KindOf(err error) ErrorKind {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return KindIO
}

// Condition returns the sentinel describing the failure, ErrIOFailure for foreign errors
func Condition(err error) error {
	var ie *IngestError
	if errors.As(err, &ie) {
		return ie.Err
	}
	return ErrIOFailure
}

// Wrap builds an ingestion error for failures detected outside the pipeline, such as
// the HTTP layer parsing a multipart body
func Wrap(sentinel, cause error) error {
	return newError(sentinel, cause)
}
