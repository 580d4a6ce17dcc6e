// Package picture defines the outcome of asking the library for the next
// image to show.
package picture

import "image"

// Result is one of Success, BitmapOperationFailure or StorageFailure.
// A nil Result means no picture has been produced yet.
type Result interface {
	isResult()
}

// Success carries a decoded image ready for display.
type Success struct {
	Image      image.Image
	FolderName string
	Path       string

	// Sequence is assigned by the producer and increases with every
	// delivery, so showing the same file twice is still a change.
	Sequence uint64
}

// BitmapOperationFailure reports that a file could not be decoded or
// transformed.
type BitmapOperationFailure struct {
	Path string
}

// StorageFailure reports that the media index could not be read.
type StorageFailure struct {
	Reason string
}

func (Success) isResult()                {}
func (BitmapOperationFailure) isResult() {}
func (StorageFailure) isResult()         {}

// Kind names used in logs, metrics and the wire formats.
const (
	KindNone           = "none"
	KindSuccess        = "success"
	KindBitmapFailure  = "bitmap_failure"
	KindStorageFailure = "storage_failure"
)

// KindOf returns the kind name of r.
func KindOf(r Result) string {
	switch r.(type) {
	case Success:
		return KindSuccess
	case BitmapOperationFailure:
		return KindBitmapFailure
	case StorageFailure:
		return KindStorageFailure
	default:
		return KindNone
	}
}

// Equal compares two results by kind and identity. Pixel data is never
// compared; two successes are equal when they share sequence, path and
// folder.
func Equal(a, b Result) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case Success:
		bs, ok := b.(Success)
		return ok && a.Sequence == bs.Sequence && a.Path == bs.Path && a.FolderName == bs.FolderName
	case BitmapOperationFailure:
		bf, ok := b.(BitmapOperationFailure)
		return ok && a.Path == bf.Path
	case StorageFailure:
		bf, ok := b.(StorageFailure)
		return ok && a.Reason == bf.Reason
	default:
		return false
	}
}
