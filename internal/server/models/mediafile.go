package models

import "time"

// MediaFile is a catalog row describing one uploaded blob.
//
// StoredName is the generated, collision-resistant name under which the
// bytes live in the blob store (uuid + original extension). OriginalName is
// the user-supplied name and is untrusted: it is kept for display only and
// never used to address the blob.
type MediaFile struct {
	ID           int64
	StoredName   string
	OriginalName string
	UploadedAt   time.Time
}
