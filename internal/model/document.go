package model

import "time"

// Document is a file attached to exactly one booking.  ObjectKey is the
// opaque handle returned by the blob store.  Documents are never updated;
// they disappear with their booking.
type Document struct {
    ID          uint64
    BookingID   uint64
    UploadedBy  uint64
    Title       string
    Description string
    ObjectKey   string
    FileName    string
    SizeBytes   int64
    UploadedAt  time.Time
}
