package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/coursecraft/backend/internal/models"
)

// Attachment policy errors, distinguishable with errors.Is
var (
	ErrTypeNotAllowed    = errors.New("file type is not allowed")
	ErrFileTooLarge      = errors.New("file exceeds the per-file size limit")
	ErrAggregateExceeded = errors.New("attachments exceed the total size limit")
	ErrTooManySlots      = errors.New("no attachment slots left")
	ErrLastSlot          = errors.New("the last attachment slot cannot be removed")
)

const (
	mimePDF  = "application/pdf"
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
)

// AttachmentPolicy holds the acceptance rules for one target entity's
// attachment collection. Zero caps mean "no limit" for that rule.
type AttachmentPolicy struct {
	Name         string
	AllowedTypes []string
	MaxFileSize  int64
	MaxTotalSize int64
	MaxCount     int
	MinSlots     int
}

// LessonAttachmentPolicy governs lesson attachments: PDF only, a 5 MB
// aggregate budget across all files, and always at least one slot.
var LessonAttachmentPolicy = AttachmentPolicy{
	Name:         "lesson",
	AllowedTypes: []string{mimePDF},
	MaxTotalSize: 5 * 1024 * 1024,
	MinSlots:     1,
}

// AssessmentAttachmentPolicy governs assessment attachments: images or PDF,
// up to five files of at most 2 MB each.
var AssessmentAttachmentPolicy = AttachmentPolicy{
	Name:         "assessment",
	AllowedTypes: []string{mimePNG, mimeJPEG, mimePDF},
	MaxFileSize:  2 * 1024 * 1024,
	MaxCount:     5,
}

// DiscussionAttachmentPolicy governs discussion post attachments, same
// allow-list as assessments.
var DiscussionAttachmentPolicy = AttachmentPolicy{
	Name:         "discussion",
	AllowedTypes: []string{mimePNG, mimeJPEG, mimePDF},
	MaxFileSize:  2 * 1024 * 1024,
	MaxCount:     5,
}

// Accept decides whether the candidate file may join the current set.
// Rules run in order: type allow-list, per-file cap, aggregate cap, slot
// count. Empty slots in the current set count toward neither size nor count.
func (p AttachmentPolicy) Accept(candidate models.FileRef, current []models.FileRef) error {
	if !slices.Contains(p.AllowedTypes, candidate.MimeType) {
		return fmt.Errorf("%w: %s", ErrTypeNotAllowed, candidate.MimeType)
	}

	if p.MaxFileSize > 0 && candidate.Size > p.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, candidate.Size, p.MaxFileSize)
	}

	if p.MaxTotalSize > 0 {
		total := candidate.Size
		for _, f := range current {
			total += f.Size
		}
		if total > p.MaxTotalSize {
			return fmt.Errorf("%w: %d bytes (limit %d)", ErrAggregateExceeded, total, p.MaxTotalSize)
		}
	}

	if p.MaxCount > 0 {
		count := 1
		for _, f := range current {
			if !f.IsZero() {
				count++
			}
		}
		if count > p.MaxCount {
			return fmt.Errorf("%w: limit is %d files", ErrTooManySlots, p.MaxCount)
		}
	}

	return nil
}

// CanRemoveSlot decides whether a slot may be removed from the current set.
// Removal is always size-reducing, so only the minimum slot count applies.
func (p AttachmentPolicy) CanRemoveSlot(current []models.FileRef) error {
	if p.MinSlots > 0 && len(current) <= p.MinSlots {
		return ErrLastSlot
	}
	return nil
}

// SniffMimeType detects the MIME type from file content, falling back to the
// declared type when the content is not available or not recognized
func SniffMimeType(data []byte, declared string) string {
	if len(data) == 0 {
		return declared
	}
	detected := mimetype.Detect(data)
	if detected == nil {
		return declared
	}
	mt := detected.String()
	// mimetype appends parameters for some text types; keep the bare type
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	if mt == "application/octet-stream" {
		return declared
	}
	return mt
}
