package validation

import (
	"fmt"

	"github.com/coursecraft/backend/internal/models"
)

// ValidateDraftForSubmit runs the full pre-commit gate over a draft: every
// node's field schema, basics completeness, period association, attachment
// budgets and the grading weight sum. The returned map is empty when the
// draft may be committed.
func (e *Engine) ValidateDraftForSubmit(d *models.CourseDraft) map[string]string {
	errs := make(map[string]string)

	merge := func(prefix string, r Result) {
		for path, msg := range r.Errors {
			key := path
			if prefix != "" {
				key = prefix + "." + path
			}
			errs[key] = msg
		}
	}

	// Basics fields
	merge("basics", e.Validate(models.UpdateBasicsRequest{
		Title:          d.Basics.Title,
		CategoryID:     d.Basics.CategoryID,
		SubcategoryID:  d.Basics.SubcategoryID,
		Language:       d.Basics.Language,
		Description:    d.Basics.Description,
		TeachingPoints: d.Basics.TeachingPoints,
		Requirements:   d.Basics.Requirements,
	}))

	// Basics blobs: thumbnail must be an image, syllabus a PDF
	if d.Basics.Thumbnail == nil {
		errs["basics.thumbnail"] = "a thumbnail image is required"
	} else if d.Basics.Thumbnail.MimeType != mimePNG && d.Basics.Thumbnail.MimeType != mimeJPEG {
		errs["basics.thumbnail"] = "thumbnail must be a PNG or JPEG image"
	}
	if d.Basics.Syllabus == nil {
		errs["basics.syllabus"] = "a syllabus PDF is required"
	} else if d.Basics.Syllabus.MimeType != mimePDF {
		errs["basics.syllabus"] = "syllabus must be a PDF"
	}

	// Period association
	if len(d.SemesterIDs) == 0 {
		errs["semesterIds"] = "at least one semester must be selected"
	}
	if len(d.QuarterIDs) == 0 {
		errs["quarterIds"] = "at least one quarter must be selected"
	}

	// Chapters, lessons, assessments
	for i, ch := range d.Chapters {
		cp := fmt.Sprintf("chapters[%d]", i)
		merge(cp, e.Validate(models.ChapterRequest{
			Title:       ch.Title,
			Description: ch.Description,
		}))

		for j, l := range ch.Lessons {
			lp := fmt.Sprintf("%s.lessons[%d]", cp, j)
			merge(lp, e.Validate(models.LessonRequest{
				Title:       l.Title,
				Description: l.Description,
				YoutubeLink: l.YoutubeLink,
				OtherLink:   l.OtherLink,
			}))
			if err := checkAggregate(LessonAttachmentPolicy, l.Attachments); err != nil {
				errs[lp+".attachments"] = err.Error()
			}
		}

		if a := ch.Assessment; a != nil {
			ap := cp + ".assessment"
			merge(ap, e.Validate(models.AssessmentRequest{
				Title:       a.Title,
				Description: a.Description,
				CategoryID:  a.CategoryID,
				QuarterID:   a.QuarterID,
				DueDate:     a.DueDate,
			}))
			if err := checkAggregate(AssessmentAttachmentPolicy, a.Attachments); err != nil {
				errs[ap+".attachments"] = err.Error()
			}
		}
	}

	// Grading scheme: required before commit in the points-based flow
	if d.Grades == nil || len(d.Grades.Categories) == 0 {
		errs["grades"] = "a grading scheme with weighted categories is required"
	} else {
		sum := 0
		for _, c := range d.Grades.Categories {
			sum += c.Weight
		}
		if sum != 100 {
			errs["grades.categories"] = fmt.Sprintf("category weights must sum to 100, got %d", sum)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// checkAggregate re-validates a whole attachment set against its policy's
// size and count caps. Used at submit time as the final gate; per-file rules
// already ran when each file was accepted.
func checkAggregate(p AttachmentPolicy, files []models.FileRef) error {
	var total int64
	count := 0
	for _, f := range files {
		if f.IsZero() {
			continue
		}
		total += f.Size
		count++
	}
	if p.MaxTotalSize > 0 && total > p.MaxTotalSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrAggregateExceeded, total, p.MaxTotalSize)
	}
	if p.MaxCount > 0 && count > p.MaxCount {
		return fmt.Errorf("%w: limit is %d files", ErrTooManySlots, p.MaxCount)
	}
	return nil
}
