package models

import "time"

// Language represents the teaching language of a course
type Language string

const (
	LanguageEnglish Language = "English"
	LanguageSpanish Language = "Spanish"
	LanguageFrench  Language = "French"
	LanguageGerman  Language = "German"
	LanguageArabic  Language = "Arabic"
)

// Languages lists all supported teaching languages
var Languages = []Language{
	LanguageEnglish,
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageArabic,
}

// FileRef describes an uploaded binary without carrying the binary itself.
// ContentRef is an opaque handle into the upload stage; validators and the
// submission coordinator only ever see this descriptor.
type FileRef struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType"`
	ContentRef string `json:"contentRef,omitempty"`
}

// IsZero reports whether the ref is an empty attachment slot
func (f FileRef) IsZero() bool {
	return f.Name == "" && f.Size == 0 && f.ContentRef == ""
}

// CourseBasics holds the first-step fields of a course draft
type CourseBasics struct {
	Title          string   `json:"title"`
	CategoryID     string   `json:"categoryId"`
	SubcategoryID  string   `json:"subcategoryId"`
	Language       Language `json:"language"`
	Description    string   `json:"description"`
	TeachingPoints []string `json:"teachingPoints"`
	Requirements   []string `json:"requirements"`
	Thumbnail      *FileRef `json:"thumbnail,omitempty"`
	Syllabus       *FileRef `json:"syllabus,omitempty"`
}

// CourseDraft is the root of one course under construction. It exists only
// in memory until the draft is committed to the remote course store, after
// which the server representation replaces it entirely.
type CourseDraft struct {
	ID          string         `json:"id"`
	OwnerID     int            `json:"ownerId"`
	Basics      CourseBasics   `json:"basics"`
	SemesterIDs []string       `json:"semesterIds"`
	QuarterIDs  []string       `json:"quarterIds"`
	Chapters    []ChapterDraft `json:"chapters"`
	Grades      *GradingScheme `json:"grades,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ChapterDraft is a chapter inside a course draft.
// During authoring a chapter carries at most one assessment; the relaxation
// to many assessments per chapter only happens server-side after commit.
type ChapterDraft struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Lessons     []LessonDraft    `json:"lessons"`
	Assessment  *AssessmentDraft `json:"assessment,omitempty"`
}

// LessonDraft is a lesson inside a chapter draft.
// Attachments model slots: a zero-value FileRef is an empty slot, and a
// lesson always keeps at least one slot.
type LessonDraft struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	YoutubeLink string    `json:"youtubeLink,omitempty"`
	OtherLink   string    `json:"otherLink,omitempty"`
	Attachments []FileRef `json:"attachments"`
}

// DueDate is the date+time+instant triple an assessment is due at
type DueDate struct {
	Date    string    `json:"date"` // YYYY-MM-DD
	Time    string    `json:"time"` // HH:MM
	Instant time.Time `json:"instant"`
}

// AssessmentDraft is a chapter-level assessment inside a course draft
type AssessmentDraft struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  string    `json:"categoryId"`
	QuarterID   string    `json:"quarterId,omitempty"`
	DueDate     *DueDate  `json:"dueDate,omitempty"`
	Attachments []FileRef `json:"attachments"`
}

// GradingCategory is one weighted category of a grading scheme
type GradingCategory struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// GradeBand maps a letter grade to a percent range, display-only
type GradeBand struct {
	Letter       string `json:"letter"`
	PercentRange string `json:"percentRange"`
}

// GradingScheme holds the weighted categories and the display scale of a
// course. Category weights must sum to 100 before the draft may be committed.
type GradingScheme struct {
	Categories []GradingCategory `json:"categories"`
	Scale      []GradeBand       `json:"scale"`
}

// Clone returns a deep copy of the draft. The draft store mutates copies
// only, so editors holding an older snapshot never observe partial writes.
func (d *CourseDraft) Clone() *CourseDraft {
	c := *d
	c.Basics = d.Basics.clone()
	c.SemesterIDs = append([]string(nil), d.SemesterIDs...)
	c.QuarterIDs = append([]string(nil), d.QuarterIDs...)
	c.Chapters = make([]ChapterDraft, len(d.Chapters))
	for i := range d.Chapters {
		c.Chapters[i] = d.Chapters[i].clone()
	}
	if d.Grades != nil {
		g := d.Grades.clone()
		c.Grades = &g
	}
	return &c
}

func (b CourseBasics) clone() CourseBasics {
	c := b
	c.TeachingPoints = append([]string(nil), b.TeachingPoints...)
	c.Requirements = append([]string(nil), b.Requirements...)
	if b.Thumbnail != nil {
		t := *b.Thumbnail
		c.Thumbnail = &t
	}
	if b.Syllabus != nil {
		s := *b.Syllabus
		c.Syllabus = &s
	}
	return c
}

func (ch ChapterDraft) clone() ChapterDraft {
	c := ch
	c.Lessons = make([]LessonDraft, len(ch.Lessons))
	for i := range ch.Lessons {
		c.Lessons[i] = ch.Lessons[i].clone()
	}
	if ch.Assessment != nil {
		a := ch.Assessment.clone()
		c.Assessment = &a
	}
	return c
}

func (l LessonDraft) clone() LessonDraft {
	c := l
	c.Attachments = append([]FileRef(nil), l.Attachments...)
	return c
}

func (a AssessmentDraft) clone() AssessmentDraft {
	c := a
	c.Attachments = append([]FileRef(nil), a.Attachments...)
	if a.DueDate != nil {
		d := *a.DueDate
		c.DueDate = &d
	}
	return c
}

func (g GradingScheme) clone() GradingScheme {
	c := g
	c.Categories = append([]GradingCategory(nil), g.Categories...)
	c.Scale = append([]GradeBand(nil), g.Scale...)
	return c
}

// FindChapter returns the chapter with the given id, or nil
func (d *CourseDraft) FindChapter(chapterID string) *ChapterDraft {
	for i := range d.Chapters {
		if d.Chapters[i].ID == chapterID {
			return &d.Chapters[i]
		}
	}
	return nil
}

// FindLesson returns the lesson with the given id and its owning chapter, or nil
func (d *CourseDraft) FindLesson(lessonID string) (*ChapterDraft, *LessonDraft) {
	for i := range d.Chapters {
		for j := range d.Chapters[i].Lessons {
			if d.Chapters[i].Lessons[j].ID == lessonID {
				return &d.Chapters[i], &d.Chapters[i].Lessons[j]
			}
		}
	}
	return nil, nil
}
