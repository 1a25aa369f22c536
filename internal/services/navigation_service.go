package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/coursecraft/backend/internal/models"
)

// NavigationAPI is the remote contract for rebuilding the course navigation
// tree
type NavigationAPI interface {
	GetCoursePeriods(ctx context.Context, courseID string) (*models.CoursePeriods, error)
	GetSemesters(ctx context.Context, courseID string) ([]models.Semester, error)
	GetQuarters(ctx context.Context, semesterID string) ([]models.Quarter, error)
	GetChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error)
	GetChapterWithLessons(ctx context.Context, chapterID string) (*models.ChapterContent, error)
}

// NavigationService rebuilds the navigation tree of a committed course level
// by level. Nothing is cached between calls; every expansion is a fresh
// fetch, but identical concurrent fetches are collapsed into one request.
type NavigationService struct {
	api    NavigationAPI
	logger *zap.Logger
	group  singleflight.Group
}

// NewNavigationService creates a navigation service
func NewNavigationService(api NavigationAPI, logger *zap.Logger) *NavigationService {
	return &NavigationService{api: api, logger: logger}
}

// LoadSemesters returns the semesters a course is taught in
func (s *NavigationService) LoadSemesters(ctx context.Context, courseID string) ([]models.Semester, error) {
	v, err := s.fetch(ctx, "semesters:"+courseID, func() (interface{}, error) {
		return s.api.GetSemesters(ctx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Semester), nil
}

// LoadQuarters returns the quarters of a semester, narrowed to the ones the
// course actually declares. A semester may carry quarters the course never
// uses; those must not appear in the tree.
func (s *NavigationService) LoadQuarters(ctx context.Context, courseID, semesterID string) ([]models.Quarter, error) {
	key := fmt.Sprintf("quarters:%s:%s", courseID, semesterID)
	v, err := s.fetch(ctx, key, func() (interface{}, error) {
		periods, err := s.api.GetCoursePeriods(ctx, courseID)
		if err != nil {
			return nil, err
		}
		quarters, err := s.api.GetQuarters(ctx, semesterID)
		if err != nil {
			return nil, err
		}

		declared := make(map[string]struct{}, len(periods.QuarterIDs))
		for _, id := range periods.QuarterIDs {
			declared[id] = struct{}{}
		}

		filtered := make([]models.Quarter, 0, len(quarters))
		for _, q := range quarters {
			if _, ok := declared[q.ID]; ok {
				filtered = append(filtered, q)
			}
		}
		return filtered, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Quarter), nil
}

// LoadChapters returns the chapters of a quarter within a course
func (s *NavigationService) LoadChapters(ctx context.Context, courseID, quarterID string) ([]models.ChapterInfo, error) {
	key := fmt.Sprintf("chapters:%s:%s", courseID, quarterID)
	v, err := s.fetch(ctx, key, func() (interface{}, error) {
		return s.api.GetChapters(ctx, courseID, quarterID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.ChapterInfo), nil
}

// LoadChapterContent returns the lessons and assessments of a chapter
func (s *NavigationService) LoadChapterContent(ctx context.Context, chapterID string) (*models.ChapterContent, error) {
	v, err := s.fetch(ctx, "content:"+chapterID, func() (interface{}, error) {
		return s.api.GetChapterWithLessons(ctx, chapterID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ChapterContent), nil
}

// fetch collapses concurrent identical loads into one remote request. A
// caller whose context ends before the shared request finishes gets its
// context error instead of a stale result.
func (s *NavigationService) fetch(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	ch := s.group.DoChan(key, fn)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if res.Shared {
			s.logger.Debug("navigation fetch shared", zap.String("key", key))
		}
		return res.Val, nil
	}
}
