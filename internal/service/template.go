package service

import (
	"context"

	"github.com/appsparrow/streakzilla/internal/config"
	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"

	"github.com/gosimple/slug"
)

type TemplateService struct {
	store repository.Store
}

func NewTemplateService(store repository.Store) *TemplateService {
	return &TemplateService{store: store}
}

// TemplateKey returns the configured key, or one derived from the name.
func TemplateKey(cfg config.TemplateConfig) string {
	if cfg.Key != "" {
		return cfg.Key
	}
	return slug.Make(cfg.Name)
}

// Seed upserts the configured templates and their habits in one unit.
// Habits are matched by title, templates by key.
func (s *TemplateService) Seed(ctx context.Context, templates []config.TemplateConfig) ([]*models.Template, error) {
	var seeded []*models.Template
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		for _, tc := range templates {
			if !streak.Mode(tc.Mode).Valid() {
				return errors.Newf(errors.ErrInvalidArgument, "template %s: unknown mode %q", tc.Name, tc.Mode)
			}
			key := TemplateKey(tc)

			t := &models.Template{Key: key, Name: tc.Name, Mode: tc.Mode}
			for i, hs := range tc.Habits {
				h := &models.Habit{
					Title:       hs.Title,
					Description: hs.Description,
					Category:    hs.Category,
					Points:      hs.Points,
					TemplateSet: key,
				}
				if err := r.Habits.UpsertHabit(ctx, h); err != nil {
					return err
				}
				order := i + 1
				t.Habits = append(t.Habits, models.TemplateHabit{
					HabitID:        h.ID,
					IsCore:         hs.IsCore,
					PointsOverride: hs.PointsOverride,
					SortOrder:      &order,
					Habit:          *h,
				})
			}
			if err := r.Habits.UpsertTemplate(ctx, t); err != nil {
				return err
			}
			seeded = append(seeded, t)
		}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrConfigLoad, "seed templates failed", err)
	}

	for _, t := range seeded {
		logger.WithFields(map[string]interface{}{
			"template_id": t.ID,
			"key":         t.Key,
			"habits":      len(t.Habits),
		}).Info("template seeded")
	}
	return seeded, nil
}
