package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/educacao-adventista/matriculometro/internal/codec"
	"github.com/educacao-adventista/matriculometro/internal/model"
	"github.com/educacao-adventista/matriculometro/internal/progress"
	"github.com/educacao-adventista/matriculometro/internal/repository"
	"github.com/educacao-adventista/matriculometro/internal/storage"
	"github.com/educacao-adventista/matriculometro/internal/validation"
)

type GoalService struct {
	repo      repository.GoalRepository
	snapshots storage.Storage
	now       func() time.Time
}

func NewGoalService(repo repository.GoalRepository, snapshots storage.Storage) *GoalService {
	return &GoalService{
		repo:      repo,
		snapshots: snapshots,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Goals returns every goal sorted by category the way a Portuguese reader
// expects ("Berçário" before "Creche").
func (s *GoalService) Goals() ([]*model.Goal, error) {
	goals, err := s.repo.Goals()
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	// Collators are not safe for concurrent use.
	c := collate.New(language.BrazilianPortuguese)
	sort.SliceStable(goals, func(i, j int) bool {
		return c.CompareString(goals[i].Category, goals[j].Category) < 0
	})

	return goals, nil
}

func (s *GoalService) ByID(id int64) (*model.Goal, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid id")
	}
	return s.repo.ByID(id)
}

func (s *GoalService) Summary() (progress.Summary, error) {
	goals, err := s.Goals()
	if err != nil {
		return progress.Summary{}, err
	}
	return progress.Summarize(goals), nil
}

func (s *GoalService) Create(in model.GoalInput) (*model.Goal, error) {
	category, err := checkInput(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	goal := &model.Goal{
		Category:  category,
		Target:    *in.Target,
		Achieved:  valueOr(in.Achieved, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.repo.Create(goal)
	if errors.Is(err, repository.ErrDuplicateCategory) {
		return nil, &ConflictError{Category: category}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

// Update replaces category, target and achieved. A missing achieved resets
// the count to zero, as the admin form always sends the full record.
func (s *GoalService) Update(id int64, in model.GoalInput) (*model.Goal, error) {
	if id <= 0 {
		return nil, NewValidationError("invalid id")
	}

	category, err := checkInput(in)
	if err != nil {
		return nil, err
	}

	goal, err := s.repo.ByID(id)
	if err != nil {
		return nil, err
	}

	goal.Category = category
	goal.Target = *in.Target
	goal.Achieved = valueOr(in.Achieved, 0)
	goal.UpdatedAt = s.now()

	err = s.repo.Update(goal)
	if errors.Is(err, repository.ErrDuplicateCategory) {
		return nil, &ConflictError{Category: category}
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

// Patch changes target and/or achieved only.
func (s *GoalService) Patch(p model.GoalPatch) (*model.Goal, error) {
	if p.ID <= 0 {
		return nil, NewValidationError("invalid id")
	}
	if p.Target == nil && p.Achieved == nil {
		return nil, NewValidationError("target or achieved is required")
	}
	if fields := validation.Struct(p); fields != nil {
		return nil, NewValidationError(fields[0].Message, fields...)
	}

	goal, err := s.repo.ByID(p.ID)
	if err != nil {
		return nil, err
	}

	if p.Target != nil {
		goal.Target = *p.Target
	}
	if p.Achieved != nil {
		goal.Achieved = *p.Achieved
	}
	goal.UpdatedAt = s.now()

	err = s.repo.Update(goal)
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *GoalService) Delete(id int64) error {
	if id <= 0 {
		return NewValidationError("invalid id")
	}
	return s.repo.Delete(id)
}

// Replace discards every goal and stores records instead. All records are
// validated first and the current set is snapshotted, so a rejected import
// leaves the table untouched. When the write itself fails the snapshot is
// kept and its key is reported in the error.
func (s *GoalService) Replace(records []model.ImportRecord) (int, error) {
	goals, err := s.stage(records)
	if err != nil {
		return 0, err
	}

	key, err := s.snapshot()
	if err != nil {
		return 0, err
	}

	count, err := s.repo.Replace(goals)
	if err != nil {
		slog.Warn("import failed after snapshot", "snapshot", key, "error", err)
	}
	var conflict *repository.CategoryConflict
	if errors.As(err, &conflict) {
		return 0, &ConflictError{Category: conflict.Category}
	}
	if errors.Is(err, repository.ErrDuplicateID) {
		return 0, NewValidationError(err.Error())
	}
	if err != nil {
		return 0, fmt.Errorf("failed to replace goals (snapshot %s kept): %w", key, err)
	}

	slog.Info("goals replaced by import", "count", count, "snapshot", key)
	return count, nil
}

// ImportCSV replaces every goal with rows parsed from a CSV file. Rows never
// carry ids or timestamps.
func (s *GoalService) ImportCSV(inputs []model.GoalInput) (int, error) {
	records := make([]model.ImportRecord, 0, len(inputs))
	for _, in := range inputs {
		records = append(records, model.ImportRecord{
			Category: in.Category,
			Target:   in.Target,
			Achieved: in.Achieved,
		})
	}
	return s.Replace(records)
}

// stage validates an import batch and turns it into goals ready to insert.
func (s *GoalService) stage(records []model.ImportRecord) ([]*model.Goal, error) {
	now := s.now()
	goals := make([]*model.Goal, 0, len(records))
	categories := make(map[string]bool, len(records))
	ids := make(map[int64]bool, len(records))

	for i, rec := range records {
		if fields := validation.Struct(rec); fields != nil {
			for j := range fields {
				fields[j].Field = fmt.Sprintf("[%d].%s", i, fields[j].Field)
			}
			return nil, NewValidationError(fmt.Sprintf("goal %d: %s", i+1, fields[0].Message), fields...)
		}

		category, err := validation.NormalizeCategory(rec.Category)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("goal %d: %s", i+1, err.Error()))
		}
		if categories[category] {
			return nil, &ConflictError{Category: category}
		}
		categories[category] = true

		goal := &model.Goal{
			Category:  category,
			Target:    *rec.Target,
			Achieved:  valueOr(rec.Achieved, 0),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if rec.ID != nil {
			if *rec.ID <= 0 {
				return nil, NewValidationError(fmt.Sprintf("goal %d: invalid id %d", i+1, *rec.ID))
			}
			if ids[*rec.ID] {
				return nil, NewValidationError(fmt.Sprintf("goal %d: id %d appears more than once", i+1, *rec.ID))
			}
			ids[*rec.ID] = true
			goal.ID = *rec.ID
		}
		if rec.CreatedAt != nil {
			goal.CreatedAt = rec.CreatedAt.UTC()
		}
		if rec.UpdatedAt != nil {
			goal.UpdatedAt = rec.UpdatedAt.UTC()
		}

		goals = append(goals, goal)
	}

	return goals, nil
}

// snapshot saves the current goals and returns the key they were saved under.
func (s *GoalService) snapshot() (string, error) {
	current, err := s.repo.Goals()
	if err != nil {
		return "", fmt.Errorf("failed to read goals for snapshot: %w", err)
	}

	var buf bytes.Buffer
	err = codec.WriteJSON(&buf, current)
	if err != nil {
		return "", err
	}

	key := storage.SnapshotPath(s.now())
	err = s.snapshots.Save(key, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot goals before import: %w", err)
	}

	return key, nil
}

// checkInput validates create/update input and returns the normalized category.
func checkInput(in model.GoalInput) (string, error) {
	if fields := validation.Struct(in); fields != nil {
		return "", NewValidationError(fields[0].Message, fields...)
	}

	category, err := validation.NormalizeCategory(in.Category)
	if err != nil {
		return "", NewValidationError(err.Error(), validation.FieldError{Field: "category", Message: err.Error()})
	}

	return category, nil
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
