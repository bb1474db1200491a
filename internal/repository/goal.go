package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/educacao-adventista/matriculometro/internal/model"
)

var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrDuplicateID       = errors.New("goal id already exists")
)

// CategoryConflict names the category that broke uniqueness during Replace.
type CategoryConflict struct {
	Category string
}

func (e *CategoryConflict) Error() string {
	return fmt.Sprintf("%s: %s", ErrDuplicateCategory, e.Category)
}

func (e *CategoryConflict) Unwrap() error {
	return ErrDuplicateCategory
}

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(id int64) (*model.Goal, error)
	Goals() ([]*model.Goal, error)
	Update(goal *model.Goal) error
	Delete(id int64) error
	Replace(goals []*model.Goal) (int, error)
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

// isUniqueViolation works for both SQLite and PostgreSQL
func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}

// uniqueError tells a category clash from a primary key clash. SQLite names
// the column ("goals.category"), PostgreSQL the constraint ("goals_category_key").
func uniqueError(err error) error {
	errStr := err.Error()
	if strings.Contains(errStr, "goals.category") || strings.Contains(errStr, "goals_category_key") {
		return ErrDuplicateCategory
	}
	return ErrDuplicateID
}

func (r *goalRepository) Create(goal *model.Goal) error {
	query := `INSERT INTO goals (category, target, achieved, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err := r.db.QueryRow(query,
		goal.Category,
		goal.Target,
		goal.Achieved,
		goal.CreatedAt,
		goal.UpdatedAt,
	).Scan(&goal.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueError(err)
		}
		return err
	}

	return nil
}

func (r *goalRepository) ByID(id int64) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := r.db.Get(goal, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals() ([]*model.Goal, error) {
	goals := []*model.Goal{}
	query := `SELECT * FROM goals ORDER BY category ASC`

	err := r.db.Select(&goals, query)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Update(goal *model.Goal) error {
	query := `UPDATE goals
	          SET category = $1, target = $2, achieved = $3, updated_at = $4
	          WHERE id = $5`

	result, err := r.db.Exec(query,
		goal.Category,
		goal.Target,
		goal.Achieved,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uniqueError(err)
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

func (r *goalRepository) Delete(id int64) error {
	query := `DELETE FROM goals WHERE id = $1`
	result, err := r.db.Exec(query, id)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrGoalNotFound
	}

	return nil
}

// Replace deletes every goal and inserts the given set in one transaction.
// Goals with a non-zero ID keep it and are inserted first, so the ones
// without an ID are numbered after them.
func (r *goalRepository) Replace(goals []*model.Goal) (int, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`DELETE FROM goals`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear goals: %w", err)
	}

	withID := `INSERT INTO goals (id, category, target, achieved, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6)`
	withoutID := `INSERT INTO goals (category, target, achieved, created_at, updated_at)
	              VALUES ($1, $2, $3, $4, $5)
	              RETURNING id`

	for _, g := range goals {
		if g.ID == 0 {
			continue
		}
		_, err = tx.Exec(withID, g.ID, g.Category, g.Target, g.Achieved, g.CreatedAt, g.UpdatedAt)
		if err != nil {
			return 0, insertError(g, err)
		}
	}

	// SQLite AUTOINCREMENT already continues after the largest id; the
	// postgres sequence has to be moved past the explicit ones.
	if r.db.DriverName() == "pgx" {
		_, err = tx.Exec(`SELECT setval(pg_get_serial_sequence('goals', 'id'), COALESCE((SELECT MAX(id) FROM goals), 0) + 1, false)`)
		if err != nil {
			return 0, fmt.Errorf("failed to reset goal id sequence: %w", err)
		}
	}

	for _, g := range goals {
		if g.ID != 0 {
			continue
		}
		err = tx.QueryRow(withoutID, g.Category, g.Target, g.Achieved, g.CreatedAt, g.UpdatedAt).Scan(&g.ID)
		if err != nil {
			return 0, insertError(g, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return 0, err
	}

	return len(goals), nil
}

func insertError(g *model.Goal, err error) error {
	if !isUniqueViolation(err) {
		return fmt.Errorf("failed to insert goal %q: %w", g.Category, err)
	}
	uerr := uniqueError(err)
	if errors.Is(uerr, ErrDuplicateID) {
		return fmt.Errorf("%w: %d", uerr, g.ID)
	}
	return &CategoryConflict{Category: g.Category}
}
