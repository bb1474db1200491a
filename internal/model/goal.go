package model

import (
	"time"
)

// Goal is an enrollment target for one category.
type Goal struct {
	ID        int64     `db:"id" json:"id"`
	Category  string    `db:"category" json:"category"`
	Target    int       `db:"target" json:"target"`
	Achieved  int       `db:"achieved" json:"achieved"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// GoalInput is the shape accepted by create, full update and CSV import.
type GoalInput struct {
	Category string `json:"category" validate:"required"`
	Target   *int   `json:"target" validate:"required,min=0"`
	Achieved *int   `json:"achieved" validate:"omitempty,min=0"`
}

// GoalPatch changes target and/or achieved of an existing goal.
type GoalPatch struct {
	ID       int64 `json:"id"`
	Target   *int  `json:"target" validate:"omitempty,min=0"`
	Achieved *int  `json:"achieved" validate:"omitempty,min=0"`
}

// ImportRecord is one element of a JSON import payload.
type ImportRecord struct {
	ID        *int64     `json:"id,omitempty"`
	Category  string     `json:"category" validate:"required"`
	Target    *int       `json:"target" validate:"required,min=0"`
	Achieved  *int       `json:"achieved" validate:"omitempty,min=0"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}
