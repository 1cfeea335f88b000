package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TWRT/taskflow/internal/models"
	"github.com/google/uuid"
)

const taskColumns = `id, owner_id, title, description, due_date, priority, status,
        calendar_event_url, drive_file_url, created_at, updated_at`

// sortColumns whitelists the ORDER BY expressions the list view may ask for.
var sortColumns = map[string]string{
	"":          "created_at",
	"createdAt": "created_at",
	"title":     "title COLLATE NOCASE",
	"status":    "CASE status WHEN 'todo' THEN 0 WHEN 'in-progress' THEN 1 ELSE 2 END",
	"priority":  "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
	"dueDate":   "due_date",
}

type TaskRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

func (r *TaskRepository) Create(ctx context.Context, ownerID string, n models.NewTask) (models.Task, error) {
	n.Normalize()
	if err := n.Validate(); err != nil {
		return models.Task{}, err
	}

	now := r.now().UTC()
	task := models.Task{
		ID:               uuid.NewString(),
		OwnerID:          ownerID,
		Title:            n.Title,
		Description:      n.Description,
		DueDate:          n.DueDate,
		Priority:         n.Priority,
		Status:           models.StatusTodo,
		CalendarEventURL: n.CalendarEventURL,
		DriveFileURL:     n.DriveFileURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	query := `
	INSERT INTO tasks (` + taskColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.CalendarEventURL,
		task.DriveFileURL,
		task.CreatedAt.UnixNano(),
		task.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("create task: %w: %w", ErrStoreWrite, err)
	}

	return task, nil
}

func (r *TaskRepository) Get(ctx context.Context, ownerID, id string) (models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return task, nil
}

func (r *TaskRepository) List(ctx context.Context, ownerID string, filter models.TaskFilter) ([]models.Task, error) {
	order, ok := sortColumns[filter.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort key %q", models.ErrInvalidTask, filter.SortBy)
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	orderBy := order + " " + direction
	if filter.SortBy == "dueDate" {
		// undated tasks always sort last
		orderBy = "due_date = '' ASC, " + orderBy
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = ?`
	args := []any{ownerID}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY ` + orderBy + `, created_at, rowid`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// FindByTitle returns the oldest task whose title matches case-insensitively.
func (r *TaskRepository) FindByTitle(ctx context.Context, ownerID, title string) (models.Task, bool, error) {
	query := `
	SELECT ` + taskColumns + ` FROM tasks
        WHERE owner_id = ? AND lower(title) = lower(?)
        ORDER BY created_at, rowid LIMIT 1
	`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, ownerID, strings.TrimSpace(title)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, false, nil
	}
	if err != nil {
		return models.Task{}, false, fmt.Errorf("find task by title: %w", err)
	}
	return task, true, nil
}

func (r *TaskRepository) Update(ctx context.Context, ownerID, id string, patch models.TaskPatch) (models.Task, error) {
	if err := patch.Validate(); err != nil {
		return models.Task{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w: %w", ErrStoreWrite, err)
	}
	defer tx.Rollback()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND owner_id = ?`
	task, err := scanTask(tx.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, ErrTaskNotFound
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w", err)
	}

	patch.Apply(&task)
	task.UpdatedAt = r.now().UTC()

	update := `
	UPDATE tasks SET title = ?, description = ?, due_date = ?, priority = ?, status = ?,
        calendar_event_url = ?, drive_file_url = ?, updated_at = ?
        WHERE id = ? AND owner_id = ?
	`
	_, err = tx.ExecContext(ctx, update,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
		task.CalendarEventURL,
		task.DriveFileURL,
		task.UpdatedAt.UnixNano(),
		id,
		ownerID,
	)
	if err != nil {
		return models.Task{}, fmt.Errorf("update task: %w: %w", ErrStoreWrite, err)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("update task: %w: %w", ErrStoreWrite, err)
	}
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete task: %w: %w", ErrStoreWrite, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w: %w", ErrStoreWrite, err)
	}
	if n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var t models.Task
	var createdAt, updatedAt int64
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.CalendarEventURL,
		&t.DriveFileURL,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	t.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return t, nil
}
