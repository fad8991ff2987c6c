package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/taskdeck/taskdeck-go/internal/model"
)

func setupTaskMock(t *testing.T) (*TaskRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTaskRepository(db), mock
}

func taskRows(tasks ...model.Task) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "user_id", "title", "description", "status", "priority", "created_at", "updated_at"})
	for _, task := range tasks {
		rows.AddRow(task.ID, task.UserID, task.Title, task.Description, task.Status, task.Priority, task.CreatedAt, task.UpdatedAt)
	}
	return rows
}

func TestTaskCreate_Success(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO tasks (user_id, title, description, status, priority) VALUES (?, ?, ?, ?, ?)`)).
		WithArgs(int64(1), "Buy milk", "Two liters", "pending", "medium").
		WillReturnResult(sqlmock.NewResult(5, 1))

	task := &model.Task{UserID: 1, Title: "Buy milk", Description: "Two liters", Status: "pending", Priority: "medium"}
	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.ID != 5 {
		t.Errorf("expected ID 5, got %d", task.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTaskGetByID_Found(t *testing.T) {
	repo, mock := setupTaskMock(t)

	now := time.Now()
	want := model.Task{ID: 5, UserID: 2, Title: "Buy milk", Description: "Two liters", Status: "pending", Priority: "high", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = ?`)).
		WithArgs(int64(5)).
		WillReturnRows(taskRows(want))

	got, err := repo.GetByID(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != want.ID || got.UserID != want.UserID || got.Title != want.Title {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestTaskGetByID_NotFound(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE id = ?`)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskListByUser_NoFilter(t *testing.T) {
	repo, mock := setupTaskMock(t)

	now := time.Now()
	newer := model.Task{ID: 2, UserID: 1, Title: "Newer", Description: "d", Status: "pending", Priority: "low", CreatedAt: now, UpdatedAt: now}
	older := model.Task{ID: 1, UserID: 1, Title: "Older", Description: "d", Status: "completed", Priority: "low", CreatedAt: now.Add(-time.Hour), UpdatedAt: now}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE user_id = ? ORDER BY created_at DESC, id DESC`)).
		WithArgs(int64(1)).
		WillReturnRows(taskRows(newer, older))

	tasks, err := repo.ListByUser(context.Background(), 1, model.TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != 2 || tasks[1].ID != 1 {
		t.Errorf("expected newest-first order [2 1], got [%d %d]", tasks[0].ID, tasks[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTaskListByUser_AllFilters(t *testing.T) {
	repo, mock := setupTaskMock(t)

	now := time.Now()
	match := model.Task{ID: 3, UserID: 1, Title: "Foo report", Description: "d", Status: "completed", Priority: "high", CreatedAt: now, UpdatedAt: now}

	// Owner predicate always comes first; the search term is lowercased for
	// the case-insensitive match.
	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE user_id = ? AND (LOWER(title) LIKE ? OR LOWER(description) LIKE ?) AND status = ? AND priority = ? ORDER BY created_at DESC, id DESC`)).
		WithArgs(int64(1), "%foo%", "%foo%", "completed", "high").
		WillReturnRows(taskRows(match))

	tasks, err := repo.ListByUser(context.Background(), 1, model.TaskFilter{
		Search:   "Foo",
		Status:   "completed",
		Priority: "high",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 3 {
		t.Errorf("expected [3], got %+v", tasks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTaskListByUser_Empty(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tasks WHERE user_id = ?`)).
		WithArgs(int64(2)).
		WillReturnRows(taskRows())

	tasks, err := repo.ListByUser(context.Background(), 2, model.TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks, got %d", len(tasks))
	}
}

func TestTaskUpdate_Success(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?
		WHERE id = ? AND user_id = ?`)).
		WithArgs("New title", "New desc", "in-progress", "high", int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	task := &model.Task{ID: 5, UserID: 1, Title: "New title", Description: "New desc", Status: "in-progress", Priority: "high"}
	if err := repo.Update(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestTaskUpdate_GoneConcurrently(t *testing.T) {
	repo, mock := setupTaskMock(t)

	// Zero affected rows and the existence probe comes back empty: the task
	// was deleted between the ownership check and the write.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WithArgs("Title", "Desc", "pending", "low", int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ? AND user_id = ?)`)).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	task := &model.Task{ID: 5, UserID: 1, Title: "Title", Description: "Desc", Status: "pending", Priority: "low"}
	err := repo.Update(context.Background(), task)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskUpdate_NoopUpdateIsNotAnError(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE tasks SET`)).
		WithArgs("Title", "Desc", "pending", "low", int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM tasks WHERE id = ? AND user_id = ?)`)).
		WithArgs(int64(5), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	task := &model.Task{ID: 5, UserID: 1, Title: "Title", Description: "Desc", Status: "pending", Priority: "low"}
	if err := repo.Update(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskDelete_Success(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)).
		WithArgs(int64(5), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 1, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskDelete_NotOwnedOrMissing(t *testing.T) {
	repo, mock := setupTaskMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM tasks WHERE id = ? AND user_id = ?`)).
		WithArgs(int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 2, 5)
	if !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}
