package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

var userRowColumns = []string{
	"id", "email", "provider_id", "full_name", "niche", "subscription_tier",
	"posts_generated_this_month", "posts_limit", "stripe_customer_id", "created_at", "updated_at",
}

func TestUserRepository_ConsumeGeneration(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name       string
		setup      func(mock sqlmock.Sqlmock)
		wantUsed   int
		wantErr    error
		wantNoRows bool
	}{
		{
			name: "reserves a generation",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE users\s+SET posts_generated_this_month = posts_generated_this_month \+ 1`).
					WithArgs(userID).
					WillReturnRows(sqlmock.NewRows(userRowColumns).
						AddRow(userID.String(), "a@example.com", nil, nil, nil, "free", 3, 5, nil, now, now))
			},
			wantUsed: 3,
		},
		{
			name: "quota exhausted",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE users`).WithArgs(userID).WillReturnRows(sqlmock.NewRows(userRowColumns))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs(userID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			wantErr: ErrQuotaExhausted,
		},
		{
			name: "user missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`UPDATE users`).WithArgs(userID).WillReturnRows(sqlmock.NewRows(userRowColumns))
				mock.ExpectQuery(`SELECT EXISTS`).WithArgs(userID).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantNoRows: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			tt.setup(mock)

			user, err := NewUserRepository(db).ConsumeGeneration(context.Background(), userID)

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
			case tt.wantNoRows:
				if !errors.Is(err, sql.ErrNoRows) {
					t.Fatalf("Expected sql.ErrNoRows, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if user.PostsGeneratedThisMonth != tt.wantUsed {
					t.Errorf("Expected %d posts used, got %d", tt.wantUsed, user.PostsGeneratedThisMonth)
				}
			}
			expectationsMet(t, mock)
		})
	}
}

func TestUserRepository_ReleaseGeneration(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userID := uuid.New()
	mock.ExpectExec(`GREATEST\(posts_generated_this_month - 1, 0\)`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewUserRepository(db).ReleaseGeneration(context.Background(), userID); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_SetStripeCustomerID_NotFound(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	userID := uuid.New()
	mock.ExpectExec(`UPDATE users SET stripe_customer_id`).
		WithArgs(userID, "cus_123").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewUserRepository(db).SetStripeCustomerID(context.Background(), userID, "cus_123")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("Expected sql.ErrNoRows, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestUserRepository_ResetMonthlyUsage(t *testing.T) {
	t.Parallel()

	db, mock := newMockDB(t)
	mock.ExpectExec(`UPDATE users SET posts_generated_this_month = 0`).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := NewUserRepository(db).ResetMonthlyUsage(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("Expected 12 rows reset, got %d", n)
	}
	expectationsMet(t, mock)
}
