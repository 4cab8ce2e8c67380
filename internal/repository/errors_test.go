package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset by peer")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"wrapped record not found", fmt.Errorf("first: %w", gorm.ErrRecordNotFound), ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "idx_products_owner_sku"}, ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: "23503", ConstraintName: "fk_products_category"}, ErrForeignKey},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "chk_products_price"}, ErrCheckViolation},
		{"other sqlstate", &pgconn.PgError{Code: "40001"}, nil},
		{"unrelated", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.in)
			switch {
			case tt.in == nil:
				assert.NoError(t, got)
			case tt.want == nil:
				assert.Same(t, tt.in, got)
			default:
				assert.ErrorIs(t, got, tt.want)
			}
		})
	}
}

func TestTranslateKeepsConstraintName(t *testing.T) {
	err := translate(&pgconn.PgError{Code: "23505", ConstraintName: "idx_categories_owner_name"})
	assert.Contains(t, err.Error(), "idx_categories_owner_name")
}
