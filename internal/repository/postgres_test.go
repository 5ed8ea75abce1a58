package repository

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_number_key"}

	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{"matching constraint", uniqueErr, "orders_number_key", true},
		{"any constraint", uniqueErr, "", true},
		{"different constraint", uniqueErr, "reviews_user_id_product_id_key", false},
		{"wrapped", errors.Wrap(uniqueErr, "insert order"), "orders_number_key", true},
		{"other pg error", &pgconn.PgError{Code: "23503"}, "", false},
		{"plain error", errors.New("broken pipe"), "", false},
		{"nil", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err, tt.constraint))
		})
	}
}
