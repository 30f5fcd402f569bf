package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/clinicdesk/internal/domain/entities"
	apperrors "github.com/zatekoja/clinicdesk/pkg/errors"
)

func TestParseLineItem(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    entities.LineItem
		wantErr string
	}{
		{
			name: "full item",
			raw:  "desc=Consultation, price=500, qty=2, discount=50, tax=18, type=consultation",
			want: entities.LineItem{
				Description: "Consultation",
				UnitPrice:   500,
				Quantity:    2,
				Discount:    50,
				TaxRate:     18,
				ItemType:    "consultation",
			},
		},
		{
			name: "long field names",
			raw:  "description=X-ray,price=1200,quantity=1",
			want: entities.LineItem{Description: "X-ray", UnitPrice: 1200, Quantity: 1},
		},
		{name: "missing equals", raw: "desc=X,price", wantErr: "expected key=value"},
		{name: "unknown field", raw: "desc=X,color=red", wantErr: `unknown field "color"`},
		{name: "bad number", raw: "desc=X,price=abc", wantErr: "price is not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLineItem(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "regular", orDefault("", "regular"))
	assert.Equal(t, "priority", orDefault("priority", "regular"))
	assert.Equal(t, 30, orDefault(0, 30))
}
