package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string returns DESC", "", "DESC"},
		{"asc lowercase returns ASC", "asc", "ASC"},
		{"desc returns DESC", "desc", "DESC"},
		{"invalid value returns DESC", "sideways", "DESC"},
		{"whitespace around ASC returns ASC", "  asc  ", "ASC"},
		{"injection attempt returns DESC", "ASC; DROP TABLE invoices;--", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		allowed      map[string]bool
		defaultField string
		expected     string
	}{
		{"empty string returns default", "", ClientSortFields, "name", "name"},
		{"valid client field", "company", ClientSortFields, "name", "company"},
		{"valid invoice field", "due_date", InvoiceSortFields, "created_at", "due_date"},
		{"field of another table returns default", "due_date", ClientSortFields, "name", "name"},
		{"case sensitive", "TOTAL", InvoiceSortFields, "created_at", "created_at"},
		{"whitespace around valid field", "  total ", InvoiceSortFields, "created_at", "total"},
		{"subquery injection returns default", "total, (SELECT email FROM users)", InvoiceSortFields, "created_at", "created_at"},
		{"comment injection returns default", "name'--", ClientSortFields, "name", "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortField(tt.input, tt.allowed, tt.defaultField))
		})
	}
}

func TestSortFieldsWhitelists(t *testing.T) {
	for name, whitelist := range map[string]map[string]bool{
		"ClientSortFields":  ClientSortFields,
		"InvoiceSortFields": InvoiceSortFields,
	} {
		assert.True(t, whitelist["created_at"], "%s should contain created_at", name)
		assert.True(t, whitelist["updated_at"], "%s should contain updated_at", name)
	}
}
