package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("MEDIASEL_TEST_SIMPLE", "hello")
	t.Setenv("MEDIASEL_TEST_EMPTY", "")
	t.Setenv("MEDIASEL_TEST_SET", "from_env")

	tests := []struct {
		name    string
		in      string
		want    string
		missing []string
	}{
		{"simple", "value = ${MEDIASEL_TEST_SIMPLE}", "value = hello", nil},
		{"missing", "value = ${MEDIASEL_TEST_NONEXISTENT_12345}", "value = ${MEDIASEL_TEST_NONEXISTENT_12345}", []string{"MEDIASEL_TEST_NONEXISTENT_12345"}},
		{"empty is set", "value = '${MEDIASEL_TEST_EMPTY}'", "value = ''", nil},
		{"default on empty", "value = ${MEDIASEL_TEST_EMPTY:-default_value}", "value = default_value", nil},
		{"default overridden", "value = ${MEDIASEL_TEST_SET:-default}", "value = from_env", nil},
		{"required", "value = ${MEDIASEL_TEST_EMPTY:?db path is required}", "value = ${MEDIASEL_TEST_EMPTY:?db path is required}", []string{"MEDIASEL_TEST_EMPTY: db path is required"}},
		{
			"multiple",
			"${MEDIASEL_TEST_SIMPLE} ${MEDIASEL_TEST_NONEXISTENT_2} ${MEDIASEL_TEST_EMPTY:-three}",
			"hello ${MEDIASEL_TEST_NONEXISTENT_2} three",
			[]string{"MEDIASEL_TEST_NONEXISTENT_2"},
		},
		{"not a reference", "value = $HOME", "value = $HOME", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := substituteEnvVars(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.missing, missing)
		})
	}
}
