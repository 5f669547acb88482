package testdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetTestDatabaseURL(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		alt     string
		want    string
	}{
		{name: "none", want: ""},
		{name: "primary", primary: "postgres://a", want: "postgres://a"},
		{name: "alternative", alt: "postgres://b", want: "postgres://b"},
		{name: "primary wins", primary: "postgres://a", alt: "postgres://b", want: "postgres://a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDatabaseURL, tt.primary)
			t.Setenv(EnvScryTestDBURL, tt.alt)

			assert.Equal(t, tt.want, GetTestDatabaseURL())
			assert.Equal(t, tt.want != "", IsIntegrationTestEnvironment())
			assert.Equal(t, tt.want == "", ShouldSkipDatabaseTest())
		})
	}
}
