package imgstage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"bare name", "app", "app"},
		{"two segments without host", "team/app", "team/app"},
		{"dotted host", "registry.example.com/team/app", "team/app"},
		{"host with port", "registry.example.com:5000/team/app", "team/app"},
		{"colon-only host", "registry:5000/app", "app"},
		{"localhost without port", "localhost/app", "localhost/app"},
		{"deep path without host", "a/b/c", "a/b/c"},
		{"empty string", "", ""},
		{"trailing separator", "registry.example.com/", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, NormalizeName(tc.ref))
		})
	}
}
