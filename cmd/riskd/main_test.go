package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/couchcryptid/urban-climate-risk/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"clean shutdown", nil, 0},
		{"configuration abort", fmt.Errorf("load snapshot: %w", domain.ErrConfiguration), 2},
		{"other failure", errors.New("disk full"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
