package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/matzehuels/choropleth/pkg/errors"
)

func TestReportExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"interrupted", fmt.Errorf("render: %w", context.Canceled), exitInterrupted},
		{"bad config", errors.New(errors.ErrCodeInvalidConfig, "classes must be 1..20"), exitInvalid},
		{"bad palette", errors.New(errors.ErrCodeInvalidPalette, "fallback collides"), exitInvalid},
		{"missing file", errors.New(errors.ErrCodeFileNotFound, "nope.json"), exitFailure},
		{"plain error", fmt.Errorf("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := report(tt.err); got != tt.want {
				t.Errorf("report() = %d, want %d", got, tt.want)
			}
		})
	}
}
