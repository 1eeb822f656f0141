package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSearchOptions_Validate tests the accepted ranges of query options
func TestSearchOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    SearchOptions
		wantErr bool
	}{
		{"defaults", SearchOptions{TopK: DefaultTopK, Alpha: DefaultAlpha}, false},
		{"zero top k", SearchOptions{TopK: 0, Alpha: 0.5}, false},
		{"pure lexical", SearchOptions{TopK: 3, Alpha: 0}, false},
		{"pure vector", SearchOptions{TopK: 3, Alpha: 1}, false},
		{"negative top k", SearchOptions{TopK: -1, Alpha: 0.5}, true},
		{"alpha below range", SearchOptions{TopK: 3, Alpha: -0.01}, true},
		{"alpha above range", SearchOptions{TopK: 3, Alpha: 1.5}, true},
		{"alpha NaN", SearchOptions{TopK: 3, Alpha: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestEngineState_String tests all state names
func TestEngineState_String(t *testing.T) {
	tests := []struct {
		state    EngineState
		expected string
	}{
		{StateUninitialized, "uninitialized"},
		{StateBuilding, "building"},
		{StateReady, "ready"},
		{StateFailed, "failed"},
		{EngineState(99), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
		})
	}
}
