package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/finance-analytics/internal/config"
)

func TestCheckMode(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		runNow   bool
		wantErr  bool
	}{
		{name: "schedule only", schedule: "0 6 * * *"},
		{name: "run now only", runNow: true},
		{name: "both", schedule: "0 6 * * *", runNow: true},
		{name: "neither", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkMode(&config.Config{ReportSchedule: tt.schedule}, tt.runNow)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
