package types_test

import (
	"testing"

	"github.com/secmon-lab/entelligence/pkg/domain/types"
)

func TestTeamID_Validate(t *testing.T) {
	tests := []struct {
		name    string
		id      types.TeamID
		wantErr bool
	}{
		{"valid lowercase", "maintenance", false},
		{"valid with hyphen", "night-shift", false},
		{"valid with numbers", "line-2", false},
		{"empty", "", true},
		{"uppercase", "Night-Shift", true},
		{"underscore", "night_shift", true},
		{"double hyphen", "night--shift", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.id.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("TeamID.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
