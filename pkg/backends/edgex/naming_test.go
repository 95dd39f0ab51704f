package edgex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceName(t *testing.T) {
	tests := []struct {
		path, name, want string
	}{
		{"", "temp_sp", "TempSp"},
		{"motor1", "temp_sp", "MOTOR1_TempSp"},
		{"", "on_off", "OnOff"},
		{"", "velocity", "Velocity"},
		{"pump", "stop", "PUMP_Stop"},
		{"motor1", "ramp_rate_max", "MOTOR1_RampRateMax"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deviceName(tt.path, tt.name), "path=%q name=%q", tt.path, tt.name)
	}
}
