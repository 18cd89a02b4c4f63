package device

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDevice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Device)
		want   error // nil means valid
	}{
		{"valid unit", func(d *Device) {}, nil},
		{"valid area", func(d *Device) { d.Kind = KindArea }, nil},
		{"nil state ok", func(d *Device) { d.State = nil }, nil},
		{"missing controller", func(d *Device) { d.Controller = "" }, ErrInvalidController},
		{"unknown kind", func(d *Device) { d.Kind = "button" }, ErrInvalidKind},
		{"number zero", func(d *Device) { d.Number = 0 }, ErrInvalidNumber},
		{"number too large", func(d *Device) { d.Number = 70000 }, ErrInvalidNumber},
		{"empty name", func(d *Device) { d.Name = "" }, ErrInvalidName},
		{"name too long", func(d *Device) { d.Name = strings.Repeat("x", 101) }, ErrInvalidName},
		{"mismatched id", func(d *Device) { d.ID = "somewhere/unit/9" }, ErrInvalidDevice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Device{
				Controller: testController,
				Kind:       KindUnit,
				Number:     1,
				Name:       "Porch Light",
				State:      State{"on": false},
			}
			tt.mutate(d)

			err := ValidateDevice(d)
			if tt.want == nil {
				if err != nil {
					t.Errorf("ValidateDevice() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateDevice() = %v, want %v", err, tt.want)
			}
		})
	}

	if err := ValidateDevice(nil); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ValidateDevice(nil) = %v, want ErrInvalidDevice", err)
	}
}

func TestObjectID(t *testing.T) {
	if got := ObjectID(testController, KindZone, 7); got != "192.168.1.50:4369/zone/7" {
		t.Errorf("ObjectID() = %q", got)
	}
}
