package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampMenu(t *testing.T) {
	viewport := Size{Width: 1024, Height: 768}
	menu := Size{Width: 200, Height: 300}

	tests := []struct {
		name   string
		anchor Point
		want   Point
	}{
		{"fits", Point{X: 100, Y: 100}, Point{X: 100, Y: 100}},
		{"overflows right", Point{X: 900, Y: 100}, Point{X: 700, Y: 100}},
		{"overflows bottom", Point{X: 100, Y: 600}, Point{X: 100, Y: 300}},
		{"overflows both", Point{X: 1000, Y: 700}, Point{X: 800, Y: 400}},
		{"touches right edge exactly", Point{X: 824, Y: 0}, Point{X: 824, Y: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampMenu(tt.anchor, menu, viewport))
		})
	}
}
