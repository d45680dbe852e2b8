package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Super Mario World", "super-mario-world"},
		{"  Pokémon: Crystal Version!  ", "pokemon-crystal-version"},
		{"Tony Hawk's Pro Skater 2", "tony-hawk-s-pro-skater-2"},
		{"Ōkami HD", "okami-hd"},
		{"---", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}
