package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripFooter(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no footer", "Дніпро червоний", "Дніпро червоний"},
		{"separate tokens", "Дніпро червоний\n\n[Канал 1] | [Канал 2]", "Дніпро червоний"},
		{"single bracket with pipe", "Дніпро червоний\n[Name1 | Name2]", "Дніпро червоний"},
		{"markdown links", "Увага\n[Радар](https://t.me/radar) | [Моніторинг](https://t.me/mon)", "Увага"},
		{"same line", "Дніпро помаранчевий [A] | [B]", "Дніпро помаранчевий"},
		{"stacked footers", "текст\n[A] | [B]\n[C | D]\n", "текст"},
		{"lone bracket kept", "Дніпро [оновлено]", "Дніпро [оновлено]"},
		{"brackets mid text kept", "[A] | [B] Дніпро червоний", "[A] | [B] Дніпро червоний"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFooter(tt.in))
		})
	}
}
