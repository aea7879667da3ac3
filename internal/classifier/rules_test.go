package classifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"alert-monitor/internal/models"
)

func newTestRules() *Rules {
	return NewRules(CityOptions{
		City:        "Дніпро",
		Variants:    []string{"дніпро", "днепр", "днипро", "дніпр", "dnipro"},
		OtherCities: []string{"харків", "запоріжжя", "кам'янське"},
	})
}

func TestRules_Levels(t *testing.T) {
	r := newTestRules()
	tests := []struct {
		text      string
		level     models.ThreatLevel
		call      bool
		message   bool
		mentioned bool
	}{
		{"Дніпро червоний! Всі в укриття", models.LevelRed, true, true, true},
		{"Днепр — красный уровень", models.LevelRed, true, true, true},
		{"Ракета над городом Днепр", models.LevelRed, true, true, true},
		{"Дніпро помаранчевий", models.LevelOrange, false, true, true},
		{"ББ на Дніпро", models.LevelPurple, false, true, true},
		{"Дніпро, фіолетовий", models.LevelPurple, false, true, true},
		{"Балістика в напрямку Дніпра", models.LevelPurple, false, true, true},
		{"Дніпро відбій тривоги", models.LevelNone, false, false, true},
		{"Дніпро: загроза КАБ, слідкуйте", models.LevelYellow, false, false, true},
		{"Тихо у всіх регіонах", models.LevelNone, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := r.Assess(tt.text)
			assert.Equal(t, tt.level, got.Level)
			assert.Equal(t, tt.call, got.NeedCall)
			assert.Equal(t, tt.message, got.NeedMessage)
			assert.Equal(t, tt.mentioned, got.CityMentioned)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestRules_PriorityFirstMatchWins(t *testing.T) {
	r := newTestRules()

	// Red beats orange and stand-down when both appear.
	got := r.Assess("Дніпро червоний, потім помаранчевий, потім відбій")
	assert.Equal(t, models.LevelRed, got.Level)

	got = r.Assess("Дніпро помаранчевий, ББ")
	assert.Equal(t, models.LevelOrange, got.Level)
}

func TestRules_OtherCitySuppression(t *testing.T) {
	r := newTestRules()

	for _, text := range []string{
		"Харків червоний! Ракета над містом",
		"Запоріжжя: балістика, ББ",
		"Кам'янське помаранчевий",
	} {
		got := r.Assess(text)
		assert.Equal(t, models.LevelNone, got.Level, text)
		assert.False(t, got.CityMentioned, text)
		assert.False(t, got.NeedCall, text)
		assert.False(t, got.NeedMessage, text)
		assert.Contains(t, got.Reason, "інше місто", text)
	}

	// The monitored city mentioned alongside another city is still assessed.
	got := r.Assess("Харків і Дніпро червоний")
	assert.Equal(t, models.LevelRed, got.Level)
	assert.True(t, got.CityMentioned)
}

func TestRules_BBIsWholeWord(t *testing.T) {
	r := newTestRules()

	assert.Equal(t, models.LevelPurple, r.Assess("Дніпро бб").Level)
	assert.Equal(t, models.LevelYellow, r.Assess("Дніпро ббс новини").Level)
}

func TestRules_FooterDoesNotChangeVerdict(t *testing.T) {
	r := newTestRules()
	base := "Дніпро помаранчевий, ціль на місто"
	withFooter := base + "\n\n[Дніпро Оперативний] | [Червоний Радар]"

	assert.Equal(t, r.Assess(base), r.Assess(withFooter))

	// Footer alone must not produce a city mention.
	got := r.Assess("Харків тихо\n[Дніпро Оперативний | Радар]")
	assert.Equal(t, models.LevelNone, got.Level)
	assert.False(t, got.CityMentioned)
}

func TestRules_ClassifyIsIndexAligned(t *testing.T) {
	r := newTestRules()
	items := []models.StreamItem{
		{ID: 1, Text: "Дніпро червоний"},
		{ID: 2, Text: "Київ відбій"},
		{ID: 3, Text: "Дніпро помаранчевий"},
	}

	got := r.Classify(context.Background(), items)
	assert.Len(t, got, len(items))
	assert.Equal(t, models.LevelRed, got[0].Level)
	assert.Equal(t, models.LevelNone, got[1].Level)
	assert.Equal(t, models.LevelOrange, got[2].Level)

	assert.Empty(t, r.Classify(context.Background(), nil))
}

func TestRules_CityVariantsMatchByPrefix(t *testing.T) {
	r := newTestRules()

	for _, text := range []string{
		"Дніпропетровщина: червоний рівень",
		"Дніпрорудне червоний",
	} {
		got := r.Assess(text)
		assert.True(t, got.CityMentioned, text)
		assert.Equal(t, models.LevelRed, got.Level, text)
	}

	// Prefix only: the variant must start a word.
	got := r.Assess("Наддніпрянщина червоний")
	assert.False(t, got.CityMentioned)
	assert.Equal(t, models.LevelNone, got.Level)
}
