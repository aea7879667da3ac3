package notify

import (
	"fmt"
	"strings"

	"alert-monitor/internal/models"
)

// FailureText is sent when every call attempt went unanswered.
const FailureText = "🚨 ТРЕВОГА! Ми намагалися тебе розбудити дзвінками, але не вийшло. Перевір канал сповіщень про ракетну небезпеку!"

// Critical builds the detail message sent before a call campaign.
func Critical(city string, item models.StreamItem, a models.ThreatAssessment) Message {
	var b strings.Builder
	b.WriteString("🚨🚨🚨 КРИТИЧНА ЗАГРОЗА!\n\n")
	writeDetails(&b, city, item, a)
	b.WriteString("⚠️ НЕГАЙНО В УКРИТТЯ!")
	return Message{Level: a.Level, Text: b.String()}
}

// Warning builds the message for orange and purple threats.
func Warning(city string, item models.StreamItem, a models.ThreatAssessment) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "%s УВАГА: Потенційна загроза\n\n", a.Level.Emoji())
	writeDetails(&b, city, item, a)
	b.WriteString("Стеж за оновленнями в каналі!")
	return Message{Level: a.Level, Text: b.String()}
}

// Failure is sent after an unanswered call campaign.
func Failure() Message {
	return Message{Level: models.LevelRed, Text: FailureText}
}

func writeDetails(b *strings.Builder, city string, item models.StreamItem, a models.ThreatAssessment) {
	text := item.Text
	if strings.TrimSpace(text) == "" {
		text = "[пусто]"
	}
	fmt.Fprintf(b, "Рівень: %s\n", a.Level.Description())
	fmt.Fprintf(b, "Місто: %s\n", city)
	fmt.Fprintf(b, "Впевненість: %d%%\n\n", a.Confidence)
	fmt.Fprintf(b, "Причина: %s\n\n", a.Reason)
	fmt.Fprintf(b, "Повідомлення з каналу:\n%s\n\n", text)
}
