// Package interpret подставляет заготовленные трактовки для выбранных линз.
// Это статический текст, а не генерация: настоящий источник трактовок подключается снаружи.
package interpret

import (
	"fmt"
	"time"

	"github.com/UkralStul/modora-posts-service/internal/domain"
)

const fallback = "This lens provides a unique perspective on your experience."

var templates = map[domain.Lens]string{
	domain.LensTherapist: "From a therapeutic perspective, this experience reflects common patterns in emotional processing. " +
		"The feelings you're describing suggest a natural response to change and uncertainty. " +
		"Consider exploring what specific aspects trigger the strongest emotions, as this can help identify underlying needs or values that might be seeking attention.",
	domain.LensPhilosophical: "Philosophically, your experience touches on fundamental questions about meaning and identity. " +
		"The ancient Stoics would say that our suffering comes not from events themselves, but from our judgments about them. " +
		"This moment of confusion might be an invitation to examine what assumptions about life or self are being challenged.",
	domain.LensCultural: "From a cultural lens, many societies have rituals and narratives for navigating similar transitions. " +
		"Your experience resonates with universal themes found across cultures - the hero's journey, rites of passage, " +
		"or what anthropologists call 'liminal spaces' - periods between what was and what will be.",
	domain.LensSpiritual: "Spiritually, periods of confusion often precede growth and deeper understanding. " +
		"Many wisdom traditions view such experiences as opportunities for surrender and trust in a larger process. " +
		"Consider whether this experience might be inviting you to release old patterns and remain open to new possibilities.",
	domain.LensSociological: "From a sociological perspective, individual experiences are often shaped by broader social forces and expectations. " +
		"Consider how societal norms, family dynamics, or cultural pressures might be influencing your situation. " +
		"Sometimes what feels like personal confusion reflects larger collective tensions.",
}

// Template возвращает текст трактовки для линзы.
func Template(lens domain.Lens) string {
	if text, ok := templates[lens]; ok {
		return text
	}
	return fallback
}

// For строит по одной трактовке на каждую линзу, в порядке линз.
func For(lenses []domain.Lens, now time.Time) []domain.Interpretation {
	result := make([]domain.Interpretation, 0, len(lenses))
	for i, lens := range lenses {
		result = append(result, domain.Interpretation{
			ID:        fmt.Sprintf("interp_%d", i),
			Lens:      lens,
			Content:   Template(lens),
			CreatedAt: domain.NewTimestamp(now),
		})
	}
	return result
}
