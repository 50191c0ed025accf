package port

import "github.com/gwgplus/nikkle/internal/domain/entity"

// Notifier граница оператора: движок сообщает киоску о ходе проверки.
// Реализация не должна блокировать вызывающий поток.
type Notifier interface {
	// Alert показывает оператору сообщение об ошибке этапа
	Alert(message string)

	// ShowImage показывает полученный с камеры снимок
	ShowImage(path string)

	// OCRResult показывает итоговый распознанный текст
	OCRResult(text string)

	// TestResult сообщает итог сравнения с ожидаемым кодом
	TestResult(correct bool)

	// Counters обновляет суточные счётчики на экране
	Counters(c entity.DailyCounters)
}
