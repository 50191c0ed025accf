package entity

import "time"

// LogRecord запись журнала проверок. Создаётся ровно один раз при
// сохранении завершённой попытки и больше не изменяется.
type LogRecord struct {
	Account           string
	Time              time.Time
	Source            string // ожидаемый код
	OCRResult         string
	OK                bool
	Image             string // путь архивной копии снимка
	Manual            bool   // решение принимал оператор
	Judgment          int
	KeyInResult       string
	Processor         string // имя оператора
	IsExteriorOK      bool
	ExteriorClass     int
	ExteriorErrReason int
}

// NewLogRecord собирает запись журнала из завершённой попытки
func NewLogRecord(a *Attempt, account, processor string, now time.Time, imagePath string) *LogRecord {
	return &LogRecord{
		Account:           account,
		Time:              now,
		Source:            a.ExpectedCode,
		OCRResult:         a.RecognizedText,
		OK:                a.IsCorrect,
		Image:             imagePath,
		Manual:            !a.IsCorrect,
		Judgment:          a.JudgmentCode(),
		KeyInResult:       a.RecognizedText,
		Processor:         processor,
		IsExteriorOK:      a.IsExteriorOK(),
		ExteriorClass:     a.ExteriorClassValue(),
		ExteriorErrReason: int(a.ExteriorNGReason),
	}
}
