package port

import "time"

// ImageArchive долговременное хранение снимков по итогам проверок
type ImageArchive interface {
	// PersistImage копирует снимок в архив и возвращает путь копии
	PersistImage(sourcePath, code, category, keyword string, now time.Time) (string, error)

	// CaptureScreen сохраняет снимок экрана киоска в архив
	CaptureScreen(code, keyword string, now time.Time) (string, error)
}
