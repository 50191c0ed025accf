package port

import (
	"context"
	"time"
)

// ImageWatcher ожидание появления свежего снимка в каталоге камеры
type ImageWatcher interface {
	// Clear удаляет файлы прошлых попыток из каталога
	Clear(dir string) error

	// Wait ждёт первый файл, изменённый строго после since.
	// false означает, что снимок не появился за отведённое время.
	Wait(ctx context.Context, dir string, since time.Time, timeout time.Duration) (string, bool)
}
