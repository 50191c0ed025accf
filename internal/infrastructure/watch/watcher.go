package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gwgplus/nikkle/internal/domain/port"
)

const defaultPollInterval = 200 * time.Millisecond

var _ port.ImageWatcher = (*Watcher)(nil)

// Watcher ожидание нового снимка в каталоге камеры. Камера пишет файл
// сама; движок лишь опрашивает каталог с фиксированным шагом.
type Watcher struct {
	exts []string // отслеживаемые расширения, в нижнем регистре
	poll time.Duration
}

// New создаёт наблюдатель для заданных расширений (по умолчанию .bmp)
func New(exts ...string) *Watcher {
	if len(exts) == 0 {
		exts = []string{".bmp"}
	}
	lowered := make([]string, len(exts))
	for i, e := range exts {
		lowered[i] = strings.ToLower(e)
	}
	return &Watcher{exts: lowered, poll: defaultPollInterval}
}

// Clear удаляет все обычные файлы каталога. Вызывается перед каждой
// попыткой, чтобы следующий найденный файл гарантированно был свежим.
func (w *Watcher) Clear(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("clear watch dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("clear watch dir: %w", err)
		}
	}
	return nil
}

// Wait опрашивает каталог, пока не появится файл с отслеживаемым
// расширением и временем изменения строго позже since. Возвращается
// первый файл в лексикографическом порядке имён, чтобы выбор при
// почти одновременных файлах был детерминированным. false при
// таймауте или отмене.
func (w *Watcher) Wait(ctx context.Context, dir string, since time.Time, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)

	for {
		if path, ok := w.scan(dir, since); ok {
			return path, true
		}

		if time.Now().After(deadline) {
			log.Printf("watch: no new image in %s within %v", dir, timeout)
			return "", false
		}

		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(w.poll):
		}
	}
}

func (w *Watcher) scan(dir string, since time.Time) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// Каталог может быть временно недоступен, ждём дальше
		return "", false
	}

	// os.ReadDir возвращает имена отсортированными
	for _, e := range entries {
		if e.IsDir() || !w.matchExt(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(since) {
			return filepath.Join(dir, e.Name()), true
		}
	}
	return "", false
}

func (w *Watcher) matchExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range w.exts {
		if ext == e {
			return true
		}
	}
	return false
}
