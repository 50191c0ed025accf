package archive

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gwgplus/nikkle/internal/domain/port"
)

const (
	// screenCategory каталог снимков экрана внутри архива
	screenCategory = "screen-capture"

	// maxCollisionRetries предел подбора суффикса имени файла
	maxCollisionRetries = 1000

	jpegQuality = 95
)

var _ port.ImageArchive = (*Manager)(nil)

// Manager архивация снимков по категориям. Структура каталогов:
// {root}/{категория}/{ггмм}/{ггммдд}/{код}_{ггммдд}_{ччммсс}_{метка}.jpg
type Manager struct {
	targetDir string
	backupDir string // пустая строка отключает резервные копии
	grabber   port.ScreenGrabber
}

// New создаёт менеджер архива
func New(targetDir, backupDir string, grabber port.ScreenGrabber) *Manager {
	return &Manager{targetDir: targetDir, backupDir: backupDir, grabber: grabber}
}

// PersistImage копирует снимок в архив и возвращает путь копии.
// Для категории Err дополнительно кладёт копию в резервный каталог;
// ошибка резервной копии логируется и не срывает основное сохранение.
func (m *Manager) PersistImage(sourcePath, code, category, keyword string, now time.Time) (string, error) {
	if sourcePath == "" {
		return "", fmt.Errorf("persist image: empty source path")
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("persist image: %w", err)
	}

	dayDir, err := m.ensureDayDir(m.targetDir, category, now)
	if err != nil {
		return "", fmt.Errorf("persist image: %w", err)
	}

	destPath, filename, err := nextFreeName(dayDir, code, keyword, now)
	if err != nil {
		return "", fmt.Errorf("persist image: %w", err)
	}

	if err := copyFile(sourcePath, destPath); err != nil {
		return "", fmt.Errorf("persist image: %w", err)
	}

	if category == "Err" && m.backupDir != "" {
		if err := m.backupCopy(sourcePath, category, filename, now); err != nil {
			log.Printf("archive: backup copy failed: %v", err)
		}
	}

	return destPath, nil
}

// CaptureScreen сохраняет снимок экрана в архив. При недоступном
// захвате пишется заглушка с текстом: конвейер журналирования всегда
// завершается файлом, пусть и ценой потери содержимого.
func (m *Manager) CaptureScreen(code, keyword string, now time.Time) (string, error) {
	dayDir, err := m.ensureDayDir(m.targetDir, screenCategory, now)
	if err != nil {
		return "", fmt.Errorf("capture screen: %w", err)
	}

	destPath, _, err := nextFreeName(dayDir, code, keyword, now)
	if err != nil {
		return "", fmt.Errorf("capture screen: %w", err)
	}

	var img image.Image
	if m.grabber != nil {
		img, err = m.grabber.Grab()
	} else {
		err = fmt.Errorf("screen grabber is not configured")
	}
	if err != nil {
		log.Printf("archive: screen capture failed, writing placeholder: %v", err)
		img = placeholderImage("screen capture unavailable: " + keyword)
	}

	if err := writeJPEG(destPath, img); err != nil {
		return "", fmt.Errorf("capture screen: %w", err)
	}
	return destPath, nil
}

// ensureDayDir создаёт каталог {root}/{category}/{ггмм}/{ггммдд}
func (m *Manager) ensureDayDir(root, category string, now time.Time) (string, error) {
	dayDir := filepath.Join(root, category, now.Format("0601"), now.Format("060102"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", err
	}
	return dayDir, nil
}

func (m *Manager) backupCopy(sourcePath, category, filename string, now time.Time) error {
	if _, err := os.Stat(m.backupDir); err != nil {
		return err
	}
	dayDir, err := m.ensureDayDir(m.backupDir, category, now)
	if err != nil {
		return err
	}
	return copyFile(sourcePath, filepath.Join(dayDir, filename))
}

// nextFreeName подбирает свободное имя файла. При коллизии к коду
// добавляется суффикс -{n}, n растёт с 2. Подбор ограничен, чтобы
// повреждённый каталог не зациклил сохранение.
func nextFreeName(dayDir, code, keyword string, now time.Time) (string, string, error) {
	stamp := now.Format("060102") + "_" + now.Format("150405")

	filename := fmt.Sprintf("%s_%s_%s.jpg", code, stamp, keyword)
	path := filepath.Join(dayDir, filename)
	index := 2

	for fileExists(path) {
		if index >= 2+maxCollisionRetries {
			return "", "", fmt.Errorf("no free filename for %s after %d tries", filename, maxCollisionRetries)
		}
		filename = fmt.Sprintf("%s-%d_%s_%s.jpg", code, index, stamp, keyword)
		path = filepath.Join(dayDir, filename)
		index++
	}

	return path, filename, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// placeholderImage серая заглушка с поясняющей надписью
func placeholderImage(text string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 640, 360))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.RGBA{R: 64, G: 64, B: 64, A: 255}}, image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(16, 180),
	}
	d.DrawString(text)

	return img
}

func writeJPEG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return err
	}
	return out.Sync()
}
