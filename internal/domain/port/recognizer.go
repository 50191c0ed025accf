package port

import (
	"context"

	"github.com/gwgplus/nikkle/internal/domain/entity"
)

// Recognizer интерфейс резервного распознавателя. Вызывается только
// когда камера не вернула код или код не совпал с ожидаемым.
type Recognizer interface {
	// Recognize распознаёт текстовые области на снимке
	Recognize(ctx context.Context, imagePath string) (*entity.Recognition, error)
}
