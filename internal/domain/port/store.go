package port

import (
	"context"

	"github.com/gwgplus/nikkle/internal/domain/entity"
)

// AccountStore интерфейс хранилища учётных записей
type AccountStore interface {
	// Lookup возвращает учётную запись по логину
	Lookup(ctx context.Context, accountID string) (*entity.Account, error)
}

// LogStore интерфейс журнала проверок
type LogStore interface {
	// Append добавляет запись и возвращает её идентификатор
	Append(ctx context.Context, rec *entity.LogRecord) (int64, error)
}
