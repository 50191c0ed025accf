package port

import "context"

// CameraSession одна сессия связи с контроллером камеры. Соединение
// живёт в пределах одной попытки и не переиспользуется.
type CameraSession interface {
	// Connect выполняет вход и подаёт команду съёмки
	Connect(ctx context.Context) error

	// RequestCode запрашивает распознанный камерой код.
	// false означает «ответа нет», это мягкий отказ, не ошибка.
	RequestCode(ctx context.Context) (string, bool)

	// Close закрывает соединение; безопасно вызывать повторно
	Close() error
}

// CameraDialer создаёт новую сессию на каждую попытку
type CameraDialer interface {
	Dial() CameraSession
}
