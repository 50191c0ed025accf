package port

import "image"

// ScreenGrabber захват экрана киоска для снимков неудачных проверок
type ScreenGrabber interface {
	// Grab возвращает снимок основного экрана
	Grab() (image.Image, error)
}
