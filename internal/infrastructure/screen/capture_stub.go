//go:build !screenshot
// +build !screenshot

package screen

import (
	"errors"
	"image"
)

type Grabber struct{}

// NewGrabber создаёт захватчик-заглушку (без доступа к дисплею).
func NewGrabber() *Grabber {
	return &Grabber{}
}

// Grab возвращает ошибку, если сборка без тега screenshot.
func (g *Grabber) Grab() (image.Image, error) {
	return nil, errors.New("screenshot build tag is not enabled")
}
