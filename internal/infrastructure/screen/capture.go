//go:build screenshot
// +build screenshot

package screen

import (
	"errors"
	"image"

	"github.com/kbinani/screenshot"
)

type Grabber struct{}

// NewGrabber создаёт захватчик основного экрана киоска.
func NewGrabber() *Grabber {
	return &Grabber{}
}

// Grab снимает содержимое первого дисплея.
func (g *Grabber) Grab() (image.Image, error) {
	if screenshot.NumActiveDisplays() < 1 {
		return nil, errors.New("no active displays")
	}
	img, err := screenshot.CaptureDisplay(0)
	if err != nil {
		return nil, err
	}
	return img, nil
}
