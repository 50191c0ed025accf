package container

import (
	"time"

	app "github.com/gwgplus/nikkle/internal/application"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

type Container struct {
	InspectionService *app.InspectionService
	AuthService       *app.AuthService
}

func New(
	dialer port.CameraDialer,
	watcher port.ImageWatcher,
	recognizer port.Recognizer,
	archive port.ImageArchive,
	accounts port.AccountStore,
	logs port.LogStore,
	watchDir string,
	imageTimeout, ocrTimeout time.Duration,
) *Container {
	inspectionService := app.NewInspectionService(
		dialer, watcher, recognizer, archive, logs, watchDir, imageTimeout, ocrTimeout)
	authService := app.NewAuthService(accounts)

	return &Container{
		InspectionService: inspectionService,
		AuthService:       authService,
	}
}
