package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

var (
	// ErrBusy проверка уже выполняется
	ErrBusy = errors.New("test is already running")

	// ErrCodesMismatch два скана ожидаемого кода не совпали
	ErrCodesMismatch = errors.New("scanned codes do not match")

	// ErrNoAttempt нет незавершённой попытки
	ErrNoAttempt = errors.New("no pending attempt")

	// ErrImageTimeout камера не записала снимок за отведённое время
	ErrImageTimeout = errors.New("camera image timed out")

	// ErrOCRUnavailable текст не получен ни от камеры, ни от
	// резервного распознавателя
	ErrOCRUnavailable = errors.New("ocr text is unavailable")
)

// InspectionService сценарий одной проверки: съёмка, сверка кода,
// ручное решение оператора и сохранение итога в журнал и архив.
type InspectionService struct {
	dialer     port.CameraDialer
	watcher    port.ImageWatcher
	recognizer port.Recognizer
	archive    port.ImageArchive
	logs       port.LogStore

	watchDir     string
	imageTimeout time.Duration
	ocrTimeout   time.Duration

	busy atomic.Bool
	now  func() time.Time

	mu       sync.Mutex
	notifier port.Notifier
	attempt  *entity.Attempt
	counters entity.DailyCounters
	operator *entity.Account
}

// TestOutcome итог автоматической части проверки
type TestOutcome struct {
	Correct        bool
	RecognizedText string
	ImagePath      string
}

// Info текущее состояние для панели оператора
type Info struct {
	ExpectedCode   string
	RecognizedText string
	Operator       string
	Counters       entity.DailyCounters
}

// NewInspectionService создаёт сервис проверки.
func NewInspectionService(
	dialer port.CameraDialer,
	watcher port.ImageWatcher,
	recognizer port.Recognizer,
	archive port.ImageArchive,
	logs port.LogStore,
	watchDir string,
	imageTimeout, ocrTimeout time.Duration,
) *InspectionService {
	return &InspectionService{
		dialer:       dialer,
		watcher:      watcher,
		recognizer:   recognizer,
		archive:      archive,
		logs:         logs,
		watchDir:     watchDir,
		imageTimeout: imageTimeout,
		ocrTimeout:   ocrTimeout,
		now:          time.Now,
	}
}

// SetNotifier подключает границу оператора. Вызывается один раз при
// сборке приложения, до первых проверок.
func (s *InspectionService) SetNotifier(n port.Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// SetOperator назначает текущего оператора киоска.
func (s *InspectionService) SetOperator(a *entity.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = a
}

// Counters возвращает суточные счётчики.
func (s *InspectionService) Counters() entity.DailyCounters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// CurrentInfo возвращает срез состояния для панели оператора.
func (s *InspectionService) CurrentInfo() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{Counters: s.counters}
	if s.attempt != nil {
		info.ExpectedCode = s.attempt.ExpectedCode
		info.RecognizedText = s.attempt.RecognizedText
	}
	if s.operator != nil {
		info.Operator = s.operator.Name
	}
	return info
}

// StartTest выполняет автоматическую часть проверки. Код сканируется
// дважды; несовпадение сканов отклоняется до любых обращений к камере.
// Повторный вызов во время работающей проверки отклоняется сразу.
func (s *InspectionService) StartTest(ctx context.Context, code1, code2 string) (*TestOutcome, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.busy.Store(false)

	code1 = strings.TrimSpace(code1)
	code2 = strings.TrimSpace(code2)
	if code1 == "" {
		return nil, fmt.Errorf("start test: empty expected code")
	}
	if code2 != "" && code1 != code2 {
		// Несовпадение сканов засчитывается в суточный итог как NG
		s.mu.Lock()
		s.counters = s.counters.Add(false, s.now())
		counters := s.counters
		s.mu.Unlock()
		s.countersChanged(counters)
		return nil, ErrCodesMismatch
	}

	if err := s.watcher.Clear(s.watchDir); err != nil {
		return nil, fmt.Errorf("start test: %w", err)
	}
	since := s.now()

	session := s.dialer.Dial()
	defer session.Close()

	stageStart := s.now()
	if err := session.Connect(ctx); err != nil {
		s.alert(err.Error())
		return nil, fmt.Errorf("start test: %w", err)
	}
	connectMS := s.now().Sub(stageStart).Milliseconds()

	stageStart = s.now()
	imagePath, ok := s.watcher.Wait(ctx, s.watchDir, since, s.imageTimeout)
	if !ok {
		s.alert("Camera image did not arrive in time")
		return nil, ErrImageTimeout
	}
	imageMS := s.now().Sub(stageStart).Milliseconds()
	s.showImage(imagePath)

	stageStart = s.now()
	recognized, got := session.RequestCode(ctx)
	recognized = strings.TrimSpace(recognized)
	cameraMS := s.now().Sub(stageStart).Milliseconds()

	// Резервное распознавание нужно, когда камера промолчала или
	// её код не совпал с ожидаемым.
	var fallbackMS int64
	if !got || recognized != code1 {
		stageStart = s.now()
		if text, err := s.fallbackRecognize(ctx, imagePath); err != nil {
			log.Printf("inspection: fallback recognition failed: %v", err)
			s.alert("Backup text recognition is unavailable")
		} else if text != "" {
			recognized = text
		}
		fallbackMS = s.now().Sub(stageStart).Milliseconds()
	}

	// Текста нет ниоткуда: проверка прерывается без попытки и без
	// изменения счётчиков, оператор запускает её заново
	if recognized == "" {
		s.alert("Failed to get OCR text")
		return nil, ErrOCRUnavailable
	}

	correct := recognized == code1
	log.Printf("inspection: code=%s correct=%t connect=%dms image=%dms camera=%dms fallback=%dms",
		code1, correct, connectMS, imageMS, cameraMS, fallbackMS)

	s.mu.Lock()
	attempt := entity.NewAttempt(code1)
	attempt.ImagePath = imagePath
	attempt.RecognizedText = recognized
	attempt.IsCorrect = correct
	s.attempt = attempt
	s.counters = s.counters.Add(correct, s.now())
	counters := s.counters
	s.mu.Unlock()

	s.ocrResult(recognized)
	s.testResult(correct)
	s.countersChanged(counters)

	return &TestOutcome{Correct: correct, RecognizedText: recognized, ImagePath: imagePath}, nil
}

// Judge применяет решение оператора к текущей попытке.
func (s *InspectionService) Judge(ev entity.JudgmentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt == nil {
		return ErrNoAttempt
	}
	s.attempt.Apply(ev)
	return nil
}

// SaveLog сохраняет итог попытки: архивную копию снимка, снимок экрана
// для ошибочных исходов и запись журнала. Попытка сбрасывается только
// после успешной записи, чтобы оператор мог повторить сохранение.
func (s *InspectionService) SaveLog(ctx context.Context) (int64, error) {
	s.mu.Lock()
	attempt := s.attempt
	operator := s.operator
	s.mu.Unlock()

	if attempt == nil {
		return 0, ErrNoAttempt
	}

	now := s.now()
	archived, err := s.archive.PersistImage(
		attempt.ImagePath, attempt.ExpectedCode, attempt.Category(), attempt.Keyword(), now)
	if err != nil {
		return 0, fmt.Errorf("save log: %w", err)
	}

	if keyword := attempt.ScreenshotKeyword(); keyword != "" {
		if _, err := s.archive.CaptureScreen(attempt.ExpectedCode, keyword, now); err != nil {
			log.Printf("inspection: screen capture failed: %v", err)
		}
	}

	account, processor := "", ""
	if operator != nil {
		account = operator.ID
		processor = operator.Name
	}

	rec := entity.NewLogRecord(attempt, account, processor, now, archived)
	id, err := s.logs.Append(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("save log: %w", err)
	}

	s.mu.Lock()
	if s.attempt == attempt {
		s.attempt = nil
	}
	s.mu.Unlock()

	return id, nil
}

func (s *InspectionService) fallbackRecognize(ctx context.Context, imagePath string) (string, error) {
	if s.recognizer == nil {
		return "", ErrOCRUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.ocrTimeout)
	defer cancel()

	rec, err := s.recognizer.Recognize(ctx, imagePath)
	if err != nil {
		return "", err
	}
	if rec.Err != "" {
		return "", errors.New(rec.Err)
	}
	text, ok := rec.FirstText()
	if !ok {
		return "", nil
	}
	return strings.TrimSpace(text), nil
}

func (s *InspectionService) currentNotifier() port.Notifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifier
}

func (s *InspectionService) alert(message string) {
	if n := s.currentNotifier(); n != nil {
		n.Alert(message)
	}
}

func (s *InspectionService) showImage(path string) {
	if n := s.currentNotifier(); n != nil {
		n.ShowImage(path)
	}
}

func (s *InspectionService) ocrResult(text string) {
	if n := s.currentNotifier(); n != nil {
		n.OCRResult(text)
	}
}

func (s *InspectionService) testResult(correct bool) {
	if n := s.currentNotifier(); n != nil {
		n.TestResult(correct)
	}
}

func (s *InspectionService) countersChanged(c entity.DailyCounters) {
	if n := s.currentNotifier(); n != nil {
		n.Counters(c)
	}
}
