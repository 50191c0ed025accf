package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gwgplus/nikkle/internal/domain/entity"
	"github.com/gwgplus/nikkle/internal/domain/port"
)

type fakeSession struct {
	connectErr error
	code       string
	got        bool
	closed     bool
}

func (s *fakeSession) Connect(ctx context.Context) error { return s.connectErr }
func (s *fakeSession) RequestCode(ctx context.Context) (string, bool) {
	return s.code, s.got
}
func (s *fakeSession) Close() error { s.closed = true; return nil }

type fakeDialer struct{ session *fakeSession }

func (d *fakeDialer) Dial() port.CameraSession { return d.session }

type fakeWatcher struct {
	path     string
	found    bool
	clearErr error
}

func (w *fakeWatcher) Clear(dir string) error { return w.clearErr }
func (w *fakeWatcher) Wait(ctx context.Context, dir string, since time.Time, timeout time.Duration) (string, bool) {
	return w.path, w.found
}

type fakeRecognizer struct {
	rec   *entity.Recognition
	err   error
	calls int
}

func (r *fakeRecognizer) Recognize(ctx context.Context, imagePath string) (*entity.Recognition, error) {
	r.calls++
	return r.rec, r.err
}

type fakeArchive struct {
	persistErr    error
	persisted     []string // category/keyword пары
	screenshots   []string
	persistedPath string
}

func (a *fakeArchive) PersistImage(sourcePath, code, category, keyword string, now time.Time) (string, error) {
	if a.persistErr != nil {
		return "", a.persistErr
	}
	a.persisted = append(a.persisted, category+"/"+keyword)
	a.persistedPath = "/archive/" + category + "/" + code + ".jpg"
	return a.persistedPath, nil
}

func (a *fakeArchive) CaptureScreen(code, keyword string, now time.Time) (string, error) {
	a.screenshots = append(a.screenshots, keyword)
	return "/archive/screen-capture/" + code + ".jpg", nil
}

type fakeLogs struct {
	appendErr error
	records   []*entity.LogRecord
}

func (l *fakeLogs) Append(ctx context.Context, rec *entity.LogRecord) (int64, error) {
	if l.appendErr != nil {
		return 0, l.appendErr
	}
	l.records = append(l.records, rec)
	return int64(len(l.records)), nil
}

type fakeNotifier struct {
	alerts   []string
	images   []string
	ocr      []string
	results  []bool
	counters []entity.DailyCounters
}

func (n *fakeNotifier) Alert(message string)            { n.alerts = append(n.alerts, message) }
func (n *fakeNotifier) ShowImage(path string)           { n.images = append(n.images, path) }
func (n *fakeNotifier) OCRResult(text string)           { n.ocr = append(n.ocr, text) }
func (n *fakeNotifier) TestResult(correct bool)         { n.results = append(n.results, correct) }
func (n *fakeNotifier) Counters(c entity.DailyCounters) { n.counters = append(n.counters, c) }

type fixture struct {
	svc        *InspectionService
	session    *fakeSession
	watcher    *fakeWatcher
	recognizer *fakeRecognizer
	archive    *fakeArchive
	logs       *fakeLogs
	notifier   *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		session:    &fakeSession{code: "ABC123", got: true},
		watcher:    &fakeWatcher{path: "/watch/shot.bmp", found: true},
		recognizer: &fakeRecognizer{rec: &entity.Recognition{Success: true}},
		archive:    &fakeArchive{},
		logs:       &fakeLogs{},
		notifier:   &fakeNotifier{},
	}
	f.svc = NewInspectionService(
		&fakeDialer{session: f.session}, f.watcher, f.recognizer, f.archive, f.logs,
		"/watch", time.Second, time.Second)
	f.svc.SetNotifier(f.notifier)
	return f
}

func TestStartTest_CameraCodeMatches(t *testing.T) {
	f := newFixture()

	out, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)
	require.True(t, out.Correct)
	require.Equal(t, "ABC123", out.RecognizedText)

	// Совпавший код не требует резервного распознавания
	require.Zero(t, f.recognizer.calls)
	require.True(t, f.session.closed)

	require.Equal(t, []bool{true}, f.notifier.results)
	require.Equal(t, []string{"/watch/shot.bmp"}, f.notifier.images)
	require.Equal(t, 1, f.svc.Counters().Pass)
	require.Equal(t, 0, f.svc.Counters().Fail)
}

func TestStartTest_SilentCameraFallsBackToRecognizer(t *testing.T) {
	f := newFixture()
	f.session.got = false
	f.recognizer.rec = &entity.Recognition{
		Success: true,
		Regions: []entity.TextRegion{{Text: "X1", Confidence: 0.91}},
	}

	out, err := f.svc.StartTest(context.Background(), "X1", "X1")
	require.NoError(t, err)
	require.True(t, out.Correct)
	require.Equal(t, "X1", out.RecognizedText)
	require.Equal(t, 1, f.recognizer.calls)
}

func TestStartTest_FallbackUsesFirstRegion(t *testing.T) {
	f := newFixture()
	f.session.code = "WRONG"
	f.recognizer.rec = &entity.Recognition{
		Success: true,
		Regions: []entity.TextRegion{
			{Text: "ABC123", Confidence: 0.60},
			{Text: "LOT42", Confidence: 0.99},
		},
	}

	out, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)
	require.True(t, out.Correct)
	require.Equal(t, "ABC123", out.RecognizedText)
}

func TestStartTest_MismatchCountsAsFail(t *testing.T) {
	f := newFixture()
	f.session.code = "WRONG"
	f.recognizer.rec = &entity.Recognition{
		Success: true,
		Regions: []entity.TextRegion{{Text: "WRONG", Confidence: 0.95}},
	}

	out, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)
	require.False(t, out.Correct)
	require.Equal(t, []bool{false}, f.notifier.results)
	require.Equal(t, 1, f.svc.Counters().Fail)
}

func TestStartTest_RecognizerFailureKeepsCameraText(t *testing.T) {
	f := newFixture()
	f.session.code = "WRONG"
	f.recognizer.err = errors.New("service down")

	out, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)
	require.False(t, out.Correct)
	require.Equal(t, "WRONG", out.RecognizedText)
	require.NotEmpty(t, f.notifier.alerts)
}

func TestStartTest_ScannedCodesMismatch(t *testing.T) {
	f := newFixture()
	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC124")
	require.ErrorIs(t, err, ErrCodesMismatch)

	// Несовпадение сканов попадает в суточный итог как NG
	require.Equal(t, 0, f.svc.Counters().Pass)
	require.Equal(t, 1, f.svc.Counters().Fail)
	require.Len(t, f.notifier.counters, 1)
}

func TestStartTest_NoTextFromAnySource(t *testing.T) {
	cases := []struct {
		name string
		rec  *entity.Recognition
		err  error
	}{
		{name: "zero regions", rec: &entity.Recognition{Success: true}},
		{name: "not successful", rec: &entity.Recognition{Success: false}},
		{name: "recognizer error", err: errors.New("service down")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture()
			f.session.got = false
			f.session.code = ""
			f.recognizer.rec = tc.rec
			f.recognizer.err = tc.err

			_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
			require.ErrorIs(t, err, ErrOCRUnavailable)
			require.NotEmpty(t, f.notifier.alerts)

			// Проверка прервана: ни попытки, ни изменения счётчиков,
			// ни вердикта на панели
			require.Empty(t, f.notifier.results)
			require.Equal(t, 0, f.svc.Counters().Total())
			require.ErrorIs(t, f.svc.Judge(entity.EventAllow), ErrNoAttempt)
		})
	}
}

func TestStartTest_BusyGuard(t *testing.T) {
	f := newFixture()
	f.svc.busy.Store(true)

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.ErrorIs(t, err, ErrBusy)
}

func TestStartTest_ConnectFailureAlerts(t *testing.T) {
	f := newFixture()
	f.session.connectErr = errors.New("CCD connection failed: timed out waiting for User prompt")

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.Error(t, err)
	require.Len(t, f.notifier.alerts, 1)
	require.True(t, f.session.closed)
}

func TestStartTest_ImageTimeout(t *testing.T) {
	f := newFixture()
	f.watcher.found = false

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.ErrorIs(t, err, ErrImageTimeout)
	require.NotEmpty(t, f.notifier.alerts)
}

func TestJudgeAndSaveLog_BackJudgment(t *testing.T) {
	f := newFixture()
	f.session.code = "WRONG"
	f.recognizer.rec = &entity.Recognition{
		Success: true,
		Regions: []entity.TextRegion{{Text: "WRONG", Confidence: 0.95}},
	}

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)

	require.NoError(t, f.svc.Judge(entity.EventBack))

	id, err := f.svc.SaveLog(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	require.Equal(t, []string{"NG/NG"}, f.archive.persisted)
	require.Equal(t, []string{"NG"}, f.archive.screenshots)

	require.Len(t, f.logs.records, 1)
	rec := f.logs.records[0]
	require.Equal(t, "ABC123", rec.Source)
	require.Equal(t, 1, rec.Judgment)
	require.True(t, rec.Manual)
	require.Equal(t, f.archive.persistedPath, rec.Image)

	// Попытка закрыта, повторное сохранение отклоняется
	_, err = f.svc.SaveLog(context.Background())
	require.ErrorIs(t, err, ErrNoAttempt)
}

func TestSaveLog_CorrectAttemptNoScreenshot(t *testing.T) {
	f := newFixture()

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)

	_, err = f.svc.SaveLog(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{"OK/OK"}, f.archive.persisted)
	require.Empty(t, f.archive.screenshots)
	require.False(t, f.logs.records[0].Manual)
	require.Equal(t, 0, f.logs.records[0].Judgment)
}

func TestSaveLog_ArchiveFailureKeepsAttempt(t *testing.T) {
	f := newFixture()
	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)

	f.archive.persistErr = errors.New("disk full")
	_, err = f.svc.SaveLog(context.Background())
	require.Error(t, err)

	// Попытка не потеряна, после устранения сбоя сохранение проходит
	f.archive.persistErr = nil
	_, err = f.svc.SaveLog(context.Background())
	require.NoError(t, err)
}

func TestSaveLog_AppendFailureKeepsAttempt(t *testing.T) {
	f := newFixture()
	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)

	f.logs.appendErr = errors.New("db locked")
	_, err = f.svc.SaveLog(context.Background())
	require.Error(t, err)

	f.logs.appendErr = nil
	_, err = f.svc.SaveLog(context.Background())
	require.NoError(t, err)
}

func TestSaveLog_RecordsOperator(t *testing.T) {
	f := newFixture()
	f.svc.SetOperator(&entity.Account{ID: "operator1", Name: "Иванов"})

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)
	_, err = f.svc.SaveLog(context.Background())
	require.NoError(t, err)

	rec := f.logs.records[0]
	require.Equal(t, "operator1", rec.Account)
	require.Equal(t, "Иванов", rec.Processor)
}

func TestJudge_NoAttempt(t *testing.T) {
	f := newFixture()
	require.ErrorIs(t, f.svc.Judge(entity.EventAllow), ErrNoAttempt)
}

func TestCurrentInfo(t *testing.T) {
	f := newFixture()
	f.svc.SetOperator(&entity.Account{ID: "operator1", Name: "Иванов"})

	_, err := f.svc.StartTest(context.Background(), "ABC123", "ABC123")
	require.NoError(t, err)

	info := f.svc.CurrentInfo()
	require.Equal(t, "ABC123", info.ExpectedCode)
	require.Equal(t, "ABC123", info.RecognizedText)
	require.Equal(t, "Иванов", info.Operator)
	require.Equal(t, 1, info.Counters.Pass)
}
