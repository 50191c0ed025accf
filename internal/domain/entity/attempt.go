package entity

// ErrAction действие оператора при несовпадении кода
type ErrAction int

const (
	ErrActionNone  ErrAction = 0 // решение не принято
	ErrActionAllow ErrAction = 1 // допустить с указанием причины
	ErrActionBack  ErrAction = 2 // вернуть (NG)
)

// ErrActionReason причина допуска дефектной детали
type ErrActionReason int

const (
	ReasonNone       ErrActionReason = 0
	ReasonCannotOCR  ErrActionReason = 1 // код не читается
	ReasonCheckError ErrActionReason = 2 // ошибка распознавания
	ReasonFold       ErrActionReason = 3 // складка
)

// ExteriorResult результат внешнего осмотра
type ExteriorResult int

const (
	ExteriorNone ExteriorResult = 0
	ExteriorOK   ExteriorResult = 1
	ExteriorNG   ExteriorResult = 2
)

// ExteriorNGReason причина NG по внешнему виду
type ExteriorNGReason int

const (
	ExtReasonNone          ExteriorNGReason = 0
	ExtReasonOxidation     ExteriorNGReason = 1 // окисление
	ExtReasonLeak          ExteriorNGReason = 2 // утечка
	ExtReasonForeignMatter ExteriorNGReason = 3 // инородное тело
	ExtReasonHoleAbnormal  ExteriorNGReason = 4 // дефект отверстия
)

// JudgmentEvent событие панели суждения. Закрытый набор вариантов,
// каждое событие меняет ровно одно поле попытки (last-write-wins).
type JudgmentEvent int

const (
	EventAllow JudgmentEvent = iota
	EventBack
	EventFold
	EventOCRError
	EventCannotOCR
	EventExteriorOK
	EventExteriorNG
	EventToggleClass1
	EventToggleClass2
	EventReasonOxidation
	EventReasonLeak
	EventReasonForeignMatter
	EventReasonHoleAbnormal
)

// Attempt одна попытка проверки кода: от ввода ожидаемого значения
// до сохранения записи в журнал.
type Attempt struct {
	ExpectedCode     string
	ImagePath        string
	RecognizedText   string
	IsCorrect        bool
	ErrAction        ErrAction
	ErrActionReason  ErrActionReason
	Exterior         ExteriorResult
	ExteriorNGReason ExteriorNGReason
	Class1           bool
	Class2           bool
}

// NewAttempt создаёт чистую попытку для ожидаемого кода
func NewAttempt(expectedCode string) *Attempt {
	return &Attempt{ExpectedCode: expectedCode}
}

// Apply применяет событие суждения. События не отклоняются и могут
// приходить в любом порядке: оператор свободно переключает кнопки,
// последнее значение каждого поля побеждает.
func (a *Attempt) Apply(ev JudgmentEvent) {
	switch ev {
	case EventAllow:
		a.ErrAction = ErrActionAllow
	case EventBack:
		a.ErrAction = ErrActionBack
	case EventFold:
		a.ErrActionReason = ReasonFold
	case EventOCRError:
		a.ErrActionReason = ReasonCheckError
	case EventCannotOCR:
		a.ErrActionReason = ReasonCannotOCR
	case EventExteriorOK:
		a.Exterior = ExteriorOK
	case EventExteriorNG:
		a.Exterior = ExteriorNG
	case EventToggleClass1:
		a.Class1 = !a.Class1
	case EventToggleClass2:
		a.Class2 = !a.Class2
	case EventReasonOxidation:
		a.ExteriorNGReason = ExtReasonOxidation
	case EventReasonLeak:
		a.ExteriorNGReason = ExtReasonLeak
	case EventReasonForeignMatter:
		a.ExteriorNGReason = ExtReasonForeignMatter
	case EventReasonHoleAbnormal:
		a.ExteriorNGReason = ExtReasonHoleAbnormal
	}
}

// JudgmentCode возвращает код суждения для журнала.
// Приоритет фиксированный, выигрывает первое совпадение:
// корректный результат всегда даёт 0, даже если выставлены другие поля.
func (a *Attempt) JudgmentCode() int {
	switch {
	case a.IsCorrect:
		return 0
	case a.ErrAction == ErrActionBack:
		return 1
	case a.ErrActionReason == ReasonCannotOCR:
		return 2
	case a.ErrActionReason == ReasonCheckError:
		return 3
	case a.ErrActionReason == ReasonFold:
		return 4
	}
	return 0
}

// Category возвращает каталог архивации: OK, NG или Err
func (a *Attempt) Category() string {
	switch {
	case a.IsCorrect:
		return "OK"
	case a.ErrAction == ErrActionBack:
		return "NG"
	}
	return "Err"
}

// Keyword возвращает метку для имени архивного файла
func (a *Attempt) Keyword() string {
	if a.IsCorrect {
		return "OK"
	}
	if a.ErrAction == ErrActionBack {
		return "NG"
	}
	switch a.ErrActionReason {
	case ReasonCannotOCR:
		return "NO_OCR"
	case ReasonCheckError:
		return "OCR_Fail"
	case ReasonFold:
		return "OCR_Fold"
	}
	return "OK"
}

// ScreenshotKeyword возвращает метку снимка экрана для неудачной
// попытки. Пустая строка означает, что снимок не нужен.
func (a *Attempt) ScreenshotKeyword() string {
	if a.IsCorrect {
		return ""
	}
	if a.ErrAction == ErrActionBack {
		return "NG"
	}
	switch a.ErrActionReason {
	case ReasonCannotOCR:
		return "Err_NoOCR"
	case ReasonCheckError:
		return "Err_Fail"
	case ReasonFold:
		return "Err_Fold"
	}
	return ""
}

// ExteriorClassValue возвращает битовую маску классов: bit0=class1, bit1=class2
func (a *Attempt) ExteriorClassValue() int {
	value := 0
	if a.Class1 {
		value |= 1
	}
	if a.Class2 {
		value |= 2
	}
	return value
}

// IsExteriorOK признак того, что внешний осмотр не дал NG
func (a *Attempt) IsExteriorOK() bool {
	return a.Exterior != ExteriorNG
}
