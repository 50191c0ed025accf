package entity

// TextRegion одна найденная текстовая область на снимке
type TextRegion struct {
	X1, Y1, X2, Y2 int
	Text           string
	Confidence     float64
}

// RecognitionTiming время этапов резервного распознавания в миллисекундах
type RecognitionTiming struct {
	TotalMS     float64
	DetectMS    float64
	RecognizeMS float64
	TextCount   int
}

// Recognition ответ резервного распознавателя
type Recognition struct {
	Success bool
	Regions []TextRegion
	Timing  RecognitionTiming
	Err     string
}

// FirstText возвращает текст первой области. Когда областей несколько,
// используется именно первая: на деталях ожидается ровно один код.
func (r *Recognition) FirstText() (string, bool) {
	if r == nil || !r.Success || len(r.Regions) == 0 {
		return "", false
	}
	return r.Regions[0].Text, true
}
