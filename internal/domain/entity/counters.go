package entity

import "time"

// DailyCounters суточные счётчики проверок. При переходе календарной
// даты счётчики сбрасываются, а не накапливаются.
type DailyCounters struct {
	Date time.Time
	Pass int
	Fail int
}

// Add возвращает счётчики после учёта одной проверки на момент now.
// Если now приходится на другой день, счётчики сначала обнуляются.
func (c DailyCounters) Add(pass bool, now time.Time) DailyCounters {
	if !sameDay(c.Date, now) {
		c = DailyCounters{Date: now}
	}
	if pass {
		c.Pass++
	} else {
		c.Fail++
	}
	return c
}

// Total общее число проверок за день
func (c DailyCounters) Total() int {
	return c.Pass + c.Fail
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
