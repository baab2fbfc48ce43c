package calendar

import (
	"context"
	"time"

	"github.com/rickar/cal/v2"
)

// emilianiMonday moves a holiday to the following Monday unless it already
// falls on one (Ley 51 de 1983).
var emilianiMonday = []cal.AltDay{
	{Day: time.Tuesday, Offset: 6},
	{Day: time.Wednesday, Offset: 5},
	{Day: time.Thursday, Offset: 4},
	{Day: time.Friday, Offset: 3},
	{Day: time.Saturday, Offset: 2},
	{Day: time.Sunday, Offset: 1},
}

// Colombian national holidays.
var (
	NewYear = &cal.Holiday{
		Name: "Año Nuevo", Type: cal.ObservancePublic,
		Month: time.January, Day: 1, Func: cal.CalcDayOfMonth,
	}
	Epiphany = &cal.Holiday{
		Name: "Día de los Reyes Magos", Type: cal.ObservancePublic,
		Month: time.January, Day: 6, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	SaintJoseph = &cal.Holiday{
		Name: "Día de San José", Type: cal.ObservancePublic,
		Month: time.March, Day: 19, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	HolyThursday = &cal.Holiday{
		Name: "Jueves Santo", Type: cal.ObservancePublic,
		Offset: -3, Func: cal.CalcEasterOffset,
	}
	GoodFriday = &cal.Holiday{
		Name: "Viernes Santo", Type: cal.ObservancePublic,
		Offset: -2, Func: cal.CalcEasterOffset,
	}
	LaborDay = &cal.Holiday{
		Name: "Día del Trabajo", Type: cal.ObservancePublic,
		Month: time.May, Day: 1, Func: cal.CalcDayOfMonth,
	}
	Ascension = &cal.Holiday{
		Name: "Día de la Ascensión", Type: cal.ObservancePublic,
		Offset: 43, Func: cal.CalcEasterOffset,
	}
	CorpusChristi = &cal.Holiday{
		Name: "Corpus Christi", Type: cal.ObservancePublic,
		Offset: 64, Func: cal.CalcEasterOffset,
	}
	SacredHeart = &cal.Holiday{
		Name: "Sagrado Corazón", Type: cal.ObservancePublic,
		Offset: 71, Func: cal.CalcEasterOffset,
	}
	SaintsPeterAndPaul = &cal.Holiday{
		Name: "San Pedro y San Pablo", Type: cal.ObservancePublic,
		Month: time.June, Day: 29, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	IndependenceDay = &cal.Holiday{
		Name: "Día de la Independencia", Type: cal.ObservancePublic,
		Month: time.July, Day: 20, Func: cal.CalcDayOfMonth,
	}
	BattleOfBoyaca = &cal.Holiday{
		Name: "Batalla de Boyacá", Type: cal.ObservancePublic,
		Month: time.August, Day: 7, Func: cal.CalcDayOfMonth,
	}
	Assumption = &cal.Holiday{
		Name: "La Asunción de la Virgen", Type: cal.ObservancePublic,
		Month: time.August, Day: 15, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	RaceDay = &cal.Holiday{
		Name: "Día de la Raza", Type: cal.ObservancePublic,
		Month: time.October, Day: 12, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	AllSaints = &cal.Holiday{
		Name: "Todos los Santos", Type: cal.ObservancePublic,
		Month: time.November, Day: 1, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	CartagenaIndependence = &cal.Holiday{
		Name: "Independencia de Cartagena", Type: cal.ObservancePublic,
		Month: time.November, Day: 11, Observed: emilianiMonday, Func: cal.CalcDayOfMonth,
	}
	ImmaculateConception = &cal.Holiday{
		Name: "Inmaculada Concepción", Type: cal.ObservancePublic,
		Month: time.December, Day: 8, Func: cal.CalcDayOfMonth,
	}
	Christmas = &cal.Holiday{
		Name: "Navidad", Type: cal.ObservancePublic,
		Month: time.December, Day: 25, Func: cal.CalcDayOfMonth,
	}

	ColombianHolidays = []*cal.Holiday{
		NewYear, Epiphany, SaintJoseph, HolyThursday, GoodFriday, LaborDay,
		Ascension, CorpusChristi, SacredHeart, SaintsPeterAndPaul,
		IndependenceDay, BattleOfBoyaca, Assumption, RaceDay, AllSaints,
		CartagenaIndependence, ImmaculateConception, Christmas,
	}
)

// Colombia returns a source computing the national holidays locally. It
// never fails and needs no network.
func Colombia() Source {
	return SourceFunc(func(_ context.Context, year int) ([]Date, error) {
		return colombianHolidays(year), nil
	})
}

// HolidayName returns the name of the Colombian holiday observed on d, or
// "" when d is not one.
func HolidayName(d Date) string {
	for _, h := range ColombianHolidays {
		_, observed := h.Calc(d.Year)
		if !observed.IsZero() && DateOf(observed) == d {
			return h.Name
		}
	}
	return ""
}

func colombianHolidays(year int) []Date {
	seen := make(map[Date]struct{}, len(ColombianHolidays))
	for _, h := range ColombianHolidays {
		// The observed day is the legal holiday; Emiliani moves the
		// original date away entirely.
		_, observed := h.Calc(year)
		if observed.IsZero() {
			continue
		}
		seen[DateOf(observed)] = struct{}{}
	}
	return sortedDates(seen)
}
