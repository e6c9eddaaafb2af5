package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/shiftpay/internal/model"
	"github.com/Tiliavir/shiftpay/internal/report"
	"github.com/Tiliavir/shiftpay/internal/timecalc"
)

// rangeFlags select the dates and entries a command works on.
type rangeFlags struct {
	from     string
	to       string
	date     string
	today    bool
	week     bool
	employee string
	status   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.date, "date", "", "A single day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.today, "today", false, "Today only")
	cmd.Flags().BoolVar(&f.week, "week", false, "This week, Monday to Sunday")
	cmd.Flags().StringVar(&f.employee, "employee", "", "Only this employee ID")
	cmd.Flags().StringVar(&f.status, "status", "", "Only entries in this state: pending, approved, rejected")
}

// weekOf returns the Monday to Sunday range containing d.
func weekOf(d model.CalendarDate) report.Range {
	monday, sunday := timecalc.WeekRange(d.In(time.UTC))
	return report.Range{Start: model.DateOf(monday), End: model.DateOf(sunday)}
}

// resolve turns the flags into a range. Without any flag the range is today
// or, when defaultWeek is set, the current week. --from without --to runs
// until today.
func (f *rangeFlags) resolve(today model.CalendarDate, defaultWeek bool) (report.Range, error) {
	var rng report.Range
	switch {
	case f.date != "":
		d, err := model.ParseDate(f.date)
		if err != nil {
			return rng, usagef("--date: %v", err)
		}
		rng = report.Range{Start: d, End: d}
	case f.from != "" || f.to != "":
		rng = report.Range{Start: today, End: today}
		if f.from != "" {
			d, err := model.ParseDate(f.from)
			if err != nil {
				return rng, usagef("--from: %v", err)
			}
			rng.Start = d
		}
		if f.to != "" {
			d, err := model.ParseDate(f.to)
			if err != nil {
				return rng, usagef("--to: %v", err)
			}
			rng.End = d
		}
	case f.today:
		rng = report.Range{Start: today, End: today}
	case f.week || defaultWeek:
		rng = weekOf(today)
	default:
		rng = report.Range{Start: today, End: today}
	}
	return rng, rng.Validate()
}

func (f *rangeFlags) approval() (model.ApprovalState, error) {
	st, err := model.ParseApprovalState(f.status)
	if err != nil {
		return "", usagef("--status: %v", err)
	}
	return st, nil
}

func (f *rangeFlags) query(today model.CalendarDate, defaultWeek bool) (report.Range, model.Query, error) {
	rng, err := f.resolve(today, defaultWeek)
	if err != nil {
		return rng, model.Query{}, err
	}
	st, err := f.approval()
	if err != nil {
		return rng, model.Query{}, err
	}
	q := rng.Query(f.employee)
	q.Status = st
	return rng, q, nil
}
