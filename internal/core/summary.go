package core

// HistoryMonths is how many months the dashboard history covers, target included.
const HistoryMonths = 6

// RecentLimit is how many transactions the dashboard lists.
const RecentLimit = 5

type (
	// DailyTotal is the sum of one kind of transaction on one day.
	DailyTotal struct {
		Date   Date
		Kind   Kind
		Amount Money
	}

	// MonthTotals aggregates income and expenses for a calendar month.
	MonthTotals struct {
		Period   YearMonth
		Income   Money
		Expenses Money
	}

	// Dashboard is the summary for a target month.
	Dashboard struct {
		Period  YearMonth
		Budget  Money
		Current MonthTotals
		Recent  []Transaction
		// History starts at Period and walks backwards HistoryMonths months.
		History []MonthTotals
	}
)

func (t MonthTotals) Net() Money {
	return t.Income.Sub(t.Expenses)
}

// Remaining is the budget left after this month's expenses. It goes
// negative when spending exceeds the budget, or when no budget is set.
func (d Dashboard) Remaining() Money {
	return d.Budget.Sub(d.Current.Expenses)
}

func (d Dashboard) Net() Money {
	return d.Current.Net()
}

// DashboardWindow returns the [from, to) date range covering the history
// of p.
func DashboardWindow(p YearMonth) (from, to Date) {
	months := p.WalkBack(HistoryMonths)
	return months[len(months)-1].Start(), p.End()
}

// BuildDashboard buckets daily totals into months and assembles the summary.
// Totals outside the window of p are ignored.
func BuildDashboard(p YearMonth, budget Money, totals []DailyTotal, recent []Transaction) Dashboard {
	months := p.WalkBack(HistoryMonths)
	byMonth := make(map[YearMonth]*MonthTotals, len(months))
	history := make([]MonthTotals, len(months))
	for i, m := range months {
		history[i] = MonthTotals{Period: m}
		byMonth[m] = &history[i]
	}

	for _, t := range totals {
		bucket, ok := byMonth[t.Date.YearMonth()]
		if !ok {
			continue
		}
		switch t.Kind {
		case Income:
			bucket.Income = bucket.Income.Add(t.Amount)
		case Expense:
			bucket.Expenses = bucket.Expenses.Add(t.Amount)
		}
	}

	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	if recent == nil {
		recent = []Transaction{}
	}

	return Dashboard{
		Period:  p,
		Budget:  budget,
		Current: history[0],
		Recent:  recent,
		History: history,
	}
}
