// Package output provides utilities for formatting and displaying simulator,
// mentor and ledger results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/carlitos-finanzas/carlitos/internal/ledger"
	"github.com/carlitos-finanzas/carlitos/internal/progress"
	"github.com/carlitos-finanzas/carlitos/pkg/constants"
	"github.com/carlitos-finanzas/carlitos/pkg/format"
	"github.com/carlitos-finanzas/carlitos/pkg/mentor"
	"github.com/carlitos-finanzas/carlitos/pkg/projection"
	"github.com/carlitos-finanzas/carlitos/pkg/validation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Writer renders results in one of the output formats.
type Writer struct {
	w      io.Writer
	format string
	p      *message.Printer
}

// NewWriter validates format and returns a writer to w.
func NewWriter(w io.Writer, outputFormat string) (*Writer, error) {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return nil, err
	}
	return &Writer{
		w:      w,
		format: outputFormat,
		// XP and coins use Chilean Spanish digit grouping.
		p: message.NewPrinter(language.MustParse("es-CL")),
	}, nil
}

func (o *Writer) json(v interface{}) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (o *Writer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func csvRow(cells ...string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",") + "\n"
}

// FutureValueResult is what the future value simulator reports.
type FutureValueResult struct {
	Plan        projection.ContributionPlan `json:"plan"`
	FutureValue float64                     `json:"futureValue"`
	Contributed float64                     `json:"contributed"`
	Interest    float64                     `json:"interest"`
	Schedule    []projection.Point          `json:"schedule,omitempty"`
}

// FutureValue prints the result of the future value simulator.
func (o *Writer) FutureValue(r FutureValueResult) error {
	switch o.format {
	case constants.OutputFormatJSON:
		return o.json(r)
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("year", "date", "contributed", "interest", "balance"))
		for _, pt := range r.Schedule {
			o.printf("%s", csvRow(
				fmt.Sprintf("%d", pt.Year),
				pt.Date,
				fmt.Sprintf("%.2f", pt.Contributed),
				fmt.Sprintf("%.2f", pt.Interest),
				fmt.Sprintf("%.2f", pt.Balance),
			))
		}
		return nil
	}

	o.printf("--- Future value of %s per month at %.2f%% over %d years ---\n",
		format.Currency(r.Plan.Monthly), r.Plan.AnnualRate*constants.PercentageMultiplier, r.Plan.Years)
	if len(r.Schedule) > 0 {
		o.printf("Year | Date    | Contributed      | Interest         | Balance\n")
		o.printf("____ | _______ | ________________ | ________________ | ________________\n")
		for _, pt := range r.Schedule {
			o.printf("%4d | %-7s | %16s | %16s | %16s\n", pt.Year, pt.Date,
				format.Currency(pt.Contributed), format.Currency(pt.Interest), format.Currency(pt.Balance))
		}
	}
	o.printf("Future value: %s\n", format.Currency(r.FutureValue))
	o.printf("Contributed:  %s\n", format.Currency(r.Contributed))
	o.printf("Interest:     %s\n", format.Currency(r.Interest))
	return nil
}

// TimeToTargetResult is what the time-to-target simulator reports.
type TimeToTargetResult struct {
	Target   projection.SavingsTarget `json:"target"`
	Duration projection.Duration      `json:"duration"`
}

// TimeToTarget prints the result of the time-to-target simulator.
func (o *Writer) TimeToTarget(r TimeToTargetResult) error {
	switch o.format {
	case constants.OutputFormatJSON:
		return o.json(r)
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("target", "monthly", "months", "years", "remainingMonths", "saturated"))
		o.printf("%s", csvRow(
			fmt.Sprintf("%.2f", r.Target.Target),
			fmt.Sprintf("%.2f", r.Target.Monthly),
			fmt.Sprintf("%d", r.Duration.Months),
			fmt.Sprintf("%d", r.Duration.Years),
			fmt.Sprintf("%d", r.Duration.RemainingMonths),
			fmt.Sprintf("%t", r.Duration.Saturated),
		))
		return nil
	}

	o.printf("--- Time to reach %s saving %s per month at %.2f%% ---\n",
		format.Currency(r.Target.Target), format.Currency(r.Target.Monthly), r.Target.AnnualRate*constants.PercentageMultiplier)
	if r.Duration.Saturated {
		o.printf("Not reachable within %d years\n", projection.MaxYears)
		return nil
	}
	o.printf("%d months (%d years and %d months)\n", r.Duration.Months, r.Duration.Years, r.Duration.RemainingMonths)
	return nil
}

// Assignment prints the mentor chosen for a questionnaire.
func (o *Writer) Assignment(a mentor.Assignment) error {
	switch o.format {
	case constants.OutputFormatJSON:
		return o.json(a)
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("persona", "name", "keyword", "score"))
		for _, p := range mentor.Personas() {
			o.printf("%s", csvRow(string(p.ID), p.Name, a.Keyword, fmt.Sprintf("%d", a.Scores[p.ID])))
		}
		return nil
	}

	o.printf("Your mentor: %s, %s\n", a.Persona.Name, a.Persona.Role)
	o.printf("%s\n", a.Persona.Description)
	if a.Keyword != "" {
		o.printf("Matched goal keyword %q\n", a.Keyword)
		return nil
	}
	ids := make([]string, 0, len(a.Scores))
	for id := range a.Scores {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		o.printf("  %-12s %d\n", id, a.Scores[mentor.PersonaID(id)])
	}
	return nil
}

// Personas prints the mentor catalog.
func (o *Writer) Personas(personas []mentor.Persona) error {
	switch o.format {
	case constants.OutputFormatJSON:
		return o.json(personas)
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("id", "name", "role", "color"))
		for _, p := range personas {
			o.printf("%s", csvRow(string(p.ID), p.Name, p.Role, p.Color))
		}
		return nil
	}
	for _, p := range personas {
		o.printf("%-7s %-24s %s\n", p.Name, p.Role, p.Description)
	}
	return nil
}

// Transactions prints a list of transactions. CSV output is the export format.
func (o *Writer) Transactions(txs []ledger.Transaction) error {
	switch o.format {
	case constants.OutputFormatJSON:
		return ledger.ExportJSON(o.w, txs)
	case constants.OutputFormatCSV:
		if err := ledger.ExportCSV(o.w, txs); err != nil {
			return err
		}
		if len(txs) > 0 {
			o.printf("\n")
		}
		return nil
	}

	if len(txs) == 0 {
		o.printf("No transactions recorded\n")
		return nil
	}
	o.printf("Date             | Kind    | Amount         | Category         | Note\n")
	o.printf("________________ | _______ | ______________ | ________________ | ____\n")
	for _, tx := range txs {
		o.printf("%-16s | %-7s | %14s | %-16s | %s\n",
			tx.Date.Format("2006-01-02 15:04"), tx.Kind, format.DecimalCurrency(tx.Signed()), tx.Category, tx.Note)
	}
	sum := ledger.Summarize(txs)
	o.printf("Balance: %s (income %s, expenses %s)\n",
		format.DecimalCurrency(sum.Balance), format.DecimalCurrency(sum.Income), format.DecimalCurrency(sum.Expense))
	return nil
}

// Profile prints XP, coins and level of a learner.
func (o *Writer) Profile(profile progress.Profile) error {
	level := profile.Level()
	switch o.format {
	case constants.OutputFormatJSON:
		return o.json(struct {
			progress.Profile
			Level progress.Level `json:"level"`
		}{profile, level})
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("name", "xp", "coins", "stars", "level", "nextTarget", "percent"))
		o.printf("%s", csvRow(profile.Name, fmt.Sprintf("%d", profile.XP), fmt.Sprintf("%d", profile.Coins),
			fmt.Sprintf("%d", profile.Stars), level.Name, fmt.Sprintf("%d", level.NextTarget), fmt.Sprintf("%.0f", level.Percent)))
		return nil
	}

	_, _ = o.p.Fprintf(o.w, "%s (%s)\n", profile.Name, level.Name)
	_, _ = o.p.Fprintf(o.w, "%d XP • Próximo objetivo %d XP (%.0f%%)\n", profile.XP, level.NextTarget, level.Percent)
	_, _ = o.p.Fprintf(o.w, "%d Coins • %d ★\n", profile.Coins, profile.Stars)
	return nil
}

// Goals prints the goal list.
func (o *Writer) Goals(goals []ledger.Goal) error {
	switch o.format {
	case constants.OutputFormatJSON:
		if goals == nil {
			goals = []ledger.Goal{}
		}
		return o.json(goals)
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("id", "title", "kind", "target", "createdAt"))
		for _, g := range goals {
			o.printf("%s", csvRow(g.ID.String(), g.Title, string(g.Kind), g.Target.StringFixed(2), g.CreatedAt.Format("2006-01-02")))
		}
		return nil
	}

	if len(goals) == 0 {
		o.printf("No goals defined\n")
		return nil
	}
	for _, g := range goals {
		o.printf("%s  %-9s %14s  %s\n", g.ID, g.Kind, format.DecimalCurrency(g.Target), g.Title)
	}
	return nil
}

// GoalProgress prints how far a goal is from its target.
func (o *Writer) GoalProgress(gp ledger.GoalProgress) error {
	switch o.format {
	case constants.OutputFormatJSON:
		return o.json(gp)
	case constants.OutputFormatCSV:
		months := ""
		if gp.ETA != nil {
			months = fmt.Sprintf("%d", gp.ETA.Months)
		}
		o.printf("%s", csvRow("title", "kind", "target", "current", "remaining", "percent", "reached", "etaMonths"))
		o.printf("%s", csvRow(gp.Goal.Title, string(gp.Goal.Kind), gp.Goal.Target.StringFixed(2),
			gp.Current.StringFixed(2), gp.Remaining.StringFixed(2), fmt.Sprintf("%.2f", gp.Percent),
			fmt.Sprintf("%t", gp.Reached), months))
		return nil
	}

	o.printf("--- %s (%s) ---\n", gp.Goal.Title, gp.Goal.Kind)
	o.printf("Target:    %s\n", format.DecimalCurrency(gp.Goal.Target))
	o.printf("Current:   %s (%.2f%%)\n", format.DecimalCurrency(gp.Current), gp.Percent)
	o.printf("Remaining: %s\n", format.DecimalCurrency(gp.Remaining))
	switch {
	case gp.Reached && gp.Goal.Kind == ledger.ReductionGoal:
		o.printf("Within the spending limit\n")
	case gp.Reached:
		o.printf("Goal reached\n")
	case gp.Goal.Kind == ledger.ReductionGoal:
		o.printf("Spending limit exceeded\n")
	case gp.ETA == nil:
		o.printf("Set a monthly contribution to estimate when it is reached\n")
	case gp.ETA.Saturated:
		o.printf("Not reachable within %d years\n", projection.MaxYears)
	default:
		o.printf("ETA: %d months (%d years and %d months)\n", gp.ETA.Months, gp.ETA.Years, gp.ETA.RemainingMonths)
	}
	return nil
}

// Lessons prints the lesson map.
func (o *Writer) Lessons(lessons []progress.Lesson) error {
	switch o.format {
	case constants.OutputFormatJSON:
		if lessons == nil {
			lessons = []progress.Lesson{}
		}
		return o.json(lessons)
	case constants.OutputFormatCSV:
		o.printf("%s", csvRow("id", "title", "difficulty", "percent", "completed", "unlocked"))
		for _, l := range lessons {
			o.printf("%s", csvRow(l.ID, l.Title, string(l.Difficulty), fmt.Sprintf("%d", l.Percent),
				fmt.Sprintf("%t", l.Completed), fmt.Sprintf("%t", l.Unlocked)))
		}
		return nil
	}

	for _, l := range lessons {
		status := "locked"
		switch {
		case l.Completed:
			status = "done"
		case l.Unlocked:
			status = "open"
		}
		o.printf("%-16s %-8s %3d%%  %-6s %s\n", l.ID, l.Difficulty, l.Percent, status, l.Description)
	}
	return nil
}
