package projection

import (
	"errors"
	"math"
	"testing"
)

func TestFutureValueMonthly(t *testing.T) {
	tests := []struct {
		name       string
		monthly    float64
		annualRate float64
		years      int
		expected   float64
		tolerance  float64
	}{
		{name: "12% for one year", monthly: 100, annualRate: 0.12, years: 1, expected: 1268.25, tolerance: 0.5},
		{name: "zero rate is a plain sum", monthly: 200, annualRate: 0, years: 5, expected: 12000, tolerance: 0},
		{name: "zero years", monthly: 500, annualRate: 0.07, years: 0, expected: 0, tolerance: 0},
		{name: "zero contribution", monthly: 0, annualRate: 0.07, years: 30, expected: 0, tolerance: 0},
		{name: "5% for ten years", monthly: 100, annualRate: 0.05, years: 10, expected: 15528.23, tolerance: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FutureValueMonthly(tt.monthly, tt.annualRate, tt.years)
			if math.Abs(got-tt.expected) > tt.tolerance {
				t.Fatalf("FutureValueMonthly(%v, %v, %d) = %.4f, expected %.2f", tt.monthly, tt.annualRate, tt.years, got, tt.expected)
			}
		})
	}
}

func TestFutureValueMonthlyZeroRateIsExact(t *testing.T) {
	for _, monthly := range []float64{0, 1, 33.33, 250, 1999.99} {
		for years := 0; years <= 40; years += 7 {
			got := FutureValueMonthly(monthly, 0, years)
			want := monthly * float64(years) * 12
			if got != want {
				t.Fatalf("FutureValueMonthly(%v, 0, %d) = %v, expected exactly %v", monthly, years, got, want)
			}
		}
	}
}

func TestFutureValueMonthlyIncreasing(t *testing.T) {
	for _, rate := range []float64{0.01, 0.05, 0.12, 0.3} {
		previous := FutureValueMonthly(150, rate, 0)
		for years := 1; years <= 50; years++ {
			current := FutureValueMonthly(150, rate, years)
			if current <= previous {
				t.Fatalf("rate %.2f: value for %d years (%.2f) not above %d years (%.2f)", rate, years, current, years-1, previous)
			}
			previous = current
		}

		previous = FutureValueMonthly(0, rate, 10)
		for monthly := 10.0; monthly <= 1000; monthly += 10 {
			current := FutureValueMonthly(monthly, rate, 10)
			if current <= previous {
				t.Fatalf("rate %.2f: value for monthly %.0f (%.2f) not above previous (%.2f)", rate, monthly, current, previous)
			}
			previous = current
		}
	}
}

func TestMonthsToReachTarget(t *testing.T) {
	tests := []struct {
		name       string
		monthly    float64
		annualRate float64
		target     float64
		expected   int
	}{
		{name: "no growth", monthly: 1000, annualRate: 0, target: 12000, expected: 12},
		{name: "partial month rounds up", monthly: 1000, annualRate: 0, target: 12001, expected: 13},
		{name: "1% monthly growth", monthly: 100, annualRate: 0.12, target: 1268, expected: 12},
		{name: "first contribution suffices", monthly: 500, annualRate: 0.05, target: 100, expected: 1},
		{name: "nothing to reach", monthly: 100, annualRate: 0.05, target: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthsToReachTarget(tt.monthly, tt.annualRate, tt.target)
			if got != tt.expected {
				t.Fatalf("MonthsToReachTarget(%v, %v, %v) = %d, expected %d", tt.monthly, tt.annualRate, tt.target, got, tt.expected)
			}
		})
	}
}

func TestMonthsToReachTargetSaturates(t *testing.T) {
	for _, target := range []float64{0.01, 1, 1000, MillionTarget} {
		got := MonthsToReachTarget(0, 0, target)
		if got != 12000 {
			t.Fatalf("MonthsToReachTarget(0, 0, %v) = %d, expected 12000", target, got)
		}
		if !Saturated(got) {
			t.Fatalf("expected %d to be reported as saturated", got)
		}
	}

	if got := MonthsToReachTarget(-50, 0.05, 1000); got != MaxMonths {
		t.Fatalf("negative contribution should saturate, got %d", got)
	}
}

func TestMonthsToReachTargetMonotonic(t *testing.T) {
	target := 250000.0
	for _, rate := range []float64{0, 0.02, 0.06, 0.1} {
		previous := MonthsToReachTarget(25, rate, target)
		for monthly := 50.0; monthly <= 5000; monthly += 50 {
			current := MonthsToReachTarget(monthly, rate, target)
			if current > previous {
				t.Fatalf("rate %.2f: months increased from %d to %d as monthly rose to %.0f", rate, previous, current, monthly)
			}
			previous = current
		}
	}

	for _, monthly := range []float64{100, 500, 2000} {
		previous := MonthsToReachTarget(monthly, 0, target)
		for rate := 0.005; rate <= 0.2; rate += 0.005 {
			current := MonthsToReachTarget(monthly, rate, target)
			if current > previous {
				t.Fatalf("monthly %.0f: months increased from %d to %d as rate rose to %.3f", monthly, previous, current, rate)
			}
			previous = current
		}
	}
}

func TestContributionPlanValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    ContributionPlan
		wantErr bool
	}{
		{name: "valid", plan: ContributionPlan{Monthly: 100, AnnualRate: 0.05, Years: 10}},
		{name: "zero everything is valid", plan: ContributionPlan{}},
		{name: "negative monthly", plan: ContributionPlan{Monthly: -1, Years: 1}, wantErr: true},
		{name: "negative rate", plan: ContributionPlan{Monthly: 1, AnnualRate: -0.01, Years: 1}, wantErr: true},
		{name: "negative years", plan: ContributionPlan{Monthly: 1, Years: -2}, wantErr: true},
		{name: "horizon is allowed", plan: ContributionPlan{Monthly: 1, Years: MaxYears}},
		{name: "beyond horizon", plan: ContributionPlan{Monthly: 1, Years: MaxYears + 1}, wantErr: true},
		{name: "huge years", plan: ContributionPlan{Monthly: 1, Years: 2_000_000_000}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSavingsTargetValidate(t *testing.T) {
	tests := []struct {
		name    string
		target  SavingsTarget
		wantErr bool
	}{
		{name: "valid", target: SavingsTarget{Monthly: 100, AnnualRate: 0.05, Target: 1000}},
		{name: "zero monthly is allowed", target: SavingsTarget{Target: 1000}},
		{name: "zero target", target: SavingsTarget{Monthly: 100}, wantErr: true},
		{name: "negative monthly", target: SavingsTarget{Monthly: -5, Target: 10}, wantErr: true},
		{name: "negative rate", target: SavingsTarget{Monthly: 5, AnnualRate: -1, Target: 10}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.target.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSavingsTargetDuration(t *testing.T) {
	d := SavingsTarget{Monthly: 1000, AnnualRate: 0, Target: 30000}.Duration()
	if d.Months != 30 || d.Years != 2 || d.RemainingMonths != 6 || d.Saturated {
		t.Fatalf("unexpected duration %+v", d)
	}

	d = SavingsTarget{Target: MillionTarget}.Duration()
	if !d.Saturated || d.Years != 1000 || d.RemainingMonths != 0 {
		t.Fatalf("expected saturated 1000-year duration, got %+v", d)
	}
}

func TestSchedule(t *testing.T) {
	plan := ContributionPlan{Monthly: 100, AnnualRate: 0.12, Years: 3}
	points, err := Schedule(plan, "2025-01")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 yearly points, got %d", len(points))
	}

	expectedDates := []string{"2025-12", "2026-12", "2027-12"}
	for i, point := range points {
		if point.Date != expectedDates[i] {
			t.Errorf("point %d date = %s, expected %s", i, point.Date, expectedDates[i])
		}
		if point.Year != i+1 {
			t.Errorf("point %d year = %d, expected %d", i, point.Year, i+1)
		}
		if math.Abs(point.Contributed+point.Interest-point.Balance) > 1e-9 {
			t.Errorf("point %d does not add up: %+v", i, point)
		}
	}

	last := points[len(points)-1]
	if math.Abs(last.Balance-plan.FutureValue()) > 1e-6 {
		t.Fatalf("final balance %.6f differs from closed form %.6f", last.Balance, plan.FutureValue())
	}
	if last.Contributed != plan.TotalContributed() {
		t.Fatalf("contributed %.2f, expected %.2f", last.Contributed, plan.TotalContributed())
	}
}

func TestScheduleEdgeCases(t *testing.T) {
	points, err := Schedule(ContributionPlan{Monthly: 100, Years: 0}, "2025-01")
	if err != nil || points != nil {
		t.Fatalf("expected empty schedule for zero years, got %v, %v", points, err)
	}

	points, err = Schedule(ContributionPlan{Monthly: 100, Years: 2}, "")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if points[0].Date != "" {
		t.Fatalf("expected undated points, got %q", points[0].Date)
	}
	if points[1].Balance != 2400 {
		t.Fatalf("zero-rate balance = %.2f, expected 2400", points[1].Balance)
	}

	if _, err := Schedule(ContributionPlan{Monthly: 100, Years: 1}, "January"); err == nil {
		t.Fatal("expected error for malformed start date")
	}
}

func TestScheduleRejectsUnboundedPlans(t *testing.T) {
	_, err := Schedule(ContributionPlan{Monthly: 100, AnnualRate: 0.05, Years: 5_000_000}, "2025-01")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for a 5M year plan, got %v", err)
	}

	plan := ContributionPlan{Monthly: 100, AnnualRate: PercentToRate(100000), Years: 200}
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if _, err := Schedule(plan, "2025-01"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := CheckFinite(plan.FutureValue()); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for future value %v, got %v", plan.FutureValue(), err)
	}
}

func TestCheckFinite(t *testing.T) {
	if err := CheckFinite(0, 1268.25, -3); err != nil {
		t.Fatalf("CheckFinite() error = %v", err)
	}
	if err := CheckFinite(1, math.Inf(1)); err == nil {
		t.Fatal("expected error for +Inf")
	}
	if err := CheckFinite(math.NaN()); err == nil {
		t.Fatal("expected error for NaN")
	}
}

func TestPercentToRate(t *testing.T) {
	if got := PercentToRate(12); math.Abs(got-0.12) > 1e-12 {
		t.Fatalf("PercentToRate(12) = %v", got)
	}
}
