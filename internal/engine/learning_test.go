package engine

import "testing"

func TestWilsonZeroSamplesNeutralPrior(t *testing.T) {
	if got := Wilson(0, 0); got != 0.5 {
		t.Errorf("Wilson(0,0) = %f, want 0.5", got)
	}
}

func TestWilsonBounds(t *testing.T) {
	for _, total := range []int{1, 5, 10, 50, 100} {
		if got := Wilson(0, total); got >= 0.2 {
			t.Errorf("Wilson(0,%d) = %f, want < 0.2", total, got)
		}
	}
	for _, total := range []int{5, 10, 25, 100} {
		if got := Wilson(total, total); got <= 0.5 {
			t.Errorf("Wilson(%d,%d) = %f, want > 0.5", total, total, got)
		}
	}
	for _, tc := range [][2]int{{0, 1}, {1, 1}, {3, 7}, {100, 100}} {
		got := Wilson(tc[0], tc[1])
		if got < 0 || got > 1 {
			t.Errorf("Wilson(%d,%d) = %f, out of [0,1]", tc[0], tc[1], got)
		}
	}
}

func TestWilsonMonotoneInSuccessRatio(t *testing.T) {
	prev := -1.0
	for successes := 0; successes <= 20; successes++ {
		got := Wilson(successes, 20)
		if got < prev {
			t.Errorf("Wilson(%d,20) = %f decreased from %f", successes, got, prev)
		}
		prev = got
	}
}

func TestWilsonMonotoneInSampleSize(t *testing.T) {
	// 80% success ratio at growing totals gives a non-decreasing sequence.
	totals := []int{5, 10, 25, 50, 100}
	prev := -1.0
	for _, total := range totals {
		got := Wilson(total*8/10, total)
		if got < prev {
			t.Errorf("Wilson(%d,%d) = %f decreased from %f", total*8/10, total, got, prev)
		}
		prev = got
	}
}

func TestConfidenceCountsNeutral(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 8; i++ {
		tr.RecordOutcome("f", OutcomePositive)
	}
	for i := 0; i < 2; i++ {
		tr.RecordOutcome("f", OutcomeNeutral)
	}

	// Confidence: 8/10 including neutral. Effectiveness: 8/8 excluding it.
	conf := tr.Confidence("f")
	eff := tr.Effectiveness("f")
	if eff.Score != 1.0 {
		t.Errorf("effectiveness score = %f, want 1.0", eff.Score)
	}
	if eff.Samples != 8 {
		t.Errorf("effectiveness samples = %d, want 8", eff.Samples)
	}
	if conf >= eff.Confidence {
		t.Errorf("confidence %f should be below effectiveness confidence %f (neutral dilutes)", conf, eff.Confidence)
	}
}

func TestEffectivenessSeparatesGoodFromBad(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 20; i++ {
		tr.RecordOutcome("good", OutcomePositive)
		tr.RecordOutcome("bad", OutcomeNegative)
	}

	good := tr.Effectiveness("good")
	bad := tr.Effectiveness("bad")
	if good.Score <= bad.Score {
		t.Errorf("good score %f not above bad score %f", good.Score, bad.Score)
	}
	if good.Score != 1.0 || bad.Score != 0.0 {
		t.Errorf("scores = %f / %f, want 1.0 / 0.0", good.Score, bad.Score)
	}
}

func TestConfidenceStabilityFloor(t *testing.T) {
	// A strong positive history must retain more than half its confidence
	// through a modest negative burst.
	tr := NewTracker()
	for i := 0; i < 20; i++ {
		tr.RecordOutcome("f", OutcomePositive)
	}
	before := tr.Confidence("f")

	for i := 0; i < 5; i++ {
		tr.RecordOutcome("f", OutcomeNegative)
	}
	after := tr.Confidence("f")

	if after <= before*0.5 {
		t.Errorf("confidence fell from %f to %f, below the 50%% stability floor", before, after)
	}
}

func TestUnknownIDDefaults(t *testing.T) {
	tr := NewTracker()

	if got := tr.Confidence("ghost"); got != 0.5 {
		t.Errorf("Confidence(unknown) = %f, want 0.5", got)
	}
	if got := tr.Weight("ghost"); got != 1.0 {
		t.Errorf("Weight(unknown) = %f, want 1.0", got)
	}
	eff := tr.Effectiveness("ghost")
	if eff.Samples != 0 || eff.Score != 0 {
		t.Errorf("Effectiveness(unknown) = %+v, want zero samples", eff)
	}

	// Feedback and outcomes on unknown ids must be safe no-ops.
	tr.RecordFeedback("ghost2", true)
	tr.RecordOutcome("ghost3", OutcomeNeutral)
}

func TestFeedbackWeightMultiplicative(t *testing.T) {
	tr := NewTracker()

	tr.RecordFeedback("f", true)
	tr.RecordFeedback("f", true)
	want := 1.1 * 1.1
	if got := tr.Weight("f"); !closeTo(got, want) {
		t.Errorf("weight after two positives = %f, want %f", got, want)
	}

	tr.RecordFeedback("f", false)
	want *= 0.9
	if got := tr.Weight("f"); !closeTo(got, want) {
		t.Errorf("weight after negative = %f, want %f", got, want)
	}
}

func TestFeedbackIndependentOfOutcomes(t *testing.T) {
	tr := NewTracker()

	tr.RecordFeedback("f", false)
	if got := tr.Confidence("f"); got != 0.5 {
		t.Errorf("feedback moved confidence to %f, signals must stay independent", got)
	}

	tr.RecordOutcome("g", OutcomePositive)
	if got := tr.Weight("g"); got != 1.0 {
		t.Errorf("outcome moved weight to %f, signals must stay independent", got)
	}
}

func TestDisabledTrackerSkipsOutcomes(t *testing.T) {
	tr := NewTracker()
	tr.SetEnabled(false)
	tr.RecordOutcome("f", OutcomePositive)

	eff := tr.Effectiveness("f")
	if eff.Samples != 0 {
		t.Errorf("disabled tracker recorded %d samples", eff.Samples)
	}

	// Feedback weights are a separate mechanism and stay live.
	tr.RecordFeedback("f", true)
	if got := tr.Weight("f"); !closeTo(got, 1.1) {
		t.Errorf("weight = %f, want 1.1", got)
	}
}

func TestMaturityTrajectory(t *testing.T) {
	cases := []struct {
		samples int
		score   float64
		want    MaturityLevel
	}{
		{0, 0, MaturityColdStart},
		{2, 1.0, MaturityColdStart},
		{5, 0.8, MaturityEarly},
		{15, 0.8, MaturityEstablished},
		{30, 0.4, MaturityEstablished}, // low score caps the level
		{30, 0.8, MaturityProven},
		{80, 0.9, MaturityMature},
	}
	for _, tc := range cases {
		if got := Maturity(tc.samples, tc.score); got != tc.want {
			t.Errorf("Maturity(%d, %.1f) = %q, want %q", tc.samples, tc.score, got, tc.want)
		}
	}
}

func closeTo(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
