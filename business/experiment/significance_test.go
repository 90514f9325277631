package experiment

import "testing"

func TestPairwiseConfidenceClearWinner(t *testing.T) {
	// 20% vs 10% over 1000 views each is an unambiguous difference.
	conf := pairwiseConfidence(200, 1000, 100, 1000)
	if conf < 0.99 {
		t.Fatalf("confidence = %f, want > 0.99", conf)
	}
}

func TestPairwiseConfidenceNoData(t *testing.T) {
	if conf := pairwiseConfidence(0, 0, 10, 100); conf != 0.5 {
		t.Fatalf("confidence with empty baseline = %f, want 0.5", conf)
	}
	if conf := pairwiseConfidence(10, 100, 0, 0); conf != 0.5 {
		t.Fatalf("confidence with empty challenger = %f, want 0.5", conf)
	}
}

func TestPairwiseConfidenceEqualRates(t *testing.T) {
	conf := pairwiseConfidence(100, 1000, 100, 1000)
	if !almostEqual(conf, 0.5) {
		t.Fatalf("confidence for equal rates = %f, want 0.5", conf)
	}
}

func TestPairwiseConfidenceDirectional(t *testing.T) {
	better := pairwiseConfidence(150, 1000, 100, 1000)
	worse := pairwiseConfidence(100, 1000, 150, 1000)
	if better <= 0.5 {
		t.Fatalf("improving variant confidence = %f, want > 0.5", better)
	}
	if worse >= 0.5 {
		t.Fatalf("regressing variant confidence = %f, want < 0.5", worse)
	}
	if !almostEqual(better+worse, 1) {
		t.Fatalf("confidences not symmetric: %f + %f", better, worse)
	}
}

func TestWilsonIntervalBracketsObservedRate(t *testing.T) {
	lower, upper := wilsonInterval(50, 1000, 0.95)
	if lower >= 5 || upper <= 5 {
		t.Fatalf("interval [%f, %f] does not bracket 5%%", lower, upper)
	}
	if lower < 0 || upper > 100 {
		t.Fatalf("interval [%f, %f] escapes [0, 100]", lower, upper)
	}
}

func TestWilsonIntervalNoImpressions(t *testing.T) {
	lower, upper := wilsonInterval(0, 0, 0.95)
	if lower != 0 || upper != 0 {
		t.Fatalf("interval without data = [%f, %f], want [0, 0]", lower, upper)
	}
}

func TestWilsonIntervalNarrowsWithSampleSize(t *testing.T) {
	smallLower, smallUpper := wilsonInterval(5, 100, 0.95)
	largeLower, largeUpper := wilsonInterval(500, 10000, 0.95)
	if largeUpper-largeLower >= smallUpper-smallLower {
		t.Fatalf("large-sample interval [%f, %f] not narrower than [%f, %f]",
			largeLower, largeUpper, smallLower, smallUpper)
	}
}
