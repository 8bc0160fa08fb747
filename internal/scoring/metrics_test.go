package scoring

import "testing"

func TestZscoreComponent_HigherBetter(t *testing.T) {
	population := []float64{10, 20}
	got := zscoreComponent(10, population, higherBetter)
	if want := 40.0; got < want-0.5 || got > want+0.5 {
		t.Fatalf("zscoreComponent(10) = %v, want ~%v", got, want)
	}
	got = zscoreComponent(20, population, higherBetter)
	if want := 60.0; got < want-0.5 || got > want+0.5 {
		t.Fatalf("zscoreComponent(20) = %v, want ~%v", got, want)
	}
}

func TestZscoreComponent_ZeroSpreadPopulationIsNeutral(t *testing.T) {
	population := []float64{5, 5, 5}
	got := zscoreComponent(5, population, higherBetter)
	if got != 50 {
		t.Fatalf("zscoreComponent with zero spread = %v, want 50", got)
	}
}

func TestZscoreComponent_ClampsToRange(t *testing.T) {
	population := []float64{1, 2, 3, 4, 100}
	got := zscoreComponent(100, population, higherBetter)
	if got < 0 || got > 100 {
		t.Fatalf("zscoreComponent out of range: %v", got)
	}
}

func TestPercentileComponent_LowerBetterFlipsRank(t *testing.T) {
	population := []float64{10, 20, 30}
	higher := percentileComponent(10, population, higherBetter)
	lower := percentileComponent(10, population, lowerBetter)
	if higher+lower != 100 {
		t.Fatalf("higher(%v)+lower(%v) should sum to 100", higher, lower)
	}
}

func TestClamp(t *testing.T) {
	if clamp(-5, 0, 100) != 0 {
		t.Fatal("clamp should floor at lo")
	}
	if clamp(200, 0, 100) != 100 {
		t.Fatal("clamp should ceiling at hi")
	}
	if clamp(50, 0, 100) != 50 {
		t.Fatal("clamp should pass through in-range values")
	}
}
