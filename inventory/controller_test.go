package inventory

import (
	"math"
	"testing"
)

func TestSkewProportionalAndSaturating(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)

	if got := c.Skew("AAPL", 100); got != 0 {
		t.Fatalf("flat book should have no skew, got %v", got)
	}

	// 250 shares at 100 is half the budget: half of max skew.
	inv.ApplyFill("AAPL", 250)
	if got := c.Skew("AAPL", 100); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("half budget should skew 0.25, got %v", got)
	}

	// Blowing through the budget saturates at 0.5.
	inv.ApplyFill("AAPL", 1750)
	if got := c.Skew("AAPL", 100); got != 0.5 {
		t.Fatalf("over budget should saturate at 0.5, got %v", got)
	}
}

func TestSkewSymmetricForShorts(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)
	inv.ApplyFill("AAPL", -250)
	if got := c.Skew("AAPL", 100); math.Abs(got-0.25) > 1e-9 {
		t.Fatalf("short book should skew like the long, got %v", got)
	}
}

func TestScaleBiasesTowardFlat(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)

	if s := c.Scale("AAPL"); s.Bid != 1 || s.Ask != 1 {
		t.Fatalf("flat book should scale 1/1, got %+v", s)
	}

	inv.ApplyFill("AAPL", 100)
	s := c.Scale("AAPL")
	if s.Bid != 0.7 || s.Ask != 1.5 {
		t.Fatalf("long book should shrink bid, grow ask, got %+v", s)
	}

	inv.ApplyFill("AAPL", -200) // now short 100
	s = c.Scale("AAPL")
	if s.Bid != 1.5 || s.Ask != 0.7 {
		t.Fatalf("short book should grow bid, shrink ask, got %+v", s)
	}
}

func TestCheckLimitLiquidatesHalfTheExcess(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)

	// Cap: 1000000*0.1/100 = 1000 shares. Position 1200: excess 200.
	inv.ApplyFill("AAPL", 1200)
	liq, breach := c.CheckLimit("AAPL", 100, 1000000)
	if !breach {
		t.Fatalf("expected breach")
	}
	if liq.Side != "SELL" || liq.Quantity != 100 {
		t.Fatalf("expected SELL 100, got %s %v", liq.Side, liq.Quantity)
	}
}

func TestCheckLimitShortSideBuysBack(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)
	inv.ApplyFill("AAPL", -1200)
	liq, breach := c.CheckLimit("AAPL", 100, 1000000)
	if !breach || liq.Side != "BUY" || liq.Quantity != 100 {
		t.Fatalf("expected BUY 100, got %+v breach=%v", liq, breach)
	}
}

func TestCheckLimitInsideCap(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)
	inv.ApplyFill("AAPL", 900)
	if _, breach := c.CheckLimit("AAPL", 100, 1000000); breach {
		t.Fatalf("inside cap should not breach")
	}
	// Tiny excess that floors to zero shares is not actionable.
	inv.ApplyFill("AAPL", 101) // 1001 vs cap 1000, half excess = 0.5
	if _, breach := c.CheckLimit("AAPL", 100, 1000000); breach {
		t.Fatalf("sub-share excess should not breach")
	}
}

func TestCheckLimitDegenerateInputs(t *testing.T) {
	inv := NewTracker()
	c := NewController(inv, 50000, 0.1)
	inv.ApplyFill("AAPL", 5000)
	if _, breach := c.CheckLimit("AAPL", 0, 1000000); breach {
		t.Fatalf("zero price must not breach")
	}
	if _, breach := c.CheckLimit("AAPL", 100, 0); breach {
		t.Fatalf("zero portfolio must not breach")
	}
}
