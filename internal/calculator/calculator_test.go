package calculator

import (
	"math"
	"testing"
	"time"

	"StockLens/internal/model"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func barsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) // a Monday
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   start.AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMASeries(t *testing.T) {
	out := SMASeries([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3)
	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Errorf("expected NaN warm-up, got %v %v", out[0], out[1])
	}
	if !near(out[2], 2) || !near(out[9], 9) {
		t.Errorf("unexpected SMA values %v", out)
	}
	short := SMASeries([]float64{1, 2}, 5)
	if len(short) != 2 || !math.IsNaN(short[1]) {
		t.Errorf("short input should be all NaN, got %v", short)
	}
	if v, err := CalculateSMA([]float64{1, 2, 3, 4}, 2); err != nil || v != 3.5 {
		t.Errorf("CalculateSMA = %v, %v", v, err)
	}
}

func TestEMASeries(t *testing.T) {
	out := EMASeries([]float64{1, 2, 3}, 2)
	if !math.IsNaN(out[0]) {
		t.Errorf("expected NaN before period, got %v", out[0])
	}
	if !near(out[1], 5.0/3) || !near(out[2], 2+5.0/9) {
		t.Errorf("unexpected EMA %v", out)
	}
	lead := EMASeries([]float64{math.NaN(), 4, 4, 4}, 2)
	if !math.IsNaN(lead[1]) || !near(lead[2], 4) {
		t.Errorf("leading NaN should be skipped, got %v", lead)
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	bars := barsFromCloses(rising)
	rsi, err := CalculateRSI(bars, 14)
	if err != nil || rsi != 100 {
		t.Errorf("rising series RSI = %v, %v", rsi, err)
	}
	if v, _ := CalculateRSI(bars[:10], 14); v != 50 {
		t.Errorf("insufficient data should default to 50, got %v", v)
	}

	zigzag := make([]float64, 40)
	for i := range zigzag {
		zigzag[i] = 100 + float64(i%3) - float64(i%2)
	}
	series := RSISeries(zigzag, 14)
	if !math.IsNaN(series[13]) || math.IsNaN(series[14]) {
		t.Error("first RSI value should appear at index period")
	}
	scalar, _ := CalculateRSI(barsFromCloses(zigzag), 14)
	if !near(scalar, series[len(series)-1]) {
		t.Errorf("scalar %v and series %v disagree", scalar, series[len(series)-1])
	}
	if scalar <= 0 || scalar >= 100 {
		t.Errorf("RSI out of range: %v", scalar)
	}
}

func TestMACDConstantSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50
	}
	line, sig, hist := MACD(closes, 12, 26, 9)
	if !math.IsNaN(line[24]) || math.IsNaN(line[25]) {
		t.Error("MACD line should start once the slow EMA is defined")
	}
	if !math.IsNaN(sig[32]) || math.IsNaN(sig[33]) {
		t.Error("signal should need nine MACD values")
	}
	if !near(line[59], 0) || !near(hist[59], 0) {
		t.Errorf("constant series should give zero MACD, got %v %v", line[59], hist[59])
	}
}

func TestBollingerPopulationStdDev(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	upper, middle, lower := Bollinger(closes, 20, 2)
	sd := math.Sqrt(399.0 / 12.0)
	if !near(middle[19], 10.5) || !near(upper[19], 10.5+2*sd) || !near(lower[19], 10.5-2*sd) {
		t.Errorf("unexpected bands %v %v %v", upper[19], middle[19], lower[19])
	}
	if !math.IsNaN(upper[18]) {
		t.Error("bands should be NaN before the window fills")
	}
}

func TestATR(t *testing.T) {
	bars := barsFromCloses([]float64{10, 10, 10, 10, 10})
	out := ATR(bars, 3)
	if !math.IsNaN(out[1]) || !near(out[2], 2) || !near(out[4], 2) {
		t.Errorf("unexpected ATR %v", out)
	}
	gap := []model.OHLCV{
		{High: 11, Low: 9, Close: 10},
		{High: 16, Low: 14, Close: 15},
	}
	tr := TrueRange(gap)
	if tr[0] != 2 || tr[1] != 6 {
		t.Errorf("true range should include the gap, got %v", tr)
	}
}

func TestOBVAndVWAP(t *testing.T) {
	bars := barsFromCloses([]float64{10, 11, 10, 10, 12})
	for i := range bars {
		bars[i].Volume = float64(100 * (i + 1))
	}
	obv := OBV(bars)
	want := []float64{100, 300, 0, 0, 500}
	for i := range want {
		if obv[i] != want[i] {
			t.Fatalf("OBV = %v, want %v", obv, want)
		}
	}

	vw := VWAP(bars[:2])
	expected := (100*10.0 + 200*11.0) / 300
	if !near(vw[1], expected) {
		t.Errorf("VWAP = %v, want %v", vw[1], expected)
	}
	if OBV(nil) != nil {
		t.Error("OBV of no bars should be nil")
	}
}

func TestStochastic(t *testing.T) {
	bars := barsFromCloses([]float64{10, 11, 12, 13, 14})
	k, d := Stochastic(bars, 3, 2)
	// window for index 2: highs 11..13, lows 9..11 -> (12-9)/(13-9)
	if !math.IsNaN(k[1]) || !near(k[2], 75) || !near(k[4], 75) {
		t.Errorf("unexpected %%K %v", k)
	}
	if !math.IsNaN(d[2]) || !near(d[3], 75) {
		t.Errorf("unexpected %%D %v", d)
	}
}

func TestSupportResistance(t *testing.T) {
	highs := []float64{10, 12, 15, 12, 10, 11, 14, 11, 10, 13, 18, 13, 10}
	bars := make([]model.OHLCV, len(highs))
	for i, h := range highs {
		bars[i] = model.OHLCV{High: h, Low: h - 5}
	}
	support, resistance := SupportResistance(bars, 50, 5)
	if len(resistance) != 3 || resistance[0] != 18 || resistance[1] != 15 || resistance[2] != 14 {
		t.Errorf("unexpected resistance %v", resistance)
	}
	if len(support) == 0 || support[0] != 5 {
		t.Errorf("unexpected support %v", support)
	}
	for i := 1; i < len(support); i++ {
		if support[i] < support[i-1] {
			t.Errorf("support should be ascending: %v", support)
		}
	}
}

func TestRangesAndPosition(t *testing.T) {
	bars := barsFromCloses([]float64{10, 20, 30})
	h, l, err := Calculate52WeekRange(bars)
	if err != nil || h != 31 || l != 9 {
		t.Errorf("52w range = %v %v %v", h, l, err)
	}
	if _, _, err := Calculate30DayRange(nil); err == nil {
		t.Error("expected error for empty bars")
	}
	if pos, _ := Calculate52WeekPosition(40, 31, 9); pos != 1 {
		t.Errorf("position should clamp to 1, got %v", pos)
	}
	if pos, _ := Calculate52WeekPosition(10, 10, 10); pos != 0.5 {
		t.Errorf("flat range should give 0.5, got %v", pos)
	}
}

func TestResampleWeekly(t *testing.T) {
	bars := barsFromCloses([]float64{10, 11, 12, 13, 14, 15, 16, 17})
	weekly := ResampleWeekly(bars) // Jan 1-7 is one ISO week, Jan 8 starts the next
	if len(weekly) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weekly))
	}
	w := weekly[0]
	if w.Open != 10 || w.Close != 16 || w.High != 17 || w.Low != 9 || w.Volume != 7000 {
		t.Errorf("unexpected first week %+v", w)
	}
}

func TestComputeAndLatest(t *testing.T) {
	closes := make([]float64, 260)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/8)
	}
	series := &model.PriceSeries{Symbol: "TEST", Bars: barsFromCloses(closes)}
	ind := Compute(series)
	if len(ind.SMA200) != 260 || math.IsNaN(ind.SMA200[259]) {
		t.Fatal("SMA200 should be defined on the last bar")
	}
	snap := Latest(series, ind)
	if snap.Close != closes[259] || snap.Close10Ago != closes[249] {
		t.Errorf("unexpected close fields %v %v", snap.Close, snap.Close10Ago)
	}
	if math.IsNaN(snap.RSI) || math.IsNaN(snap.StochD) || math.IsNaN(snap.ATR) {
		t.Error("latest indicators should be defined")
	}
	if snap.Position52w < 0 || snap.Position52w > 1 {
		t.Errorf("position out of range %v", snap.Position52w)
	}
	if !math.IsNaN(snap.TradesAvg) {
		t.Error("no trades column should leave TradesAvg NaN")
	}
	rows := Rows(series.Bars, ind)
	if rows[0].SMA20 != nil || rows[259].SMA20 == nil {
		t.Error("rows should carry nil for undefined values")
	}
}

func TestLatestShortSeries(t *testing.T) {
	series := &model.PriceSeries{Bars: barsFromCloses([]float64{10, 11, 12})}
	snap := Latest(series, Compute(series))
	if !math.IsNaN(snap.SMA20) || !math.IsNaN(snap.RSI) {
		t.Error("short series should leave long indicators undefined")
	}
	if snap.Close10Ago != 12 {
		t.Errorf("lag should fall back to the current close, got %v", snap.Close10Ago)
	}
}
