package indicators

import (
	"testing"
	"time"

	"SignalTradeBot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bars(closes ...float64) []models.Price {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Price, len(closes))
	for i, c := range closes {
		out[i] = models.Price{
			OpenTime: start.AddDate(0, 0, i),
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   1000,
		}
	}
	return out
}

func ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func TestEMASeededWithSMA(t *testing.T) {
	ema := NewEMAService().Calculate([]float64{1, 2, 3, 4}, 3)

	require.Len(t, ema, 4)
	assert.Equal(t, 2.0, ema[2])
	assert.InDelta(t, 3.0, ema[3], 1e-9)
	assert.Nil(t, NewEMAService().Calculate([]float64{1}, 3))
}

func TestSMA(t *testing.T) {
	v, ok := NewEMAService().SMA([]float64{1, 2, 3, 4, 5}, 2)
	require.True(t, ok)
	assert.Equal(t, 4.5, v)

	_, ok = NewEMAService().SMA([]float64{1}, 2)
	assert.False(t, ok)
}

func TestRSIMonotonicSeries(t *testing.T) {
	rsi, ok := NewRSIService().Last(ramp(30, 100, 1), 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, rsi)

	rsi, ok = NewRSIService().Last(ramp(30, 100, -1), 14)
	require.True(t, ok)
	assert.Equal(t, 0.0, rsi)
}

func TestMACDUptrendIsPositive(t *testing.T) {
	m := NewMACDService().Calculate(ramp(60, 100, 1), 12, 26, 9)
	require.NotNil(t, m)
	assert.Greater(t, m.MACD[59], 0.0)
	assert.InDelta(t, m.MACD[59], m.Signal[59], 1e-6)

	assert.Nil(t, NewMACDService().Calculate(ramp(10, 1, 1), 12, 26, 9))
}

func TestBollingerFlatSeries(t *testing.T) {
	bb, ok := NewBBandsService().CalculateOne(ramp(20, 50, 0), 20, 2)
	require.True(t, ok)
	assert.Equal(t, 50.0, bb.Upper)
	assert.Equal(t, 50.0, bb.Middle)
	assert.Equal(t, 50.0, bb.Lower)
}

func TestATR(t *testing.T) {
	prices := bars(ramp(20, 100, 0)...)
	assert.Equal(t, 2.0, ATR(prices, 14))

	// Short series falls back to the last bar's range.
	short := bars(100, 101)
	short[1].High, short[1].Low = 105, 100
	assert.Equal(t, 5.0, ATR(short, 14))
	assert.Equal(t, 0.0, ATR(nil, 14))
}

func TestTrueRangeUsesPreviousClose(t *testing.T) {
	prices := bars(100, 110)
	tr := TrueRange(prices)
	assert.Equal(t, 2.0, tr[0])
	assert.Equal(t, 11.0, tr[1])
}

func TestOscillators(t *testing.T) {
	up := bars(ramp(30, 100, 1)...)

	k, d, ok := Stochastic(up, 14, 3, 3)
	require.True(t, ok)
	assert.InDelta(t, 100*14.0/15.0, k, 1e-9)
	assert.InDelta(t, k, d, 1e-9)

	wr, ok := WilliamsR(up, 14)
	require.True(t, ok)
	assert.InDelta(t, -100*1.0/15.0, wr, 1e-9)

	roc, ok := ROC(models.Closes(up), 12)
	require.True(t, ok)
	assert.InDelta(t, 12.0/117.0*100, roc, 1e-9)

	_, ok = ROC([]float64{1, 2}, 12)
	assert.False(t, ok)
}

func TestADXUptrend(t *testing.T) {
	adx, plus, minus, ok := ADX(bars(ramp(40, 100, 2)...), 14)
	require.True(t, ok)
	assert.Greater(t, plus, minus)
	assert.Equal(t, 0.0, minus)
	assert.InDelta(t, 100.0, adx, 1e-9)
}

func TestIchimokuNeedsHistory(t *testing.T) {
	_, _, ok := Ichimoku(bars(ramp(77, 100, 1)...))
	assert.False(t, ok)

	a, b, ok := Ichimoku(bars(ramp(78, 100, 1)...))
	require.True(t, ok)
	// Spans are computed at bar 51.
	assert.InDelta(t, 100+51-(8+25)/4.0, a, 1e-9)
	assert.InDelta(t, 100+51-51/2.0, b, 1e-9)
}

func TestVolumeIndicators(t *testing.T) {
	up := bars(ramp(30, 100, 1)...)

	mfi, ok := MFI(up, 14)
	require.True(t, ok)
	assert.Equal(t, 100.0, mfi)

	cmf, ok := CMF(up, 20)
	require.True(t, ok)
	assert.InDelta(t, 0.0, cmf, 1e-9)

	vwap, ok := VWAP(bars(10, 20))
	require.True(t, ok)
	assert.Equal(t, 15.0, vwap)

	_, ok = VWAP([]models.Price{{High: 1, Low: 1, Close: 1}})
	assert.False(t, ok)
}

func TestLevels(t *testing.T) {
	prices := bars(10, 9, 8, 9, 10, 11, 12, 11, 10, 11, 12)

	s, ok := NearestSupport(prices, 11, 50)
	require.True(t, ok)
	assert.Equal(t, 9.0, s)

	s, ok = NearestSupport(prices, 9, 50)
	require.True(t, ok)
	assert.Equal(t, 7.0, s)

	r, ok := NearestResistance(prices, 10, 50)
	require.True(t, ok)
	assert.Equal(t, 13.0, r)

	_, ok = NearestSupport(prices, 5, 50)
	assert.False(t, ok)

	assert.Equal(t, 7.0, SwingLow(prices, 20))
	assert.Equal(t, 13.0, SwingHigh(prices, 20))

	p := Pivots(bars(10, 10), 20)
	assert.Equal(t, 10.0, p.Pivot)
	assert.Equal(t, 11.0, p.Resistance1)
	assert.Equal(t, 12.0, p.Resistance2)
	assert.Equal(t, 9.0, p.Support1)
	assert.Equal(t, 8.0, p.Support2)

	f382, f618, ok := Fibonacci(bars(ramp(50, 101, 0)...), 50)
	require.True(t, ok)
	assert.InDelta(t, 102-0.382*2, f382, 1e-9)
	assert.InDelta(t, 102-0.618*2, f618, 1e-9)
}

func TestBundleBuilder(t *testing.T) {
	b := NewBundleBuilder()

	assert.True(t, b.Build(nil).IsEmpty())

	short := b.Build(bars(ramp(10, 100, 1)...))
	require.NotNil(t, short.Close)
	assert.Equal(t, 109.0, *short.Close)
	assert.Nil(t, short.RSI)
	assert.Nil(t, short.SMA20)

	full := b.Build(bars(ramp(220, 100, 1)...))
	for name, v := range map[string]*float64{
		"rsi": full.RSI, "williams": full.WilliamsR, "stochK": full.StochK,
		"roc": full.ROC, "macd": full.MACD, "adx": full.ADX, "sma200": full.SMA200,
		"spanA": full.IchimokuSpanA, "mfi": full.MFI, "cmf": full.CMF, "vwap": full.VWAP,
		"bbUpper": full.BBUpper, "atr": full.ATR, "fib618": full.Fib618,
	} {
		assert.NotNil(t, v, name)
	}
	assert.Nil(t, full.PSAR)
	assert.Nil(t, full.SupertrendDirection)
}
