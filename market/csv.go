package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// CandleColumns is the header written by WriteCandlesCSV.
var CandleColumns = []string{
	"datetime", "symbol", "open", "high", "low", "close", "volume",
	"sma", "lower_band", "upper_band", "entry_signal",
}

// timeLayouts are tried in order when parsing CSV timestamps. Layouts without
// a zone are interpreted in the reader's location.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses a CSV timestamp. Zoned layouts keep their own offset;
// others are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// header maps lower-cased column names to their index.
type header map[string]int

func newHeader(row []string) header {
	h := header{}
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h
}

// find returns the index of the first alias present.
func (h header) find(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if i, ok := h[a]; ok {
			return i, true
		}
	}
	return -1, false
}

func (h header) require(aliases ...string) (int, error) {
	i, ok := h.find(aliases...)
	if !ok {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, aliases[0])
	}
	return i, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseFloat treats an empty or "nan" cell as NaN.
func parseFloat(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "0.0", "false":
		return false, nil
	case "1", "1.0", "true":
		return true, nil
	}
	return false, fmt.Errorf("bad flag %q", s)
}

// ReadCandlesCSV reads a headered candle CSV. The datetime and OHLC columns
// are required; volume, symbol, indicator and signal columns are optional and
// default to 0, "", NaN and false.
func ReadCandlesCSV(r io.Reader, loc *time.Location) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptySeries
	}
	if err != nil {
		return nil, err
	}
	h := newHeader(first)

	var cols [5]int
	for i, names := range [][]string{
		{"datetime", "time", "timestamp", "date"},
		{"open"}, {"high"}, {"low"}, {"close"},
	} {
		if cols[i], err = h.require(names...); err != nil {
			return nil, err
		}
	}
	volIdx, _ := h.find("volume")
	symIdx, _ := h.find("symbol", "tickersymbol")
	smaIdx, _ := h.find("sma")
	lowIdx, _ := h.find("lower_band", "lower")
	upIdx, _ := h.find("upper_band", "upper")
	sigIdx, _ := h.find("entry_signal", "buy_signal", "signal")

	var out []Candle
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || field(row, cols[0]) == "" {
			continue
		}

		t, err := ParseTime(field(row, cols[0]), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		var nums [5]float64
		for i, idx := range []int{cols[1], cols[2], cols[3], cols[4], volIdx} {
			v, err := parseFloat(field(row, idx))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad number %q: %w", line, field(row, idx), err)
			}
			nums[i] = v
		}
		if math.IsNaN(nums[4]) {
			nums[4] = 0
		}

		c := NewCandle(t, nums[0], nums[1], nums[2], nums[3], nums[4])
		c.Symbol = field(row, symIdx)

		for _, dst := range []struct {
			idx int
			v   *float64
		}{{smaIdx, &c.SMA}, {lowIdx, &c.Lower}, {upIdx, &c.Upper}} {
			v, err := parseFloat(field(row, dst.idx))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad indicator %q: %w", line, field(row, dst.idx), err)
			}
			*dst.v = v
		}

		if c.Signal, err = parseBool(field(row, sigIdx)); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, ErrEmptySeries
	}
	return out, nil
}

// LoadCandlesCSV opens path and reads it with ReadCandlesCSV.
func LoadCandlesCSV(path string, loc *time.Location) ([]Candle, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return ReadCandlesCSV(fh, loc)
}

// WriteCandlesCSV writes candles with the CandleColumns header. NaN
// indicators are written as empty cells.
func WriteCandlesCSV(w io.Writer, candles []Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CandleColumns); err != nil {
		return err
	}
	for _, c := range candles {
		sig := "0"
		if c.Signal {
			sig = "1"
		}
		if err := cw.Write([]string{
			c.Time.Format(time.RFC3339),
			c.Symbol,
			f(c.Open), f(c.High), f(c.Low), f(c.Close), f(c.Volume),
			f(c.SMA), f(c.Lower), f(c.Upper),
			sig,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCandlesCSV creates path and writes candles to it.
func SaveCandlesCSV(path string, candles []Candle) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCandlesCSV(out, candles); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadTicksCSV reads datetime,tickersymbol,price[,quantity] rows. A header
// row is required.
func ReadTicksCSV(r io.Reader, loc *time.Location) ([]Tick, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h := newHeader(first)

	timeIdx, err := h.require("datetime", "time", "timestamp")
	if err != nil {
		return nil, err
	}
	priceIdx, err := h.require("price")
	if err != nil {
		return nil, err
	}
	symIdx, _ := h.find("tickersymbol", "symbol", "instrument")
	qtyIdx, _ := h.find("quantity", "volume")

	var out []Tick
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || field(row, timeIdx) == "" {
			continue
		}

		t, err := ParseTime(field(row, timeIdx), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		price, err := strconv.ParseFloat(field(row, priceIdx), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad price %q: %w", line, field(row, priceIdx), err)
		}
		qty := 0.0
		if s := field(row, qtyIdx); s != "" {
			if qty, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("line %d: bad quantity %q: %w", line, s, err)
			}
		}

		out = append(out, Tick{Time: t, Symbol: field(row, symIdx), Price: price, Quantity: qty})
	}
}

// LoadTicksCSV opens path and reads it with ReadTicksCSV.
func LoadTicksCSV(path string, loc *time.Location) ([]Tick, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return ReadTicksCSV(fh, loc)
}

func f(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
