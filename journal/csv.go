package journal

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader  = []string{"run_id", "trade_id", "symbol", "side", "entry_time", "entry_price", "exit_time", "exit_price", "target", "size", "gross", "commission", "profit", "reason"}
	equityHeader = []string{"run_id", "seq", "time", "balance", "position"}
)

// CSVJournal writes trades and equity to two CSV files.
type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	j := &CSVJournal{csv.NewWriter(tf), csv.NewWriter(ef), tf, ef}
	if err := j.write(j.trades, tradeHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	if err := j.write(j.equity, equityHeader); err != nil {
		j.closeFiles()
		return nil, err
	}
	return j, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.write(j.trades, []string{
		t.RunID,
		strconv.Itoa(t.TradeID),
		t.Symbol,
		t.Side,
		t.EntryTime.Format(time.RFC3339),
		f(t.EntryPrice),
		t.ExitTime.Format(time.RFC3339),
		f(t.ExitPrice),
		f(t.Target),
		f(t.Size),
		f(t.Gross),
		f(t.Commission),
		f(t.Profit),
		t.Reason,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.write(j.equity, []string{
		e.RunID,
		strconv.Itoa(e.Seq),
		e.Time.Format(time.RFC3339),
		f(e.Balance),
		strconv.Itoa(e.Position),
	})
}

func (j *CSVJournal) write(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		j.closeFiles()
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		j.closeFiles()
		return err
	}
	return j.closeFiles()
}

func (j *CSVJournal) closeFiles() error {
	err := j.tf.Close()
	if e := j.ef.Close(); err == nil {
		err = e
	}
	return err
}

func f(x float64) string {
	if math.IsNaN(x) {
		return ""
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
