package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders one trade as an org-mode subtree.
func FormatTradeOrg(t TradeRecord) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "** Trade: %s #%d (%s)\n", t.Symbol, t.TradeID, shortID(t.RunID))
	sb.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&sb, ":ID: %s-%d\n", t.RunID, t.TradeID)
	fmt.Fprintf(&sb, ":RUN_ID: %s\n", t.RunID)
	fmt.Fprintf(&sb, ":TRADE_ID: %d\n", t.TradeID)
	fmt.Fprintf(&sb, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&sb, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&sb, ":SIZE: %g\n", t.Size)
	fmt.Fprintf(&sb, ":ENTRY_PRICE: %.2f\n", t.EntryPrice)
	fmt.Fprintf(&sb, ":TARGET: %.2f\n", t.Target)
	fmt.Fprintf(&sb, ":EXIT_PRICE: %.2f\n", t.ExitPrice)
	fmt.Fprintf(&sb, ":ENTRY_TIME: %s\n", t.EntryTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, ":EXIT_TIME: %s\n", t.ExitTime.Format(time.RFC3339))
	fmt.Fprintf(&sb, ":GROSS: %.2f\n", t.Gross)
	fmt.Fprintf(&sb, ":COMMISSION: %.4f\n", t.Commission)
	fmt.Fprintf(&sb, ":PROFIT: %.2f\n", t.Profit)
	fmt.Fprintf(&sb, ":REASON: %s\n", t.Reason)
	sb.WriteString(":END:\n\n")

	sb.WriteString("*** Thesis\n")
	fmt.Fprintf(&sb, "Close crossed below the lower band; revert to the SMA at %.2f.\n\n", t.Target)
	sb.WriteString("*** Execution\n")
	fmt.Fprintf(&sb, "- Entered %s at %.2f\n", t.EntryTime.Format("2006-01-02 15:04"), t.EntryPrice)
	fmt.Fprintf(&sb, "- Exited %s at %.2f (%s)\n\n", t.ExitTime.Format("2006-01-02 15:04"), t.ExitPrice, t.Reason)
	sb.WriteString("*** Review\n")
	sb.WriteString("- \n")

	return sb.String()
}

// FormatTradesOrg renders trades separated by a blank line.
func FormatTradesOrg(trades []TradeRecord) string {
	parts := make([]string, len(trades))
	for i, t := range trades {
		parts[i] = FormatTradeOrg(t)
	}
	return strings.Join(parts, "\n\n")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
