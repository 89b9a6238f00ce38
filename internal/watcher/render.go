package watcher

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/hppanpaliya/FairShare-AI/internal/models"
	"github.com/hppanpaliya/FairShare-AI/internal/service"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// Render writes a per-person table followed by bill totals and any
// overclaimed items.
func Render(w io.Writer, agg *models.Aggregate, shares *service.GetSharesResponse) error {
	ev := agg.Event
	fmt.Fprintf(w, "%s  (tax %s %s, tip %s %s)\n",
		ev.Name, money(ev.Tax), ev.TaxSplitMode, money(ev.Tip), ev.TipSplitMode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "PERSON\tSUBTOTAL\tTAX\tTIP\tTOTAL\t")
	for _, s := range shares.Shares {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", s.Name, money(s.Subtotal), money(s.Tax), money(s.Tip), money(s.Total))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "bill %s  allocated %s  unallocated %s\n",
		money(shares.TotalBill), money(shares.Allocated), money(shares.Unallocated))
	names := make(map[string]string, len(agg.Items))
	for _, it := range agg.Items {
		names[it.ID] = it.Name
	}
	for _, st := range shares.Items {
		if st.Overclaimed {
			fmt.Fprintf(w, "overclaimed: %s by %s\n", names[st.ItemID], st.Remaining.Neg().String())
		}
	}
	return nil
}
