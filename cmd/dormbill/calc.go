package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bher20/dormbill/internal/billing"
	"github.com/bher20/dormbill/internal/bills"
)

// parseOccupant accepts "Name:days" or a bare day count.
func parseOccupant(raw string) (billing.Occupant, error) {
	name, days := "", raw
	if i := strings.LastIndex(raw, ":"); i >= 0 {
		name, days = raw[:i], raw[i+1:]
	}
	n, err := strconv.Atoi(strings.TrimSpace(days))
	if err != nil {
		return billing.Occupant{}, fmt.Errorf("occupant %q: days must be an integer", raw)
	}
	return billing.Occupant{Name: strings.TrimSpace(name), Days: n}, nil
}

func newCalcCmd(a *app) *cobra.Command {
	var (
		room, due, split, rate string
		elecPrev, elecCurr     string
		waterPrev, waterCurr   string
		occupants              []string
		asJSON                 bool
	)
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute a bill offline and print the receipt",
		Example: `  dormbill calc --room 101 --elec-prev 1000 --elec-curr 1100 --rate 12 \
    --water-prev 20 --water-curr 25 --occupant Ana:10 --occupant Ben:20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			elec, err := billing.ParseReading("electric.reading", elecPrev, elecCurr)
			if err != nil {
				return err
			}
			water, err := billing.ParseReading("water.reading", waterPrev, waterCurr)
			if err != nil {
				return err
			}
			req := bills.Request{
				RoomID:   room,
				DueDate:  due,
				Split:    split,
				Electric: bills.ElectricInput{Reading: elec},
				Water:    bills.WaterInput{Reading: water},
			}
			if rate != "" {
				r, err := billing.ParseRate("electric.rate", rate)
				if err != nil {
					return err
				}
				req.Electric.Rate = &r
			}
			for _, raw := range occupants {
				o, err := parseOccupant(raw)
				if err != nil {
					return err
				}
				req.Occupants = append(req.Occupants, o)
			}
			if len(req.Occupants) == 0 {
				return fmt.Errorf("at least one --occupant is required")
			}

			// Offline: nothing is read from or written to storage.
			svc, err := bills.New(nil, a.cfg.Tariff, a.cfg.DueSchedule, a.log)
			if err != nil {
				return err
			}
			rec, err := svc.Preview(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}
			_, err = fmt.Fprint(out, billing.FormatReceipt(rec))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&room, "room", "", "room id")
	f.StringVar(&due, "due", "", "due date (YYYY-MM-DD); defaults to the next scheduled date")
	f.StringVar(&split, "split", "", "split strategy: days or pax")
	f.StringVar(&rate, "rate", "", "electricity rate per kWh; defaults to the tariff")
	f.StringVar(&elecPrev, "elec-prev", "", "previous electricity reading (kWh)")
	f.StringVar(&elecCurr, "elec-curr", "", "current electricity reading (kWh)")
	f.StringVar(&waterPrev, "water-prev", "", "previous water reading (m³)")
	f.StringVar(&waterCurr, "water-curr", "", "current water reading (m³)")
	f.StringArrayVar(&occupants, "occupant", nil, `occupant as "Name:days" (repeatable)`)
	f.BoolVar(&asJSON, "json", false, "print the computed bill as JSON")
	return cmd
}
