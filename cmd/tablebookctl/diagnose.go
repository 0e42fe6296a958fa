package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"tablebook/internal/app"
	"tablebook/internal/availability"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type slotFlags struct {
	location  string
	date      string
	partySize int
	ticketID  string
	channel   string
	asJSON    bool
}

func (f *slotFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.location, "location", DemoLocationID, "location id")
	cmd.Flags().StringVar(&f.date, "date", "", "service date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.partySize, "party", 2, "party size")
	cmd.Flags().StringVar(&f.ticketID, "ticket", "", "ticket id (default: every offered ticket)")
	cmd.Flags().StringVar(&f.channel, "channel", "operator", "booking channel: widget or operator")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the raw JSON response")
	_ = cmd.MarkFlagRequired("date")
}

func newAvailabilityCmd(flags *globalFlags) *cobra.Command {
	sf := &slotFlags{}

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List the slots of every shift on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := uuid.Parse(sf.location)
			if err != nil {
				return fmt.Errorf("invalid --location: %w", err)
			}
			cfg, db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.Build(cfg, db, nil).Availability
			resp, err := svc.Availability(cmd.Context(), locationID, availability.AvailabilityRequest{
				Date:      sf.date,
				PartySize: sf.partySize,
				TicketID:  sf.ticketID,
				Channel:   sf.channel,
			})
			if err != nil {
				return err
			}
			if sf.asJSON {
				return writeJSON(cmd.OutOrStdout(), resp)
			}
			printAvailability(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	sf.register(cmd)
	return cmd
}

func newDiagnoseCmd(flags *globalFlags) *cobra.Command {
	sf := &slotFlags{}
	var at string

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Explain why a slot is open, limited, squeeze or closed",
		RunE: func(cmd *cobra.Command, args []string) error {
			locationID, err := uuid.Parse(sf.location)
			if err != nil {
				return fmt.Errorf("invalid --location: %w", err)
			}
			cfg, db, err := flags.open()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := app.Build(cfg, db, nil).Availability
			diag, err := svc.Diagnose(cmd.Context(), locationID, availability.DiagnoseRequest{
				Date:      sf.date,
				Time:      at,
				PartySize: sf.partySize,
				TicketID:  sf.ticketID,
				Channel:   sf.channel,
			})
			if err != nil {
				return err
			}
			if sf.asJSON {
				return writeJSON(cmd.OutOrStdout(), diag)
			}
			printDiagnosis(cmd.OutOrStdout(), diag)
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&at, "time", "", "arrival time (HH:MM)")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAvailability(w io.Writer, resp *availability.AvailabilityResponse) {
	fmt.Fprintf(w, "%s  party of %d  (%s, %s)\n", resp.Date, resp.PartySize, resp.Channel, resp.Timezone)
	if len(resp.Shifts) == 0 {
		fmt.Fprintln(w, "closed: no shifts on this date")
		return
	}
	for _, shift := range resp.Shifts {
		header := fmt.Sprintf("\n%s %s-%s [%s]", shift.Name, shift.StartTime, shift.EndTime, shift.Status)
		if shift.Label != "" {
			header += " " + shift.Label
		}
		fmt.Fprintln(w, header)

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tTYPE\tREMAINING\tDURATION\tTICKET\tREASON")
		for _, slot := range shift.Slots {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
				slot.Time, slot.Type, slot.Remaining, slot.DurationMinutes, slot.TicketName, slot.ReasonCode)
		}
		_ = tw.Flush()
	}
}

func printDiagnosis(w io.Writer, d *availability.Diagnosis) {
	fmt.Fprintf(w, "%s %s  party of %d  (%s, %s)\n", d.Date, d.Time, d.PartySize, d.Channel, d.Timezone)
	if d.EffectiveShift != nil {
		fmt.Fprintf(w, "shift:  %s %s-%s [%s]\n", d.EffectiveShift.Name, d.EffectiveShift.StartTime,
			d.EffectiveShift.EndTime, d.EffectiveShift.Status)
	}
	if d.Ticket != nil {
		fmt.Fprintf(w, "ticket: %s (%d min + %d buffer, party %d-%d)\n", d.Ticket.TicketName,
			d.Ticket.DurationMinutes, d.Ticket.BufferMinutes, d.Ticket.MinPartySize, d.Ticket.MaxPartySize)
	}

	result := string(d.Result.Type)
	if d.Result.ReasonCode != "" {
		result += " (" + string(d.Result.ReasonCode) + ")"
	}
	fmt.Fprintf(w, "result: %s\n", result)

	if d.Trace == nil {
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tOUTCOME\tDETAIL")
	for _, check := range d.Trace.Checks {
		outcome := "pass"
		switch {
		case check.Skipped:
			outcome = "skip"
		case !check.Passed:
			outcome = "FAIL " + strings.TrimSpace(string(check.Reason))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", check.Rule, outcome, check.Detail)
	}
	_ = tw.Flush()
}
