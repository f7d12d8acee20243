package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/tripbudget/internal/budget"
	"github.com/theirongolddev/tripbudget/internal/cli"
	"github.com/theirongolddev/tripbudget/internal/currency"
	"github.com/theirongolddev/tripbudget/internal/i18n"
	"github.com/theirongolddev/tripbudget/internal/model"
)

var (
	flagTripDestination string
	flagTripDate        string
	flagTripCurrency    string
)

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Show the trip",
	Args:  cobra.NoArgs,
	RunE:  runTripShow,
}

var tripCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Record the trip, snapshotting current expenses and plan",
	Args:  cobra.NoArgs,
	RunE:  runTripCreate,
}

var tripUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change trip details",
	Args:  cobra.NoArgs,
	RunE:  runTripUpdate,
}

var tripShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the trip",
	Args:  cobra.NoArgs,
	RunE:  runTripShow,
}

func init() {
	for _, c := range []*cobra.Command{tripCreateCmd, tripUpdateCmd} {
		c.Flags().StringVar(&flagTripDestination, "destination", "", "Where you are going")
		c.Flags().StringVar(&flagTripDate, "date", "", "Departure date, YYYY-MM-DD")
		c.Flags().StringVar(&flagTripCurrency, "currency", "", "Trip currency (default target currency)")
	}
	tripCmd.AddCommand(tripCreateCmd, tripUpdateCmd, tripShowCmd)
	rootCmd.AddCommand(tripCmd)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, &model.ValidationError{Field: "date", Message: fmt.Sprintf("%q is not YYYY-MM-DD", s)}
	}
	return t, nil
}

func runTripCreate(_ *cobra.Command, _ []string) error {
	departure, err := parseDate(flagTripDate)
	if err != nil {
		return err
	}

	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	cur := flagTripCurrency
	if cur == "" {
		cur = s.target
	}
	trip, err := s.eng.Planner.CreateTrip(flagTripDestination, cur, departure)
	if err := report(err); err != nil {
		return err
	}
	printTrip(s, trip)
	return nil
}

func runTripUpdate(cmd *cobra.Command, _ []string) error {
	var patch budget.TripPatch
	flags := cmd.Flags()
	if flags.Changed("destination") {
		patch.Destination = &flagTripDestination
	}
	if flags.Changed("date") {
		d, err := parseDate(flagTripDate)
		if err != nil {
			return err
		}
		patch.DepartureDate = &d
	}
	if flags.Changed("currency") {
		patch.TargetCurrency = &flagTripCurrency
	}

	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	trip, err := s.eng.Planner.UpdateTrip(patch)
	if trip == nil {
		if err != nil {
			return err
		}
		fmt.Println("  No trip yet. Create one with `tripbudget trip create`.")
		return nil
	}
	if err := report(err); err != nil {
		return err
	}
	printTrip(s, *trip)
	return nil
}

func runTripShow(_ *cobra.Command, _ []string) error {
	s, err := openSession(false)
	if err != nil {
		return err
	}
	defer s.close()

	trip, ok := s.eng.Planner.Trip()
	if !ok {
		fmt.Println("  No trip yet. Create one with `tripbudget trip create`.")
		return nil
	}
	printTrip(s, trip)
	return nil
}

func printTrip(s *session, trip model.TripBudget) {
	lang := s.lang()

	fmt.Println()
	fmt.Println(cli.RenderTitle(trip.Destination))
	fmt.Println()
	fmt.Print(cli.RenderField(i18n.T(lang, i18n.KeyDeparture), cli.FormatDate(trip.DepartureDate)))
	fmt.Print(cli.RenderField(i18n.T(lang, i18n.KeyCurrency), currency.Name(trip.TargetCurrency, lang)))
	fmt.Print(cli.RenderField(i18n.T(lang, i18n.KeyExpenses), fmt.Sprint(len(trip.Expenses))))
	fmt.Println("  " + cli.RenderMuted(i18n.T(lang, i18n.KeyDaysLeft, s.eng.Planner.DaysUntilTravel(time.Now()))))

	if plan, ok := s.eng.Planner.Plan(); ok {
		pct := s.eng.Planner.SavingsProgress() / 100
		if plan.SavingsGoal.IsZero() {
			pct = 1
		}
		fmt.Print(cli.RenderField(i18n.T(lang, i18n.KeyProgress), cli.RenderProgressBar(pct, 30)))
	}
	fmt.Println()
}
