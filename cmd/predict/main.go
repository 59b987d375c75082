// Command predict runs the predictions for one day and prints the report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"matchday/predictor/internal/app"
	"matchday/predictor/internal/config"
	"matchday/predictor/internal/presenter"

	"github.com/rs/zerolog/log"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run returns the process exit code so deferred cleanup happens before exit
func run(args []string, stdout io.Writer) int {
	flags := flag.NewFlagSet("predict", flag.ContinueOnError)
	dateFlag := flags.String("date", "", "match day as YYYY-MM-DD (default today)")
	listLeagues := flags.Bool("leagues", false, "list the provider's leagues instead of predicting")
	country := flags.String("country", "", "country filter for -leagues")
	asJSON := flags.Bool("json", false, "print the report as JSON")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	app.SetupLogger(os.Stderr)

	cfg := config.MustLoad()

	date := time.Now()
	if *dateFlag != "" {
		parsed, err := time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -date %q: expected YYYY-MM-DD\n", *dateFlag)
			return 2
		}
		date = parsed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg)
	defer a.Close()

	if a.DB != nil {
		if err := a.DB.Health(ctx); err != nil {
			log.Warn().Err(err).Msg("Archive health check failed, the report may not be archived")
		}
	}

	if *listLeagues {
		if err := printLeagues(ctx, stdout, a, *country); err != nil {
			log.Error().Err(err).Msg("Failed to list leagues")
			return 1
		}
		return 0
	}

	report, err := a.Service("manual").Run(ctx, date)
	if err != nil {
		log.Error().Err(err).Msg("Prediction run failed")
		return 1
	}

	if *asJSON {
		err = presenter.RenderJSON(stdout, report)
	} else {
		err = presenter.NewTextPresenter().Render(stdout, report)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to print report")
		return 1
	}
	return 0
}

func printLeagues(ctx context.Context, w io.Writer, a *app.App, country string) error {
	leagues, err := a.Client.FetchLeagues(ctx, country)
	if err != nil {
		return err
	}
	for _, l := range leagues {
		fmt.Fprintf(w, "%6d  %-30s %-15s %6d  %s\n", l.ID, l.Name, l.Country, l.Season, l.Type)
	}
	return nil
}
