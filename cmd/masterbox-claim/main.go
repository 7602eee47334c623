// Command masterbox-claim runs the consumer claim flow from the terminal:
// look up the latest eligible order for an email, optionally pre-flight the
// duplicate check, then submit the claim.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"masterbox/internal/claimclient"
	"masterbox/internal/platform/config"
	"masterbox/internal/platform/logger"
)

func main() {
	root := config.New()
	cliCfg := root.Prefix("CLAIM_CLI_")
	l := logger.Get()

	var (
		apiURL      = flag.String("api", cliCfg.MayString("API_URL", "http://localhost:4000"), "claim API base url")
		email       = flag.String("email", "", "customer email")
		specialties = flag.String("specialties", "", "comma separated specialties to claim")
		checkOnly   = flag.Bool("check", false, "only run the duplicate pre-flight, do not submit")
		timeout     = flag.Duration("timeout", 30*time.Second, "overall flow timeout")
	)
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "usage: masterbox-claim -email doc@clinic.example -specialties 'General Dentist'")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := claimclient.New(claimclient.Options{BaseURL: *apiURL})
	sess := claimclient.NewSession(*email)

	ref, err := sess.Lookup(ctx, client)
	if err != nil {
		l.Fatal().Err(err).Msg("order lookup failed")
	}
	if ref == nil {
		fmt.Println("no eligible order found in the last 30 days")
		os.Exit(1)
	}
	fmt.Printf("latest order: %s (total %.2f)\n", ref.IncrementID, ref.GrandTotal)

	if *checkOnly {
		res, err := client.Check(ctx, *ref)
		if err != nil {
			l.Fatal().Err(err).Msg("duplicate check failed")
		}
		if res.HasSubmitted {
			fmt.Printf("order already claimed at %s for %s\n", res.Timestamp, res.Specialties)
		} else {
			fmt.Println("order not yet claimed")
			if res.Message != "" {
				fmt.Println("note:", res.Message)
			}
		}
		return
	}

	for _, s := range strings.Split(*specialties, ",") {
		if v := strings.TrimSpace(s); v != "" {
			sess.Select(v)
		}
	}

	res, err := sess.Submit(ctx, client)
	if err != nil {
		l.Fatal().Err(err).Msg("submit failed")
	}
	switch res.Kind {
	case claimclient.ResultSuccess:
		fmt.Printf("claim recorded: %s (order %s)\n", res.SubmissionID, res.OrderID)
	case claimclient.ResultDuplicate:
		fmt.Printf("order already claimed at %s for %s\n", res.ExistingTimestamp, res.ExistingSpecialties)
	case claimclient.ResultValidation:
		fmt.Println("invalid claim:", res.Message)
		os.Exit(2)
	case claimclient.ResultTransient:
		fmt.Println("claim store busy, try again:", res.Message)
		os.Exit(1)
	default:
		fmt.Println("claim failed:", res.Message)
		os.Exit(1)
	}
}
