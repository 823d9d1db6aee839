package main

import (
	"context"
	"fmt"

	"github.com/lendora/lendora/internal/agent"
	"github.com/lendora/lendora/internal/config"
	"github.com/lendora/lendora/internal/core/application"
	"github.com/lendora/lendora/internal/core/domain"
	"github.com/lendora/lendora/internal/core/ports"
	"github.com/lendora/lendora/internal/infrastructure/hydra"
	mockoracle "github.com/lendora/lendora/internal/infrastructure/oracle/mock"
	mockvalidator "github.com/lendora/lendora/internal/infrastructure/validator/mock"
	"github.com/urfave/cli/v2"
)

var demoCommand = cli.Command{
	Name:   "demo",
	Usage:  "run a scripted borrower/lender negotiation end to end",
	Action: demoAction,
}

var negotiateCommand = cli.Command{
	Name:  "negotiate",
	Usage: "let borrower and lender strategies negotiate automatically",
	Flags: []cli.Flag{
		&cli.Float64Flag{Name: "principal", Value: 1000},
		&cli.Float64Flag{Name: "rate", Value: 8.5, Usage: "lender's opening annual rate (%)"},
		&cli.IntFlag{Name: "term", Value: 12, Usage: "loan term in months"},
		&cli.Float64Flag{Name: "target", Value: 7.0, Usage: "borrower's target rate (%)"},
		&cli.Float64Flag{Name: "floor", Value: 7.25, Usage: "lender's floor rate (%)"},
	},
	Action: negotiateAction,
}

func newService(cfg *config.Config) *application.NegotiationService {
	hydraCfg := cfg.HydraConfig()
	return application.NewNegotiationService(func() (ports.HeadClient, error) {
		return hydra.NewHeadClient(hydraCfg)
	})
}

func checkEligibility(
	ctx context.Context, oracle ports.CreditOracle, party string, principal float64,
) error {
	elig, err := oracle.Eligibility(ctx, party, principal)
	if err != nil {
		return err
	}
	fmt.Printf(
		"credit check %s: score %d, max principal %.2f, approved=%t\n",
		elig.Party, elig.Score, elig.MaxPrincipal, elig.Approved,
	)
	return nil
}

func reportSettlement(
	ctx context.Context, settlement domain.Settlement,
) error {
	fmt.Printf("\nsettlement %s\n", settlement.Id)
	fmt.Printf("  %s borrows %.2f from %s\n", settlement.Borrower, settlement.Principal, settlement.Lender)
	fmt.Printf("  final rate %.2f%% (%d bps) over %d months\n",
		settlement.FinalRate, settlement.FinalRateBps, settlement.TermMonths)
	fmt.Printf("  status %s\n", settlement.Status)

	verification, err := mockvalidator.NewService().Verify(ctx, settlement)
	if err != nil {
		return err
	}
	fmt.Printf("  verification %s: valid=%t (%s)\n",
		verification.Reference, verification.Valid, verification.Details)
	return nil
}

func demoAction(ctx *cli.Context) error {
	cfg := configFromContext(ctx)
	svc := newService(cfg)

	if err := svc.Start(ctx.Context); err != nil {
		return err
	}
	defer func() {
		// nolint
		svc.Stop(context.Background())
	}()

	oracle := mockoracle.NewService()
	for _, party := range []string{"alice", "bob"} {
		if err := checkEligibility(ctx.Context, oracle, party, 1000); err != nil {
			return err
		}
	}

	session, err := svc.OpenNegotiation(ctx.Context, "alice", "bob", 1000, 8.5, 12)
	if err != nil {
		return err
	}
	fmt.Printf("\nopened session %s at %.2f%%\n", session.Id, session.CurrentRate)

	offers := []struct {
		from string
		rate float64
	}{
		{"alice", 7.5},
		{"bob", 8.0},
		{"alice", 7.25},
		{"bob", 7.5},
	}
	for _, offer := range offers {
		result, err := svc.SubmitCounterOffer(ctx.Context, session.Id, offer.rate, offer.from)
		if err != nil {
			return err
		}
		fmt.Printf("round %d: %s proposes %.2f%% (was %.2f%%)\n",
			result.Round, offer.from, result.NewRate, result.OldRate)
	}

	settlement, err := svc.AcceptAndSettle(ctx.Context, session.Id)
	if err != nil {
		return err
	}
	return reportSettlement(ctx.Context, settlement)
}

func negotiateAction(ctx *cli.Context) error {
	cfg := configFromContext(ctx)
	svc := newService(cfg)

	if err := svc.Start(ctx.Context); err != nil {
		return err
	}
	defer func() {
		// nolint
		svc.Stop(context.Background())
	}()

	borrower, err := agent.NewBorrowerStrategy(ctx.Float64("target"), cfg.AcceptMargin)
	if err != nil {
		return err
	}
	lender, err := agent.NewLenderStrategy(ctx.Float64("floor"), cfg.AcceptMargin)
	if err != nil {
		return err
	}

	session, err := svc.OpenNegotiation(
		ctx.Context, "alice", "bob",
		ctx.Float64("principal"), ctx.Float64("rate"), ctx.Int("term"),
	)
	if err != nil {
		return err
	}
	fmt.Printf("opened session %s at %.2f%%\n", session.Id, session.CurrentRate)

	driver, err := agent.NewDriver(svc, borrower, lender, cfg.MaxRounds)
	if err != nil {
		return err
	}
	settlement, err := driver.Run(ctx.Context, session)
	if err != nil {
		return err
	}
	return reportSettlement(ctx.Context, settlement)
}
