package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/rainwise/internal/client/services"
	"github.com/dmitrijs2005/rainwise/internal/common"
)

func (a *App) calculate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var in services.CalculatorInput
	fs.StringVar(&in.Region, "region", "", "region: centro, norte or sur")
	fs.Float64Var(&in.Rainfall, "rainfall", 0, "yearly rainfall in mm")
	fs.StringVar(&in.Method, "method", services.DefaultMethod, "roof, surface or fog")
	fs.Float64Var(&in.AreaM2, "area", 0, "collection area in m2")
	fs.Float64Var(&in.EfficiencyPct, "efficiency", 100, "system efficiency, percent")
	city := fs.Int64("city", 0, "use the rainfall recorded for this city")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
	}
	if in.AreaM2 <= 0 {
		return fmt.Errorf("%w: -area is required", common.ErrorValidation)
	}

	var (
		res services.CalculatorResult
		err error
	)
	if *city > 0 {
		res, err = a.calc.CalculateForCity(ctx, *city, in)
	} else {
		res, err = a.calc.Calculate(in)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Water collected: %d L/year\n", res.LitersPerYear)
	fmt.Fprintf(a.out, "Savings:         $%d/year\n", res.SavingsPerYear)
	fmt.Fprintf(a.out, "CO2 reduction:   %.2f kg/year\n", res.CO2ReductionKg)
	return nil
}
