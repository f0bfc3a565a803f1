package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dmitrijs2005/rainwise/internal/common"
)

// Annual rainfall by region, mm/year.
var RegionRainfall = map[string]float64{
	"norte":  50,
	"centro": 500,
	"sur":    2000,
}

// Collection efficiency by method.
var MethodEfficiency = map[string]float64{
	"roof":    0.8,
	"surface": 0.6,
	"fog":     0.4,
}

const (
	DefaultMethod         = "roof"
	waterCostPerLiter     = 0.002
	co2KgPerThousandLiter = 0.5
)

// CalculatorInput describes a harvesting setup. Rainfall, when positive,
// overrides the region table.
type CalculatorInput struct {
	Region        string
	Rainfall      float64
	Method        string
	AreaM2        float64
	EfficiencyPct float64
}

type CalculatorResult struct {
	LitersPerYear  int64   `json:"litersPerYear"`
	SavingsPerYear int64   `json:"savingsPerYear"`
	CO2ReductionKg float64 `json:"co2Reduction"`
}

// Calculate estimates yearly harvest, savings and CO2 reduction. An
// unknown method falls back to DefaultMethod.
func Calculate(in CalculatorInput) (CalculatorResult, error) {
	rainfall := in.Rainfall
	if rainfall <= 0 {
		r, ok := RegionRainfall[strings.ToLower(in.Region)]
		if !ok {
			return CalculatorResult{}, fmt.Errorf("%w: unknown region %q (known: %s)", common.ErrorValidation, in.Region, strings.Join(Regions(), ", "))
		}
		rainfall = r
	}
	if in.AreaM2 < 0 {
		return CalculatorResult{}, fmt.Errorf("%w: area must not be negative", common.ErrorValidation)
	}
	if in.EfficiencyPct < 0 || in.EfficiencyPct > 100 {
		return CalculatorResult{}, fmt.Errorf("%w: efficiency must be between 0 and 100", common.ErrorValidation)
	}

	method, ok := MethodEfficiency[strings.ToLower(in.Method)]
	if !ok {
		method = MethodEfficiency[DefaultMethod]
	}

	liters := in.AreaM2 * rainfall * method * (in.EfficiencyPct / 100)
	savings := liters * waterCostPerLiter
	co2 := liters / 1000 * co2KgPerThousandLiter

	return CalculatorResult{
		LitersPerYear:  int64(math.Round(liters)),
		SavingsPerYear: int64(math.Round(savings)),
		CO2ReductionKg: math.Round(co2*100) / 100,
	}, nil
}

// Regions lists the known regions in order.
func Regions() []string {
	out := make([]string, 0, len(RegionRainfall))
	for r := range RegionRainfall {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// CalculatorService runs the calculator, optionally with a city's rainfall.
type CalculatorService struct {
	catalog *CatalogService
}

func NewCalculatorService(catalog *CatalogService) *CalculatorService {
	return &CalculatorService{catalog: catalog}
}

func (s *CalculatorService) Calculate(in CalculatorInput) (CalculatorResult, error) {
	return Calculate(in)
}

// CalculateForCity uses the rainfall recorded for cityID.
func (s *CalculatorService) CalculateForCity(ctx context.Context, cityID int64, in CalculatorInput) (CalculatorResult, error) {
	city, err := s.catalog.Cities.Get(ctx, cityID)
	if err != nil {
		return CalculatorResult{}, err
	}
	if city.Rainfall <= 0 {
		return CalculatorResult{}, fmt.Errorf("%w: city %q has no rainfall data", common.ErrorValidation, city.Name)
	}
	in.Rainfall = city.Rainfall
	return Calculate(in)
}
