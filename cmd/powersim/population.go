package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/filecoin-project/go-powersim/lottery"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

// defaultPopulation is a mix of quantum and classical devices weighted by
// their hash rate in EH/s.
var defaultPopulation = []lottery.Entity{
	{ID: "IBM-Q-SYSTEM-ONE-001", Weight: 45.5, Kind: "quantum"},
	{ID: "IBM-Q-HERON-002", Weight: 38.2, Kind: "quantum"},
	{ID: "GOOGLE-SYCAMORE-001", Weight: 52.8, Kind: "quantum"},
	{ID: "GOOGLE-WILLOW-001", Weight: 125.7, Kind: "quantum"},
	{ID: "IONQ-ARIA-001", Weight: 89.3, Kind: "quantum"},
	{ID: "DWAVE-ADVANTAGE-001", Weight: 215.4, Kind: "quantum"},
	{ID: "FRONTIER-EXASCALE-001", Weight: 312.5, Kind: "classical"},
	{ID: "FUGAKU-SUPERCOMPUTER-001", Weight: 278.9, Kind: "classical"},
}

var populationCmd = cli.Command{
	Name:  "population",
	Usage: "prints the population a run would use",
	Flags: []cli.Flag{entityFlag},
	Action: func(c *cli.Context) error {
		entities, err := populationFromFlags(c)
		if err != nil {
			return err
		}
		table, err := lottery.NewWeightTable(entities)
		if err != nil {
			return xerrors.Errorf("validating population: %w", err)
		}
		for i := 0; i < table.Len(); i++ {
			e := table.Entity(i)
			fmt.Fprintf(c.App.Writer, "%-28s %-10s %10.2f %6.2f%%\n", e.ID, e.Kind, e.Weight, 100*table.Share(e.ID))
		}
		return nil
	},
}

var entityFlag = &cli.StringSliceFlag{
	Name:  "entity",
	Usage: "entity as <id>:<weight>[:<kind>], repeatable; defaults to a built in device population",
}

func populationFromFlags(c *cli.Context) ([]lottery.Entity, error) {
	defs := c.StringSlice(entityFlag.Name)
	if len(defs) == 0 {
		return defaultPopulation, nil
	}
	entities := make([]lottery.Entity, 0, len(defs))
	for _, def := range defs {
		e, err := parseEntity(def)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

func parseEntity(def string) (lottery.Entity, error) {
	parts := strings.Split(def, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] == "" {
		return lottery.Entity{}, fmt.Errorf("entity %q: expected <id>:<weight>[:<kind>]", def)
	}
	weight, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return lottery.Entity{}, fmt.Errorf("entity %q: parsing weight: %w", def, err)
	}
	e := lottery.Entity{ID: lottery.EntityID(parts[0]), Weight: weight}
	if len(parts) == 3 {
		e.Kind = lottery.Kind(parts[2])
	}
	return e, nil
}
