package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/filecoin-project/go-powersim/sim/latency"
)

const defaultLatency = "uniform:5s:15s"

// parseLatency parses an attempt latency model, one of:
//
//	none
//	uniform:<min>:<max>
//	lognormal:<mean>
//	zipf:<s>:<v>:<max>
func parseLatency(def string) (latency.Model, error) {
	name, args, _ := strings.Cut(def, ":")
	var params []string
	if args != "" {
		params = strings.Split(args, ":")
	}
	arity := map[string]int{"none": 0, "uniform": 2, "lognormal": 1, "zipf": 3}
	want, known := arity[name]
	switch {
	case !known:
		return nil, fmt.Errorf("latency %q: unknown model %q", def, name)
	case len(params) != want:
		return nil, fmt.Errorf("latency %q: %s takes %d parameters, got %d", def, name, want, len(params))
	}

	switch name {
	case "uniform":
		min, err := time.ParseDuration(params[0])
		if err != nil {
			return nil, fmt.Errorf("latency %q: parsing min: %w", def, err)
		}
		max, err := time.ParseDuration(params[1])
		if err != nil {
			return nil, fmt.Errorf("latency %q: parsing max: %w", def, err)
		}
		uniform, err := latency.NewUniform(min, max)
		if err != nil {
			return nil, err
		}
		return uniform, nil
	case "lognormal":
		mean, err := time.ParseDuration(params[0])
		if err != nil {
			return nil, fmt.Errorf("latency %q: parsing mean: %w", def, err)
		}
		logNormal, err := latency.NewLogNormal(mean)
		if err != nil {
			return nil, err
		}
		return logNormal, nil
	case "zipf":
		s, err := strconv.ParseFloat(params[0], 64)
		if err != nil {
			return nil, fmt.Errorf("latency %q: parsing s: %w", def, err)
		}
		v, err := strconv.ParseFloat(params[1], 64)
		if err != nil {
			return nil, fmt.Errorf("latency %q: parsing v: %w", def, err)
		}
		max, err := time.ParseDuration(params[2])
		if err != nil {
			return nil, fmt.Errorf("latency %q: parsing max: %w", def, err)
		}
		zipf, err := latency.NewZipf(s, v, max)
		if err != nil {
			return nil, err
		}
		return zipf, nil
	default:
		return latency.None, nil
	}
}
