package main

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	api "neatrun/pkg/neatrun"
)

// loadRunRequestFromConfig reads a run request from a JSON config file.
// Every key is optional; command-line flags fill the rest. The second result
// reports whether the config asks for quiet output.
func loadRunRequestFromConfig(path string) (api.RunRequest, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.RunRequest{}, false, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return api.RunRequest{}, false, fmt.Errorf("parse config %q: %w", path, err)
	}

	var req api.RunRequest
	if v, ok := asString(raw["run_id"]); ok {
		req.RunID = v
	}
	if v, ok := asString(raw["objective"]); ok {
		req.Objective = v
	}
	if v, ok := asFloat64Slice(raw["target"]); ok {
		req.Target = v
	}
	if v, ok := asInt(raw["population"]); ok {
		req.Population = v
	}
	if v, ok := asInt(raw["genome_length"]); ok {
		req.GenomeLength = v
	}
	if v, ok := asInt(raw["generations"]); ok {
		req.Generations = v
	}
	if v, ok := asFloat64(raw["fitness_goal"]); ok {
		req.FitnessGoal = v
	}
	if v, ok := asInt64(raw["evaluations_limit"]); ok && v >= 0 {
		req.EvaluationsLimit = uint64(v)
	}
	if v, ok := asInt64(raw["seed"]); ok {
		req.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		req.Workers = v
	}
	if v, ok := asString(raw["params_path"]); ok {
		req.ParamsPath = v
	}
	if v, ok := asString(raw["regulation"]); ok {
		req.Regulation = v
	}
	if v, ok := asFloat64(raw["complexity_ceiling"]); ok {
		req.ComplexityCeiling = v
	}
	if v, ok := asFloat64(raw["complexity_margin"]); ok {
		req.ComplexityMargin = v
	}
	if v, ok := asString(raw["log_path"]); ok {
		req.LogPath = v
	}
	if v, ok := asInt(raw["update_every"]); ok {
		req.UpdateEvery = v
	}
	quiet, _ := asBool(raw["quiet"])
	return req, quiet, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

func asFloat64(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func asInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func asFloat64Slice(v any) ([]float64, bool) {
	xs, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}
