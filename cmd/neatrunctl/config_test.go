package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadRunRequestFromConfig(t *testing.T) {
	path := writeTempFile(t, "run.json", `{
		"run_id": "exp-1",
		"objective": "target",
		"target": [1.0, -0.5],
		"population": 80,
		"genome_length": 2,
		"generations": 40,
		"fitness_goal": 0.95,
		"evaluations_limit": 100000,
		"seed": 11,
		"workers": 2,
		"regulation": "absolute",
		"complexity_ceiling": 12.5,
		"log_path": "run.csv",
		"quiet": true
	}`)

	req, quiet, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.RunID != "exp-1" || req.Objective != "target" {
		t.Fatalf("identity fields wrong: %+v", req)
	}
	if len(req.Target) != 2 || req.Target[1] != -0.5 {
		t.Fatalf("target = %v", req.Target)
	}
	if req.Population != 80 || req.GenomeLength != 2 || req.Generations != 40 {
		t.Fatalf("sizing fields wrong: %+v", req)
	}
	if req.FitnessGoal != 0.95 || req.EvaluationsLimit != 100000 {
		t.Fatalf("stop conditions wrong: %+v", req)
	}
	if req.Seed != 11 || req.Workers != 2 {
		t.Fatalf("execution fields wrong: %+v", req)
	}
	if req.Regulation != "absolute" || req.ComplexityCeiling != 12.5 {
		t.Fatalf("regulation fields wrong: %+v", req)
	}
	if req.LogPath != "run.csv" {
		t.Fatalf("log path = %q", req.LogPath)
	}
	if !quiet {
		t.Fatal("quiet flag not picked up from config")
	}
}

func TestLoadRunRequestIgnoresNonIntegralNumbers(t *testing.T) {
	path := writeTempFile(t, "run.json", `{"population": 10.5, "seed": 3, "quiet": "yes"}`)

	req, quiet, err := loadRunRequestFromConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if req.Population != 0 {
		t.Fatalf("fractional population accepted: %d", req.Population)
	}
	if req.Seed != 3 {
		t.Fatalf("seed = %d, want 3", req.Seed)
	}
	if quiet {
		t.Fatal("non-boolean quiet value accepted")
	}
}

func TestLoadRunRequestBadJSON(t *testing.T) {
	path := writeTempFile(t, "run.json", `{`)
	if _, _, err := loadRunRequestFromConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
