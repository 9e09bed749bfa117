package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	api "neatrun/pkg/neatrun"
)

const defaultProfilesPath = "profiles.yaml"

// profileFile is the YAML document holding named run presets.
type profileFile struct {
	Profiles []profile `yaml:"profiles"`
}

type profile struct {
	Name              string    `yaml:"name"`
	Objective         string    `yaml:"objective"`
	Target            []float64 `yaml:"target"`
	Population        int       `yaml:"population"`
	GenomeLength      int       `yaml:"genome_length"`
	Generations       int       `yaml:"generations"`
	FitnessGoal       float64   `yaml:"fitness_goal"`
	EvaluationsLimit  uint64    `yaml:"evaluations_limit"`
	Workers           int       `yaml:"workers"`
	Regulation        string    `yaml:"regulation"`
	ComplexityCeiling float64   `yaml:"complexity_ceiling"`
	ComplexityMargin  float64   `yaml:"complexity_margin"`
	ParamsPath        string    `yaml:"params_path"`
}

func loadProfiles(path string) ([]profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse profiles %q: %w", path, err)
	}
	return file.Profiles, nil
}

func loadProfile(path, name string) (profile, error) {
	if name == "" {
		return profile{}, fmt.Errorf("profile name is required")
	}
	profiles, err := loadProfiles(path)
	if err != nil {
		return profile{}, err
	}
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return profile{}, fmt.Errorf("profile not found: %s", name)
}

// applyProfile copies preset values onto a run request, leaving fields the
// preset omits untouched.
func applyProfile(req api.RunRequest, p profile) api.RunRequest {
	if p.Objective != "" {
		req.Objective = p.Objective
	}
	if len(p.Target) > 0 {
		req.Target = p.Target
	}
	if p.Population > 0 {
		req.Population = p.Population
	}
	if p.GenomeLength > 0 {
		req.GenomeLength = p.GenomeLength
	}
	if p.Generations > 0 {
		req.Generations = p.Generations
	}
	if p.FitnessGoal > 0 {
		req.FitnessGoal = p.FitnessGoal
	}
	if p.EvaluationsLimit > 0 {
		req.EvaluationsLimit = p.EvaluationsLimit
	}
	if p.Workers > 0 {
		req.Workers = p.Workers
	}
	if p.Regulation != "" {
		req.Regulation = p.Regulation
	}
	if p.ComplexityCeiling > 0 {
		req.ComplexityCeiling = p.ComplexityCeiling
	}
	if p.ComplexityMargin > 0 {
		req.ComplexityMargin = p.ComplexityMargin
	}
	if p.ParamsPath != "" {
		req.ParamsPath = p.ParamsPath
	}
	return req
}
