package model

import "testing"

func TestNewGenomeCopiesWeights(t *testing.T) {
	src := []float64{1, 2, 3}
	g := NewGenome(src, 2)
	src[0] = 99

	if g.Weights[0] != 1 {
		t.Fatalf("genome shares the caller's weight slice")
	}
	if g.ID == "" {
		t.Fatal("genome has no id")
	}
	if g.BirthGeneration != 2 {
		t.Fatalf("birth generation = %d, want 2", g.BirthGeneration)
	}
}

func TestGenomeComplexityAndAge(t *testing.T) {
	g := NewGenome([]float64{1, 2, 3, 4}, 5)
	if g.Complexity() != 4 {
		t.Fatalf("complexity = %f, want 4", g.Complexity())
	}
	if g.Age(9) != 4 {
		t.Fatalf("age = %d, want 4", g.Age(9))
	}
	if g.Age(3) != 0 {
		t.Fatalf("age before birth = %d, want 0", g.Age(3))
	}
}

func TestCloneMintsFreshIdentity(t *testing.T) {
	parent := NewGenome([]float64{1, 2}, 1)
	parent.Fitness = 0.8

	child := parent.Clone(6)
	if child.ID == parent.ID {
		t.Fatal("clone reused the parent id")
	}
	if child.Fitness != 0 {
		t.Fatalf("clone inherited fitness %f", child.Fitness)
	}
	if child.BirthGeneration != 6 {
		t.Fatalf("clone birth generation = %d, want 6", child.BirthGeneration)
	}

	child.Weights[0] = 42
	if parent.Weights[0] != 1 {
		t.Fatal("clone shares the parent's weight slice")
	}
}
