package neat

import "neatrun/internal/model"

// Archive is an optional cross-generation store of genomes retained for
// diversity. The caller owns it and hands it to the controller by reference;
// admission policy belongs to the collaborators that consult it, not to the
// core.
type Archive struct {
	genomes []*model.Genome
}

// NewArchive returns an empty archive.
func NewArchive() *Archive { return &Archive{} }

// Add retains a genome reference.
func (a *Archive) Add(g *model.Genome) {
	if g == nil {
		return
	}
	a.genomes = append(a.genomes, g)
}

// Len is the number of retained genomes.
func (a *Archive) Len() int { return len(a.genomes) }

// Genomes exposes the retained genomes for collaborator inspection.
func (a *Archive) Genomes() []*model.Genome { return a.genomes }
