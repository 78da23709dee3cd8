package requirement

import (
	"fmt"
	"strings"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region presence
// Presence records which of gene and study a state carries.
type Presence struct {
	Gene  bool
	Study bool
}

var (
	PresenceNone      = Presence{}
	PresenceStudy     = Presence{Study: true}
	PresenceGene      = Presence{Gene: true}
	PresenceGeneStudy = Presence{Gene: true, Study: true}
)

// PresenceOf reads the presence of gene and study from s.
func PresenceOf(s state.ConversationState) Presence {
	return Presence{Gene: s.HasGene(), Study: s.HasStudy()}
}

// Code is the legacy 2*gene + study encoding, kept for logs.
func (p Presence) Code() int {
	c := 0
	if p.Gene {
		c += 2
	}
	if p.Study {
		c++
	}
	return c
}

func (p Presence) String() string {
	switch p {
	case PresenceNone:
		return "none"
	case PresenceStudy:
		return "study"
	case PresenceGene:
		return "gene"
	default:
		return "gene+study"
	}
}

// ParsePresence accepts the config spellings none, study, gene and gene+study.
func ParsePresence(s string) (Presence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return PresenceNone, nil
	case "study":
		return PresenceStudy, nil
	case "gene":
		return PresenceGene, nil
	case "gene+study", "study+gene":
		return PresenceGeneStudy, nil
	}
	return Presence{}, fmt.Errorf("unknown presence %q", s)
}

// #endregion presence

// #region table
// PresenceSet is the set of presences accepted for one analysis type.
type PresenceSet map[Presence]bool

// NewPresenceSet builds a set from its members.
func NewPresenceSet(ps ...Presence) PresenceSet {
	set := make(PresenceSet, len(ps))
	for _, p := range ps {
		set[p] = true
	}
	return set
}

// Table maps each analysis type supported by one data source to its
// accepted presences. A missing entry means the source does not support
// that analysis.
type Table map[state.DataType]PresenceSet

// Tables holds one Table per data source.
type Tables map[state.DataSource]Table

// ParseTables converts the config form (source -> data type -> presence
// names) into Tables.
func ParseTables(raw map[string]map[string][]string) (Tables, error) {
	tables := make(Tables, len(raw))
	for srcName, entries := range raw {
		src, err := state.ParseDataSource(srcName)
		if err != nil {
			return nil, err
		}
		table := make(Table, len(entries))
		for dtName, names := range entries {
			dt, err := state.ParseDataType(dtName)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", src, err)
			}
			set := PresenceSet{}
			for _, n := range names {
				p, err := ParsePresence(n)
				if err != nil {
					return nil, fmt.Errorf("%s/%s: %w", src, dt, err)
				}
				set[p] = true
			}
			table[dt] = set
		}
		tables[src] = table
	}
	return tables, nil
}

// #endregion table

// #region defaults
// DefaultTables returns the built-in requirement tables.
func DefaultTables() Tables {
	anyEntity := NewPresenceSet(PresenceStudy, PresenceGene, PresenceGeneStudy)
	geneLed := NewPresenceSet(PresenceGene, PresenceGeneStudy)
	geneOnly := NewPresenceSet(PresenceGene)

	return Tables{
		state.TCGA: Table{
			state.Overview:           anyEntity,
			state.GeneDefinition:     geneOnly,
			state.Mutations:          anyEntity,
			state.ProteinDomains:     geneLed,
			state.Indels:             anyEntity,
			state.SNV:                anyEntity,
			state.CNA:                anyEntity,
			state.Gain:               anyEntity,
			state.Loss:               anyEntity,
			state.GeneExpression:     geneLed,
			state.StructuralVariants: anyEntity,
		},
		state.ClinVar: Table{
			state.Overview:           geneOnly,
			state.GeneDefinition:     geneOnly,
			state.Mutations:          geneOnly,
			state.ProteinDomains:     geneOnly,
			state.Indels:             geneOnly,
			state.SNV:                geneOnly,
			state.StructuralVariants: geneOnly,
		},
	}
}

// #endregion defaults
