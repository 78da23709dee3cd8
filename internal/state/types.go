package state

import (
	"fmt"
	"strings"
)

// #region data-type
// DataType is the analysis requested by the user.
type DataType string

const (
	Overview           DataType = "OVERVIEW"
	GeneDefinition     DataType = "GENE_DEFINITION"
	Mutations          DataType = "MUTATIONS"
	ProteinDomains     DataType = "PROTEIN_DOMAINS"
	Indels             DataType = "INDELS"
	SNV                DataType = "SNV"
	CNA                DataType = "CNA"
	Gain               DataType = "GAIN"
	Loss               DataType = "LOSS"
	GeneExpression     DataType = "GENE_EXPRESSION"
	StructuralVariants DataType = "STRUCTURAL_VARIANTS"
)

// DataTypes lists every recognized analysis type.
var DataTypes = []DataType{
	Overview, GeneDefinition, Mutations, ProteinDomains, Indels, SNV,
	CNA, Gain, Loss, GeneExpression, StructuralVariants,
}

// ParseDataType validates s against the closed set of analysis types.
func ParseDataType(s string) (DataType, error) {
	dt := DataType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range DataTypes {
		if dt == known {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// Valid reports whether dt is a recognized analysis type.
func (dt DataType) Valid() bool {
	_, err := ParseDataType(string(dt))
	return err == nil
}

// Label is the spoken form of dt, e.g. "Gene expression".
func (dt DataType) Label() string {
	switch dt {
	case CNA:
		return "Copy number alteration"
	case SNV:
		return "Single nucleotide variant"
	case Indels:
		return "Indel"
	}
	if dt == "" {
		return ""
	}
	s := strings.ToLower(strings.ReplaceAll(string(dt), "_", " "))
	return strings.ToUpper(s[:1]) + s[1:]
}

// #endregion data-type

// #region data-source
// DataSource names the dataset an analysis draws from.
type DataSource string

const (
	TCGA    DataSource = "TCGA"
	ClinVar DataSource = "CLINVAR"
)

// DefaultDataSource is used whenever a state carries no data source.
const DefaultDataSource = TCGA

// ParseDataSource validates s against the known data sources.
func ParseDataSource(s string) (DataSource, error) {
	switch ds := DataSource(strings.ToUpper(strings.TrimSpace(s))); ds {
	case TCGA, ClinVar:
		return ds, nil
	}
	return "", fmt.Errorf("unknown data source %q", s)
}

// #endregion data-source

// #region conversation-state
// ConversationState is the set of attributes accumulated over a session.
// An empty field is an absent attribute.
type ConversationState struct {
	GeneName          string `json:"gene_name,omitempty" yaml:"gene_name,omitempty"`
	StudyAbbreviation string `json:"study_abbreviation,omitempty" yaml:"study_abbreviation,omitempty"`
	DataType          string `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	DataSource        string `json:"data_source,omitempty" yaml:"data_source,omitempty"`
}

// Source returns the data source, defaulting to TCGA when absent.
func (s ConversationState) Source() DataSource {
	if s.DataSource == "" {
		return DefaultDataSource
	}
	return DataSource(s.DataSource)
}

// Normalized returns a copy with the data source filled in.
func (s ConversationState) Normalized() ConversationState {
	s.DataSource = string(s.Source())
	return s
}

// HasGene reports whether a gene is set.
func (s ConversationState) HasGene() bool { return s.GeneName != "" }

// HasStudy reports whether a study is set.
func (s ConversationState) HasStudy() bool { return s.StudyAbbreviation != "" }

// IsEmpty reports whether no attribute at all is set.
func (s ConversationState) IsEmpty() bool {
	return s == ConversationState{}
}

// FilledCount counts the gene, study and data type attributes that are set.
// The data source is not counted since it always resolves to a default.
func (s ConversationState) FilledCount() int {
	n := 0
	for _, v := range []string{s.GeneName, s.StudyAbbreviation, s.DataType} {
		if v != "" {
			n++
		}
	}
	return n
}

// Get returns the value stored under attr.
func (s ConversationState) Get(attr Attribute) string {
	switch attr {
	case AttrGene:
		return s.GeneName
	case AttrStudy:
		return s.StudyAbbreviation
	case AttrDataType:
		return s.DataType
	case AttrDataSource:
		return s.DataSource
	}
	return ""
}

// With returns a copy of s with attr set to value.
func (s ConversationState) With(attr Attribute, value string) ConversationState {
	switch attr {
	case AttrGene:
		s.GeneName = value
	case AttrStudy:
		s.StudyAbbreviation = value
	case AttrDataType:
		s.DataType = value
	case AttrDataSource:
		s.DataSource = value
	}
	return s
}

// #endregion conversation-state

// #region attribute
// Attribute names one ConversationState key in diffs and acknowledgements.
type Attribute string

const (
	AttrGene       Attribute = "GENE_NAME"
	AttrStudy      Attribute = "STUDY_ABBRV"
	AttrDataType   Attribute = "DTYPE"
	AttrDataSource Attribute = "DSOURCE"
)

// Attributes lists the four state keys in a fixed order.
var Attributes = []Attribute{AttrGene, AttrStudy, AttrDataType, AttrDataSource}

// #endregion attribute

// #region entity
// EntityKind is the type of an entity resolved from free text.
type EntityKind string

const (
	EntityGene       EntityKind = "GENE"
	EntityStudy      EntityKind = "STUDY"
	EntityDataType   EntityKind = "DTYPE"
	EntityDataSource EntityKind = "DSOURCE"
)

// Attribute maps the entity kind to the state key it fills.
func (k EntityKind) Attribute() (Attribute, bool) {
	switch k {
	case EntityGene:
		return AttrGene, true
	case EntityStudy:
		return AttrStudy, true
	case EntityDataType:
		return AttrDataType, true
	case EntityDataSource:
		return AttrDataSource, true
	}
	return "", false
}

// ResolvedEntity is the single typed value extracted from one turn's query.
type ResolvedEntity struct {
	Kind  EntityKind `json:"kind"`
	Value string     `json:"value"`
}

// #endregion entity

// #region state-change
// StateChange records one merge: what the session held, what this turn added
// and the result.
type StateChange struct {
	Previous  ConversationState `json:"previous"`
	NewEntity ConversationState `json:"new_entity"`
	Merged    ConversationState `json:"merged"`
}

// StateDiff names the single attribute that changed. An empty EntityType
// means nothing changed.
type StateDiff struct {
	EntityType  Attribute `json:"entity_type,omitempty"`
	EntityValue string    `json:"entity_value,omitempty"`
}

// Present reports whether the diff names a changed attribute.
func (d StateDiff) Present() bool { return d.EntityType != "" }

// #endregion state-change
