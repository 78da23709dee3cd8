package requirement

import (
	"fmt"

	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/apperr"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/logging"
	"github.com/pittlab-genomics/Melvin-Alexa-Intent-Handler-sub000/internal/state"
)

// #region validator
// Validator decides whether a state carries enough attributes for the
// analysis it requests.
type Validator struct {
	tables Tables
	log    *logging.Logger
}

// NewValidator creates a validator over the given tables. A nil log
// discards output.
func NewValidator(tables Tables, log *logging.Logger) *Validator {
	if tables == nil {
		tables = DefaultTables()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Validator{tables: tables, log: log.With("component", "requirement")}
}

// TableFor returns the table for src, falling back to the TCGA table for
// any source other than ClinVar.
func (v *Validator) TableFor(src state.DataSource) Table {
	if src == state.ClinVar {
		return v.tables[state.ClinVar]
	}
	return v.tables[state.TCGA]
}

// Validate returns s unchanged (apart from source normalization) when it may
// be answered, or an *apperr.Error naming what is missing.
func (v *Validator) Validate(s state.ConversationState) (state.ConversationState, error) {
	s = s.Normalized()

	// 1. Nothing requested yet
	if s.DataType == "" {
		return s, nil
	}

	// 2. Unrecognized analysis type
	dt, err := state.ParseDataType(s.DataType)
	if err != nil {
		return s, apperr.Wrap(apperr.KindInvalidDataType,
			fmt.Sprintf("Sorry, I don't know the analysis %s.", s.DataType), err)
	}
	s.DataType = string(dt)

	// 3. Analysis not offered by this data source
	allowed, ok := v.TableFor(s.Source())[dt]
	if !ok {
		return s, apperr.New(apperr.KindInvalidDataType,
			fmt.Sprintf("%s is not supported in the %s data source.", dt.Label(), s.Source()))
	}

	// 4. Presence check, gene before study
	p := PresenceOf(s)
	if allowed[p] {
		return s, nil
	}
	if !p.Gene {
		return s, apperr.New(apperr.KindMissingGene, apperr.MsgMissingGene)
	}
	if !p.Study {
		return s, apperr.New(apperr.KindMissingStudy, apperr.MsgMissingStudy)
	}

	// Both present but not listed: accepted, see DESIGN.md open questions.
	v.log.Warn("presence not listed but accepted",
		"data_type", dt, "data_source", s.Source(), "code", p.Code())
	return s, nil
}

// ValidateForAction forces dataType onto the merged state before checking
// it. Direct intents use this to skip resolving the analysis from text.
func (v *Validator) ValidateForAction(change state.StateChange, dataType state.DataType) (state.ConversationState, error) {
	merged := change.Merged
	merged.DataType = string(dataType)
	return v.Validate(merged)
}

// #endregion validator
