package state

// #region merge
// Merge folds the entity resolved this turn into previous. The entity value
// always wins on its key; every other key is carried over. A nil entity
// leaves the state untouched apart from data source normalization.
func Merge(previous ConversationState, entity *ResolvedEntity) StateChange {
	change := StateChange{Previous: previous}
	if entity == nil {
		change.Merged = previous.Normalized()
		return change
	}
	attr, ok := entity.Kind.Attribute()
	if !ok {
		change.Merged = previous.Normalized()
		return change
	}
	change.NewEntity = ConversationState{}.With(attr, entity.Value)
	change.Merged = previous.With(attr, entity.Value).Normalized()
	return change
}

// #endregion merge

// #region diff
// Diff reports which attribute this turn's entity set. A turn that added
// nothing (repeat, direct intent without free text) yields an absent diff.
func Diff(change StateChange) StateDiff {
	for _, attr := range Attributes {
		if v := change.NewEntity.Get(attr); v != "" {
			return StateDiff{EntityType: attr, EntityValue: v}
		}
	}
	return StateDiff{}
}

// Differs compares two full states and returns the single differing
// attribute, valued from b. It returns false when the states are equal or
// differ on more than one attribute.
func Differs(a, b ConversationState) (StateDiff, bool) {
	a, b = a.Normalized(), b.Normalized()
	var found StateDiff
	n := 0
	for _, attr := range Attributes {
		if a.Get(attr) != b.Get(attr) {
			n++
			found = StateDiff{EntityType: attr, EntityValue: b.Get(attr)}
		}
	}
	if n != 1 {
		return StateDiff{}, false
	}
	return found, true
}

// #endregion diff
