package models

// Event is the ingestion contract between business-mutation collaborators
// and the dispatcher. A mutation handler builds one event per lifecycle
// change and hands it off; the engine never re-reads the entity for matching.
type Event struct {
	TriggerType TriggerType `json:"trigger_type"   validate:"required"`
	EntityType  EntityType  `json:"entity_type"    validate:"required"`
	EntityID    string      `json:"entity_id"      validate:"required"`

	// Scope identifies the tenant the entity belongs to. Scoped events only
	// reach webhook subscriptions of the same scope; single-tenant
	// deployments leave it empty and match every subscription.
	Scope string `json:"scope,omitempty"`

	EntityName    string         `json:"entity_name,omitempty"`
	PreviousData  map[string]any `json:"previous_data,omitempty"`
	NewData       map[string]any `json:"new_data,omitempty"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
	UserID        string         `json:"user_id,omitempty"`
}

// Snapshot returns the entity state conditions are evaluated against:
// the new data, falling back to the previous data for deletions.
func (e Event) Snapshot() map[string]any {
	if e.NewData != nil {
		return e.NewData
	}

	return e.PreviousData
}

// TriggerSnapshot freezes the event into the form stored on a run.
func (e Event) TriggerSnapshot() TriggerSnapshot {
	return TriggerSnapshot{
		EntityType:    e.EntityType,
		EntityID:      e.EntityID,
		EntityName:    e.EntityName,
		PreviousData:  e.PreviousData,
		NewData:       e.NewData,
		ChangedFields: e.ChangedFields,
	}
}
