package models

import "sort"

// EntityType identifies the kind of business record an event refers to.
type EntityType string

const (
	EntityTypeDeal     EntityType = "deal"
	EntityTypeContact  EntityType = "contact"
	EntityTypeClient   EntityType = "client"
	EntityTypeActivity EntityType = "activity"
	EntityTypeQuote    EntityType = "quote"
	EntityTypeTask     EntityType = "task"
	EntityTypePriority EntityType = "priority"
)

// TriggerType is the closed enumeration of domain lifecycle events a
// workflow can listen for.
type TriggerType string

const (
	TriggerDealCreated           TriggerType = "deal_created"
	TriggerDealUpdated           TriggerType = "deal_updated"
	TriggerDealStageChanged      TriggerType = "deal_stage_changed"
	TriggerDealDeleted           TriggerType = "deal_deleted"
	TriggerContactCreated        TriggerType = "contact_created"
	TriggerContactUpdated        TriggerType = "contact_updated"
	TriggerContactDeleted        TriggerType = "contact_deleted"
	TriggerClientCreated         TriggerType = "client_created"
	TriggerClientUpdated         TriggerType = "client_updated"
	TriggerActivityCreated       TriggerType = "activity_created"
	TriggerActivityCompleted     TriggerType = "activity_completed"
	TriggerQuoteAccepted         TriggerType = "quote_accepted"
	TriggerTaskOverdue           TriggerType = "task_overdue"
	TriggerPriorityCreated       TriggerType = "priority_created"
	TriggerPriorityReassigned    TriggerType = "priority_reassigned"
	TriggerPriorityStatusChanged TriggerType = "priority_status_changed"
)

var triggerEntities = map[TriggerType]EntityType{
	TriggerDealCreated:           EntityTypeDeal,
	TriggerDealUpdated:           EntityTypeDeal,
	TriggerDealStageChanged:      EntityTypeDeal,
	TriggerDealDeleted:           EntityTypeDeal,
	TriggerContactCreated:        EntityTypeContact,
	TriggerContactUpdated:        EntityTypeContact,
	TriggerContactDeleted:        EntityTypeContact,
	TriggerClientCreated:         EntityTypeClient,
	TriggerClientUpdated:         EntityTypeClient,
	TriggerActivityCreated:       EntityTypeActivity,
	TriggerActivityCompleted:     EntityTypeActivity,
	TriggerQuoteAccepted:         EntityTypeQuote,
	TriggerTaskOverdue:           EntityTypeTask,
	TriggerPriorityCreated:       EntityTypePriority,
	TriggerPriorityReassigned:    EntityTypePriority,
	TriggerPriorityStatusChanged: EntityTypePriority,
}

// EntityType returns the entity kind a trigger type fires for.
func (t TriggerType) EntityType() (EntityType, bool) {
	entityType, ok := triggerEntities[t]

	return entityType, ok
}

// TriggerTypes returns the full trigger enumeration in lexical order.
func TriggerTypes() []TriggerType {
	types := make([]TriggerType, 0, len(triggerEntities))
	for t := range triggerEntities {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Valid reports whether the trigger type is part of the closed enumeration.
func (t TriggerType) Valid() bool {
	_, ok := triggerEntities[t]

	return ok
}
