package web

import "github.com/caldera-io/relay/pkg/models"

type CreateWorkflowRequest struct {
	Name        string          `json:"name"        validate:"required,min=3"`
	Description string          `json:"description"`
	Trigger     models.Trigger  `json:"trigger"     validate:"required"`
	Actions     []models.Action `json:"actions"`
	Owner       string          `json:"owner"`
	Active      *bool           `json:"active"`
}

type UpdateWorkflowRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=3"`
	Description *string          `json:"description"`
	Trigger     *models.Trigger  `json:"trigger"`
	Actions     *[]models.Action `json:"actions"`
	Owner       *string          `json:"owner"`
}

type RunWorkflowRequest struct {
	EntityID string `json:"entity_id" validate:"required"`
}

type CreateSubscriptionRequest struct {
	Scope         string   `json:"scope"          validate:"required"`
	Name          string   `json:"name"           validate:"required"`
	URL           string   `json:"url"            validate:"required,url"`
	Secret        string   `json:"secret"         validate:"required"`
	Events        []string `json:"events"         validate:"required,min=1"`
	ChannelFilter string   `json:"channel_filter"`
	TimeoutMs     int      `json:"timeout_ms"     validate:"omitempty,gte=0"`
	Active        *bool    `json:"active"`
}

type UpdateSubscriptionRequest struct {
	Name          *string   `json:"name"           validate:"omitempty,min=1"`
	URL           *string   `json:"url"            validate:"omitempty,url"`
	Secret        *string   `json:"secret"         validate:"omitempty,min=1"`
	Events        *[]string `json:"events"         validate:"omitempty,min=1"`
	ChannelFilter *string   `json:"channel_filter"`
	TimeoutMs     *int      `json:"timeout_ms"     validate:"omitempty,gte=0"`
	Active        *bool     `json:"active"`
}
