package actions

import "time"

// Tool names in the CRM's fixed catalog. The server treats these as
// opaque named RPCs with JSON arguments.
const (
	ToolGetContacts        = "contacts_get-contacts"
	ToolGetContact         = "contacts_get-contact"
	ToolCreateContact      = "contacts_create-contact"
	ToolUpsertContact      = "contacts_upsert-contact"
	ToolUpdateContact      = "contacts_update-contact"
	ToolAddTags            = "contacts_add-tags"
	ToolRemoveTags         = "contacts_remove-tags"
	ToolGetAllTasks        = "contacts_get-all-tasks"
	ToolSearchConversation = "conversations_search-conversation"
	ToolGetMessages        = "conversations_get-messages"
	ToolSendMessage        = "conversations_send-a-new-message"
	ToolGetPipelines       = "opportunities_get-pipelines"
	ToolSearchOpportunity  = "opportunities_search-opportunity"
	ToolGetOpportunity     = "opportunities_get-opportunity"
	ToolGetCalendarEvents  = "calendars_get-calendar-events"
	ToolListTransactions   = "payments_list-transactions"
)

// Contact is the subset of the CRM contact record the checks need.
type Contact struct {
	ID           string     `json:"id"`
	ContactName  string     `json:"contactName,omitempty"`
	FirstName    string     `json:"firstName,omitempty"`
	LastName     string     `json:"lastName,omitempty"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	DateAdded    *time.Time `json:"dateAdded,omitempty"`
	DateUpdated  *time.Time `json:"dateUpdated,omitempty"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

// DisplayName returns the best human-readable name available.
func (c Contact) DisplayName() string {
	if c.ContactName != "" {
		return c.ContactName
	}
	if c.FirstName != "" || c.LastName != "" {
		if c.FirstName == "" {
			return c.LastName
		}
		if c.LastName == "" {
			return c.FirstName
		}
		return c.FirstName + " " + c.LastName
	}
	if c.Email != "" {
		return c.Email
	}
	return c.ID
}

// LastTouch returns the most recent of lastActivity, dateUpdated and
// dateAdded, or the zero time if none is set.
func (c Contact) LastTouch() time.Time {
	var latest time.Time
	for _, ts := range []*time.Time{c.LastActivity, c.DateUpdated, c.DateAdded} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest
}

// Task is one follow-up item attached to a contact.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Body      string     `json:"body,omitempty"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Completed bool       `json:"completed"`
	ContactID string     `json:"contactId,omitempty"`
}

// PipelineStage is one stage of a sales pipeline.
type PipelineStage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pipeline is a sales pipeline and its stages.
type Pipeline struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Stages []PipelineStage `json:"stages,omitempty"`
}

// StageName resolves a stage id to its display name, falling back to
// the id itself.
func (p Pipeline) StageName(stageID string) string {
	for _, stage := range p.Stages {
		if stage.ID == stageID {
			return stage.Name
		}
	}
	return stageID
}

// Opportunity is one deal moving through a pipeline.
type Opportunity struct {
	ID                string     `json:"id"`
	Name              string     `json:"name,omitempty"`
	PipelineID        string     `json:"pipelineId,omitempty"`
	PipelineStageID   string     `json:"pipelineStageId,omitempty"`
	Status            string     `json:"status,omitempty"`
	MonetaryValue     *float64   `json:"monetaryValue,omitempty"`
	LastStageChangeAt *time.Time `json:"lastStageChangeAt,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// Value treats a missing monetary value as zero.
func (o Opportunity) Value() float64 {
	if o.MonetaryValue == nil {
		return 0
	}
	return *o.MonetaryValue
}

// StageAge returns the reference for how long the opportunity has sat in
// its stage: lastStageChangeAt when present, else updatedAt, else
// createdAt, else zero.
func (o Opportunity) StageAge() time.Time {
	for _, ts := range []*time.Time{o.LastStageChangeAt, o.UpdatedAt, o.CreatedAt} {
		if ts != nil {
			return *ts
		}
	}
	return time.Time{}
}

// Conversation is one message thread with a contact.
type Conversation struct {
	ID              string     `json:"id"`
	ContactID       string     `json:"contactId,omitempty"`
	LastMessageDate *time.Time `json:"lastMessageDate,omitempty"`
}

// Message directions on the wire.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message is one message within a conversation.
type Message struct {
	ID        string     `json:"id"`
	Direction string     `json:"direction,omitempty"`
	Body      string     `json:"body,omitempty"`
	DateAdded *time.Time `json:"dateAdded,omitempty"`
}

// StageSummary aggregates the opportunities sitting in one stage.
type StageSummary struct {
	StageID    string  `json:"stageId"`
	StageName  string  `json:"stageName"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

// PipelineOverview is the per-stage aggregation of one pipeline.
type PipelineOverview struct {
	PipelineID   string         `json:"pipelineId"`
	PipelineName string         `json:"pipelineName"`
	Stages       []StageSummary `json:"stages"`
	Total        int            `json:"total"`
}

// BatchResult records the outcome of one identifier within a batch tag
// operation, in input order. A nil Err means the call succeeded.
type BatchResult struct {
	ContactID string
	Err       error
}
