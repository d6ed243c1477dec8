package projects

import (
	"strings"
	"time"

	"github.com/good-yellow-bee/atelier/internal/models"
	"github.com/good-yellow-bee/atelier/internal/validate"
)

// DateLayout is the wire format of milestone deadlines.
const DateLayout = "2006-01-02"

// UpdateProjectRequest edits a project's details. Absent fields are kept.
type UpdateProjectRequest struct {
	SiteType         *models.SiteType      `json:"site_type" validate:"omitempty,oneof=Residential Commercial Office Restaurant Retail Other"`
	ContactDetails   *string               `json:"contact_details" validate:"omitempty,max=500"`
	PreferredContact *models.ContactMethod `json:"preferred_contact" validate:"omitempty,oneof=Email Phone WhatsApp Any"`
}

func (req *UpdateProjectRequest) apply(p *models.Project) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if req.SiteType != nil {
		p.SiteType = *req.SiteType
	}
	if req.ContactDetails != nil {
		p.ContactDetails = strings.TrimSpace(*req.ContactDetails)
	}
	if req.PreferredContact != nil {
		p.PreferredContact = *req.PreferredContact
	}
	return nil
}

// TaskRequest creates a task or, with absent fields kept, updates one.
type TaskRequest struct {
	Title           *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	ProgressPercent *int    `json:"progress_percent" validate:"omitempty,gte=0,lte=100"`
	Comments        *string `json:"comments" validate:"omitempty,max=2000"`
}

func (req *TaskRequest) apply(t *models.Task, create bool) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if create && (req.Title == nil || strings.TrimSpace(*req.Title) == "") {
		return validate.New("title is required")
	}
	if req.Title != nil {
		t.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.Description = strings.TrimSpace(*req.Description)
	}
	if req.ProgressPercent != nil {
		t.ProgressPercent = *req.ProgressPercent
	}
	if req.Comments != nil {
		t.Comments = strings.TrimSpace(*req.Comments)
	}
	return nil
}

// BudgetItemRequest creates or updates a budget line.
type BudgetItemRequest struct {
	ItemName      *string  `json:"item_name" validate:"omitempty,min=1,max=200"`
	EstimatedCost *float64 `json:"estimated_cost" validate:"omitempty,gte=0"`
	ActualCost    *float64 `json:"actual_cost" validate:"omitempty,gte=0"`
}

func (req *BudgetItemRequest) apply(item *models.BudgetItem, create bool) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if create && (req.ItemName == nil || strings.TrimSpace(*req.ItemName) == "") {
		return validate.New("item_name is required")
	}
	if req.ItemName != nil {
		item.ItemName = strings.TrimSpace(*req.ItemName)
	}
	if req.EstimatedCost != nil {
		item.EstimatedCost = *req.EstimatedCost
	}
	if req.ActualCost != nil {
		item.ActualCost = *req.ActualCost
	}
	return nil
}

// MilestoneRequest creates or updates a timeline entry.
type MilestoneRequest struct {
	Milestone *string                 `json:"milestone" validate:"omitempty,min=1,max=200"`
	Deadline  *string                 `json:"deadline" validate:"omitempty,datetime=2006-01-02"`
	Status    *models.MilestoneStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
}

func (req *MilestoneRequest) apply(m *models.Milestone, create bool) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	if create && (req.Milestone == nil || req.Deadline == nil) {
		return validate.New("milestone and deadline are required")
	}
	if req.Milestone != nil {
		m.Milestone = strings.TrimSpace(*req.Milestone)
	}
	if req.Deadline != nil {
		d, err := time.Parse(DateLayout, *req.Deadline)
		if err != nil {
			return validate.New("deadline must be a date (YYYY-MM-DD)")
		}
		m.Deadline = d
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if m.Status == "" {
		m.Status = models.MilestonePending
	}
	return nil
}

// FeedbackRequest is a client's comment on a drawing or image.
type FeedbackRequest struct {
	ItemType       string                `json:"item_type" validate:"required,oneof=drawing image"`
	Comment        string                `json:"comment" validate:"required,max=2000"`
	ApprovalStatus models.ApprovalStatus `json:"approval_status" validate:"omitempty,oneof=pending approved rejected"`
}
