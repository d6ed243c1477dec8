package models

import (
	"time"
)

// Task is one step of a project's work plan.
type Task struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	ProgressPercent int       `json:"progress_percent"`
	Comments        string    `json:"comments,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// TaskCompletion returns the mean progress across tasks, 0 for none.
func TaskCompletion(tasks []*Task) float64 {
	if len(tasks) == 0 {
		return 0
	}
	var total int
	for _, t := range tasks {
		total += t.ProgressPercent
	}
	return float64(total) / float64(len(tasks))
}

// BudgetItem tracks estimated versus actual spend for one category.
type BudgetItem struct {
	ID            int64   `json:"id"`
	ProjectID     int64   `json:"project_id"`
	ItemName      string  `json:"item_name"`
	EstimatedCost float64 `json:"estimated_cost"`
	ActualCost    float64 `json:"actual_cost"`
}

// BudgetSummary aggregates a project's budget items.
type BudgetSummary struct {
	TotalEstimated float64 `json:"total_estimated"`
	TotalActual    float64 `json:"total_actual"`
	Difference     float64 `json:"difference"`
	OverBudget     bool    `json:"over_budget"`
}

// SummarizeBudget totals estimated and actual costs.
func SummarizeBudget(items []*BudgetItem) BudgetSummary {
	var s BudgetSummary
	for _, it := range items {
		s.TotalEstimated += it.EstimatedCost
		s.TotalActual += it.ActualCost
	}
	s.Difference = s.TotalActual - s.TotalEstimated
	s.OverBudget = s.Difference > 0
	return s
}

// MilestoneStatus is the progress state of a timeline entry.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// Milestone is a dated timeline entry.
type Milestone struct {
	ID        int64           `json:"id"`
	ProjectID int64           `json:"project_id"`
	Milestone string          `json:"milestone"`
	Deadline  time.Time       `json:"deadline"`
	Status    MilestoneStatus `json:"status"`
}

// ApprovalStatus is the client's verdict on a drawing or image.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Feedback is a client comment on a drawing or image.
type Feedback struct {
	ID             int64          `json:"id"`
	ProjectID      int64          `json:"project_id"`
	ItemType       string         `json:"item_type"`
	Comment        string         `json:"comment"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// FeedbackSummary counts feedback by approval status.
type FeedbackSummary struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// SummarizeFeedback counts items per approval status.
func SummarizeFeedback(items []*Feedback) FeedbackSummary {
	var s FeedbackSummary
	for _, fb := range items {
		switch fb.ApprovalStatus {
		case ApprovalApproved:
			s.Approved++
		case ApprovalRejected:
			s.Rejected++
		default:
			s.Pending++
		}
	}
	return s
}

// ProjectNote is the whiteboard text of a project.
type ProjectNote struct {
	ProjectID int64     `json:"project_id"`
	Text      string    `json:"text_note"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Supplier is an entry in the shared materials directory.
type Supplier struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
}

// SupplierCategories lists the categories offered when adding a supplier.
var SupplierCategories = []string{
	"Furniture", "Lighting", "Paint", "Flooring", "Electricals",
	"Plumbing", "Fabrics", "Accessories", "Other",
}
