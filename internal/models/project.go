package models

import (
	"time"
)

// SiteType classifies the premises being designed.
type SiteType string

const (
	SiteResidential SiteType = "Residential"
	SiteCommercial  SiteType = "Commercial"
	SiteOffice      SiteType = "Office"
	SiteRestaurant  SiteType = "Restaurant"
	SiteRetail      SiteType = "Retail"
	SiteOther       SiteType = "Other"
)

// SiteTypes lists the accepted site types in display order.
var SiteTypes = []SiteType{SiteResidential, SiteCommercial, SiteOffice, SiteRestaurant, SiteRetail, SiteOther}

// ContactMethod is the client's preferred channel.
type ContactMethod string

const (
	ContactEmail    ContactMethod = "Email"
	ContactPhone    ContactMethod = "Phone"
	ContactWhatsApp ContactMethod = "WhatsApp"
	ContactAny      ContactMethod = "Any"
)

// Project links exactly one designer with exactly one client.
type Project struct {
	ID               int64         `json:"id"`
	DesignerID       int64         `json:"designer_id"`
	ClientID         int64         `json:"client_id"`
	SiteType         SiteType      `json:"site_type"`
	ContactDetails   string        `json:"contact_details,omitempty"`
	PreferredContact ContactMethod `json:"preferred_contact"`
	CreatedAt        time.Time     `json:"created_at"`

	// Populated by list queries that join the client row.
	ClientName  string `json:"client_name,omitempty"`
	ClientEmail string `json:"client_email,omitempty"`
}

// NewProject creates a new Project with initialized timestamp and defaults.
func NewProject(designerID, clientID int64, siteType SiteType) *Project {
	if siteType == "" {
		siteType = SiteResidential
	}
	return &Project{
		DesignerID:       designerID,
		ClientID:         clientID,
		SiteType:         siteType,
		PreferredContact: ContactAny,
		CreatedAt:        time.Now().UTC(),
	}
}

// OwnedBy reports whether the designer owns this project.
func (p *Project) OwnedBy(designerID int64) bool {
	return p.DesignerID == designerID
}

// BelongsTo reports whether the project is the given client's.
func (p *Project) BelongsTo(clientID int64) bool {
	return p.ClientID == clientID
}

// DefaultTasks seeds every new project.
var DefaultTasks = []string{
	"Site Survey & Measurements",
	"Conceptual Design",
	"3D Modeling & Visualization",
	"Material Selection",
	"Electrical Layout Planning",
	"Plumbing Layout Planning",
	"Furniture Procurement",
	"Painting & Wall Finishing",
	"Flooring Installation",
	"Lighting Installation",
	"Furniture Installation",
	"Final Styling & Accessories",
	"Quality Check & Handover",
}

// DefaultBudgetCategories seeds every new project's budget.
var DefaultBudgetCategories = []string{
	"Design Fees",
	"Furniture",
	"Lighting Fixtures",
	"Wall Paint & Finishes",
	"Flooring Materials",
	"Kitchen & Bathroom Fittings",
	"Curtains & Blinds",
	"Electrical Work",
	"Plumbing Work",
	"Carpentry",
	"Decorative Accessories",
	"Contingency Fund",
}
