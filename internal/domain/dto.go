package domain

import "time"

// ContactFields are the optional contact fields accepted on lead and customer requests
type ContactFields struct {
	Street    string `json:"street,omitempty" validate:"max=200"`
	Zip       string `json:"zip,omitempty" validate:"max=20"`
	City      string `json:"city,omitempty" validate:"max=100"`
	Country   string `json:"country,omitempty" validate:"max=100"`
	Phone     string `json:"phone,omitempty" validate:"max=50"`
	Instagram string `json:"instagram,omitempty" validate:"max=300"`
	Facebook  string `json:"facebook,omitempty" validate:"max=300"`
	LinkedIn  string `json:"linkedin,omitempty" validate:"max=300"`
	Website   string `json:"website,omitempty" validate:"max=300"`
	Notes     string `json:"notes,omitempty"`
}

// CreateLeadRequest is the payload for a new lead
type CreateLeadRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,leademail"`
	Paket     string `json:"paket,omitempty" validate:"max=100"`
	ContactFields
}

// UpdateCustomerRequest patches customer contact data. Nil fields are left untouched.
type UpdateCustomerRequest struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,leademail"`
	Paket     *string `json:"paket,omitempty" validate:"omitempty,max=100"`
	Street    *string `json:"street,omitempty"`
	Zip       *string `json:"zip,omitempty"`
	City      *string `json:"city,omitempty"`
	Country   *string `json:"country,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
	Website   *string `json:"website,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

// CreateOfferRequest is the payload for a new offer
type CreateOfferRequest struct {
	Paket        string   `json:"paket,omitempty" validate:"max=100"`
	Preis        *float64 `json:"preis,omitempty" validate:"omitempty,gte=0"`
	ZahlplanText string   `json:"zahlplanText,omitempty"`
}

// AcceptRequest carries an optional signature image (data URL)
type AcceptRequest struct {
	Signature string `json:"signature,omitempty"`
}

// CreateInvoiceRequest is the payload for a new invoice
type CreateInvoiceRequest struct {
	OfferID *string `json:"offerId,omitempty"`
	Title   string  `json:"title,omitempty" validate:"max=300"`
	Amount  float64 `json:"amount" validate:"gte=0"`
	Note    string  `json:"note,omitempty"`
}

// SetInvoiceStatusRequest changes the payment state of an invoice
type SetInvoiceStatusRequest struct {
	Status InvoiceStatus `json:"status" validate:"required,oneof=open paid"`
}

// CreateSubscriptionRequest is the payload for a new subscription.
// Interval defaults to monthly, NextDue to today and Active to true.
type CreateSubscriptionRequest struct {
	Title      string               `json:"title" validate:"max=300"`
	Amount     float64              `json:"amount"`
	Interval   SubscriptionInterval `json:"interval,omitempty"`
	NextDue    string               `json:"nextDue,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active     *bool                `json:"active,omitempty"`
	AcceptedAt *time.Time           `json:"acceptedAt,omitempty"`
	Signature  *string              `json:"signature,omitempty"`
}

// UpdateSubscriptionRequest patches a subscription. Nil fields are left untouched.
type UpdateSubscriptionRequest struct {
	Title    *string               `json:"title,omitempty"`
	Amount   *float64              `json:"amount,omitempty" validate:"omitempty,gte=0"`
	Interval *SubscriptionInterval `json:"interval,omitempty"`
	NextDue  *string               `json:"nextDue,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Active   *bool                 `json:"active,omitempty"`
}

// CreateInvoiceFromSubscriptionRequest carries an optional note suffix
type CreateInvoiceFromSubscriptionRequest struct {
	NoteExtra string `json:"noteExtra,omitempty"`
}

// CreateProjectRequest is the payload for a new project
type CreateProjectRequest struct {
	Title      string        `json:"title,omitempty" validate:"max=300"`
	OfferID    *string       `json:"offerId,omitempty"`
	Status     ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=open onhold done"`
	Milestones []Milestone   `json:"milestones,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	Files      []ProjectFile `json:"files,omitempty"`
}

// UpdateProjectRequest patches a project. Nil fields are left untouched.
type UpdateProjectRequest struct {
	Title      *string        `json:"title,omitempty"`
	OfferID    *string        `json:"offerId,omitempty"`
	Status     *ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=open onhold done"`
	Notes      *string        `json:"notes,omitempty"`
	Milestones *[]Milestone   `json:"milestones,omitempty"`
	Files      *[]ProjectFile `json:"files,omitempty"`
}

// CreateMilestoneRequest is the payload for a new milestone
type CreateMilestoneRequest struct {
	Title string `json:"title,omitempty" validate:"max=300"`
	Due   string `json:"due,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// SetMilestoneDoneRequest sets the done flag of a milestone
type SetMilestoneDoneRequest struct {
	Done bool `json:"done"`
}

// CreateProjectFileRequest is the payload for a file reference
type CreateProjectFileRequest struct {
	Name string `json:"name,omitempty" validate:"max=300"`
	URL  string `json:"url,omitempty" validate:"omitempty,url"`
	Size int64  `json:"size,omitempty" validate:"gte=0"`
	Kind string `json:"kind,omitempty" validate:"max=50"`
}

// CreateHistoryRequest is the payload for a manual history entry
type CreateHistoryRequest struct {
	Type    HistoryType `json:"type,omitempty" validate:"omitempty,oneof=system milestone note"`
	Message string      `json:"message" validate:"required"`
}

// PromoteLeadResponse is returned after a lead became a customer
type PromoteLeadResponse struct {
	CustomerID string `json:"customerId"`
}

// HighlightResponse carries the one-shot highlight marker
type HighlightResponse struct {
	CustomerID string `json:"customerId,omitempty"`
}

// SubscriptionInvoiceResult is returned after billing a subscription
type SubscriptionInvoiceResult struct {
	CustomerID   string       `json:"customerId"`
	Subscription Subscription `json:"subscription"`
	Invoice      Invoice      `json:"invoice"`
}

// ErrorResponse represents a simple error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
