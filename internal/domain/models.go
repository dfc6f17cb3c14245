package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Storage keys used by the record store
const (
	KeyLeads     = "leadList"
	KeyCustomers = "customerDataList"
	KeyCounters  = "counters"
	KeyHighlight = "highlightCustomerId"
)

// HistoryLimit is the number of history entries kept per customer
const HistoryLimit = 300

// DateLayout is the calendar date format used for due dates
const DateLayout = "2006-01-02"

// Contact holds the identity and contact fields shared by leads and customers
type Contact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Paket     string `json:"paket"`
	Street    string `json:"street"`
	Zip       string `json:"zip"`
	City      string `json:"city"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Instagram string `json:"instagram"`
	Facebook  string `json:"facebook"`
	LinkedIn  string `json:"linkedin"`
	Website   string `json:"website"`
	Notes     string `json:"notes"`
}

var contactKeys = []string{
	"firstName", "lastName", "email", "paket", "street", "zip", "city",
	"country", "phone", "instagram", "facebook", "linkedin", "website", "notes",
}

// Lead represents an unconverted prospective contact
type Lead struct {
	Contact
}

var leadKinds = fieldKinds{strings: contactKeys}

// UnmarshalJSON decodes a stored lead, coercing scalar fields
func (l *Lead) UnmarshalJSON(data []byte) error {
	type leadAlias Lead
	return decodeLenient(data, leadKinds, (*leadAlias)(l))
}

// Customer represents a converted lead with its nested records
type Customer struct {
	ID        string    `json:"id"`
	DateAdded time.Time `json:"dateAdded"`
	Contact
	Offers        []Offer        `json:"offers"`
	Invoices      []Invoice      `json:"invoices"`
	Subscriptions []Subscription `json:"subscriptions"`
	Projects      []Project      `json:"projects"`
	History       []HistoryEntry `json:"history"`
}

// customerCollections lists the JSON keys that must hold arrays
var customerCollections = []string{"offers", "invoices", "subscriptions", "projects", "history"}

var customerKinds = fieldKinds{
	strings: append([]string{"id"}, contactKeys...),
	times:   []string{"dateAdded"},
}

// UnmarshalJSON decodes a stored customer. Collection fields holding anything
// other than an array are dropped so they decode as empty, and scalar fields
// are coerced so one legacy value cannot make the record unreadable.
func (c *Customer) UnmarshalJSON(data []byte) error {
	raw, err := customerKinds.coerce(data)
	if err != nil {
		return err
	}
	for _, key := range customerCollections {
		if v, ok := raw[key]; ok && !isJSONArray(v) {
			delete(raw, key)
		}
	}
	cleaned, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	type customerAlias Customer
	var alias customerAlias
	if err := json.Unmarshal(cleaned, &alias); err != nil {
		return err
	}
	*c = Customer(alias)
	return nil
}

func isJSONArray(v json.RawMessage) bool {
	trimmed := bytes.TrimSpace(v)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// OfferStatus represents the acceptance state of an offer
type OfferStatus string

const (
	OfferStatusCreated  OfferStatus = "created"
	OfferStatusAccepted OfferStatus = "accepted"
)

// Offer is a proposed package and price awaiting acceptance
type Offer struct {
	ID           string      `json:"id"`
	Status       OfferStatus `json:"status"`
	CreatedAt    time.Time   `json:"createdAt"`
	Paket        string      `json:"paket"`
	Preis        *float64    `json:"preis"`
	ZahlplanText string      `json:"zahlplanText"`
	AcceptedAt   *time.Time  `json:"acceptedAt,omitempty"`
	Signature    *string     `json:"signature,omitempty"`
}

var offerKinds = fieldKinds{
	strings: []string{"id", "status", "paket", "zahlplanText", "signature"},
	times:   []string{"createdAt", "acceptedAt"},
	floats:  []string{"preis"},
}

// UnmarshalJSON decodes a stored offer, coercing scalar fields
func (o *Offer) UnmarshalJSON(data []byte) error {
	type offerAlias Offer
	return decodeLenient(data, offerKinds, (*offerAlias)(o))
}

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusOpen InvoiceStatus = "open"
	InvoiceStatusPaid InvoiceStatus = "paid"
)

// Invoice is a billing record with a sequential per-year number
type Invoice struct {
	ID        string        `json:"id"`
	Number    string        `json:"number"`
	CreatedAt time.Time     `json:"createdAt"`
	Status    InvoiceStatus `json:"status"`
	OfferID   *string       `json:"offerId"`
	Title     string        `json:"title"`
	Amount    float64       `json:"amount"`
	Note      string        `json:"note"`
	PaidAt    *time.Time    `json:"paidAt"`
}

var invoiceKinds = fieldKinds{
	strings: []string{"id", "number", "status", "offerId", "title", "note"},
	times:   []string{"createdAt", "paidAt"},
	floats:  []string{"amount"},
}

// UnmarshalJSON decodes a stored invoice, coercing scalar fields
func (i *Invoice) UnmarshalJSON(data []byte) error {
	type invoiceAlias Invoice
	return decodeLenient(data, invoiceKinds, (*invoiceAlias)(i))
}

// SubscriptionInterval is the billing interval of a subscription
type SubscriptionInterval string

const (
	IntervalMonthly SubscriptionInterval = "monthly"
)

// Subscription is a recurring billing arrangement with an advancing due date
type Subscription struct {
	ID         string               `json:"id"`
	Title      string               `json:"title"`
	Amount     float64              `json:"amount"`
	Interval   SubscriptionInterval `json:"interval"`
	NextDue    string               `json:"nextDue"`
	Active     bool                 `json:"active"`
	AcceptedAt *time.Time           `json:"acceptedAt"`
	Signature  *string              `json:"signature"`
}

var subscriptionKinds = fieldKinds{
	strings: []string{"id", "title", "interval", "nextDue", "signature"},
	times:   []string{"acceptedAt"},
	floats:  []string{"amount"},
}

// UnmarshalJSON decodes a stored subscription, coercing scalar fields
func (s *Subscription) UnmarshalJSON(data []byte) error {
	type subscriptionAlias Subscription
	return decodeLenient(data, subscriptionKinds, (*subscriptionAlias)(s))
}

// ProjectStatus represents the progress state of a project
type ProjectStatus string

const (
	ProjectStatusOpen   ProjectStatus = "open"
	ProjectStatusOnHold ProjectStatus = "onhold"
	ProjectStatusDone   ProjectStatus = "done"
)

// Project tracks deliverables for a customer
type Project struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	OfferID    *string       `json:"offerId"`
	Status     ProjectStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	Milestones []Milestone   `json:"milestones"`
	Notes      string        `json:"notes"`
	Files      []ProjectFile `json:"files"`
}

var projectKinds = fieldKinds{
	strings: []string{"id", "title", "offerId", "status", "notes"},
	times:   []string{"createdAt"},
}

func (p *Project) UnmarshalJSON(data []byte) error {
	type projectAlias Project
	return decodeLenient(data, projectKinds, (*projectAlias)(p))
}

// Milestone is a single checkpoint within a project
type Milestone struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Due   string `json:"due"`
	Done  bool   `json:"done"`
}

var milestoneKinds = fieldKinds{strings: []string{"id", "title", "due"}}

func (m *Milestone) UnmarshalJSON(data []byte) error {
	type milestoneAlias Milestone
	return decodeLenient(data, milestoneKinds, (*milestoneAlias)(m))
}

// ProjectFile is metadata for an externally hosted file
type ProjectFile struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	Size    int64     `json:"size"`
	Kind    string    `json:"kind"`
	AddedAt time.Time `json:"addedAt"`
}

var projectFileKinds = fieldKinds{
	strings: []string{"id", "name", "url", "kind"},
	times:   []string{"addedAt"},
	ints:    []string{"size"},
}

func (f *ProjectFile) UnmarshalJSON(data []byte) error {
	type projectFileAlias ProjectFile
	return decodeLenient(data, projectFileKinds, (*projectFileAlias)(f))
}

// HistoryType classifies a history entry
type HistoryType string

const (
	HistoryTypeSystem    HistoryType = "system"
	HistoryTypeMilestone HistoryType = "milestone"
	HistoryTypeNote      HistoryType = "note"
)

// HistoryEntry is a single line of a customer's audit trail
type HistoryEntry struct {
	ID      string      `json:"id"`
	Ts      time.Time   `json:"ts"`
	Type    HistoryType `json:"type"`
	Message string      `json:"message"`
}

var historyKinds = fieldKinds{
	strings: []string{"id", "type", "message"},
	times:   []string{"ts"},
}

func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	type historyAlias HistoryEntry
	return decodeLenient(data, historyKinds, (*historyAlias)(h))
}

// Counters maps "inv_<year>" to the last issued invoice sequence
type Counters map[string]int

// KeyValueEntry is a single persisted key of the record store
type KeyValueEntry struct {
	Key       string    `gorm:"type:varchar(100);primaryKey;column:entry_key"`
	Value     string    `gorm:"type:text;not null;column:entry_value"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName overrides the default table name
func (KeyValueEntry) TableName() string {
	return "kv_entries"
}
