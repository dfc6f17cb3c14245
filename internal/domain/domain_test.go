package domain_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/minicrm/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{"anna@example.com", "a.b+c@sub.example.de", "x@y.z"}
	invalid := []string{"", "anna", "anna@example", "@example.com", "anna@.", "an na@example.com", "anna@exa mple.com"}

	for _, mail := range valid {
		assert.True(t, domain.IsValidEmail(mail), mail)
	}
	for _, mail := range invalid {
		assert.False(t, domain.IsValidEmail(mail), mail)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "anna@x.de", domain.NormalizeEmail("ANNA@X.De"))
}

func TestCustomerUnmarshal_DropsNonArrayCollections(t *testing.T) {
	var c domain.Customer
	err := json.Unmarshal([]byte(`{
		"id": "C1",
		"firstName": "Anna",
		"email": "anna@x.de",
		"offers": {"0": {"id": "O1"}},
		"invoices": null,
		"history": "oops",
		"projects": [{"id": "P1", "title": "Site"}]
	}`), &c)
	require.NoError(t, err)

	assert.Equal(t, "C1", c.ID)
	assert.Equal(t, "Anna", c.FirstName)
	assert.Empty(t, c.Offers)
	assert.Empty(t, c.Invoices)
	assert.Empty(t, c.History)
	require.Len(t, c.Projects, 1)
	assert.Equal(t, "Site", c.Projects[0].Title)
}

func TestCustomerMarshal_FlattensContact(t *testing.T) {
	b, err := json.Marshal(domain.Customer{ID: "C1", Contact: domain.Contact{FirstName: "Anna", LinkedIn: "in/anna"}})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "Anna", raw["firstName"])
	assert.Equal(t, "in/anna", raw["linkedin"])
	assert.NotContains(t, raw, "Contact")
}

func TestValidator_LeadRequest(t *testing.T) {
	v := domain.NewValidator()

	ok := &domain.CreateLeadRequest{FirstName: "Anna", LastName: "Berg", Email: "anna@x.de"}
	assert.NoError(t, v.Struct(ok))

	bad := &domain.CreateLeadRequest{FirstName: "Anna", LastName: "Berg", Email: "anna"}
	assert.Error(t, v.Struct(bad))

	long := &domain.CreateLeadRequest{FirstName: strings.Repeat("a", 101), LastName: "Berg", Email: "anna@x.de"}
	assert.Error(t, v.Struct(long))
}

func TestUUIDGenerator(t *testing.T) {
	g := domain.UUIDGenerator{}
	a := g.NewID(domain.PrefixCustomer)
	b := g.NewID(domain.PrefixCustomer)
	assert.True(t, strings.HasPrefix(a, "C"))
	assert.Len(t, a, 37)
	assert.NotEqual(t, a, b)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-01-15T09:00:00Z",
		"2024-01-15T10:00:00+01:00",
		"15.1.2024, 09:00:00",
		"1/15/2024, 9:00:00 AM",
		"2024-01-15T09:00:00",
	} {
		got, ok := domain.ParseTimestamp(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}

	for _, in := range []string{"", "  ", "yesterday", "32.13.2024, 09:00:00"} {
		_, ok := domain.ParseTimestamp(in)
		assert.False(t, ok, in)
	}
}

func TestLeadUnmarshal_CoercesScalars(t *testing.T) {
	var leads []domain.Lead
	err := json.Unmarshal([]byte(`[{"firstName":"Anna","email":"anna@x.de","zip":10115,"phone":null,"notes":{"x":1}}]`), &leads)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "10115", leads[0].Zip)
	assert.Empty(t, leads[0].Phone)
	assert.Empty(t, leads[0].Notes)
}

func TestProjectFileUnmarshal_CoercesSize(t *testing.T) {
	var files []domain.ProjectFile
	err := json.Unmarshal([]byte(`[{"id":"F1","size":"2048"},{"id":"F2","size":10.7},{"id":"F3","size":"big","addedAt":"x"}]`), &files)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, int64(2048), files[0].Size)
	assert.Equal(t, int64(10), files[1].Size)
	assert.Equal(t, int64(0), files[2].Size)
	assert.True(t, files[2].AddedAt.IsZero())
}
