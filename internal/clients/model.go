package clients

import (
	"strings"
	"time"
)

// Client is a patient record owned by the store. All mutation goes through
// explicit repository calls; deleting a client cascades to their appointments.
type Client struct {
	ID           string    `json:"id"`
	GivenName    string    `json:"given_name"`
	FamilyName   string    `json:"family_name"`
	BirthDate    time.Time `json:"birth_date"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	MedicalNotes string    `json:"medical_notes"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateClientRequest is the payload for creating a client.
type CreateClientRequest struct {
	GivenName    string    `json:"given_name"`
	FamilyName   string    `json:"family_name"`
	BirthDate    time.Time `json:"birth_date"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	MedicalNotes string    `json:"medical_notes"`
}

// Validate checks required fields.
func (r *CreateClientRequest) Validate() error {
	if strings.TrimSpace(r.GivenName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.FamilyName) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(r.Phone) == "" && strings.TrimSpace(r.Email) == "" {
		return ErrMissingContact
	}
	return nil
}

// UpdateClientRequest is the payload for updating a client in place.
// Zero-valued fields are left unchanged.
type UpdateClientRequest struct {
	GivenName    *string    `json:"given_name,omitempty"`
	FamilyName   *string    `json:"family_name,omitempty"`
	BirthDate    *time.Time `json:"birth_date,omitempty"`
	Phone        *string    `json:"phone,omitempty"`
	Email        *string    `json:"email,omitempty"`
	Address      *string    `json:"address,omitempty"`
	MedicalNotes *string    `json:"medical_notes,omitempty"`
}

// apply copies the set fields onto the client.
func (r *UpdateClientRequest) apply(c *Client) {
	if r.GivenName != nil {
		c.GivenName = *r.GivenName
	}
	if r.FamilyName != nil {
		c.FamilyName = *r.FamilyName
	}
	if r.BirthDate != nil {
		c.BirthDate = *r.BirthDate
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
	if r.MedicalNotes != nil {
		c.MedicalNotes = *r.MedicalNotes
	}
}
