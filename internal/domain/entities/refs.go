package entities

import (
	"bytes"
	"encoding/json"
)

// Placeholder is rendered wherever a nullable reference is absent.
const Placeholder = "-"

// Ref is a reference to another backend document. The backend sends either a
// bare id string or a populated object, depending on the endpoint.
type Ref struct {
	ID             string `json:"_id"`
	Name           string `json:"name,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// UnmarshalJSON accepts both `"abc123"` and `{"_id":"abc123","name":...}`.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

// DisplayName returns the populated name, or fallback, or the placeholder.
func (r *Ref) DisplayName(fallback string) string {
	if r != nil && r.Name != "" {
		return r.Name
	}
	if fallback != "" {
		return fallback
	}
	return Placeholder
}

// RefID returns the referenced id, or "" for a nil reference.
func (r *Ref) RefID() string {
	if r == nil {
		return ""
	}
	return r.ID
}

// Signature is a digital sign-off on a clinical record.
type Signature struct {
	SignedBy      *Ref   `json:"signedBy,omitempty"`
	SignedAt      string `json:"signedAt"`
	SignatureData string `json:"signatureData,omitempty"`
}

// FlexString decodes a JSON string or number into a string. Room and floor
// numbers arrive as either, depending on how the record was created.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// OrDash returns s, or the placeholder when s is empty.
func OrDash(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
