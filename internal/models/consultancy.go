package models

type ConsultancySubmission struct {
	FullName     string `json:"fullName" validate:"required,min=2,max=100"`
	PhoneNumber  string `json:"phoneNumber" validate:"required,len=10,numeric"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	InterestedIn string `json:"interestedIn" validate:"required"`
	Message      string `json:"message,omitempty" validate:"max=2000"`
}

// ConsultancyRequest is addressed by RequestID, the consultancy name for an id.
type ConsultancyRequest struct {
	RequestID string `json:"requestId"`
	ConsultancySubmission
	Meta
}

func (r *ConsultancyRequest) RecordID() string { return r.RequestID }

func (r *ConsultancyRequest) Contact() Contact {
	return Contact{
		Name:  r.FullName,
		Email: r.Email,
		Phone: r.PhoneNumber,
	}
}
