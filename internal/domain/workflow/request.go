package workflow

import "strings"

// RequestContext carries the caller identity into every workflow call.
// The business is pre-selected by the caller; the workflow never looks it up from ambient state.
type RequestContext struct {
	PersonID        string
	BusinessID      string
	QualificationID string
}

func (r RequestContext) Normalize() RequestContext {
	return RequestContext{
		PersonID:        strings.TrimSpace(r.PersonID),
		BusinessID:      strings.TrimSpace(r.BusinessID),
		QualificationID: strings.TrimSpace(r.QualificationID),
	}
}

// ValidateBusiness requires person and business.
func (r RequestContext) ValidateBusiness() error {
	if strings.TrimSpace(r.PersonID) == "" {
		return ErrRequestPersonRequired
	}
	if strings.TrimSpace(r.BusinessID) == "" {
		return ErrRequestBusinessRequired
	}
	return nil
}

// ValidateQualification additionally requires the qualification scope.
func (r RequestContext) ValidateQualification() error {
	if err := r.ValidateBusiness(); err != nil {
		return err
	}
	if strings.TrimSpace(r.QualificationID) == "" {
		return ErrRequestQualificationRequired
	}
	return nil
}
