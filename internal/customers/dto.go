package customers

// CreateInput carries the fields accepted when registering a customer.
// At least one of Phone/Email must be present.
type CreateInput struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Phone *string `json:"phone" validate:"omitempty,e164_us"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// UpdateInput carries a partial customer update. Nil fields are untouched;
// clearing a contact method is expressed with an empty string.
type UpdateInput struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Phone *string `json:"phone" validate:"omitempty,e164_us"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// ListFilters narrows the customer list.
type ListFilters struct {
	Query string
}
