package models

// PostalAddress is the subset of a postal-code lookup the registration form consumes.
type PostalAddress struct {
	PostalCode   string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state,omitempty"`
}
