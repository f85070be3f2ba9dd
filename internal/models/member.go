package models

import "strings"

// Member (membro) is a registered pastoral volunteer.
type Member struct {
	ID            ID     `json:"id"`
	FullName      string `json:"nome_completo"`
	Login         string `json:"login,omitempty"`
	Phone         string `json:"telefone"`
	Neighborhood  string `json:"bairro"`
	HasVehicle    Flag   `json:"possui_veiculo"`
	VehicleModel  string `json:"modelo_veiculo,omitempty"`
	MaritalStatus string `json:"estado_civil,omitempty"`
	BirthDate     string `json:"data_nascimento,omitempty"`
	WeddingDate   string `json:"data_casamento,omitempty"`
}

// IsDriver reports whether the member owns a vehicle.
func (m Member) IsDriver() bool {
	return bool(m.HasVehicle)
}

// IsMarried reports whether the marital status reads as married.
func (m Member) IsMarried() bool {
	return strings.Contains(strings.ToUpper(m.MaritalStatus), "CASADO")
}

// FirstName returns the first word of the full name.
func (m Member) FirstName() string {
	return firstWord(m.FullName)
}

// Drivers filters members down to vehicle owners, preserving order.
func Drivers(members []Member) []Member {
	drivers := make([]Member, 0, len(members))
	for _, m := range members {
		if m.IsDriver() {
			drivers = append(drivers, m)
		}
	}
	return drivers
}

// LoginProfile is the partial projection returned by the login lookup endpoint.
type LoginProfile struct {
	Found bool `json:"found"`
	Member
}
