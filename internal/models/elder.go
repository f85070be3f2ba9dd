package models

import "strings"

// DefaultNeighborhood groups elders registered without a neighborhood.
const DefaultNeighborhood = "Outros"

// Elder (assistido) is a service recipient who may need transport to events.
type Elder struct {
	ID            ID     `json:"id"`
	FullName      string `json:"nome_completo"`
	BirthDate     string `json:"data_nascimento,omitempty"`
	Phone         string `json:"telefone_principal"`
	GuardianName  string `json:"responsavel_nome,omitempty"`
	GuardianPhone string `json:"telefone_responsavel,omitempty"`
	Street        string `json:"endereco_logradouro"`
	Number        Text   `json:"endereco_numero"`
	Neighborhood  string `json:"endereco_bairro"`
	City          string `json:"endereco_cidade"`
	PostalCode    Text   `json:"endereco_cep"`
	Landmark      string `json:"ponto_referencia,omitempty"`
	Wheelchair    Flag   `json:"usa_cadeira_rodas"`
	Active        Flag   `json:"ativo"`
	Photo         string `json:"foto,omitempty"`
	SpecialNeeds  string `json:"necessidades_especiais,omitempty"`
}

// NeighborhoodKey returns the grouping key used by the allocation heuristic.
func (e Elder) NeighborhoodKey() string {
	if strings.TrimSpace(e.Neighborhood) == "" {
		return DefaultNeighborhood
	}
	return e.Neighborhood
}

// FirstName returns the first word of the full name.
func (e Elder) FirstName() string {
	return firstWord(e.FullName)
}

// Address renders street, number and neighborhood on one line.
func (e Elder) Address() string {
	return e.Street + ", " + string(e.Number) + " - " + e.Neighborhood
}

// ElderFilter holds listing criteria.
type ElderFilter struct {
	Search       string
	Neighborhood string
	Active       *bool
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
