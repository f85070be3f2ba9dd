package dto

import "time"

// Manifest output formats.
const (
	ManifestFormatHTML = "html"
	ManifestFormatPDF  = "pdf"
	ManifestFormatCSV  = "csv"
)

// ManifestDocument is a rendered manifest ready to be served.
type ManifestDocument struct {
	ContentType string
	Filename    string
	Body        []byte
	Drivers     int
	Passengers  int
}

// ManifestShare is a public, expiring link to one driver's manifest.
type ManifestShare struct {
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expires_at"`
	WhatsAppLink string    `json:"whatsapp_link,omitempty"`
}
