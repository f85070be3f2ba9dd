package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/export"
	"github.com/pastoral-familiar/pastoral-api/pkg/storage"
)

// User-facing notices when there is nothing to print.
const (
	noPassengersNotice = "Sem passageiros."
	noScheduleNotice   = "Nenhuma escala definida para este evento."
)

var manifestHeaders = []string{"Passageiro", "Cadeirante", "Tipo", "Status", "Endereço", "Telefone", "Responsável", "Referência"}

type pdfRenderer interface {
	RenderSections(sections []export.Section) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type manifestSigner interface {
	Generate(ref storage.ManifestRef) (string, time.Time, error)
	Parse(token string) (storage.ManifestRef, time.Time, error)
}

// ManifestConfig holds the public addressing of shared manifests.
type ManifestConfig struct {
	PublicBaseURL string
	APIPrefix     string
	Location      *time.Location
}

// manifestBlock is one driver's section of a printed manifest.
type manifestBlock struct {
	Driver     models.Member
	Event      models.Event
	EventDate  string
	Passengers []dto.Passenger
}

// ManifestService renders per-driver passenger manifests for an event.
type ManifestService struct {
	boards boardReader
	pdf    pdfRenderer
	csv    csvRenderer
	signer manifestSigner
	logger *zap.Logger
	config ManifestConfig
	html   *template.Template
}

// NewManifestService constructs the manifest renderer.
func NewManifestService(boards boardReader, pdf pdfRenderer, csv csvRenderer, signer manifestSigner, logger *zap.Logger, cfg ManifestConfig) *ManifestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &ManifestService{
		boards: boards,
		pdf:    pdf,
		csv:    csv,
		signer: signer,
		logger: logger,
		config: cfg,
		html:   template.Must(template.New("manifest").Funcs(template.FuncMap{"upper": strings.ToUpper, "orDash": orDash}).Parse(manifestHTML)),
	}
}

// Manifest renders one driver's manifest. A driver without passengers yields NO_PASSENGERS.
func (s *ManifestService) Manifest(ctx context.Context, eventID, driverID models.ID, format string) (*dto.ManifestDocument, error) {
	event, entries, elders, drivers, err := s.boards.Entries(ctx, eventID)
	if err != nil {
		return nil, err
	}
	driver, ok := findMember(drivers, driverID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "driver not found")
	}

	block := s.block(event, driver, entries, indexElders(elders))
	if len(block.Passengers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoPassengers, noPassengersNotice)
	}
	return s.render([]manifestBlock{block}, format, "Roteiro", fmt.Sprintf("roteiro-%s-%s", eventID, driverID))
}

// ManifestAll renders every driver that has at least one passenger, in driver order.
func (s *ManifestService) ManifestAll(ctx context.Context, eventID models.ID, format string) (*dto.ManifestDocument, error) {
	event, entries, elders, drivers, err := s.boards.Entries(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byID := indexElders(elders)
	blocks := make([]manifestBlock, 0, len(drivers))
	for _, d := range drivers {
		if block := s.block(event, d, entries, byID); len(block.Passengers) > 0 {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoPassengers, noScheduleNotice)
	}
	return s.render(blocks, format, "Roteiros Completos", fmt.Sprintf("roteiros-%s", eventID))
}

// Share issues an expiring public link to a driver's manifest and a WhatsApp link to send it.
func (s *ManifestService) Share(ctx context.Context, eventID, driverID models.ID) (*dto.ManifestShare, error) {
	event, entries, elders, drivers, err := s.boards.Entries(ctx, eventID)
	if err != nil {
		return nil, err
	}
	driver, ok := findMember(drivers, driverID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "driver not found")
	}
	if len(passengersOf(driverID, entries, indexElders(elders))) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoPassengers, noPassengersNotice)
	}

	token, expiresAt, err := s.signer.Generate(storage.ManifestRef{EventID: eventID.String(), DriverID: driverID.String()})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign manifest link")
	}

	link := s.config.PublicBaseURL + s.config.APIPrefix + "/manifests/shared/" + token
	share := &dto.ManifestShare{URL: link, ExpiresAt: expiresAt}
	if NormalizePhone(driver.Phone) != "" {
		text := fmt.Sprintf("Olá %s, segue o seu roteiro para %s: %s", driver.FirstName(), event.Title, link)
		share.WhatsAppLink = WhatsAppURL(driver.Phone, text)
	}

	s.logger.Info("manifest shared",
		zap.String("event_id", eventID.String()),
		zap.String("driver_id", driverID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return share, nil
}

// RenderShared renders the manifest a share token points at.
func (s *ManifestService) RenderShared(ctx context.Context, token, format string) (*dto.ManifestDocument, error) {
	ref, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "manifest link is invalid or expired")
	}
	return s.Manifest(ctx, models.ID(ref.EventID), models.ID(ref.DriverID), format)
}

func (s *ManifestService) block(event models.Event, driver models.Member, entries []models.ScheduleEntry, elders map[models.ID]models.Elder) manifestBlock {
	return manifestBlock{
		Driver:     driver,
		Event:      event,
		EventDate:  formatLocalDateTime(event.StartsAt, s.config.Location),
		Passengers: passengersOf(driver.ID, entries, elders),
	}
}

func (s *ManifestService) render(blocks []manifestBlock, format, title, filename string) (*dto.ManifestDocument, error) {
	doc := &dto.ManifestDocument{Drivers: len(blocks)}
	for _, b := range blocks {
		doc.Passengers += len(b.Passengers)
	}

	var err error
	switch format {
	case "", dto.ManifestFormatHTML:
		doc.ContentType = "text/html; charset=utf-8"
		doc.Filename = filename + ".html"
		doc.Body, err = s.renderHTML(blocks, title)
	case dto.ManifestFormatPDF:
		doc.ContentType = "application/pdf"
		doc.Filename = filename + ".pdf"
		doc.Body, err = s.pdf.RenderSections(pdfSections(blocks))
	case dto.ManifestFormatCSV:
		doc.ContentType = "text/csv; charset=utf-8"
		doc.Filename = filename + ".csv"
		doc.Body, err = s.csv.Render(csvDataset(blocks))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported manifest format %q", format))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render manifest")
	}
	return doc, nil
}

func (s *ManifestService) renderHTML(blocks []manifestBlock, title string) ([]byte, error) {
	var buf bytes.Buffer
	err := s.html.Execute(&buf, struct {
		Title  string
		Blocks []manifestBlock
	}{Title: title, Blocks: blocks})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pdfSections(blocks []manifestBlock) []export.Section {
	sections := make([]export.Section, 0, len(blocks))
	for _, b := range blocks {
		sections = append(sections, export.Section{
			Title: "Motorista: " + b.Driver.FullName,
			Lines: []string{
				fmt.Sprintf("Telefone: %s | Veículo: %s", b.Driver.Phone, orNA(b.Driver.VehicleModel)),
				fmt.Sprintf("Evento: %s - %s", b.Event.Title, b.EventDate),
				"Local: " + b.Event.LocationName,
				fmt.Sprintf("Passageiros (%d)", len(b.Passengers)),
			},
			Dataset: export.Dataset{Headers: manifestHeaders, Rows: passengerRows(b)},
		})
	}
	return sections
}

func csvDataset(blocks []manifestBlock) export.Dataset {
	headers := append([]string{"Motorista", "Telefone Motorista"}, manifestHeaders...)
	var rows []map[string]string
	for _, b := range blocks {
		for _, row := range passengerRows(b) {
			row["Motorista"] = b.Driver.FullName
			row["Telefone Motorista"] = b.Driver.Phone
			rows = append(rows, row)
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func passengerRows(b manifestBlock) []map[string]string {
	rows := make([]map[string]string, 0, len(b.Passengers))
	for _, p := range b.Passengers {
		wheelchair := "Não"
		if p.Elder.Wheelchair {
			wheelchair = "Sim"
		}
		guardian := ""
		if p.Elder.GuardianName != "" {
			guardian = fmt.Sprintf("%s (%s)", p.Elder.GuardianName, orDash(p.Elder.GuardianPhone))
		}
		rows = append(rows, map[string]string{
			"Passageiro":  p.Elder.FullName,
			"Cadeirante":  wheelchair,
			"Tipo":        strings.ToUpper(string(p.Entry.TripType)),
			"Status":      strings.ToUpper(string(p.Entry.Status)),
			"Endereço":    p.Elder.Address(),
			"Telefone":    p.Elder.Phone,
			"Responsável": guardian,
			"Referência":  p.Elder.Landmark,
		})
	}
	return rows
}

func indexElders(elders []models.Elder) map[models.ID]models.Elder {
	byID := make(map[models.ID]models.Elder, len(elders))
	for _, e := range elders {
		byID[e.ID] = e
	}
	return byID
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/D"
	}
	return s
}

const manifestHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; padding: 20px; }
.page-break { page-break-after: always; }
.driver { border: 2px solid #000; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
.passenger { border: 1px solid #999; padding: 10px; margin-bottom: 10px; border-radius: 6px; background: #f9f9f9; }
.wheelchair { color: red; border: 1px solid red; padding: 0 3px; }
.meta { font-size: 12px; font-weight: bold; color: #555; margin: 5px 0; }
hr { border: 0; border-bottom: 1px dashed #ccc; margin: 20px 0; }
@media print { hr { display: none; } }
</style>
</head>
<body>
{{range $i, $b := .Blocks}}{{if $i}}<hr>
{{end}}<div class="page-break">
<div class="driver">
<h1 style="margin: 0; color: #1e3a8a;">🚙 Motorista: {{$b.Driver.FullName}}</h1>
<p><strong>Telefone:</strong> {{$b.Driver.Phone}} | <strong>Veículo:</strong> {{if $b.Driver.VehicleModel}}{{$b.Driver.VehicleModel}}{{else}}N/D{{end}}</p>
<p><strong>Evento:</strong> {{$b.Event.Title}} - {{$b.EventDate}}<br><strong>Local:</strong> {{$b.Event.LocationName}}</p>
<h2>Passageiros ({{len $b.Passengers}})</h2>
{{range $b.Passengers}}<div class="passenger">
<h3 style="margin: 0; font-size: 16px;">{{.Elder.FullName}} {{if .Elder.Wheelchair}}<span class="wheelchair">CADEIRANTE</span>{{end}}</h3>
<div class="meta">TIPO: {{upper (print .Entry.TripType)}} | STATUS: {{upper (print .Entry.Status)}}</div>
<p>📍 {{.Elder.Address}}</p>
<p>📞 <strong>{{.Elder.Phone}}</strong></p>
{{if .Elder.GuardianName}}<p style="color: #666;">👤 Resp: {{.Elder.GuardianName}} ({{orDash .Elder.GuardianPhone}})</p>
{{end}}{{if .Elder.Landmark}}<p style="font-style: italic;">Ref: {{.Elder.Landmark}}</p>
{{end}}</div>
{{end}}</div>
</div>
{{end}}<script>window.print()</script>
</body>
</html>
`
