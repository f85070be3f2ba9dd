package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/export"
	"github.com/pastoral-familiar/pastoral-api/pkg/storage"
)

func manifestBoard() *boardReaderStub {
	e := elder("E", "Centro")
	e.FullName = "Maria <b>Silva</b>"
	e.Street, e.Number = "Rua das Flores", "12"
	e.Wheelchair = true
	e.GuardianName = "Ana"
	f := elder("F", "Sul")

	d1 := driver("D1", "Centro")
	d1.Phone = "(11) 97777-6666"
	return &boardReaderStub{
		event:   models.Event{Title: "Missa da Saúde", StartsAt: "2026-04-05T09:30", LocationName: "Matriz"},
		elders:  []models.Elder{e, f},
		drivers: []models.Member{d1, driver("D2", "Sul"), driver("D3", "Norte")},
		entries: []models.ScheduleEntry{
			models.NewScheduleEntry("1", "D1", "E"),
			models.NewScheduleEntry("1", "D2", "F"),
			models.NewScheduleEntry("1", "D3", "ghost"),
		},
	}
}

func newManifestService(boards boardReader) *ManifestService {
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewManifestService(boards, export.NewPDFExporter(), export.NewCSVExporter(';', false), signer, nil,
		ManifestConfig{PublicBaseURL: "https://pastoral.example", APIPrefix: "/api/v1", Location: time.UTC})
}

func TestManifestHTMLForOneDriver(t *testing.T) {
	svc := newManifestService(manifestBoard())

	doc, err := svc.Manifest(context.Background(), "1", "D1", dto.ManifestFormatHTML)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Drivers)
	assert.Equal(t, 1, doc.Passengers)
	assert.Equal(t, "roteiro-1-D1.html", doc.Filename)

	body := string(doc.Body)
	assert.Contains(t, body, "Motorista: Driver D1")
	assert.Contains(t, body, "Maria &lt;b&gt;Silva&lt;/b&gt;")
	assert.Contains(t, body, "CADEIRANTE")
	assert.Contains(t, body, "TIPO: AMBOS | STATUS: PLANEJADA")
	assert.Contains(t, body, "Rua das Flores, 12 - Centro")
	assert.Contains(t, body, "05/04/2026, 09:30:00")
	assert.Contains(t, body, "Veículo:</strong> N/D")
	assert.NotContains(t, body, "<hr>")
}

func TestManifestWithoutPassengers(t *testing.T) {
	svc := newManifestService(manifestBoard())

	_, err := svc.Manifest(context.Background(), "1", "D3", dto.ManifestFormatHTML)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNoPassengers))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Sem passageiros.", appErr.Message)

	_, err = svc.Manifest(context.Background(), "1", "nobody", dto.ManifestFormatHTML)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestManifestAllSkipsEmptyAndOrphanedDrivers(t *testing.T) {
	svc := newManifestService(manifestBoard())

	doc, err := svc.ManifestAll(context.Background(), "1", dto.ManifestFormatHTML)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Drivers)
	assert.Equal(t, 2, doc.Passengers)
	body := string(doc.Body)
	assert.Equal(t, 2, strings.Count(body, `<div class="page-break">`))
	assert.Equal(t, 1, strings.Count(body, "<hr>"))
	assert.NotContains(t, body, "Driver D3")
	assert.Less(t, strings.Index(body, "Driver D1"), strings.Index(body, "Driver D2"))
}

func TestManifestAllWithoutEntries(t *testing.T) {
	board := manifestBoard()
	board.entries = nil
	svc := newManifestService(board)

	_, err := svc.ManifestAll(context.Background(), "1", dto.ManifestFormatPDF)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNoPassengers.Code, appErr.Code)
	assert.Equal(t, "Nenhuma escala definida para este evento.", appErr.Message)
}

func TestManifestPDFAndCSV(t *testing.T) {
	svc := newManifestService(manifestBoard())

	pdf, err := svc.ManifestAll(context.Background(), "1", dto.ManifestFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF")))

	doc, err := svc.ManifestAll(context.Background(), "1", dto.ManifestFormatCSV)
	require.NoError(t, err)
	reader := csv.NewReader(bytes.NewReader(doc.Body))
	reader.Comma = ';'
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Motorista", records[0][0])
	assert.Equal(t, "Driver D1", records[1][0])
	assert.Equal(t, "Sim", records[1][3])

	_, err = svc.ManifestAll(context.Background(), "1", "docx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestManifestShareRoundTrip(t *testing.T) {
	svc := newManifestService(manifestBoard())
	ctx := context.Background()

	share, err := svc.Share(ctx, "1", "D1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(share.URL, "https://pastoral.example/api/v1/manifests/shared/"))
	assert.True(t, strings.HasPrefix(share.WhatsAppLink, "https://wa.me/5511977776666?text="))

	token := strings.TrimPrefix(share.URL, "https://pastoral.example/api/v1/manifests/shared/")
	doc, err := svc.RenderShared(ctx, token, dto.ManifestFormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "Driver D1")

	_, err = svc.RenderShared(ctx, token+"x", dto.ManifestFormatHTML)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Share(ctx, "1", "D3")
	assert.True(t, errors.Is(err, appErrors.ErrNoPassengers))
}
