package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/pkg/backend"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return backend.New(backend.Options{BaseURL: srv.URL, Timeout: time.Second, RetryWait: time.Millisecond})
}

func TestElderRepositoryList(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/assistidos", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id":1,"nome_completo":"Maria","endereco_bairro":"Centro","ativo":true}]`))
	})

	elders, err := NewElderRepository(client).List(context.Background())
	require.NoError(t, err)
	require.Len(t, elders, 1)
	assert.Equal(t, models.ID("1"), elders[0].ID)
	assert.Equal(t, "Centro", elders[0].Neighborhood)
}

func TestMemberRepositoryCheckLogin(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/membros/check-login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "JOAO", body["login"])
		_, _ = w.Write([]byte(`{"found":true,"id":9,"nome_completo":"João Lima","data_nascimento":"1980-05-20T00:00:00.000Z"}`))
	})

	profile, err := NewMemberRepository(client).CheckLogin(context.Background(), "JOAO")
	require.NoError(t, err)
	assert.True(t, profile.Found)
	assert.Equal(t, models.ID("9"), profile.ID)
}

func TestMemberRepositoryCheckLoginNotFound(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"found":false}`))
	})

	profile, err := NewMemberRepository(client).CheckLogin(context.Background(), "NINGUEM")
	require.NoError(t, err)
	assert.False(t, profile.Found)
}

func TestMemberRepositoryCheckLoginRejected(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := NewMemberRepository(client).CheckLogin(context.Background(), "JOAO")
	assert.True(t, errors.Is(err, appErrors.ErrServerRejected))
}

func TestMemberRepositoryFindByID(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"nome_completo":"A"},{"id":"2","nome_completo":"B","possui_veiculo":1}]`))
	})
	repo := NewMemberRepository(client)

	member, err := repo.FindByID(context.Background(), "2")
	require.NoError(t, err)
	assert.True(t, member.IsDriver())

	_, err = repo.FindByID(context.Background(), "3")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEventRepositoryDuplicate(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/eventos/4/duplicate", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-12-01T09:00", body["new_date"])
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, NewEventRepository(client).Duplicate(context.Background(), "4", "2026-12-01T09:00"))
}

func TestScheduleRepositoryReplaceBatch(t *testing.T) {
	var received map[string]json.RawMessage
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/escalas/batch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	})

	err := NewScheduleRepository(client).ReplaceBatch(context.Background(), models.ScheduleBatch{EventID: "3"})
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(received["evento_id"]))
	assert.JSONEq(t, `[]`, string(received["escalas"]))
}

func TestScheduleRepositoryListByEventRejected(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/escalas/5", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := NewScheduleRepository(client).ListByEvent(context.Background(), "5")
	assert.True(t, errors.Is(err, appErrors.ErrServerRejected))
}

func TestPostalRepositoryLookup(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/01001000/json/":
			_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
		default:
			_, _ = w.Write([]byte(`{"erro":"true"}`))
		}
	})
	repo := NewPostalRepository(client)

	addr, err := repo.Lookup(context.Background(), "01001000")
	require.NoError(t, err)
	assert.Equal(t, "Sé", addr.Neighborhood)
	assert.Equal(t, "São Paulo", addr.City)

	_, err = repo.Lookup(context.Background(), "99999999")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
