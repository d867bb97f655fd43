package billingclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *Client {
	return New(Config{Address: url, Timeout: time.Second})
}

func TestProvision_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/accounts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p-1", req["patientId"])
		assert.Equal(t, "ann@x.com", req["email"])

		json.NewEncoder(w).Encode(map[string]string{
			"accountId": "acc-42",
			"status":    "ACTIVE",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	defer c.Close()

	acc, err := c.Provision(context.Background(), "p-1", "Ann", "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "p-1", acc.PatientID)
	assert.Equal(t, "acc-42", acc.AccountID)
	assert.Equal(t, "ACTIVE", acc.Status)
}

func TestProvision_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	defer c.Close()

	_, err := c.Provision(context.Background(), "p-1", "Ann", "ann@x.com")
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnavailable, apperror.KindOf(err))
}

func TestProvision_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("email is required"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	defer c.Close()

	_, err := c.Provision(context.Background(), "p-1", "Ann", "")
	require.Error(t, err)
	assert.Equal(t, apperror.KindRejected, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "email is required")
}

func TestProvision_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := newTestClient(srv.URL)
	defer c.Close()

	_, err := c.Provision(context.Background(), "p-1", "Ann", "ann@x.com")
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnavailable, apperror.KindOf(err))
}

func TestProvision_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Provision(ctx, "p-1", "Ann", "ann@x.com")
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnavailable, apperror.KindOf(err))
}
