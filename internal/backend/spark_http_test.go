package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestSparkClient builds a client against a fake node, bypassing the
// constructor's connectivity probe.
func newTestSparkClient(t *testing.T, handler http.Handler) (*SparkClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &SparkClient{
		baseURL:      srv.URL,
		apiKey:       "test-key",
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		streamClient: &http.Client{},
	}, srv
}

func TestSparkClient_GetSettings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/info", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		json.NewEncoder(w).Encode(sparkInfoResponse{
			Units:       []string{"sat"},
			Bolt11:      true,
			Spark:       true,
			Amountless:  true,
			MinSendSats: 1,
			MaxSendSats: 1_000_000,
		})
	})
	c, _ := newTestSparkClient(t, mux)

	settings, err := c.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if !settings.Bolt11 || !settings.Spark || !settings.Amountless {
		t.Errorf("capabilities not carried over: %+v", settings)
	}
	if !settings.SupportsUnit(UnitSat) {
		t.Error("expected sat unit support")
	}
	if settings.MaxSendSats != 1_000_000 {
		t.Errorf("expected max send 1000000, got %d", settings.MaxSendSats)
	}
}

func TestSparkClient_CreateInvoice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/invoices", func(w http.ResponseWriter, r *http.Request) {
		var req sparkCreateInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.AmountSats != 2500 || req.ExpirySeconds != 600 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(sparkPaymentResponse{
			ID:             "inv-1",
			PaymentHash:    "deadbeef",
			PaymentRequest: "lnbc25u1pexample",
			Direction:      "incoming",
			AmountSats:     2500,
			Status:         "pending",
			CreatedAt:      time.Now().Unix(),
		})
	})
	c, _ := newTestSparkClient(t, mux)

	p, err := c.CreateInvoice(context.Background(), "test", 2500, 10*time.Minute)
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if p.Identifier != "deadbeef" {
		t.Errorf("expected identifier deadbeef, got %q", p.Identifier)
	}
	if p.Status != StatusPending {
		t.Errorf("expected pending, got %q", p.Status)
	}
	if p.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestSparkClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantTarget error
	}{
		{
			name:       "body code wins over status",
			status:     http.StatusBadGateway,
			body:       `{"code":"UNROUTABLE","message":"no route"}`,
			wantTarget: ErrUnroutable,
		},
		{
			name:       "insufficient funds",
			status:     http.StatusPaymentRequired,
			body:       `{"code":"INSUFFICIENT_FUNDS","message":"balance too low"}`,
			wantTarget: ErrInsufficientFunds,
		},
		{
			name:       "timeout code",
			status:     http.StatusInternalServerError,
			body:       `{"code":"TIMEOUT","message":"htlc still pending"}`,
			wantTarget: ErrTimeout,
		},
		{
			name:       "plain 404",
			status:     http.StatusNotFound,
			body:       `not json`,
			wantTarget: ErrNotFound,
		},
		{
			name:       "gateway timeout status",
			status:     http.StatusGatewayTimeout,
			body:       ``,
			wantTarget: ErrTimeout,
		},
		{
			name:       "unprocessable entity",
			status:     http.StatusUnprocessableEntity,
			body:       `{"message":"cannot route"}`,
			wantTarget: ErrUnroutable,
		},
		{
			name:       "bad request",
			status:     http.StatusBadRequest,
			body:       `{"message":"amount out of range"}`,
			wantTarget: ErrInvalidAmount,
		},
		{
			name:       "server error",
			status:     http.StatusInternalServerError,
			body:       `boom`,
			wantTarget: ErrBackendUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestSparkClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))

			_, err := c.CheckOutgoing(context.Background(), "deadbeef")
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.wantTarget) {
				t.Errorf("expected %v, got %v", tt.wantTarget, err)
			}
		})
	}
}

func TestSparkClient_CheckIncomingPassesPaymentRequest(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payments/incoming/", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("payment_request")
		json.NewEncoder(w).Encode(sparkPaymentResponse{
			PaymentHash: "deadbeef",
			Direction:   "incoming",
			Status:      "settled",
			SettledAt:   time.Now().Unix(),
		})
	})
	c, _ := newTestSparkClient(t, mux)

	p, err := c.CheckIncoming(context.Background(), "deadbeef", "lnbc25u1pexample")
	if err != nil {
		t.Fatalf("check incoming failed: %v", err)
	}
	if gotQuery != "lnbc25u1pexample" {
		t.Errorf("payment request not forwarded, got %q", gotQuery)
	}
	if p.Status != StatusSettled {
		t.Errorf("expected settled, got %q", p.Status)
	}
	if p.SettledAt.IsZero() {
		t.Error("expected settled_at to be set")
	}
}

func TestSparkClient_SubscribeIncoming(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/events/incoming", func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		lines := []string{
			`{"type":"payment_received","payment":{"payment_hash":"aa11","direction":"incoming","amount_sats":10,"status":"settled"}}`,
			``, // keep-alive
			`not json`,
			`{"type":"node_status","payment":{}}`, // unrelated event type
			`{"type":"payment_received","payment":{"payment_hash":"bb22","direction":"incoming","amount_sats":20,"status":"settled"}}`,
		}
		for _, l := range lines {
			fmt.Fprintln(w, l)
			fl.Flush()
		}
	})
	c, _ := newTestSparkClient(t, mux)

	events, err := c.SubscribeIncoming(context.Background())
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	var got []string
	for ev := range events {
		got = append(got, ev.Payment.Identifier)
	}
	if len(got) != 2 || got[0] != "aa11" || got[1] != "bb22" {
		t.Errorf("expected [aa11 bb22], got %v", got)
	}
}

func TestSparkClient_SubscribeIncomingRejectedStatus(t *testing.T) {
	c, _ := newTestSparkClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.SubscribeIncoming(context.Background())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}
