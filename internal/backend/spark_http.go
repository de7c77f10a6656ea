package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"sparkbridge/internal/logging"
)

// SparkClient implements Backend against a Spark settlement node's HTTP
// API. The node owns wallet state, routing and signing; this client only
// translates requests and failure modes.
type SparkClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	// streamClient has no timeout so the event stream can run forever.
	streamClient *http.Client
}

// A compile time check to ensure that SparkClient fully implements Backend.
var _ Backend = (*SparkClient)(nil)

// SparkConfig holds connection settings for the Spark node API.
type SparkConfig struct {
	APIURL string
	APIKey string
	// Timeout bounds individual request/response calls. Sends use the
	// caller's context deadline instead, since settling a payment can
	// legitimately take seconds.
	Timeout time.Duration
}

// NewSparkClient creates a client and verifies connectivity by fetching
// the node info once.
func NewSparkClient(cfg SparkConfig) (*SparkClient, error) {
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("spark API URL is required")
	}
	if _, err := url.Parse(cfg.APIURL); err != nil {
		return nil, errors.Wrap(err, "invalid spark API URL")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	c := &SparkClient{
		baseURL:      cfg.APIURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}

	logging.Spark.Info("testing connection...")
	if _, err := c.GetSettings(context.Background()); err != nil {
		return nil, errors.Wrap(err, "failed to connect to spark node")
	}
	logging.Spark.Info("connected successfully")

	return c, nil
}

// Wire shapes of the Spark node API.

type sparkInfoResponse struct {
	Units              []string `json:"units"`
	Bolt11             bool     `json:"bolt11"`
	Spark              bool     `json:"spark"`
	MPP                bool     `json:"mpp"`
	Amountless         bool     `json:"amountless"`
	InvoiceDescription bool     `json:"invoice_description"`
	MinSendSats        int64    `json:"min_send_sats"`
	MaxSendSats        int64    `json:"max_send_sats"`
}

type sparkCreateInvoiceRequest struct {
	Description   string `json:"description,omitempty"`
	AmountSats    int64  `json:"amount_sats,omitempty"`
	ExpirySeconds int64  `json:"expiry_seconds,omitempty"`
}

type sparkPaymentResponse struct {
	ID             string `json:"id"`
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request,omitempty"`
	Direction      string `json:"direction"`
	AmountSats     int64  `json:"amount_sats"`
	FeeSats        int64  `json:"fee_sats"`
	Status         string `json:"status"`
	Preimage       string `json:"preimage,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	SettledAt      int64  `json:"settled_at,omitempty"`
}

type sparkQuoteRequest struct {
	PaymentRequest string `json:"payment_request,omitempty"`
	SparkAddress   string `json:"spark_address,omitempty"`
	AmountSats     int64  `json:"amount_sats,omitempty"`
}

type sparkQuoteResponse struct {
	PaymentHash string `json:"payment_hash,omitempty"`
	AmountSats  int64  `json:"amount_sats"`
	FeeSats     int64  `json:"fee_sats"`
	ExpiresAt   int64  `json:"expires_at,omitempty"`
}

type sparkSendRequest struct {
	PaymentRequest string `json:"payment_request,omitempty"`
	SparkAddress   string `json:"spark_address,omitempty"`
	AmountSats     int64  `json:"amount_sats,omitempty"`
	MaxFeeSats     int64  `json:"max_fee_sats,omitempty"`
}

type sparkErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sparkEventMessage struct {
	Type    string               `json:"type"`
	Payment sparkPaymentResponse `json:"payment"`
}

func (p *sparkPaymentResponse) toPayment() *Payment {
	pay := &Payment{
		ID:             p.ID,
		Identifier:     p.PaymentHash,
		Direction:      Direction(p.Direction),
		AmountSats:     p.AmountSats,
		FeeSats:        p.FeeSats,
		Unit:           UnitSat,
		Status:         Status(p.Status),
		Preimage:       p.Preimage,
		PaymentRequest: p.PaymentRequest,
	}
	if p.CreatedAt > 0 {
		pay.CreatedAt = time.Unix(p.CreatedAt, 0).UTC()
	}
	if p.SettledAt > 0 {
		pay.SettledAt = time.Unix(p.SettledAt, 0).UTC()
	}
	return pay
}

func (c *SparkClient) GetSettings(ctx context.Context) (*Settings, error) {
	var info sparkInfoResponse
	if err := c.do(ctx, http.MethodGet, "/v1/info", nil, &info); err != nil {
		return nil, err
	}

	settings := &Settings{
		Bolt11:             info.Bolt11,
		Spark:              info.Spark,
		MPP:                info.MPP,
		Amountless:         info.Amountless,
		InvoiceDescription: info.InvoiceDescription,
		MinSendSats:        info.MinSendSats,
		MaxSendSats:        info.MaxSendSats,
	}
	for _, u := range info.Units {
		settings.Units = append(settings.Units, Unit(u))
	}
	if len(settings.Units) == 0 {
		settings.Units = []Unit{UnitSat}
	}
	return settings, nil
}

func (c *SparkClient) CreateInvoice(ctx context.Context, description string, amountSats int64, expiry time.Duration) (*Payment, error) {
	logging.Spark.WithField("amount_sats", amountSats).Debug("creating invoice")

	req := sparkCreateInvoiceRequest{
		Description: description,
		AmountSats:  amountSats,
	}
	if expiry > 0 {
		req.ExpirySeconds = int64(expiry / time.Second)
	}

	var resp sparkPaymentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/invoices", req, &resp); err != nil {
		return nil, err
	}

	logging.Spark.WithField("identifier", resp.PaymentHash).Info("created invoice")
	return resp.toPayment(), nil
}

func (c *SparkClient) Quote(ctx context.Context, opt PaymentOption, unit Unit) (*FeeEstimate, error) {
	req, err := quoteRequestFromOption(opt)
	if err != nil {
		return nil, err
	}

	var resp sparkQuoteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payments/quote", req, &resp); err != nil {
		return nil, err
	}

	est := &FeeEstimate{
		Identifier: resp.PaymentHash,
		AmountSats: resp.AmountSats,
		FeeSats:    resp.FeeSats,
		Unit:       unit,
	}
	if resp.ExpiresAt > 0 {
		est.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	}
	return est, nil
}

func (c *SparkClient) SendPayment(ctx context.Context, opt PaymentOption, unit Unit, maxFeeSats int64) (*Payment, error) {
	req, err := sendRequestFromOption(opt, maxFeeSats)
	if err != nil {
		return nil, err
	}

	logging.Spark.WithField("option", opt.Describe()).Info("sending payment")

	// The node blocks until the payment reaches a terminal state, so
	// this request runs on the caller's deadline, not the client-wide
	// timeout.
	var resp sparkPaymentResponse
	if err := c.doUntimed(ctx, http.MethodPost, "/v1/payments/send", req, &resp); err != nil {
		return nil, err
	}

	logging.Spark.WithFields(map[string]interface{}{
		"identifier": resp.PaymentHash,
		"status":     resp.Status,
		"fee_sats":   resp.FeeSats,
	}).Info("send finished")
	return resp.toPayment(), nil
}

func (c *SparkClient) CheckIncoming(ctx context.Context, identifier, paymentRequest string) (*Payment, error) {
	var resp sparkPaymentResponse
	path := "/v1/payments/incoming/" + url.PathEscape(identifier)
	if paymentRequest != "" {
		path += "?payment_request=" + url.QueryEscape(paymentRequest)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.toPayment(), nil
}

func (c *SparkClient) CheckOutgoing(ctx context.Context, identifier string) (*Payment, error) {
	var resp sparkPaymentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payments/outgoing/"+url.PathEscape(identifier), nil, &resp); err != nil {
		return nil, err
	}
	return resp.toPayment(), nil
}

// SubscribeIncoming opens the node's newline-delimited JSON event stream.
// The returned channel closes when the stream dies; the event bridge is
// responsible for resubscribing.
func (c *SparkClient) SubscribeIncoming(ctx context.Context) (<-chan PaymentEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/events/incoming", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create stream request")
	}
	c.authorize(req)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: event stream returned status %d: %s", ErrBackendUnavailable, resp.StatusCode, string(body))
	}

	events := make(chan PaymentEvent, 64)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue // keep-alive
			}
			var msg sparkEventMessage
			if err := json.Unmarshal(line, &msg); err != nil {
				logging.Spark.WithError(err).Warn("skipping malformed event")
				continue
			}
			if msg.Type != "payment_received" && msg.Type != "payment_pending" {
				continue
			}
			select {
			case events <- PaymentEvent{Payment: *msg.Payment.toPayment()}:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logging.Spark.WithError(err).Warn("event stream closed")
		}
	}()

	return events, nil
}

func (c *SparkClient) Close() error {
	c.httpClient.CloseIdleConnections()
	c.streamClient.CloseIdleConnections()
	return nil
}

func quoteRequestFromOption(opt PaymentOption) (*sparkQuoteRequest, error) {
	switch o := opt.(type) {
	case Bolt11Option:
		return &sparkQuoteRequest{PaymentRequest: o.Invoice, AmountSats: o.AmountSats}, nil
	case SparkAddressOption:
		return &sparkQuoteRequest{SparkAddress: o.Address, AmountSats: o.AmountSats}, nil
	default:
		return nil, fmt.Errorf("%w: cannot quote %s option", ErrInvalidRequest, opt.Describe())
	}
}

func sendRequestFromOption(opt PaymentOption, maxFeeSats int64) (*sparkSendRequest, error) {
	switch o := opt.(type) {
	case Bolt11Option:
		return &sparkSendRequest{PaymentRequest: o.Invoice, AmountSats: o.AmountSats, MaxFeeSats: maxFeeSats}, nil
	case SparkAddressOption:
		return &sparkSendRequest{SparkAddress: o.Address, AmountSats: o.AmountSats, MaxFeeSats: maxFeeSats}, nil
	default:
		return nil, fmt.Errorf("%w: cannot send to %s option", ErrInvalidRequest, opt.Describe())
	}
}

func (c *SparkClient) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *SparkClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	return c.roundTrip(ctx, c.httpClient, method, path, in, out)
}

func (c *SparkClient) doUntimed(ctx context.Context, method, path string, in, out interface{}) error {
	return c.roundTrip(ctx, c.streamClient, method, path, in, out)
}

func (c *SparkClient) roundTrip(ctx context.Context, client *http.Client, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		jsonBody, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request")
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	c.authorize(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "failed to decode response")
		}
	}
	return nil
}

// mapError translates node failures into the stable error taxonomy. The
// error code in the body wins over the HTTP status when both are present.
func (c *SparkClient) mapError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var nodeErr sparkErrorResponse
	if err := json.Unmarshal(raw, &nodeErr); err == nil && nodeErr.Code != "" {
		switch nodeErr.Code {
		case "UNROUTABLE":
			return fmt.Errorf("%w: %s", ErrUnroutable, nodeErr.Message)
		case "INSUFFICIENT_FUNDS":
			return fmt.Errorf("%w: %s", ErrInsufficientFunds, nodeErr.Message)
		case "INVALID_AMOUNT":
			return fmt.Errorf("%w: %s", ErrInvalidAmount, nodeErr.Message)
		case "TIMEOUT":
			return fmt.Errorf("%w: %s", ErrTimeout, nodeErr.Message)
		case "NOT_FOUND":
			return fmt.Errorf("%w: %s", ErrNotFound, nodeErr.Message)
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusGatewayTimeout:
		return ErrTimeout
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status %d: %s", ErrUnroutable, resp.StatusCode, string(raw))
	case http.StatusBadRequest:
		return fmt.Errorf("%w: status %d: %s", ErrInvalidAmount, resp.StatusCode, string(raw))
	default:
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, resp.StatusCode, string(raw))
	}
}
