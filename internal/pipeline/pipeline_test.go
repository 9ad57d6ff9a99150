package pipeline

import (
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/dvloznov/smart-accountant/internal/domain"
)

// MockExtractor is a mock implementation of Extractor for testing.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, text string) (string, error)
	calls       int
}

func (m *MockExtractor) Extract(ctx context.Context, text string) (string, error) {
	m.calls++
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, text)
	}
	return "[]", nil
}

// failingThen fails with err for the first n calls, then returns body.
func failingThen(n int, err error, body string) *MockExtractor {
	m := &MockExtractor{}
	m.ExtractFunc = func(ctx context.Context, text string) (string, error) {
		if m.calls <= n {
			return "", err
		}
		return body, nil
	}
	return m
}

func networkFault() error {
	return &url.Error{Op: "Post", URL: "https://generativelanguage.googleapis.com", Err: io.ErrUnexpectedEOF}
}

func newTestClient(ext Extractor) (*Client, *[]time.Duration) {
	var delays []time.Duration
	c := NewClient(Config{APIKey: "test-key", BackoffUnit: time.Second}, ext)
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

const twoTransactions = `[
	{"currency": "USD", "amount": 100, "type": "INCOMING", "description": "from Ahmed"},
	{"currency": "TRY", "amount": 3450, "type": "OUTGOING", "description": ""}
]`

func TestExtractTransactions_SucceedsOnThirdAttempt(t *testing.T) {
	ext := failingThen(2, networkFault(), twoTransactions)
	c, delays := newTestClient(ext)

	txs, err := c.ExtractTransactions(context.Background(), "Ahmed paid 100$, we paid 3450 lira")

	require.NoError(t, err)
	assert.Equal(t, 3, ext.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)

	require.Len(t, txs, 2)
	assert.Equal(t, "USD", txs[0].Currency)
	assert.Equal(t, 100.0, txs[0].Amount)
	assert.Equal(t, domain.TransactionIncoming, txs[0].Type)
	assert.Equal(t, "from Ahmed", txs[0].Description)
	assert.Equal(t, "TRY", txs[1].Currency)
	assert.Equal(t, domain.TransactionOutgoing, txs[1].Type)
	assert.Equal(t, "", txs[1].Description)
}

func TestExtractTransactions_ConnectivityErrorAfterThreeAttempts(t *testing.T) {
	ext := failingThen(10, networkFault(), twoTransactions)
	c, delays := newTestClient(ext)

	txs, err := c.ExtractTransactions(context.Background(), "some text")

	assert.Nil(t, txs)
	assert.ErrorIs(t, err, ErrConnectivity)
	var connErr *ConnectivityError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, 3, connErr.Attempts)
	assert.Equal(t, connectivityAdvice, err.Error())
	assert.Equal(t, 3, ext.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestExtractTransactions_MalformedResponseIsNotRetried(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"prose", "Sure! Here are your transactions: none."},
		{"empty body", "   "},
		{"object instead of array", `{"currency": "USD"}`},
		{"missing field", `[{"currency": "USD", "amount": 1, "type": "INCOMING"}]`},
		{"amount as string", `[{"currency": "USD", "amount": "1", "type": "INCOMING", "description": ""}]`},
		{"element not object", `[42]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext := &MockExtractor{ExtractFunc: func(ctx context.Context, text string) (string, error) {
				return tt.body, nil
			}}
			c, delays := newTestClient(ext)

			_, err := c.ExtractTransactions(context.Background(), "text")

			assert.ErrorIs(t, err, ErrParse)
			assert.Equal(t, 1, ext.calls)
			assert.Empty(t, *delays)
		})
	}
}

func TestExtractTransactions_CollaboratorErrorIsNotRetried(t *testing.T) {
	apiErr := genai.APIError{Code: 400, Message: "API key not valid", Status: "INVALID_ARGUMENT"}
	ext := failingThen(10, apiErr, "[]")
	c, delays := newTestClient(ext)

	_, err := c.ExtractTransactions(context.Background(), "text")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConnectivity)
	assert.ErrorIs(t, err, ErrCollaborator)
	var got genai.APIError
	assert.ErrorAs(t, err, &got)
	assert.Equal(t, 1, ext.calls)
	assert.Empty(t, *delays)
}

func TestExtractTransactions_EmptyArrayIsValid(t *testing.T) {
	ext := &MockExtractor{}
	c, _ := newTestClient(ext)

	txs, err := c.ExtractTransactions(context.Background(), "hello, how are you?")

	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 1, ext.calls)
}

func TestExtractTransactions_MissingCredential(t *testing.T) {
	ext := &MockExtractor{}
	c := NewClient(Config{}, ext)

	_, err := c.ExtractTransactions(context.Background(), "text")

	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, ext.calls)
}

func TestExtractTransactions_BlankText(t *testing.T) {
	ext := &MockExtractor{}
	c, _ := newTestClient(ext)

	_, err := c.ExtractTransactions(context.Background(), " \n\t ")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, ext.calls)
}

func TestExtractTransactions_AssignsDistinctIDs(t *testing.T) {
	ext := &MockExtractor{ExtractFunc: func(ctx context.Context, text string) (string, error) {
		return twoTransactions, nil
	}}
	c, _ := newTestClient(ext)

	txs, err := c.ExtractTransactions(context.Background(), "text")

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.NotEmpty(t, txs[0].ID)
	assert.NotEqual(t, txs[0].ID, txs[1].ID)
}

func TestTransform_NormalizesTypeAndSign(t *testing.T) {
	txs, err := transformModelOutputToTransactions(
		`[{"currency": "syp", "amount": -5000, "type": "credit", "description": "bread"}]`)

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "syp", txs[0].Currency)
	assert.Equal(t, 5000.0, txs[0].Amount)
	assert.Equal(t, domain.TransactionUnknown, txs[0].Type)
}

func TestIsNetworkFault(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"url error", networkFault(), true},
		{"deadline", context.DeadlineExceeded, true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"canceled", context.Canceled, false},
		{"api error", genai.APIError{Code: 503, Message: "overloaded"}, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNetworkFault(tt.err))
		})
	}
}

func TestNewClient_DefaultsUnsetSettings(t *testing.T) {
	for _, unit := range []time.Duration{0, -time.Second} {
		c := NewClient(Config{APIKey: "k", BackoffUnit: unit}, &MockExtractor{})
		assert.Equal(t, DefaultBackoffUnit, c.cfg.BackoffUnit)
		assert.Equal(t, DefaultMaxAttempts, c.cfg.MaxAttempts)
		assert.Equal(t, DefaultModelName, c.cfg.Model)
	}
}

func TestExtractTransactions_ZeroBackoffUnitStillWaits(t *testing.T) {
	ext := failingThen(1, networkFault(), twoTransactions)
	var delays []time.Duration
	c := NewClient(Config{APIKey: "test-key"}, ext)
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := c.ExtractTransactions(context.Background(), "text")

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultBackoffUnit}, delays)
}
