package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDebitRejected means the ledger answered and refused the debit.
var ErrDebitRejected = errors.New("points debit rejected")

const usePointPath = "/api/users/points/use"

type LateFeeRequest struct {
	UserID  int64           `json:"userId"`
	LateFee decimal.Decimal `json:"latefee"`
}

type HTTPLedger struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLedger(baseURL string, timeout time.Duration) *HTTPLedger {
	return &HTTPLedger{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (l *HTTPLedger) DebitPoints(ctx context.Context, userID int64, amount decimal.Decimal) error {
	body, err := json.Marshal(LateFeeRequest{UserID: userID, LateFee: amount})
	if err != nil {
		return fmt.Errorf("encode debit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+usePointPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build debit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("call points ledger: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s", ErrDebitRejected, resp.Status, strings.TrimSpace(string(detail)))
	}

	return nil
}
