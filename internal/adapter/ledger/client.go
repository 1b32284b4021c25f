// Package ledger is the HTTP client for the external ledger service. Every
// response is normalized here into the typed results of domain/ledger or a
// *ledger.Error.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/btcsuite/btcutil"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	domain "btc-lending-backend/internal/domain/ledger"
	"btc-lending-backend/internal/infrastructure/metrics"
)

var _ domain.Service = (*Client)(nil)

const maxBody = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// NewClient returns a client for baseURL. rps <= 0 disables throttling.
func NewClient(baseURL string, rps float64, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Deposit(ctx context.Context, wallet, address string, amount btcutil.Amount) (domain.TxReceipt, error) {
	p, err := c.call(ctx, "deposit", map[string]any{
		"wallet":  wallet,
		"address": address,
		"amount":  int64(amount),
	})
	if err != nil {
		return domain.TxReceipt{}, err
	}
	tx, ok := p.str("txId", "tx_id", "txid", "hash", "value")
	if !ok {
		return domain.TxReceipt{}, malformed("deposit", "missing tx id")
	}
	return domain.TxReceipt{TxID: tx}, nil
}

func (c *Client) Loan(ctx context.Context, req domain.LoanRequest) (domain.LoanReceipt, error) {
	p, err := c.call(ctx, "loan", map[string]any{
		"borrowerAddress": req.BorrowerAddress,
		"principal":       int64(req.Principal),
		"interestRate":    req.InterestRatePct,
		"loanType":        req.LoanTypeCode,
		"priceAtLoanTime": req.PriceAtLoanTimeUSD,
		"termMonths":      req.TermMonths,
		"riskFactor":      req.RiskPct,
		"collateralType":  req.CollateralTypeCode,
		"collateralValue": req.CollateralValueUSD,
		"collateralId":    req.CollateralID,
	})
	if err != nil {
		return domain.LoanReceipt{}, err
	}
	id, ok := p.uint("loanId", "loan_id", "chainLoanId", "id", "value")
	if !ok {
		return domain.LoanReceipt{}, malformed("loan", "missing loan id")
	}
	tx, _ := p.str("txId", "tx_id", "txid", "hash")
	return domain.LoanReceipt{ChainLoanID: id, TxID: tx}, nil
}

func (c *Client) Repay(ctx context.Context, chainLoanID uint64, currentPriceUSD float64, amount btcutil.Amount) (domain.TxReceipt, error) {
	p, err := c.call(ctx, "repay", map[string]any{
		"loanId":       chainLoanID,
		"currentPrice": currentPriceUSD,
		"amount":       int64(amount),
	})
	if err != nil {
		return domain.TxReceipt{}, err
	}
	tx, ok := p.str("txId", "tx_id", "txid", "hash", "value")
	if !ok {
		return domain.TxReceipt{}, malformed("repay", "missing tx id")
	}
	return domain.TxReceipt{TxID: tx}, nil
}

func (c *Client) CloseLoan(ctx context.Context, chainLoanID uint64) (domain.Ack, error) {
	return c.ack(ctx, "closeLoan", chainLoanID)
}

func (c *Client) OpenLoan(ctx context.Context, chainLoanID uint64) (domain.Ack, error) {
	return c.ack(ctx, "openLoan", chainLoanID)
}

// ack treats a missing success flag as success; an explicit false is
// reported through Ack rather than as an error.
func (c *Client) ack(ctx context.Context, op string, chainLoanID uint64) (domain.Ack, error) {
	p, err := c.call(ctx, op, map[string]any{"loanId": chainLoanID})
	if err != nil {
		return domain.Ack{}, err
	}
	ok, present := p.boolean("success", "ok")
	msg, _ := p.str("message", "msg", "reason")
	return domain.Ack{Success: ok || !present, Message: msg}, nil
}

func (c *Client) GetBalance(ctx context.Context, address string) (domain.Balance, error) {
	p, err := c.call(ctx, "getBalance", map[string]any{"address": address})
	if err != nil {
		return domain.Balance{}, err
	}
	on, ok1 := p.uint("onChain", "on_chain", "onchain")
	off, ok2 := p.uint("offChain", "off_chain", "offchain")
	if !ok1 && !ok2 {
		return domain.Balance{}, malformed("getBalance", "missing balances")
	}
	return domain.Balance{OnChain: btcutil.Amount(on), OffChain: btcutil.Amount(off)}, nil
}

func (c *Client) ReadLoanByID(ctx context.Context, chainLoanID uint64) (domain.LoanSnapshot, error) {
	p, err := c.call(ctx, "readLoanById", map[string]any{"loanId": chainLoanID})
	if err != nil {
		return domain.LoanSnapshot{}, err
	}
	snap := domain.LoanSnapshot{ChainLoanID: chainLoanID}
	if id, ok := p.uint("loanId", "loan_id", "id"); ok {
		snap.ChainLoanID = id
	}
	principal, ok := p.uint("principal", "amount")
	if !ok {
		return domain.LoanSnapshot{}, malformed("readLoanById", "missing principal")
	}
	snap.Principal = btcutil.Amount(principal)
	if r, ok := p.uint("repaid", "repaidAmount", "amountRepaid"); ok {
		snap.Repaid = btcutil.Amount(r)
	}
	snap.Borrower, _ = p.str("borrower", "borrowerAddress")
	snap.PriceAtLoanTime, _ = p.float("priceAtLoanTime", "price_at_loan_time")
	if t, ok := p.uint("termMonths", "term"); ok {
		snap.TermMonths = int(t)
	}
	if open, ok := p.boolean("open", "isOpen", "active"); ok {
		snap.Open = open
	} else if st, ok := p.str("status"); ok {
		st = strings.ToLower(st)
		snap.Open = st == "open" || st == "active"
	}
	return snap, nil
}

func (c *Client) call(ctx context.Context, op string, params map[string]any) (payload, error) {
	start := time.Now()
	p, err := c.do(ctx, op, params)
	result := "ok"
	if err != nil {
		result = "rejected"
		if le, ok := domain.AsError(err); ok {
			switch le.Code {
			case domain.CodeTransport, domain.CodeTimeout, domain.CodeMalformed:
				result = le.Code
			}
		}
	}
	metrics.LedgerLatency.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
	return p, err
}

func (c *Client) do(ctx context.Context, op string, params map[string]any) (payload, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, transportErr(op, err)
		}
	}
	buf, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportErr(op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, transportErr(op, err)
	}

	p, perr := normalize(op, body)
	if perr != nil {
		return nil, perr
	}
	if resp.StatusCode/100 != 2 {
		// non-2xx without an error object in the body
		return nil, &domain.Error{Op: op, Code: fmt.Sprintf("http_%d", resp.StatusCode), Message: snippet(body)}
	}
	return p, nil
}

func transportErr(op string, err error) error {
	code := domain.CodeTransport
	if errors.Is(err, context.DeadlineExceeded) {
		code = domain.CodeTimeout
	}
	return &domain.Error{Op: op, Code: code, Message: err.Error()}
}

func malformed(op, msg string) error {
	return &domain.Error{Op: op, Code: domain.CodeMalformed, Message: msg}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
