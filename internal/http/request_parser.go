package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"budgetwise/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

type transactionRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"categoryId"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

// toTransaction converts the request into a domain transaction. A missing
// date means today.
func (req transactionRequest) toTransaction(userID int64) (core.Transaction, error) {
	date := core.Today()
	if req.Date != "" {
		var err error
		date, err = core.ParseDate(req.Date)
		if err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		UserID:      userID,
		Type:        core.TransactionType(req.Type),
		Amount:      req.Amount,
		CategoryID:  req.CategoryID,
		Description: req.Description,
		Date:        date,
	}, nil
}

type contributionRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (req contributionRequest) parse() (decimal.Decimal, core.Date, error) {
	date := core.Today()
	if req.Date != "" {
		var err error
		date, err = core.ParseDate(req.Date)
		if err != nil {
			return decimal.Zero, core.Date{}, err
		}
	}
	return req.Amount, date, nil
}

type budgetRequest struct {
	CategoryID     int64           `json:"categoryId"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"`
	StartDate      string          `json:"startDate"`
	EndDate        string          `json:"endDate"`
	AlertThreshold decimal.Decimal `json:"alertThreshold"`
}

func (req budgetRequest) toBudget(userID int64) (core.Budget, error) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := core.ParseDate(req.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		UserID:         userID,
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		Period:         core.BudgetPeriod(req.Period),
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: req.AlertThreshold,
	}, nil
}

type goalRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Deadline     string          `json:"deadline"`
}

func (req goalRequest) toGoal(userID int64) (core.SavingsGoal, error) {
	g := core.SavingsGoal{
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
	}
	if req.Deadline != "" {
		deadline, err := core.ParseDate(req.Deadline)
		if err != nil {
			return core.SavingsGoal{}, err
		}
		g.Deadline = deadline
	}
	return g, nil
}

type categoryRequest struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (req categoryRequest) toCategory(userID int64) core.Category {
	return core.Category{
		UserID: userID,
		Name:   req.Name,
		Type:   core.TransactionType(req.Type),
		Icon:   req.Icon,
		Color:  req.Color,
	}
}

// transactionResponse is the wire shape of a ledger entry.
type transactionResponse struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	CategoryID  int64           `json:"categoryId,omitempty"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Origin      string          `json:"origin"`
	OriginRef   int64           `json:"originRef,omitempty"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Type:        string(tx.Type),
		Amount:      tx.Amount,
		CategoryID:  tx.CategoryID,
		Description: tx.Description,
		Date:        tx.Date.String(),
		Origin:      string(tx.Origin.Type),
		OriginRef:   tx.Origin.RefID,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	return out
}
