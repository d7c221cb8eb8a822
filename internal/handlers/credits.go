package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Tolits3/PanelX-Backend/internal/apperrors"
	"github.com/Tolits3/PanelX-Backend/internal/handlers/render"
	"github.com/Tolits3/PanelX-Backend/internal/logger"
	"github.com/Tolits3/PanelX-Backend/internal/models"
)

// creditPackages is the storefront catalog. During the free launch period the
// single zero-priced launch special is the only entry.
var creditPackages = []models.CreditPackage{
	{
		ID:           "free",
		Name:         "Launch Special",
		Credits:      1000,
		PriceCents:   0,
		PriceDisplay: "FREE",
		PerCredit:    models.PerCreditPrice(0, 1000),
		Badge:        "Limited Time",
		Color:        "green",
	},
}

type transactionResponse struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Description  string    `json:"description"`
	PaymentID    *string   `json:"payment_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransactionResponse(t models.Transaction) transactionResponse {
	return transactionResponse{
		ID:           t.ID.String(),
		Type:         t.Type,
		Amount:       t.Amount,
		BalanceAfter: t.BalanceAfter,
		Description:  t.Description,
		PaymentID:    t.PaymentID,
		CreatedAt:    t.CreatedAt,
	}
}

func handleCreditBalance(ledger creditLedger, l logger.Logger) http.Handler {
	type response struct {
		Success  bool   `json:"success"`
		UID      string `json:"uid"`
		Balance  int64  `json:"balance"`
		FreeMode bool   `json:"free_mode"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")
		if uid == "" {
			render.ServiceError(w, "User id is required", http.StatusBadRequest)
			return
		}

		balance, err := ledger.GetBalance(r.Context(), uid)

		switch err {
		case nil:
			render.JSON(w, response{
				Success:  true,
				UID:      balance.UserID,
				Balance:  balance.Balance,
				FreeMode: ledger.FreeMode(),
			})
		default:
			l.Error("Failed to get balance", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreditInit(ledger creditLedger, l logger.Logger) http.Handler {
	type request struct {
		UID string `json:"uid" validate:"required"`
	}

	type response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Balance int64  `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := ledger.InitAccount(r.Context(), req.UID)

		switch err {
		case nil:
			message := fmt.Sprintf("Welcome! You got %d free credits!", res.Account.Balance)
			if res.AlreadyExisted {
				message = "User already initialized"
			}
			render.JSON(w, response{
				Success: true,
				Message: message,
				Balance: res.Account.Balance,
			})
		default:
			l.Error("Failed to init account", "error", err, "uid", req.UID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreditUse(ledger creditLedger, l logger.Logger) http.Handler {
	type request struct {
		UID         string `json:"uid" validate:"required"`
		Amount      int64  `json:"amount"`
		Description string `json:"description"`
	}

	type response struct {
		Success     bool   `json:"success"`
		CreditsUsed int64  `json:"credits_used"`
		NewBalance  int64  `json:"new_balance"`
		Message     string `json:"message"`
		FreeMode    bool   `json:"free_mode,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		if req.Amount == 0 {
			req.Amount = 1
		}
		if req.Description == "" {
			req.Description = "AI image generated"
		}

		res, err := ledger.Debit(r.Context(), req.UID, req.Amount, req.Description)

		insufficient, isInsufficient := apperrors.AsInsufficientCredits(err)
		switch {
		case err == nil:
			message := fmt.Sprintf("%d credit(s) used. Balance: %d", res.CreditsUsed, res.NewBalance)
			if ledger.FreeMode() {
				message = "Image generated! (Free during launch - credits not deducted)"
			}
			render.JSON(w, response{
				Success:     true,
				CreditsUsed: res.CreditsUsed,
				NewBalance:  res.NewBalance,
				Message:     message,
				FreeMode:    ledger.FreeMode(),
			})
		case isInsufficient:
			message := fmt.Sprintf("Insufficient credits. Have %d, need %d.", insufficient.Balance, insufficient.Requested)
			render.ServiceError(w, message, http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, "Amount must be positive", http.StatusBadRequest)
		default:
			l.Error("Failed to use credits", "error", err, "uid", req.UID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreditGrant(ledger creditLedger, l logger.Logger) http.Handler {
	type request struct {
		UID         string  `json:"uid" validate:"required"`
		Amount      int64   `json:"amount" validate:"required"`
		Description string  `json:"description"`
		PaymentID   *string `json:"payment_id"`
	}

	type response struct {
		Success    bool   `json:"success"`
		NewBalance int64  `json:"new_balance"`
		Message    string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}
		if req.Description == "" {
			req.Description = "Credits purchased"
		}

		account, err := ledger.Credit(r.Context(), req.UID, req.Amount, models.TransactionTypePurchase, req.Description, req.PaymentID)

		switch {
		case err == nil:
			render.JSON(w, response{
				Success:    true,
				NewBalance: account.Balance,
				Message:    fmt.Sprintf("%d credit(s) added. Balance: %d", req.Amount, account.Balance),
			})
		case errors.Is(err, apperrors.ErrInvalidAmount):
			render.ServiceError(w, "Amount must be positive", http.StatusBadRequest)
		default:
			l.Error("Failed to grant credits", "error", err, "uid", req.UID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreditHistory(ledger creditLedger, l logger.Logger) http.Handler {
	type response struct {
		Success      bool                  `json:"success"`
		Transactions []transactionResponse `json:"transactions"`
		Total        int                   `json:"total"`
		FreeMode     bool                  `json:"free_mode"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := r.PathValue("uid")
		if uid == "" {
			render.ServiceError(w, "User id is required", http.StatusBadRequest)
			return
		}

		transactions, err := ledger.GetHistory(r.Context(), uid)

		switch err {
		case nil:
			res := response{
				Success:      true,
				Transactions: make([]transactionResponse, 0, len(transactions)),
				Total:        len(transactions),
				FreeMode:     ledger.FreeMode(),
			}
			for _, t := range transactions {
				res.Transactions = append(res.Transactions, toTransactionResponse(t))
			}
			render.JSON(w, res)
		default:
			l.Error("Failed to get history", "error", err, "uid", uid)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreditPackages(ledger creditLedger) http.Handler {
	type response struct {
		Success  bool                   `json:"success"`
		FreeMode bool                   `json:"free_mode,omitempty"`
		Message  string                 `json:"message,omitempty"`
		Packages []models.CreditPackage `json:"packages"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		res := response{Success: true, Packages: creditPackages}
		if ledger.FreeMode() {
			res.FreeMode = true
			res.Message = "Launch Special! All features FREE during beta."
		}
		render.JSON(w, res)
	})
}

func handleCreditStatus(ledger creditLedger) http.Handler {
	type response struct {
		FreeMode        bool   `json:"free_mode"`
		FreeCredits     int64  `json:"free_credits"`
		Message         string `json:"message"`
		PaymentsEnabled bool   `json:"payments_enabled"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		message := "Paid mode active"
		if ledger.FreeMode() {
			message = "Launch mode: All features free!"
		}
		render.JSON(w, response{
			FreeMode:        ledger.FreeMode(),
			FreeCredits:     ledger.InitialGrant(),
			Message:         message,
			PaymentsEnabled: !ledger.FreeMode(),
		})
	})
}
