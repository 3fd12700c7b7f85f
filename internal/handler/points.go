package handler

import (
	"net/http"
	"strconv"

	"github.com/campuspoints/platform/internal/auth"
	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/campuspoints/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PointsHandler exposes the ledger operations and the read surface.
// Role floors are enforced twice: RequireRole gates the route, and the
// engine re-checks inside the transaction.
type PointsHandler struct {
	svc          *service.LedgerService
	users        repository.UserRepository
	transactions repository.TransactionRepository
	db           repository.DBTX
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(svc *service.LedgerService, users repository.UserRepository, transactions repository.TransactionRepository, db repository.DBTX) *PointsHandler {
	return &PointsHandler{svc: svc, users: users, transactions: transactions, db: db}
}

type purchaseRequest struct {
	CustomerID   uuid.UUID       `json:"customer_id"`
	Spent        decimal.Decimal `json:"spent"`
	PromotionIDs []uuid.UUID     `json:"promotion_ids,omitempty"`
	Remark       string          `json:"remark,omitempty"`
}

// CreatePurchase handles POST /points/purchases.
func (h *PointsHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.Purchase(r.Context(), domain.PurchaseParams{
		Actor:        auth.ActorFromContext(r.Context()),
		CustomerID:   req.CustomerID,
		Spent:        req.Spent,
		PromotionIDs: req.PromotionIDs,
		Remark:       req.Remark,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result.Transaction)
}

type adjustmentRequest struct {
	UserID       uuid.UUID   `json:"user_id"`
	Amount       int64       `json:"amount"`
	RelatedID    uuid.UUID   `json:"related_id"`
	PromotionIDs []uuid.UUID `json:"promotion_ids,omitempty"`
	Remark       string      `json:"remark,omitempty"`
}

// CreateAdjustment handles POST /points/adjustments.
func (h *PointsHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.Adjustment(r.Context(), domain.AdjustmentParams{
		Actor:        auth.ActorFromContext(r.Context()),
		CustomerID:   req.UserID,
		Amount:       req.Amount,
		RelatedID:    req.RelatedID,
		PromotionIDs: req.PromotionIDs,
		Remark:       req.Remark,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result.Transaction)
}

type transferRequest struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Amount      int64     `json:"amount"`
	Remark      string    `json:"remark,omitempty"`
}

// CreateTransfer handles POST /points/transfers. The sender is the
// authenticated user.
func (h *PointsHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.Transfer(r.Context(), domain.TransferParams{
		Actor:       auth.ActorFromContext(r.Context()),
		RecipientID: req.RecipientID,
		Amount:      req.Amount,
		Remark:      req.Remark,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result.SenderTransaction)
}

type redemptionRequest struct {
	Amount int64  `json:"amount"`
	Remark string `json:"remark,omitempty"`
}

// CreateRedemption handles POST /points/redemptions.
func (h *PointsHandler) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	var req redemptionRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.RequestRedemption(r.Context(), domain.RedemptionRequestParams{
		Actor:  auth.ActorFromContext(r.Context()),
		Amount: req.Amount,
		Remark: req.Remark,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result.Transaction)
}

// ProcessRedemption handles POST /points/redemptions/{transactionID}/process.
func (h *PointsHandler) ProcessRedemption(w http.ResponseWriter, r *http.Request) {
	txID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid transaction id"))
		return
	}

	result, err := h.svc.ProcessRedemption(r.Context(), domain.ProcessRedemptionParams{
		Actor:         auth.ActorFromContext(r.Context()),
		TransactionID: txID,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result.Transaction)
}

type suspiciousRequest struct {
	Suspicious bool `json:"suspicious"`
}

// ToggleSuspicious handles PATCH /transactions/{transactionID}/suspicious.
func (h *PointsHandler) ToggleSuspicious(w http.ResponseWriter, r *http.Request) {
	txID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid transaction id"))
		return
	}

	var req suspiciousRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.ToggleSuspicious(r.Context(), domain.ToggleSuspiciousParams{
		Actor:         auth.ActorFromContext(r.Context()),
		TransactionID: txID,
		Suspicious:    req.Suspicious,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result.Transaction)
}

// balanceResponse is the shape of GET /points/balance.
type balanceResponse struct {
	Balance    int64 `json:"balance"`
	Verified   bool  `json:"verified"`
	Suspicious bool  `json:"suspicious"`
}

// GetBalance handles GET /points/balance for the authenticated user.
func (h *PointsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	user, err := h.users.FindByID(r.Context(), h.db, actor.ID)
	if err != nil {
		RespondError(w, domain.ErrInternal("find user", err))
		return
	}
	if user == nil {
		RespondError(w, domain.ErrNotFound("user", actor.ID.String()))
		return
	}

	RespondJSON(w, http.StatusOK, balanceResponse{
		Balance:    user.Balance,
		Verified:   user.Verified,
		Suspicious: user.Suspicious,
	})
}

// txListResponse wraps a list of transactions with cursor.
type txListResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	NextCursor   *string              `json:"next_cursor,omitempty"`
}

// GetTransactions handles GET /points/transactions with cursor-based
// pagination for the authenticated user.
func (h *PointsHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())
	h.listTransactions(w, r, actor.ID)
}

// GetUserTransactions handles GET /users/{userID}/transactions, the
// manager view of any user's history.
func (h *PointsHandler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}
	h.listTransactions(w, r, userID)
}

func (h *PointsHandler) listTransactions(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	txs, err := h.transactions.ListByUser(r.Context(), h.db, userID, cursor, limit+1)
	if err != nil {
		RespondError(w, domain.ErrInternal("list transactions", err))
		return
	}

	resp := txListResponse{Transactions: txs}
	if len(txs) > limit {
		resp.Transactions = txs[:limit]
		nextID := txs[limit].ID.String()
		resp.NextCursor = &nextID
	}

	RespondJSON(w, http.StatusOK, resp)
}

// AuditUser handles GET /users/{userID}/audit, recomputing the balance
// from the transaction history.
func (h *PointsHandler) AuditUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	result, err := h.svc.Audit(r.Context(), userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
