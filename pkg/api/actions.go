package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/uhyunpark/otc-actions/pkg/action"
	"github.com/uhyunpark/otc-actions/pkg/ledger"
	"github.com/uhyunpark/otc-actions/pkg/otc"
	"github.com/uhyunpark/otc-actions/pkg/storage"
)

// setActionHeaders stamps the fixed cross-origin header set the action
// protocol requires on every response, success or failure.
func setActionHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Content-Encoding, Accept-Encoding")
}

func (s *Server) respondAction(w http.ResponseWriter, payload any) {
	setActionHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("action_encode_failed", zap.Error(err))
	}
}

// respondActionError maps any failure to a 400 with a one-line reason.
// Internal detail stays in the log; the client never sees an error object
// or a stack trace.
func (s *Server) respondActionError(w http.ResponseWriter, err error) {
	reason := "An unknown error occurred"
	var ae *action.Error
	switch {
	case errors.As(err, &ae):
		reason = ae.Reason
	case errors.Is(err, ledger.ErrAccountNotFound):
		reason = "Order not found"
	case errors.Is(err, ledger.ErrUnavailable):
		reason = "Ledger is unavailable, try again later"
	}
	s.log.Info("action_request_rejected", zap.String("reason", reason), zap.Error(err))
	setActionHeaders(w)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	fmt.Fprintln(w, reason)
}

func orderIDFromPath(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, action.Wrap(action.CodeInvalidOrderID, "Invalid input path parameter: orderId", err)
	}
	return id, nil
}

// handleOrderAction serves discovery for one order: the four preset fill
// links plus a free-amount input. Presets are recomputed from a live
// snapshot on every call; order state may change between requests.
func (s *Server) handleOrderAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestCtx(r)
	defer cancel()

	id, err := orderIDFromPath(r)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	order, err := s.sdk.FetchOrder(ctx, id)
	if err != nil {
		s.respondActionError(w, err)
		return
	}

	decimals := s.cfg.Ledger.TokenDecimals
	baseHref := fmt.Sprintf("/api/actions/orders/%d", id)
	presets := action.ComputePresets(order.Remaining())
	actions := make([]LinkedAction, 0, len(presets)+1)
	for _, p := range presets {
		display := action.FormatBaseUnits(p.Amount, decimals)
		actions = append(actions, LinkedAction{
			Label: fmt.Sprintf("Fill %s OTC", display),
			Href:  fmt.Sprintf("%s?amount=%s", baseHref, display),
		})
	}
	actions = append(actions, LinkedAction{
		Label: "Fill amount",
		Href:  baseHref + "?amount={amount}",
		Parameters: []ActionParameter{
			{Name: "amount", Label: "Enter the amount of OTC token to fill", Required: true},
		},
	})

	s.respondAction(w, ActionGetResponse{
		Title:       "OTC - Fill Order",
		Icon:        s.cfg.Server.IconURL,
		Description: fmt.Sprintf("Fill an open order ID %d", id),
		Label:       "Fill Order",
		Links:       &ActionLinks{Actions: actions},
	})
}

// handleOrderFill validates the request, converts the amount, and returns
// the serialized unsigned fill transaction. It never executes anything.
func (s *Server) handleOrderFill(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestCtx(r)
	defer cancel()

	id, err := orderIDFromPath(r)
	if err != nil {
		s.respondActionError(w, err)
		return
	}

	payer, err := decodeAccount(r)
	if err != nil {
		s.respondActionError(w, err)
		return
	}

	decimals := s.cfg.Ledger.TokenDecimals
	fill, err := action.ToBaseUnits(r.URL.Query().Get("amount"), decimals)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	if fill.Sign() <= 0 {
		s.respondActionError(w, action.Err(action.CodeAmountOutOfRange, "Amount is too small"))
		return
	}

	order, err := s.sdk.FetchOrder(ctx, id)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	if fill.Cmp(order.Remaining()) > 0 {
		s.respondActionError(w, action.Err(action.CodeAmountOutOfRange, "Amount exceeds the unfilled order amount"))
		return
	}

	value, err := action.ProportionalValue(fill, order)
	if err != nil {
		s.respondActionError(w, err)
		return
	}

	tx, err := s.composer.ComposeFill(ctx, payer, order, fill, value)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	serialized, err := tx.SerializeBase64()
	if err != nil {
		s.respondActionError(w, action.Wrap(action.CodeCompose, "Transaction assembly failed", err))
		return
	}

	display := action.FormatBaseUnits(fill, decimals)
	s.recordAction("fill", id, display, action.FormatBaseUnits(value, decimals), payer)

	s.respondAction(w, ActionPostResponse{
		Transaction: serialized,
		Message:     fmt.Sprintf("Fill %s of order %d", display, id),
	})
}

// handleCreateAction serves discovery for the create-order form.
func (s *Server) handleCreateAction(w http.ResponseWriter, r *http.Request) {
	s.respondAction(w, ActionGetResponse{
		Title:       "OTC - Create Order",
		Icon:        s.cfg.Server.IconURL,
		Description: "Create a new OTC order",
		Label:       "Create Order",
		Links: &ActionLinks{Actions: []LinkedAction{
			{
				Label: "Create order",
				Href:  "/api/actions/create-order?amount={amount}&value={value}&side={side}",
				Parameters: []ActionParameter{
					{Name: "amount", Label: "Amount of OTC token to trade", Required: true},
					{Name: "value", Label: "Total value asked in exchange", Required: true},
					{Name: "side", Label: "buy or sell", Required: true},
				},
			},
		}},
	})
}

// handleCreateSubmit composes the unsigned create-order transaction.
func (s *Server) handleCreateSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestCtx(r)
	defer cancel()

	payer, err := decodeAccount(r)
	if err != nil {
		s.respondActionError(w, err)
		return
	}

	decimals := s.cfg.Ledger.TokenDecimals
	query := r.URL.Query()
	amount, err := action.ToBaseUnits(query.Get("amount"), decimals)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	value, err := action.ToBaseUnits(query.Get("value"), decimals)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	if amount.Sign() <= 0 || value.Sign() <= 0 {
		s.respondActionError(w, action.Err(action.CodeAmountOutOfRange, "Amount is too small"))
		return
	}
	side := otc.Buy
	if raw := query.Get("side"); raw != "" {
		if side, err = otc.ParseSide(raw); err != nil {
			s.respondActionError(w, action.Wrap(action.CodeInvalidAmount, "Invalid input query parameter: side", err))
			return
		}
	}

	tx, err := s.composer.ComposeCreate(ctx, payer, action.CreateParams{
		Side:    side,
		ExToken: s.cfg.Ledger.ExToken,
		Amount:  amount,
		Value:   value,
	})
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	serialized, err := tx.SerializeBase64()
	if err != nil {
		s.respondActionError(w, action.Wrap(action.CodeCompose, "Transaction assembly failed", err))
		return
	}

	displayAmount := action.FormatBaseUnits(amount, decimals)
	s.recordAction("create", 0, displayAmount, action.FormatBaseUnits(value, decimals), payer)

	s.respondAction(w, ActionPostResponse{
		Transaction: serialized,
		Message:     fmt.Sprintf("Create %s order for %s OTC", side, displayAmount),
	})
}

// decodeAccount reads and validates the requestor address from the POST
// body.
func decodeAccount(r *http.Request) (ledger.Address, error) {
	var body ActionPostRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ledger.Address{}, action.Wrap(action.CodeInvalidAccount, `Invalid "account" provided`, err)
	}
	payer, err := ledger.ParseAddress(body.Account)
	if err != nil {
		return ledger.Address{}, action.Wrap(action.CodeInvalidAccount, `Invalid "account" provided`, err)
	}
	return payer, nil
}

// recordAction feeds the audit trail and the websocket feed. Both are
// best-effort: the client already holds its transaction, so failures here
// only get logged.
func (s *Server) recordAction(kind string, orderID uint64, amount, value string, requestor ledger.Address) {
	if s.audit != nil {
		err := s.audit.Append(storage.Record{
			Time:      time.Now().UTC(),
			Kind:      kind,
			OrderID:   orderID,
			Amount:    amount,
			Value:     value,
			Requestor: requestor.String(),
		})
		if err != nil {
			s.log.Warn("audit_append_failed", zap.Error(err))
		}
	}
	s.hub.BroadcastToChannel("actions", ActionEvent{
		Type:      "action_issued",
		Kind:      kind,
		OrderID:   orderID,
		Amount:    amount,
		Requestor: requestor.String(),
		Timestamp: time.Now().UnixMilli(),
	})
}
