package api

import (
	"math/big"
	"net/http"

	"github.com/uhyunpark/otc-actions/pkg/action"
	"github.com/uhyunpark/otc-actions/pkg/otc"
)

func (s *Server) orderInfo(order *otc.Order) OrderInfo {
	decimals := s.cfg.Ledger.TokenDecimals
	format := func(v uint64) string {
		return action.FormatBaseUnits(new(big.Int).SetUint64(v), decimals)
	}
	return OrderInfo{
		ID:        order.ID,
		Side:      order.Side.String(),
		ExToken:   order.ExToken.String(),
		Amount:    format(order.Amount),
		Filled:    format(order.Filled),
		Remaining: action.FormatBaseUnits(order.Remaining(), decimals),
		Value:     format(order.Value),
		CreatedAt: order.CreatedAt,
	}
}

// handleListOrders returns every order the program knows, oldest first.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestCtx(r)
	defer cancel()

	orders, err := s.sdk.ListOrders(ctx)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	infos := make([]OrderInfo, 0, len(orders))
	for _, order := range orders {
		infos = append(infos, s.orderInfo(order))
	}
	respondJSON(w, s.log, infos)
}

// handleGetOrder returns one order snapshot with its current presets.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
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

	detail := OrderDetail{OrderInfo: s.orderInfo(order)}
	for _, p := range action.ComputePresets(order.Remaining()) {
		detail.Presets = append(detail.Presets, PresetInfo{
			Portion: p.Portion,
			Amount:  action.FormatBaseUnits(p.Amount, s.cfg.Ledger.TokenDecimals),
		})
	}
	respondJSON(w, s.log, detail)
}
