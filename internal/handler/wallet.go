package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripboard/internal/domain"
)

// WalletResponse lists the ledger with its total.
type WalletResponse struct {
	Items []domain.WalletItem `json:"items"`
	Total float64             `json:"total"`
}

// ListWallet handles GET /wallet.
func (s *Server) ListWallet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, WalletResponse{Items: s.Wallet.List(), Total: s.Wallet.Total()})
}

// GetWalletSummary handles GET /wallet/summary.
func (s *Server) GetWalletSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Wallet.Summary(s.Itinerary.Plan()))
}

// CreateWalletItem handles POST /wallet.
func (s *Server) CreateWalletItem(w http.ResponseWriter, r *http.Request) {
	var item domain.WalletItem
	if !s.decodeJSON(w, r, &item) {
		return
	}
	created, err := s.Wallet.Add(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateWalletItem handles PUT /wallet/{id}.
func (s *Server) UpdateWalletItem(w http.ResponseWriter, r *http.Request) {
	var item domain.WalletItem
	if !s.decodeJSON(w, r, &item) {
		return
	}
	updated, err := s.Wallet.Update(r.Context(), chi.URLParam(r, "id"), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteWalletItem handles DELETE /wallet/{id}.
func (s *Server) DeleteWalletItem(w http.ResponseWriter, r *http.Request) {
	if err := s.Wallet.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
