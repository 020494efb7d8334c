package api

import (
	"fmt"
	"net/http"

	"github.com/bher20/dormbill/internal/auth"
	"github.com/bher20/dormbill/internal/billing"
	"github.com/bher20/dormbill/internal/bills"
	"github.com/bher20/dormbill/internal/export"
	"github.com/bher20/dormbill/internal/storage"
)

// issuedBill is the API view of a stored bill.
type issuedBill struct {
	storage.Bill
	Record billing.BillRecord `json:"record"`
}

func (s *server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req bills.Request
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	rec, err := s.Bills.Preview(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req bills.Request
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	b, err := s.Bills.Issue(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := toView(b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/v1/bills/"+b.ID)
	writeJSON(w, http.StatusCreated, view)
}

// loadBill fetches the bill named by the path and applies room scoping.
func (s *server) loadBill(w http.ResponseWriter, r *http.Request) (*storage.Bill, bool) {
	b, err := s.Bills.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	if !auth.CanAccessRoom(r.Context(), b.RoomID) {
		forbidden(w)
		return nil, false
	}
	return b, true
}

func toView(b *storage.Bill) (issuedBill, error) {
	rec, err := bills.Record(b)
	if err != nil {
		return issuedBill{}, err
	}
	return issuedBill{Bill: *b, Record: rec}, nil
}

func (s *server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBill(w, r)
	if !ok {
		return
	}
	view, err := toView(b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBill(w, r)
	if !ok {
		return
	}
	rec, err := bills.Record(b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(billing.FormatReceipt(rec)))
}

func (s *server) handleBillPDF(w http.ResponseWriter, r *http.Request) {
	b, ok := s.loadBill(w, r)
	if !ok {
		return
	}
	rec, err := bills.Record(b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := export.BillPDF(rec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=bill_%s_%s.pdf", b.RoomID, b.DueDate))
	_, _ = w.Write(out)
}

func (s *server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	b, err := s.Bills.MarkPaid(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *server) handleRoomBills(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if !auth.CanAccessRoom(r.Context(), roomID) {
		forbidden(w)
		return
	}
	list, err := s.Bills.ListForRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []storage.Bill{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleRoomBillsXLSX(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("id")
	if !auth.CanAccessRoom(r.Context(), roomID) {
		forbidden(w)
		return
	}
	list, err := s.Bills.ListForRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows := make([]export.LedgerRow, 0, len(list))
	for i := range list {
		rec, err := bills.Record(&list[i])
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		rows = append(rows, export.LedgerRow{ID: list[i].ID, Status: list[i].Status, Record: rec})
	}
	out, err := export.RoomBillsXLSX(roomID, rows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=room_%s_bills.xlsx", roomID))
	_, _ = w.Write(out)
}

func (s *server) handleTariff(w http.ResponseWriter, r *http.Request) {
	t := s.Bills.Tariff()
	writeJSON(w, http.StatusOK, map[string]any{
		"electric_rate": t.ElectricRate,
		"vat_rate":      t.VATRate,
		"split":         t.Split,
		"water_tiers":   t.WaterTiers,
		"splits":        billing.Splits(),
	})
}
