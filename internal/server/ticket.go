package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/idstrust/helpdesk/internal/server/respond"
	"github.com/idstrust/helpdesk/internal/ticket"
)

func (s *Server) ticketType(w http.ResponseWriter, r *http.Request) (ticket.Type, bool) {
	t, err := s.tickets.Type(ticket.Kind(r.PathValue("type")))
	if err != nil {
		respond.Error(w, http.StatusNotFound, "지원하지 않는 티켓 유형입니다.")
		return ticket.Type{}, false
	}
	return t, true
}

// ticketOptions serves the select options a ticket form needs, read
// from the collection schema on every request.
func (s *Server) ticketOptions(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ticketType(w, r)
	if !ok {
		return
	}

	options, err := s.tickets.Options(r.Context(), t)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, options)
}

// createTicket validates and records a new ticket.
func (s *Server) createTicket(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ticketType(w, r)
	if !ok {
		return
	}

	var sub ticket.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respond.Error(w, http.StatusBadRequest, "유효한 JSON 요청이 필요합니다.")
		return
	}

	id, err := s.tickets.Create(r.Context(), t, sub)
	if err != nil {
		var verr *ticket.ValidationError
		if errors.As(err, &verr) {
			respond.Error(w, http.StatusBadRequest, verr.Error())
			return
		}
		s.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

// ticketDetail serves one ticket mapped through its field table.
func (s *Server) ticketDetail(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ticketType(w, r)
	if !ok {
		return
	}

	detail, err := s.tickets.Detail(r.Context(), t, r.PathValue("ticketId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, detail)
}

// cancelTicket withdraws a ticket while the cancel policy still
// allows it.
func (s *Server) cancelTicket(w http.ResponseWriter, r *http.Request) {
	t, ok := s.ticketType(w, r)
	if !ok {
		return
	}

	err := s.tickets.Cancel(r.Context(), t, r.PathValue("ticketId"))
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, ticket.ErrAlreadyCanceled):
		respond.Error(w, http.StatusBadRequest, "이미 취소된 요청입니다.")
	case errors.Is(err, ticket.ErrAssigneeAssigned):
		respond.Error(w, http.StatusBadRequest, "담당자가 지정된 요청은 취소할 수 없습니다.")
	case errors.Is(err, ticket.ErrInProgress):
		respond.Error(w, http.StatusBadRequest, "이미 진행 중인 요청은 취소할 수 없습니다.")
	default:
		s.fail(w, r, err)
	}
}
