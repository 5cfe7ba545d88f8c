package auth

import (
	"net/http"
	"strings"

	"auth-server/internal/shared/model"
)

// ReadProfile 读取用户公开信息
func (h *Handler) ReadProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil || user == nil {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user.Public())
}

// UpdateProfile 修改当前会话用户的名称或密码
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.store.GetUserByID(r.Context(), session.ID)
	if err != nil || user == nil {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}
	h.applyUpdate(w, r, user)
}

// AdminUpdate 与 UpdateProfile 相同，但作用于 AdminGate 加载的记录
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
	user := ProfileFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}
	h.applyUpdate(w, r, user)
}

func (h *Handler) applyUpdate(w http.ResponseWriter, r *http.Request, user *model.User) {
	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Password != nil {
		user.Password = *req.Password
	}

	if err := h.store.SaveUser(r.Context(), user); err != nil {
		h.logger.AuthEventLog(EventProfile, OutcomeFailure, user.Email, err)
		h.events.RecordAuthEvent(EventProfile, OutcomeFailure)
		writeError(w, http.StatusBadRequest, "User update failed")
		return
	}

	h.events.RecordAuthEvent(EventProfile, OutcomeSuccess)
	writeJSON(w, http.StatusOK, user.Public())
}
