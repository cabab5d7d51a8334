// Settings HTTP handlers.
//
//   - GET /settings  (notifier settings)
//   - PUT /settings  (save; rebuilds the notifier set)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-form-engine/internal/services"
)

// SettingsResponse holds every notifier setting; unset keys read "".
type SettingsResponse struct {
	Settings map[string]string `json:"settings"`
}

// GetSettings godoc
// @ID          getSettings
// @Summary     Read notifier settings
// @Tags        Settings
// @Produce     json
// @Success     200  {object}  handlers.SettingsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /settings [get]
func (h *Handlers) GetSettings(c *gin.Context) {
	all, err := h.settings.All(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, msgInternal, err)
		return
	}
	ok(c, http.StatusOK, SettingsResponse{Settings: all})
}

// UpdateSettings godoc
// @ID          updateSettings
// @Summary     Save notifier settings
// @Description Accepts notify_email, slack_webhook_url and custom_webhook_url.
// @Description An empty value disables the channel. Changes apply to the next submission.
// @Tags        Settings
// @Accept      json
// @Produce     json
// @Param       body  body      map[string]string  true  "Settings to change"
// @Success     200   {object}  handlers.SettingsResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Unknown key or invalid value"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /settings [put]
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var in map[string]string
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body must be an object of string values")
		return
	}
	all, err := h.settings.Update(c.Request.Context(), in)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSetting) {
			// The service message names the key and rule, never a stored value.
			msg := strings.TrimPrefix(err.Error(), services.ErrInvalidSetting.Error()+": ")
			fail(c, http.StatusBadRequest, ErrCodeInvalidSetting, msg)
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, msgInternal, err)
		return
	}
	ok(c, http.StatusOK, SettingsResponse{Settings: all})
}
