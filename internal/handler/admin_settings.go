package handler // handler package contains admin runtime settings handlers

import (
    "net/http" // http defines status codes
    "strings"  // strings trims submitted values

    "github.com/labstack/echo/v4" // echo provides the web context and JSON helpers

    "github.com/jkamau/filamu/internal/model" // model defines the settings entity
)

// settingsResp is the read shape of the settings row.  Secrets are masked:
// the panel only needs to know whether a value is set.
type settingsResp struct {
    BotTokenSet         bool   `json:"bot_token_set"`
    WelcomeMessage      string `json:"welcome_message"`
    MpesaConsumerKeySet bool   `json:"mpesa_consumer_key_set"`
    MpesaSecretSet      bool   `json:"mpesa_consumer_secret_set"`
    MpesaPassKeySet     bool   `json:"mpesa_passkey_set"`
    MpesaShortCode      string `json:"mpesa_shortcode"`
    MpesaCallbackURL    string `json:"mpesa_callback_url"`
}

// GetSettings handles GET /v1/admin/settings.
func (h *AdminHandler) GetSettings(c echo.Context) error {
    s, err := h.SettingsRepo.Get(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load settings"})
    }
    return c.JSON(http.StatusOK, settingsResp{
        BotTokenSet:         s.BotToken != "",
        WelcomeMessage:      s.WelcomeMessage,
        MpesaConsumerKeySet: s.MpesaConsumerKey != "",
        MpesaSecretSet:      s.MpesaConsumerSecret != "",
        MpesaPassKeySet:     s.MpesaPassKey != "",
        MpesaShortCode:      s.MpesaShortCode,
        MpesaCallbackURL:    s.MpesaCallbackURL,
    })
}

// UpdateSettings handles PATCH /v1/admin/settings.  Empty fields are left
// untouched; changed values take effect on the next service restart.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
    var body struct {
        BotToken            string `json:"bot_token"`
        WelcomeMessage      string `json:"welcome_message"`
        MpesaConsumerKey    string `json:"mpesa_consumer_key"`
        MpesaConsumerSecret string `json:"mpesa_consumer_secret"`
        MpesaPassKey        string `json:"mpesa_passkey"`
        MpesaShortCode      string `json:"mpesa_shortcode"`
        MpesaCallbackURL    string `json:"mpesa_callback_url"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    s := model.Settings{
        BotToken:            strings.TrimSpace(body.BotToken),
        WelcomeMessage:      strings.TrimSpace(body.WelcomeMessage),
        MpesaConsumerKey:    strings.TrimSpace(body.MpesaConsumerKey),
        MpesaConsumerSecret: strings.TrimSpace(body.MpesaConsumerSecret),
        MpesaPassKey:        strings.TrimSpace(body.MpesaPassKey),
        MpesaShortCode:      strings.TrimSpace(body.MpesaShortCode),
        MpesaCallbackURL:    strings.TrimSpace(body.MpesaCallbackURL),
    }
    if err := h.SettingsRepo.Update(c.Request().Context(), s); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": true})
}
