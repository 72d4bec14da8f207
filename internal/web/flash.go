package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

const flashCookie = "flash"

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// SetFlash stores a message for the next request.
func SetFlash(c echo.Context, kind, msg string) {
	b, err := json.Marshal(Flash{Kind: kind, Message: msg})
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending message, if any, and clears it.
func PopFlash(c echo.Context) Flash {
	ck, err := c.Cookie(flashCookie)
	if err != nil || ck.Value == "" {
		return Flash{}
	}
	c.SetCookie(&http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	b, err := base64.RawURLEncoding.DecodeString(ck.Value)
	if err != nil {
		return Flash{}
	}
	var f Flash
	if json.Unmarshal(b, &f) != nil {
		return Flash{}
	}
	return f
}
