package pubcontent

import (
	"crypto/subtle"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/eringen/pubcontent/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.Site.ViewConfig(), false, CsrfToken(c)))
	}
	return a.renderLintReport(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.logger.Warn("failed author login", zap.String("ip", ip))
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.Site.ViewConfig(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminReload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	msg := "Content reloaded."
	if err := a.Reload(c.Request().Context()); err != nil {
		a.logger.Error("reload failed", zap.Error(err))
		msg = "Reload failed: " + err.Error()
	}
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

func (a *App) renderLintReport(c echo.Context, msg string) error {
	report := a.Report()
	rows := make([]views.LintRow, 0, len(report.Issues))
	for _, i := range report.Issues {
		rows = append(rows, views.LintRow{
			Path:     i.Path,
			Line:     i.Line,
			Field:    i.Field,
			Message:  i.Message,
			Severity: string(i.Severity),
		})
	}
	return Render(c, views.LintReport(a.Site.ViewConfig(), report.Documents, rows, msg, CsrfToken(c)))
}
