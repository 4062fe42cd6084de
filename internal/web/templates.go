// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

var pageTemplates = template.Must(template.New("pages").Parse(`
{{define "login"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Login</title></head>
<body>
{{if .Flash}}<p><i>{{.Flash}}</i></p>{{end}}
<form action="/login" method="post">
  <label>Username <input type="text" name="username" placeholder="Enter Username"></label>
  <label>Password <input type="password" name="password" placeholder="Enter Password"></label>
  <button type="submit">Login</button>
</form>
</body>
</html>{{end}}

{{define "dashboard"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin dashboard</title></head>
<body>
<p>Welcome {{.Username}}!</p>
<p>Available actions:</p>
<ol>
  <li><a href="/admin/password">Change password</a></li>
  <li>
    <form name="logoutForm" action="/admin/logout" method="post">
      <input type="submit" value="Logout">
    </form>
  </li>
</ol>
</body>
</html>{{end}}

{{define "password"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Change password</title></head>
<body>
{{if .Flash}}<p><i>{{.Flash}}</i></p>{{end}}
<form action="/admin/password" method="post">
  <label>Current password
    <input type="password" name="current_password" placeholder="Enter current password">
  </label>
  <label>New password
    <input type="password" name="new_password" placeholder="Enter new password">
  </label>
  <label>Confirm new password
    <input type="password" name="new_password_check" placeholder="Type the new password again">
  </label>
  <button type="submit">Change password</button>
</form>
<p><a href="/admin/dashboard">&lt;- Back</a></p>
</body>
</html>{{end}}
`))

type pageData struct {
	Flash    string
	Username string
}

func renderPage(c echo.Context, name string, data pageData) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(http.StatusOK)
	return pageTemplates.ExecuteTemplate(c.Response(), name, data)
}
