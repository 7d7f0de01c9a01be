package app

import "html/template"

var loginTmpl = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Log In</title></head>
<body>
<form method="post" action="/login">
<p><label for="user_login">Username</label>
<input type="text" name="log" id="user_login" autocomplete="username"></p>
<p><label for="user_pass">Password</label>
<input type="password" name="pwd" id="user_pass" autocomplete="current-password"></p>
<p><label><input name="rememberme" type="checkbox" id="rememberme" value="forever"> Remember Me</label></p>
<p><input type="submit" value="Log In"></p>
</form>
</body>
</html>
`))

type pageField struct {
	ID    string
	Title string
	HTML  template.HTML
}

type settingsPage struct {
	Title   string
	Action  string
	Updated bool
	User    string
	Fields  []pageField
}

var settingsTmpl = template.Must(template.New("settings").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{with .User}}<p>Logged in as {{.}}</p>
{{end}}{{if .Updated}}<div id="setting-error-settings_updated"><p>Settings saved.</p></div>
{{end}}<form method="post" action="{{.Action}}">
<table>
{{range .Fields}}<tr>
<th scope="row"><label for="{{.ID}}">{{.Title}}</label></th>
<td>{{.HTML}}</td>
</tr>
{{end}}</table>
<p><input type="submit" value="Save Changes"></p>
</form>
<form method="post" action="/logout"><input type="submit" value="Log Out"></form>
</body>
</html>
`))
