package handler

import (
	"html/template"
	"net/http"
)

type verifyPage struct {
	Title   string
	Message string
	OK      bool
}

var (
	verifySucceeded = verifyPage{
		Title:   "Email verified",
		Message: "Your email address has been verified. An administrator will review your account shortly.",
		OK:      true,
	}
	verifyInvalid = verifyPage{
		Title:   "Verification failed",
		Message: "This verification link is invalid or has already been used.",
	}
	verifyFailed = verifyPage{
		Title:   "Verification failed",
		Message: "Something went wrong while verifying your email. Please try again later.",
	}
)

var verifyTemplate = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} | Couch NBS</title>
<style>
body{font-family:Arial,sans-serif;background:#0f0f1a;color:#fff;text-align:center;padding:60px 20px}
h1{color:{{if .OK}}#7c3aed{{else}}#ef4444{{end}}}
a{color:#a78bfa}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
<p><a href="/">Back to Couch NBS</a></p>
</body>
</html>
`))

func renderVerifyPage(w http.ResponseWriter, status int, page verifyPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = verifyTemplate.Execute(w, page)
}
