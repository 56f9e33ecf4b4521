package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

const (
	SubjectVerification  = "Verification Code"
	SubjectPasswordReset = "Password Reset Request"
)

var (
	verificationText = texttemplate.Must(texttemplate.New("verification.txt").Parse(
		"Your verification code: {{.Code}}\n"))

	verificationHTML = htmltemplate.Must(htmltemplate.New("verification.html").Parse(`<html>
<body>
    <h1>Confirm your registration</h1>
    <p>Your verification code: <strong>{{.Code}}</strong></p>
</body>
</html>
`))

	resetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(
		"To reset your password, follow this link: {{.Link}}\n"))

	resetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<html>
<body>
    <h1>Password reset</h1>
    <p>To reset your password, follow the link below:</p>
    <p><a href="{{.Link}}">{{.Link}}</a></p>
    <p>If you did not ask for a reset you can ignore this email.</p>
</body>
</html>
`))
)

// VerificationMessage renders the email carrying a verification code.
func VerificationMessage(to, code string) (Message, error) {
	data := struct{ Code string }{code}
	return render(to, SubjectVerification, data, verificationText, verificationHTML)
}

// PasswordResetMessage renders the email carrying a reset link.
func PasswordResetMessage(to, link string) (Message, error) {
	data := struct{ Link string }{link}
	return render(to, SubjectPasswordReset, data, resetText, resetHTML)
}

func render(to, subject string, data any, text *texttemplate.Template, html *htmltemplate.Template) (Message, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", text.Name(), err)
	}
	if err := html.Execute(&hb, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", html.Name(), err)
	}
	return Message{To: to, Subject: subject, Text: tb.String(), HTML: hb.String()}, nil
}
