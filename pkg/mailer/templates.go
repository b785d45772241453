package mailer

var subjects = map[string]string{
	TemplateWelcome:       "Welcome to Motorly!",
	TemplatePasswordReset: "Reset your Motorly password",
	TemplateOTP:           "Your Motorly verification code",
	TemplateContact:       "Motorly: contact form message",
}

// Templates receive string parameters only; the caller supplies whatever
// the template references (Name, ResetURL, OTP, Message, Email).
const emailTemplates = `
{{define "welcome"}}
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h1>Welcome to Motorly, {{.Name}}!</h1>
    <p>Your account is ready. Start adding cars to your collection and keep
    every detail in one place.</p>
    <p>Happy driving,<br>The Motorly team</p>
  </body>
</html>
{{end}}

{{define "password_reset"}}
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h1>Forgot your password, {{.Name}}?</h1>
    <p>Submit a PATCH request with your new password to the link below.
    The link is valid for {{.ValidFor}}.</p>
    <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
    <p>If you didn't request a password reset, you can ignore this email.</p>
  </body>
</html>
{{end}}

{{define "otp"}}
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h1>Hi {{.Name}},</h1>
    <p>Your one-time verification code is:</p>
    <p style="font-size: 28px; letter-spacing: 6px;"><b>{{.OTP}}</b></p>
    <p>The code expires in {{.ValidFor}}. Never share it with anyone.</p>
  </body>
</html>
{{end}}

{{define "contact"}}
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>New contact form message</h2>
    <p><b>From:</b> {{.Name}} ({{.Email}})</p>
    <p>{{.Message}}</p>
  </body>
</html>
{{end}}
`
