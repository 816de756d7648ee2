package notify

import (
	"bytes"
	"html/template"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #0066CC; color: white; padding: 20px; text-align: center; }
.content { background: #f9f9f9; padding: 30px; }
.code { font-size: 32px; font-weight: bold; text-align: center; margin: 20px 0; padding: 15px; background: white; border: 2px solid #0066CC; border-radius: 8px; }
.details { background: white; padding: 20px; margin: 20px 0; border-radius: 8px; }
.footer { background: #333; color: white; padding: 20px; text-align: center; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>{{.Bank}}</h1><h2>{{.Title}}</h2></div>
<div class="content">
<h2>Hello {{.Name}},</h2>
{{template "body" .}}
<p>If you have any questions, please contact us at {{.Phone}}.</p>
</div>
<div class="footer"><p>This is an automated message. Please do not reply to this email.</p></div>
</div>
</body>
</html>{{end}}`

var (
	otpTemplate = mustTemplate(`{{define "body"}}
<p>You have requested {{.Purpose}} verification. Please use the following 6-digit code to complete your request:</p>
<div class="code">{{.Code}}</div>
<p><strong>This code will expire in {{.Validity}}.</strong></p>
<p>If you did not request this verification, contact us immediately. Never share this code with anyone.</p>
{{end}}`)

	billPaymentTemplate = mustTemplate(`{{define "body"}}
<p>Your bill payment has been successfully processed.</p>
<div class="details">
<p><strong>Payee:</strong> {{.Payee}}</p>
<p><strong>Amount:</strong> ${{.Amount}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Confirmation Number:</strong> {{.Reference}}</p>
</div>
{{end}}`)

	chequeOrderTemplate = mustTemplate(`{{define "body"}}
<p>Your cheque order has been placed and is being processed.</p>
<div class="details">
<p><strong>Order Number:</strong> {{.OrderNumber}}</p>
<p><strong>Quantity:</strong> {{.Quantity}} cheques</p>
<p><strong>Delivery Method:</strong> {{.DeliveryMethod}}</p>
<p><strong>Order Date:</strong> {{.Date}}</p>
</div>
<p>You will receive another email when your cheques have been shipped.</p>
{{end}}`)

	externalAccountTemplate = mustTemplate(`{{define "body"}}
<p>We have initiated the verification process for your external account at {{.Institution}}.</p>
<div class="details">
<p>We will make two small deposits to your external account within 1-2 business days:</p>
<p><strong>Deposit 1:</strong> ${{.Deposit1}}</p>
<p><strong>Deposit 2:</strong> ${{.Deposit2}}</p>
</div>
<p>Once you see these deposits, log in to online banking and confirm the amounts to complete the link.</p>
{{end}}`)
)

func mustTemplate(body string) *template.Template {
	t := template.Must(template.New("layout").Parse(layout))
	return template.Must(t.Parse(body))
}

// page is the data shared by every message layout.
type page struct {
	Bank  string
	Phone string
	Title string
	Name  string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
