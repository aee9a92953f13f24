package notifications

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/workoutbrothers/storefront-backend/pkg/enums"
	"github.com/workoutbrothers/storefront-backend/pkg/outbox/payloads"
)

// Message is a rendered plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
	"lineTotal": func(l payloads.OrderLine) string {
		return "$" + l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).StringFixed(2)
	},
	"inc":  func(i int) int { return i + 1 },
	"date": func(v interface{ Format(string) string }) string { return v.Format("2006-01-02") },
}

var (
	orderConfirmationTmpl = template.Must(template.New("order_confirmation").Funcs(templateFuncs).Parse(
		`Hi {{.Username}},

Thanks for your order! We received order {{.OrderID}} on {{date .PlacedAt}}.

{{range .Items}}- {{.ProductName}} x{{.Quantity}} @ {{money .UnitPrice}} = {{lineTotal .}}
{{end}}
Total: {{money .TotalAmount}}
Payment method: {{.PaymentMethod}}
Ships to: {{.ShippingAddress.OneLine}}

WorkoutBrothers
`))

	stockAlertTmpl = template.Must(template.New("stock_alert").Funcs(templateFuncs).Parse(
		`{{len .Products}} product(s) are below the stock threshold of {{.Threshold}}:

{{range .Products}}- [{{.Severity}}] {{.Name}} ({{.Category}}): {{.Stock}} left, reorder {{.ReorderQuantity}}
{{end}}`))

	reportTmpl = template.Must(template.New("report").Funcs(templateFuncs).Parse(
		`Sales summary {{date .PeriodStart}} to {{date .PeriodEnd}}

Revenue: {{money .Revenue}}
Orders: {{.OrderCount}}
New customers: {{.NewUsers}}
Low-stock products: {{.LowStockSeen}}

Top products:
{{range $i, $p := .TopProducts}}{{inc $i}}. {{$p.Name}}: {{$p.UnitsSold}} sold, {{money $p.Revenue}}
{{else}}(no sales)
{{end}}`))
)

// Render turns a notification request into an email.
func Render(event payloads.NotificationRequestedEvent) (Message, error) {
	if err := event.Validate(); err != nil {
		return Message{}, err
	}

	var (
		subject string
		tmpl    *template.Template
		data    any
	)
	switch event.Kind {
	case enums.NotificationOrderConfirmation:
		subject = fmt.Sprintf("Order confirmation #%s", shortID(event.OrderConfirmation.OrderID.String()))
		tmpl, data = orderConfirmationTmpl, event.OrderConfirmation
	case enums.NotificationStockAlert:
		subject = fmt.Sprintf("Low stock alert: %d product(s)", len(event.StockAlert.Products))
		tmpl, data = stockAlertTmpl, event.StockAlert
	case enums.NotificationWeeklyReport:
		subject = "Weekly sales report"
		tmpl, data = reportTmpl, event.Report
	case enums.NotificationMonthlyReport:
		subject = "Monthly sales report"
		tmpl, data = reportTmpl, event.Report
	default:
		return Message{}, fmt.Errorf("no template for %q", event.Kind)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", event.Kind, err)
	}
	return Message{To: event.Recipient, Subject: subject, Body: buf.String()}, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
