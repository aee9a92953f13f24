// Package agent holds the storefront assistant: keyword routing for customer
// questions, inventory grading and rule-based price suggestions. Everything
// here is a pure lookup over its inputs.
package agent

import "strings"

// QueryType is the category a customer question is routed to.
type QueryType string

const (
	QueryProductInfo    QueryType = "product_info"
	QueryOrderStatus    QueryType = "order_status"
	QueryReturnRefund   QueryType = "return_refund"
	QueryRecommendation QueryType = "recommendation"
	QueryGeneral        QueryType = "general"
)

// Response is the canned answer for a query.
type Response struct {
	Type     QueryType `json:"type"`
	Response string    `json:"response"`
	Actions  []string  `json:"actions"`
}

type route struct {
	kind     QueryType
	keywords []string
}

// Checked in order; the first matching route wins.
var routes = []route{
	{QueryProductInfo, []string{"product", "produit", "price", "prix", "stock"}},
	{QueryOrderStatus, []string{"order", "commande", "delivery", "livraison", "tracking", "suivi", "shipping"}},
	{QueryReturnRefund, []string{"return", "retour", "refund", "rembours", "exchange", "échang"}},
	{QueryRecommendation, []string{"recommend", "recommand", "advice", "conseil", "suggest", "suggér"}},
}

var answers = map[QueryType]Response{
	QueryProductInfo: {
		Response: "I can help with our products. All of our gear is military and tactical grade. What are you looking for?",
		Actions:  []string{"show_products", "filter_category"},
	},
	QueryOrderStatus: {
		Response: "Let me look up the status of your order. One moment please.",
		Actions:  []string{"fetch_order_status"},
	},
	QueryReturnRefund: {
		Response: "Returns are accepted within 30 days. Could you give me your order number?",
		Actions:  []string{"initiate_return_process"},
	},
	QueryRecommendation: {
		Response: "I can recommend products that fit your goals. What is your training level?",
		Actions:  []string{"show_recommendations"},
	},
	QueryGeneral: {
		Response: "WorkoutBrothers - physical and mental preparation. How can I help you today?",
		Actions:  []string{"show_menu"},
	},
}

// Classify routes a free-text question to a query type.
func Classify(query string) QueryType {
	q := strings.ToLower(query)
	for _, r := range routes {
		for _, kw := range r.keywords {
			if strings.Contains(q, kw) {
				return r.kind
			}
		}
	}
	return QueryGeneral
}

// Respond returns the canned answer for query.
func Respond(query string) Response {
	kind := Classify(query)
	answer := answers[kind]
	return Response{
		Type:     kind,
		Response: answer.Response,
		Actions:  append([]string(nil), answer.Actions...),
	}
}
