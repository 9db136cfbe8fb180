package dto

// Form describes an input form for clients that render their own UI.
type Form struct {
	Action string  `json:"action"`
	Method string  `json:"method"`
	Fields []Field `json:"fields"`
}

type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

var (
	RegisterForm = Form{Action: "/register", Method: "POST", Fields: []Field{
		{Name: "username", Type: "text", Required: true},
		{Name: "password", Type: "password", Required: true},
		{Name: "confirmation", Type: "password", Required: true},
	}}
	LoginForm = Form{Action: "/login", Method: "POST", Fields: []Field{
		{Name: "username", Type: "text", Required: true},
		{Name: "password", Type: "password", Required: true},
	}}
	QuoteForm = Form{Action: "/quote", Method: "POST", Fields: []Field{
		{Name: "symbol", Type: "text", Required: true},
	}}
	BuyForm = Form{Action: "/buy", Method: "POST", Fields: []Field{
		{Name: "symbol", Type: "text", Required: true},
		{Name: "shares", Type: "number", Required: true},
	}}
	SellForm = Form{Action: "/sell", Method: "POST", Fields: []Field{
		{Name: "symbol", Type: "text", Required: true},
		{Name: "shares", Type: "number", Required: true},
	}}
	AddFundsForm = Form{Action: "/addfunds", Method: "POST", Fields: []Field{
		{Name: "amount", Type: "number", Required: true},
	}}
)

// SellFormFor is the sell form with the symbols the user can sell.
type SellFormFor struct {
	Form
	Symbols []string `json:"symbols"`
}
