package razorpay

// Order is the subset of Razorpay's order entity this service consumes.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Customer is the subset of Razorpay's customer entity this service consumes.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Payment is the subset of Razorpay's payment entity this service consumes.
type Payment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Method   string `json:"method"`
	Email    string `json:"email"`
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt64(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func orderFromMap(m map[string]interface{}) *Order {
	return &Order{
		ID:       getString(m, "id"),
		Amount:   getInt64(m, "amount"),
		Currency: getString(m, "currency"),
		Receipt:  getString(m, "receipt"),
		Status:   getString(m, "status"),
	}
}

func customerFromMap(m map[string]interface{}) *Customer {
	return &Customer{
		ID:    getString(m, "id"),
		Name:  getString(m, "name"),
		Email: getString(m, "email"),
	}
}

func paymentFromMap(m map[string]interface{}) *Payment {
	return &Payment{
		ID:       getString(m, "id"),
		OrderID:  getString(m, "order_id"),
		Amount:   getInt64(m, "amount"),
		Currency: getString(m, "currency"),
		Status:   getString(m, "status"),
		Method:   getString(m, "method"),
		Email:    getString(m, "email"),
	}
}
