package usecase

// Published to the order.events exchange on lifecycle changes.
type OrderEventMsg struct {
	Type       string `json:"type"` // order.created | order.confirmed | order.paid | order.cancelled
	OrderID    string `json:"orderId"`
	HumanCode  string `json:"humanCode"`
	OwnerKey   string `json:"ownerKey"`
	TotalCents int64  `json:"totalCents"`
	Status     string `json:"status"`
}

// Sent by the fulfillment system on Kafka as the order moves through
// shipping.
type FulfillmentStatusMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // SHIPPING | DELIVERED | COMPLETED
}
