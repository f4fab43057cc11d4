package dto

type ReceiptResponse struct {
	ID            string  `json:"id"`
	TransactionID string  `json:"transaction_id"`
	CustomerEmail *string `json:"customer_email,omitempty"`
	Status        string  `json:"status"`
	PDFPath       *string `json:"pdf_path,omitempty"`
	RetryCount    int     `json:"retry_count"`
	LastError     *string `json:"last_error,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
