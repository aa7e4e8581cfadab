package dto

// SignupRequest is the request body for email/password signup.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     string `json:"role" binding:"required,oneof=producer intermediary consumer"`
}

// LoginRequest is the request body for email/password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// NonceRequest is the request body for issuing a wallet login challenge.
type NonceRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,eth_addr"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Role          string `json:"role" binding:"required,oneof=producer intermediary consumer"`
}

// VerifyRequest is the request body for verifying a signed challenge.
type VerifyRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required,eth_addr"`
	Signature     string `json:"signature" binding:"required,max=200"`
}

// ChallengeResponse is the response body for an issued challenge.
type ChallengeResponse struct {
	WalletAddress string `json:"wallet_address"`
	Nonce         string `json:"nonce"`
	Message       string `json:"message"`    // Exact text the wallet must sign
	ExpiresAt     int64  `json:"expires_at"` // Unix timestamp
}

// IdentityResponse is the public view of an identity.
type IdentityResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// AuthResponse is the response body for successful authentication.
type AuthResponse struct {
	Token    string           `json:"token"`
	Expiry   int64            `json:"expiry"` // Unix timestamp
	Identity IdentityResponse `json:"identity"`
}

// RegisterBatchRequest is the request body for batch registration.
type RegisterBatchRequest struct {
	CropType    string  `json:"crop_type" binding:"required,min=1,max=100"`
	Quantity    int64   `json:"quantity" binding:"required,gt=0"`
	HarvestDate string  `json:"harvest_date" binding:"required"` // YYYY-MM-DD
	Location    string  `json:"location" binding:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" binding:"omitempty,max=2000"`
	ImageRef    *string `json:"image_ref,omitempty" binding:"omitempty,safe_url"`
	FarmerName  string  `json:"farmer_name" binding:"required,min=1,max=100"`
	FarmerPhone string  `json:"farmer_phone" binding:"required,min=5,max=30"`
}

// BatchResponse is the public view of a batch. The farmer's phone number is
// stored encrypted and never exposed.
type BatchResponse struct {
	ID          string  `json:"id"`
	ProducerID  string  `json:"producer_id"`
	CropType    string  `json:"crop_type"`
	Quantity    int64   `json:"quantity"`
	HarvestDate string  `json:"harvest_date"`
	Location    string  `json:"location"`
	Description *string `json:"description,omitempty"`
	ImageRef    *string `json:"image_ref,omitempty"`
	FarmerName  string  `json:"farmer_name"`
	Status      string  `json:"status"`
	CustodianID *string `json:"custodian_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// BatchEventResponse is one entry of a batch's status history.
type BatchEventResponse struct {
	ID         string  `json:"id"`
	BatchID    string  `json:"batch_id"`
	FromStatus string  `json:"from_status"`
	ToStatus   string  `json:"to_status"`
	Action     string  `json:"action"`
	ActorID    *string `json:"actor_id,omitempty"`
	ActorRole  string  `json:"actor_role"`
	CreatedAt  string  `json:"created_at"`
}

// ReviewRequest is the request body for submitting a review.
type ReviewRequest struct {
	BatchID string `json:"batch_id" binding:"required,uuid"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"omitempty,max=200"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// ReviewResponse is the public view of a review.
type ReviewResponse struct {
	ID         string `json:"id"`
	BatchID    string `json:"batch_id"`
	ConsumerID string `json:"consumer_id"`
	Rating     int    `json:"rating"`
	Title      string `json:"title"`
	Comment    string `json:"comment"`
	CreatedAt  string `json:"created_at"`
}

// PaymentResponse is the public view of a payment record.
type PaymentResponse struct {
	ID        string `json:"id"`
	BatchID   string `json:"batch_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	PayerRole string `json:"payer_role"`
	PayeeRole string `json:"payee_role"`
	CreatedAt string `json:"created_at"`
}

// ShipmentResponse is the public view of a shipment record.
type ShipmentResponse struct {
	ID         string `json:"id"`
	BatchID    string `json:"batch_id"`
	ConsumerID string `json:"consumer_id"`
	CreatedAt  string `json:"created_at"`
}
