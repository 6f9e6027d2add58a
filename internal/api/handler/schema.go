package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type signupRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"required,role"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"omitempty,role"`
}

type coordinatesRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

type orderItemRequest struct {
	Name     string  `json:"name"     validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Price    float64 `json:"price"    validate:"gte=0"`
}

type createOrderRequest struct {
	VendorName       string             `json:"vendor_name"       validate:"required"`
	CustomerID       string             `json:"customer_id"       validate:"required"`
	CustomerName     string             `json:"customer_name"     validate:"required"`
	CustomerPhone    string             `json:"customer_phone"    validate:"required"`
	Items            []orderItemRequest `json:"items"             validate:"required,min=1,dive"`
	PickupAddress    string             `json:"pickup_address"    validate:"required"`
	DeliveryAddress  string             `json:"delivery_address"  validate:"required"`
	PickupLocation   coordinatesRequest `json:"pickup_location"`
	DeliveryLocation coordinatesRequest `json:"delivery_location"`
}

type assignPartnerRequest struct {
	DeliveryPartnerID string `json:"delivery_partner_id" validate:"required"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,order_status"`
}
