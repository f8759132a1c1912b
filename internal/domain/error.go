package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Error   string `json:"error" example:"Product not found"`
	Message string `json:"message,omitempty" example:"Provide a Bearer token in the Authorization header"`
}

// MessageResponse é o corpo das respostas de sucesso sem entidade.
type MessageResponse struct {
	Message   string `json:"message" example:"Product updated"`
	ProductID int64  `json:"product_id,omitempty" example:"1"`
}

// ProductResponse é o corpo de sucesso do PATCH.
type ProductResponse struct {
	Message string  `json:"message" example:"Product updated"`
	Product Product `json:"product"`
}

// FarmProductsResponse é o corpo de GET /products/me.
type FarmProductsResponse struct {
	Message  string    `json:"message" example:"Products retrieved successfully"`
	Count    int       `json:"count" example:"1"`
	Products []Product `json:"products"`
}
