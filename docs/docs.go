// Package docs registra o documento OpenAPI servido em /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Lista todos os produtos",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "farm_id vem do token; harvest_date é opcional (ISO-8601) e assume o horário atual.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Cria um produto para a fazenda autenticada",
                "parameters": [
                    {"description": "Dados do produto", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.ProductRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.MessageResponse"}},
                    "400": {"description": "Payload inválido ou campos ausentes", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Lista os produtos da fazenda autenticada",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.FarmProductsResponse"}},
                    "400": {"description": "Farm ID ausente no token", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/api/v1/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Busca um produto por ID",
                "parameters": [{"type": "integer", "description": "ID do produto", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Campos omitidos mantêm o valor atual.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Atualiza um produto da fazenda autenticada",
                "parameters": [
                    {"type": "integer", "description": "ID do produto", "name": "id", "in": "path", "required": true},
                    {"description": "Campos a substituir", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.ProductRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Aceita apenas name, type, quantity, price_per_unit, description e harvest_date.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Atualiza parcialmente um produto",
                "parameters": [
                    {"type": "integer", "description": "ID do produto", "name": "id", "in": "path", "required": true},
                    {"description": "Campos a alterar", "name": "fields", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ProductResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Remove um produto da fazenda autenticada",
                "parameters": [{"type": "integer", "description": "ID do produto", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.MessageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ErrorResponse": {
            "description": "Estrutura padronizada para respostas de erro na API.",
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Product not found"},
                "message": {"type": "string", "example": "Provide a Bearer token in the Authorization header"}
            }
        },
        "domain.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Product updated"},
                "product_id": {"type": "integer", "example": 1}
            }
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer"},
                "name": {"type": "string"},
                "farm_id": {"type": "string"},
                "type": {"type": "string"},
                "quantity": {"type": "integer"},
                "price_per_unit": {"type": "number"},
                "description": {"type": "string"},
                "harvest_date": {"type": "string"},
                "created_at": {"type": "string"},
                "total_value": {"type": "number"}
            }
        },
        "domain.ProductResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Product updated"},
                "product": {"$ref": "#/definitions/domain.Product"}
            }
        },
        "domain.FarmProductsResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Products retrieved successfully"},
                "count": {"type": "integer", "example": 1},
                "products": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}
            }
        },
        "product.ProductRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Orange"},
                "type": {"type": "string", "example": "fruit"},
                "quantity": {"type": "integer", "example": 5},
                "price_per_unit": {"type": "number", "example": 3.0},
                "description": {"type": "string", "example": "Sweet"},
                "harvest_date": {"type": "string", "example": "2024-05-01T08:00:00Z"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Token JWT no formato Bearer. Exemplo: 'Bearer eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9...'",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "AgroMarket Products API",
	Description:      "Catálogo de produtos agrícolas por fazenda.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
