// Package docs registers the OpenAPI document for the sommelier API with swag
// so gin-swagger can serve it. Keep it in step with the handler annotations.
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
        "/flows": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "List active conversation flows",
                "operationId": "listFlows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListFlowsResponse"}}
                }
            }
        },
        "/messages/{id}/feedback": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Feedback"],
                "summary": "Rate a sommelier reply",
                "operationId": "leaveFeedback",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Message ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"description": "Feedback payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LeaveFeedbackRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "Invalid payload", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "403": {"description": "Not allowed to rate this message", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Message not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Feedback already exists", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Catalog"],
                "summary": "List in-stock products",
                "operationId": "listProducts",
                "parameters": [
                    {"type": "string", "description": "Case-insensitive category filter", "name": "category", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListProductsResponse"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "description": "Returns a page of the user's sessions, newest first. Supports a weak ETag via If-None-Match.",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List sessions (paginated)",
                "operationId": "listSessions",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListSessionsResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Create a chat session",
                "operationId": "createSession",
                "parameters": [
                    {"type": "string", "example": "user123", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"description": "Create session payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "description": "Returns the session with its current flow state, gift mode and persona.",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get a session",
                "operationId": "getSession",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/messages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "List the transcript of a session",
                "operationId": "listMessages",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListMessagesResponse"}},
                    "304": {"description": "Not Modified", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "description": "Runs one conversation turn: flow steps, knowledge answers and product suggestions.\nSupports idempotent retries via the Idempotency-Key header.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Messages"],
                "summary": "Send a message to the sommelier",
                "operationId": "postMessage",
                "parameters": [
                    {"type": "string", "description": "User ID that owns the session", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"description": "User message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PostMessageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PostMessageResponse"}, "headers": {"Idempotency-Replayed": {"type": "string", "description": "true when a stored reply was returned"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/reset": {
            "post": {
                "description": "Leaves any active flow and clears gift mode and persona. The transcript is kept.",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Reset the conversation",
                "operationId": "resetSession",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID (UUID)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/title": {
            "put": {
                "consumes": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Rename a session",
                "operationId": "updateSessionTitle",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-ID", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Session ID (UUID)", "name": "id", "in": "path", "required": true},
                    {"description": "New title", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateSessionTitleRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "session_id": {"type": "string"},
                "role": {"type": "string"},
                "content": {"type": "string"},
                "route": {"type": "string"},
                "recommendations": {"type": "array", "items": {"type": "string"}},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Session": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "title": {"type": "string"},
                "lang": {"type": "string"},
                "state": {"$ref": "#/definitions/sommelier.State"},
                "gift_mode": {"type": "boolean"},
                "persona": {"type": "string"},
                "turns": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "handlers.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "title": {"description": "Title is optional; \"New chat\" is used when empty.", "type": "string", "example": "Anneme hediye"},
                "lang": {"description": "Lang is the session display language (tr or en); defaults to tr.", "type": "string", "example": "tr"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"description": "Echo of X-Request-ID", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"description": "Stable code from errors.go", "type": "string", "example": "not_found"},
                "message": {"description": "Safe to show to users", "type": "string", "example": "session not found"}
            }
        },
        "handlers.FlowSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "gift"},
                "name": {"type": "string", "example": "Hediye rehberi"},
                "trigger": {"type": "string", "example": "hediye, gift"},
                "persona_type": {"type": "string", "example": "gifter"},
                "steps": {"type": "integer", "example": 4}
            }
        },
        "handlers.LeaveFeedbackRequest": {
            "type": "object",
            "required": ["value"],
            "properties": {
                "value": {"type": "integer", "enum": [-1, 1], "example": 1}
            }
        },
        "handlers.ListFlowsResponse": {
            "type": "object",
            "properties": {
                "flows": {"type": "array", "items": {"$ref": "#/definitions/handlers.FlowSummary"}}
            }
        },
        "handlers.ListMessagesResponse": {
            "type": "object",
            "properties": {
                "messages": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.ListProductsResponse": {
            "type": "object",
            "properties": {
                "products": {"type": "array", "items": {"$ref": "#/definitions/sommelier.Product"}}
            }
        },
        "handlers.ListSessionsResponse": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/domain.Session"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.PostMessageRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {
                "content": {"type": "string", "minLength": 1, "example": "Anneme hediye arıyorum"},
                "lang": {"description": "Lang overrides the session language for this turn (tr or en).", "type": "string", "example": "tr"}
            }
        },
        "handlers.PostMessageResponse": {
            "type": "object",
            "properties": {
                "message": {"$ref": "#/definitions/domain.Message"},
                "gift_mode": {"type": "boolean"},
                "persona": {"type": "string", "example": "family"},
                "route": {"type": "string", "example": "flow_start"},
                "flow_id": {"type": "string", "example": "gift"},
                "completed": {"type": "boolean"}
            }
        },
        "handlers.UpdateSessionTitleRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string", "maxLength": 255, "minLength": 1, "example": "Bitter seçkisi"}
            }
        },
        "sommelier.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "price": {"type": "number"},
                "category": {"type": "string"},
                "inStock": {"type": "boolean"}
            }
        },
        "sommelier.State": {
            "type": "object",
            "properties": {
                "flowId": {"type": "string"},
                "stepId": {"type": "string"},
                "personaType": {"type": "string"},
                "giftModeActive": {"type": "boolean"},
                "steps": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Choco Sommelier API",
	Description:      "Conversation-flow sommelier for a chocolate retailer: guided flows, knowledge answers and product suggestions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
