// Package docs registers the OpenAPI description served at /swagger.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/locations/{locationId}/availability": {
            "get": {
                "tags": ["availability"],
                "summary": "Bookable slots per shift for a date and party size",
                "parameters": [
                    {"type": "string", "name": "locationId", "in": "path", "required": true},
                    {"type": "string", "name": "date", "in": "query", "required": true, "description": "YYYY-MM-DD"},
                    {"type": "integer", "name": "party_size", "in": "query", "required": true},
                    {"type": "string", "name": "ticket_id", "in": "query"},
                    {"type": "string", "name": "channel", "in": "query", "enum": ["widget", "operator"]}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Invalid request"}}
            }
        },
        "/locations/{locationId}/availability/diagnose": {
            "get": {
                "tags": ["availability"],
                "summary": "Explain why one slot is open, limited, squeeze or closed",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"type": "string", "name": "locationId", "in": "path", "required": true},
                    {"type": "string", "name": "date", "in": "query", "required": true},
                    {"type": "string", "name": "time", "in": "query", "required": true, "description": "HH:MM"},
                    {"type": "integer", "name": "party_size", "in": "query", "required": true},
                    {"type": "string", "name": "ticket_id", "in": "query"},
                    {"type": "string", "name": "channel", "in": "query", "enum": ["widget", "operator"]}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/assignments": {
            "post": {
                "tags": ["assignment"],
                "summary": "Resolve a table for a party, committing when reservation_id is set",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Slot unavailable"}}
            }
        },
        "/reservations": {
            "post": {
                "tags": ["reservations"],
                "summary": "Create a reservation, optionally as a pending option",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Slot unavailable"}}
            }
        },
        "/reservations/{id}": {
            "get": {
                "tags": ["reservations"],
                "summary": "Get a reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/reservations/{id}/audit": {
            "get": {
                "tags": ["reservations"],
                "summary": "Audit trail of a reservation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reservations/{id}/status": {
            "post": {
                "tags": ["reservations"],
                "summary": "Move a reservation to a new status",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Invalid transition"}}
            }
        },
        "/reservations/{id}/option/extend": {
            "post": {
                "tags": ["reservations"],
                "summary": "Extend the expiry of a pending option",
                "security": [{"BearerAuth": []}],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "Not an option"}}
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
	Title:            "Tablebook API",
	Description:      "Availability and table assignment engine for restaurant reservations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
