// Package docs registers the OpenAPI document of the bracket API with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/tournaments/{tournamentID}/categories/{categoryID}/draw:generate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Lays out the full bracket from the category registrations. An empty body uses defaults.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Generate a single elimination draw for a category",
                "parameters": [
                    {"type": "integer", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "description": "Category ID", "name": "categoryID", "in": "path", "required": true},
                    {"description": "Seeds and overwrite flag", "name": "input", "in": "body", "schema": {"$ref": "#/definitions/services.DrawGenerateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.BracketSummary"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorBody"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handlers.errorBody"}}
                }
            }
        },
        "/categories/{categoryID}/bracket": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Get the bracket of a category",
                "parameters": [
                    {"type": "integer", "description": "Category ID", "name": "categoryID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.BracketSummary"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorBody"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Removes every match of the category unless one of them has progressed.",
                "tags": ["brackets"],
                "summary": "Delete a draft bracket",
                "parameters": [
                    {"type": "integer", "description": "Category ID", "name": "categoryID", "in": "path", "required": true},
                    {"type": "boolean", "description": "Must be true (default)", "name": "draft", "in": "query"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorBody"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorBody"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorBody"}}
                }
            }
        },
        "/categories/{categoryID}/bracket/export": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["brackets"],
                "summary": "Export the bracket snapshot to object storage",
                "parameters": [
                    {"type": "integer", "description": "Category ID", "name": "categoryID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.BracketExport"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.errorBody"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.errorBody": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "brackets.SeedAssignment": {
            "type": "object",
            "properties": {
                "registration_id": {"type": "integer"},
                "seed_number": {"type": "integer"}
            }
        },
        "services.DrawGenerateRequest": {
            "type": "object",
            "properties": {
                "seeds": {"type": "array", "items": {"$ref": "#/definitions/brackets.SeedAssignment"}},
                "overwrite_if_draft": {"type": "boolean"}
            }
        },
        "services.MatchView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "round": {"type": "integer"},
                "position": {"type": "integer"},
                "participant1_registration_id": {"type": "integer"},
                "participant2_registration_id": {"type": "integer"},
                "bye": {"type": "boolean"},
                "next_match_id": {"type": "integer"},
                "winner_advances_as": {"type": "integer", "enum": [1, 2]},
                "status": {"type": "string", "enum": ["SCHEDULED", "IN_PROGRESS", "COMPLETED", "CANCELLED"]}
            }
        },
        "services.BracketSummary": {
            "type": "object",
            "properties": {
                "category_id": {"type": "integer"},
                "total_participants": {"type": "integer"},
                "effective_size": {"type": "integer"},
                "rounds": {"type": "integer"},
                "matches": {"type": "array", "items": {"$ref": "#/definitions/services.MatchView"}}
            }
        },
        "services.BracketExport": {
            "type": "object",
            "properties": {
                "category_id": {"type": "integer"},
                "key": {"type": "string"},
                "url": {"type": "string"},
                "etag": {"type": "string"},
                "exported_at": {"type": "string", "format": "date-time"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Arenaflow Bracket API",
	Description:      "Single elimination draws for racket-sport tournament categories.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
