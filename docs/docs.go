// Package docs registers the OpenAPI description of the directory API with swag.
// Regenerate with `swag init -g cmd/api/main.go` after changing handler annotations.
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
        "/v1/resolve/{lang}/{site}/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["routing"],
                "summary": "Resolve a public address",
                "parameters": [
                    {"type": "string", "description": "Language code (e.g. hu)", "name": "lang", "in": "path", "required": true},
                    {"type": "string", "description": "Site key", "name": "site", "in": "path", "required": true},
                    {"type": "string", "description": "Slug", "name": "slug", "in": "path", "required": true},
                    {"type": "string", "description": "Raw query string of the current page", "name": "query", "in": "query"},
                    {"type": "string", "description": "Fragment of the current page", "name": "fragment", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.resolveResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/{lang}/{site}/{slug}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["routing"],
                "summary": "Navigate to a public page",
                "parameters": [
                    {"type": "string", "description": "Language code", "name": "lang", "in": "path", "required": true},
                    {"type": "string", "description": "Site key", "name": "site", "in": "path", "required": true},
                    {"type": "string", "description": "Slug", "name": "slug", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.resolveResponse"}},
                    "302": {"description": "Found"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/v1/permissions/check": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["permissions"],
                "summary": "Evaluate a permission for the current user",
                "parameters": [
                    {"description": "Action and scope", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.permissionCheckRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EffectivePermission"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/v1/me/permissions/{action}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["permissions"],
                "summary": "Check a catalogued action for the current user",
                "parameters": [
                    {"type": "string", "description": "Action name (e.g. editPlace)", "name": "action", "in": "path", "required": true},
                    {"type": "string", "description": "Site scope", "name": "site_id", "in": "query"},
                    {"type": "string", "description": "Place scope", "name": "place_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.EffectivePermission"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/v1/admin/sites/{site}/bindings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bindings"],
                "summary": "Publish an entity under a slug",
                "parameters": [
                    {"type": "string", "description": "Site key", "name": "site", "in": "path", "required": true},
                    {"description": "Binding", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.bindingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.bindingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/v1/admin/sites/{site}/bindings/rename": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["bindings"],
                "summary": "Rename an entity's slug",
                "parameters": [
                    {"type": "string", "description": "Site key", "name": "site", "in": "path", "required": true},
                    {"description": "New binding", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.bindingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.bindingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "domain.Triple": {
            "type": "object",
            "properties": {
                "lang": {"type": "string"},
                "site_key": {"type": "string"},
                "slug": {"type": "string"}
            }
        },
        "domain.EntityRef": {
            "type": "object",
            "properties": {
                "entity_type": {"type": "string", "enum": ["place", "event", "static_page", "legal_page"]},
                "entity_id": {"type": "string"}
            }
        },
        "domain.EffectivePermission": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"},
                "winning_scope": {"type": "string", "enum": ["global", "site", "place", "none"]},
                "winning_role": {"type": "string", "enum": ["viewer", "editor", "siteadmin", "placeowner", "admin", "superadmin"]}
            }
        },
        "handler.resolveResponse": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["serve", "redirect"]},
                "location": {"type": "string"},
                "entity_type": {"type": "string"},
                "entity_id": {"type": "string"},
                "canonical": {"$ref": "#/definitions/domain.Triple"}
            }
        },
        "handler.permissionCheckRequest": {
            "type": "object",
            "required": ["action"],
            "properties": {
                "action": {"type": "string"},
                "required_role": {"type": "string"},
                "site_id": {"type": "string"},
                "place_id": {"type": "string"}
            }
        },
        "handler.bindingRequest": {
            "type": "object",
            "required": ["lang", "slug", "entity_type", "entity_id"],
            "properties": {
                "lang": {"type": "string"},
                "slug": {"type": "string"},
                "entity_type": {"type": "string", "enum": ["place", "event", "static_page", "legal_page"]},
                "entity_id": {"type": "string"}
            }
        },
        "handler.bindingResponse": {
            "type": "object",
            "properties": {
                "canonical": {"$ref": "#/definitions/domain.Triple"},
                "entity": {"$ref": "#/definitions/domain.EntityRef"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Directory Core API",
	Description:      "Slug resolution, canonical redirects and scoped permissions for the city directory.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
